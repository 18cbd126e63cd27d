package ledger

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
	"github.com/valhalla-so/valhalla-server/pkg/solana/system"
	"github.com/valhalla-so/valhalla-server/pkg/solana/token"
)

func processAssociatedTokenInstruction(ctx *InvokeContext, ix solana.Instruction) error {
	decompiled, err := token.DecompileCreateAssociatedAccount(ix)
	if err != nil {
		return errors.Wrap(ErrInvalidInstructionData, err.Error())
	}

	expected, bump, err := solana.FindProgramAddressAndBump(
		token.AssociatedTokenAccountProgramKey,
		decompiled.Owner,
		decompiled.TokenProgram,
		decompiled.Mint,
	)
	if err != nil {
		return err
	}
	if !bytes.Equal(expected, decompiled.Address) {
		return errors.Wrapf(ErrInvalidSeeds, "expected associated account %s", keyString(expected))
	}

	existing, err := ctx.txn.get(decompiled.Address)
	if err != nil {
		return err
	}
	if existing != nil && bytes.Equal(existing.Owner, decompiled.TokenProgram) {
		if !decompiled.Idempotent {
			return errors.Wrapf(ErrAccountAlreadyInUse, "account %s", keyString(decompiled.Address))
		}

		var account token.Account
		if !account.Unmarshal(existing.Data) {
			return ErrInvalidAccountData
		}
		if !bytes.Equal(account.Owner, decompiled.Owner) {
			return token.ErrorOwnerMismatch
		}
		if !bytes.Equal(account.Mint, decompiled.Mint) {
			return token.ErrorMintMismatch
		}
		return nil
	}

	mintInfo, err := ctx.GetAccount(decompiled.Mint)
	if err != nil {
		return err
	}
	if !bytes.Equal(mintInfo.Owner, decompiled.TokenProgram) {
		return ErrInvalidAccountOwner
	}

	var mint token.Mint
	if !mint.Unmarshal(mintInfo.Data) || !mint.IsInitialized {
		return token.ErrorUninitializedState
	}

	size := token.AccountSize
	if mint.TransferFeeConfig != nil {
		size = token.AccountWithTransferFeeSize
	}

	create := system.CreateAccount(
		decompiled.Subsidizer,
		decompiled.Address,
		decompiled.TokenProgram,
		system.RentExemptMinimum(size),
		uint64(size),
	)
	seeds := [][]byte{
		decompiled.Owner,
		decompiled.TokenProgram,
		decompiled.Mint,
		{bump},
	}
	if err := ctx.InvokeSigned(create, seeds); err != nil {
		return err
	}

	return ctx.Invoke(token.InitializeAccount3(
		decompiled.TokenProgram,
		decompiled.Address,
		decompiled.Mint,
		decompiled.Owner,
	))
}

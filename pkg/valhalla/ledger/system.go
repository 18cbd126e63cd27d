package ledger

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
	"github.com/valhalla-so/valhalla-server/pkg/solana/system"
)

func processSystemInstruction(ctx *InvokeContext, ix solana.Instruction) error {
	switch {
	case system.IsCreateAccount(ix.Data):
		return processCreateAccount(ctx, ix)
	case system.IsTransfer(ix.Data):
		return processTransfer(ctx, ix)
	}
	return errors.Wrapf(ErrInvalidInstructionData, "unsupported system command %d", system.Command(ix.Data))
}

func processCreateAccount(ctx *InvokeContext, ix solana.Instruction) error {
	decompiled, err := system.DecompileCreateAccount(ix)
	if err != nil {
		return errors.Wrap(ErrInvalidInstructionData, err.Error())
	}

	if !ctx.IsSigner(decompiled.Funder) || !ctx.IsSigner(decompiled.Address) {
		return ErrMissingRequiredSignature
	}

	if decompiled.Lamports < system.RentExemptMinimum(int(decompiled.Size)) {
		return ErrInsufficientFundsForRent
	}

	existing, err := ctx.txn.get(decompiled.Address)
	if err != nil {
		return err
	}
	if existing != nil && (len(existing.Data) > 0 || !bytes.Equal(existing.Owner, systemProgramID())) {
		return errors.Wrapf(ErrAccountAlreadyInUse, "account %s", keyString(decompiled.Address))
	}

	if err := ctx.debit(decompiled.Funder, decompiled.Lamports); err != nil {
		return err
	}

	var lamports uint64
	if existing != nil {
		lamports = existing.Lamports
	}

	return ctx.create(decompiled.Address, &solana.AccountInfo{
		Data:     make([]byte, decompiled.Size),
		Owner:    decompiled.Owner,
		Lamports: lamports + decompiled.Lamports,
	})
}

func processTransfer(ctx *InvokeContext, ix solana.Instruction) error {
	decompiled, err := system.DecompileTransfer(ix)
	if err != nil {
		return errors.Wrap(ErrInvalidInstructionData, err.Error())
	}

	if !ctx.IsSigner(decompiled.From) {
		return ErrMissingRequiredSignature
	}

	from, err := ctx.GetAccount(decompiled.From)
	if err == ErrAccountNotFound {
		return ErrInsufficientLamports
	} else if err != nil {
		return err
	}
	if len(from.Data) > 0 {
		return errors.Wrap(ErrInvalidAccountData, "transfer source must not carry data")
	}

	if err := ctx.debit(decompiled.From, decompiled.Lamports); err != nil {
		return err
	}
	return ctx.credit(decompiled.To, decompiled.Lamports)
}

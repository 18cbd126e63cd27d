package ledger

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
	"github.com/valhalla-so/valhalla-server/pkg/solana/token"
)

// tokenProgram implements the subset of the token programs used by vaults.
// The same processor serves Token and Token-2022, and only the latter accepts
// the transfer fee extension.
type tokenProgram struct {
	id ed25519.PublicKey
}

func newTokenProgram(id ed25519.PublicKey) *tokenProgram {
	return &tokenProgram{id: id}
}

func (p *tokenProgram) is2022() bool {
	return bytes.Equal(p.id, token.Program2022Key)
}

func (p *tokenProgram) Process(ctx *InvokeContext, ix solana.Instruction) error {
	command, err := token.GetCommand(ix)
	if err != nil {
		return errors.Wrap(ErrInvalidInstructionData, err.Error())
	}

	switch command {
	case token.CommandInitializeMint2:
		return p.initializeMint(ctx, ix)
	case token.CommandInitializeAccount3:
		return p.initializeAccount(ctx, ix)
	case token.CommandTransferChecked:
		return p.transferChecked(ctx, ix)
	case token.CommandMintTo:
		return p.mintTo(ctx, ix)
	case token.CommandCloseAccount:
		return p.closeAccount(ctx, ix)
	case token.CommandTransferFeeExtension:
		if !p.is2022() || len(ix.Data) < 2 {
			return token.ErrorInvalidInstruction
		}

		switch ix.Data[1] {
		case token.TransferFeeCommandInitializeTransferFeeConfig:
			return p.initializeTransferFeeConfig(ctx, ix)
		case token.TransferFeeCommandHarvestWithheldTokensToMint:
			return p.harvestWithheldTokensToMint(ctx, ix)
		}
	}
	return token.ErrorInvalidInstruction
}

func (p *tokenProgram) initializeTransferFeeConfig(ctx *InvokeContext, ix solana.Instruction) error {
	decompiled, err := token.DecompileInitializeTransferFeeConfig(ix)
	if err != nil {
		return errors.Wrap(ErrInvalidInstructionData, err.Error())
	}

	info, err := p.getOwnedAccount(ctx, decompiled.Mint)
	if err != nil {
		return err
	}
	if len(info.Data) != token.MintWithTransferFeeSize {
		return ErrInvalidAccountData
	}
	if !isZero(info.Data) {
		return token.ErrorAlreadyInUse
	}
	if decompiled.BasisPoints > token.MaxBasisPoints {
		return ErrInvalidInstructionData
	}

	fee := token.TransferFee{
		MaximumFee:  decompiled.MaximumFee,
		BasisPoints: decompiled.BasisPoints,
	}
	mint := &token.Mint{
		TransferFeeConfig: &token.TransferFeeConfig{
			OlderTransferFee: fee,
			NewerTransferFee: fee,
		},
	}
	return ctx.SetAccountData(decompiled.Mint, mint.Marshal())
}

func (p *tokenProgram) initializeMint(ctx *InvokeContext, ix solana.Instruction) error {
	decompiled, err := token.DecompileInitializeMint2(ix)
	if err != nil {
		return errors.Wrap(ErrInvalidInstructionData, err.Error())
	}

	info, err := p.getOwnedAccount(ctx, decompiled.Mint)
	if err != nil {
		return err
	}

	var mint token.Mint
	switch {
	case len(info.Data) == token.MintSize && isZero(info.Data):
	case len(info.Data) == token.MintWithTransferFeeSize && p.is2022():
		// The extension must be initialized first
		if !mint.Unmarshal(info.Data) {
			return ErrInvalidAccountData
		}
	case len(info.Data) == token.MintSize:
		if mint.Unmarshal(info.Data) && mint.IsInitialized {
			return token.ErrorAlreadyInUse
		}
		return ErrInvalidAccountData
	default:
		return ErrInvalidAccountData
	}

	if mint.IsInitialized {
		return token.ErrorAlreadyInUse
	}

	mint.MintAuthority = decompiled.MintAuthority
	mint.Decimals = decompiled.Decimals
	mint.IsInitialized = true
	return ctx.SetAccountData(decompiled.Mint, mint.Marshal())
}

func (p *tokenProgram) initializeAccount(ctx *InvokeContext, ix solana.Instruction) error {
	decompiled, err := token.DecompileInitializeAccount3(ix)
	if err != nil {
		return errors.Wrap(ErrInvalidInstructionData, err.Error())
	}

	info, err := p.getOwnedAccount(ctx, decompiled.Account)
	if err != nil {
		return err
	}
	if !isZero(info.Data) {
		return token.ErrorAlreadyInUse
	}

	mint, err := p.getMint(ctx, decompiled.Mint)
	if err != nil {
		return err
	}

	account := &token.Account{
		Mint:  decompiled.Mint,
		Owner: decompiled.Owner,
		State: token.AccountStateInitialized,
	}
	if mint.TransferFeeConfig != nil {
		var withheld uint64
		account.WithheldAmount = &withheld
	}

	data := account.Marshal()
	if len(data) != len(info.Data) {
		return ErrInvalidAccountData
	}
	return ctx.SetAccountData(decompiled.Account, data)
}

func (p *tokenProgram) transferChecked(ctx *InvokeContext, ix solana.Instruction) error {
	decompiled, err := token.DecompileTransferChecked(ix)
	if err != nil {
		return errors.Wrap(ErrInvalidInstructionData, err.Error())
	}

	mint, err := p.getMint(ctx, decompiled.Mint)
	if err != nil {
		return err
	}
	source, err := p.getTokenAccount(ctx, decompiled.Source)
	if err != nil {
		return err
	}
	destination, err := p.getTokenAccount(ctx, decompiled.Destination)
	if err != nil {
		return err
	}

	if !bytes.Equal(source.Mint, decompiled.Mint) || !bytes.Equal(destination.Mint, decompiled.Mint) {
		return token.ErrorMintMismatch
	}
	if !bytes.Equal(source.Owner, decompiled.Owner) {
		return token.ErrorOwnerMismatch
	}
	if !ctx.IsSigner(decompiled.Owner) {
		return ErrMissingRequiredSignature
	}
	if mint.Decimals != decompiled.Decimals {
		return token.ErrorMintDecimalsMismatch
	}
	if source.Amount < decompiled.Amount {
		return token.ErrorInsufficientFunds
	}

	if bytes.Equal(decompiled.Source, decompiled.Destination) {
		return nil
	}

	var fee uint64
	if mint.TransferFeeConfig != nil {
		fee = mint.TransferFeeConfig.CalculateFee(decompiled.Amount)
	}

	received := decompiled.Amount - fee
	if destination.Amount+received < destination.Amount {
		return token.ErrorOverflow
	}

	source.Amount -= decompiled.Amount
	destination.Amount += received
	if fee > 0 {
		if destination.WithheldAmount == nil {
			return ErrInvalidAccountData
		}
		withheld := *destination.WithheldAmount + fee
		destination.WithheldAmount = &withheld
	}

	if err := ctx.SetAccountData(decompiled.Source, source.Marshal()); err != nil {
		return err
	}
	return ctx.SetAccountData(decompiled.Destination, destination.Marshal())
}

func (p *tokenProgram) mintTo(ctx *InvokeContext, ix solana.Instruction) error {
	decompiled, err := token.DecompileMintTo(ix)
	if err != nil {
		return errors.Wrap(ErrInvalidInstructionData, err.Error())
	}

	mint, err := p.getMint(ctx, decompiled.Mint)
	if err != nil {
		return err
	}
	destination, err := p.getTokenAccount(ctx, decompiled.Destination)
	if err != nil {
		return err
	}

	if !bytes.Equal(destination.Mint, decompiled.Mint) {
		return token.ErrorMintMismatch
	}
	if len(mint.MintAuthority) == 0 || !bytes.Equal(mint.MintAuthority, decompiled.MintAuthority) {
		return token.ErrorOwnerMismatch
	}
	if !ctx.IsSigner(decompiled.MintAuthority) {
		return ErrMissingRequiredSignature
	}
	if mint.Supply+decompiled.Amount < mint.Supply {
		return token.ErrorOverflow
	}

	mint.Supply += decompiled.Amount
	destination.Amount += decompiled.Amount

	if err := ctx.SetAccountData(decompiled.Mint, mint.Marshal()); err != nil {
		return err
	}
	return ctx.SetAccountData(decompiled.Destination, destination.Marshal())
}

func (p *tokenProgram) closeAccount(ctx *InvokeContext, ix solana.Instruction) error {
	decompiled, err := token.DecompileCloseAccount(ix)
	if err != nil {
		return errors.Wrap(ErrInvalidInstructionData, err.Error())
	}

	account, err := p.getTokenAccount(ctx, decompiled.Account)
	if err != nil {
		return err
	}

	authority := account.Owner
	if len(account.CloseAuthority) > 0 {
		authority = account.CloseAuthority
	}
	if !bytes.Equal(authority, decompiled.Owner) {
		return token.ErrorOwnerMismatch
	}
	if !ctx.IsSigner(decompiled.Owner) {
		return ErrMissingRequiredSignature
	}
	if account.Amount != 0 {
		return token.ErrorNonNativeHasBalance
	}
	if account.WithheldAmount != nil && *account.WithheldAmount > 0 {
		return ErrAccountHasWithheldFees
	}

	return ctx.CloseAccount(decompiled.Account, decompiled.Destination)
}

func (p *tokenProgram) harvestWithheldTokensToMint(ctx *InvokeContext, ix solana.Instruction) error {
	decompiled, err := token.DecompileHarvestWithheldTokensToMint(ix)
	if err != nil {
		return errors.Wrap(ErrInvalidInstructionData, err.Error())
	}

	mint, err := p.getMint(ctx, decompiled.Mint)
	if err != nil {
		return err
	}
	if mint.TransferFeeConfig == nil {
		return ErrInvalidAccountData
	}

	for _, key := range decompiled.Sources {
		source, err := p.getTokenAccount(ctx, key)
		if err != nil {
			return err
		}
		if !bytes.Equal(source.Mint, decompiled.Mint) {
			return token.ErrorMintMismatch
		}
		if source.WithheldAmount == nil || *source.WithheldAmount == 0 {
			continue
		}

		mint.TransferFeeConfig.WithheldAmount += *source.WithheldAmount
		var cleared uint64
		source.WithheldAmount = &cleared

		if err := ctx.SetAccountData(key, source.Marshal()); err != nil {
			return err
		}
	}

	return ctx.SetAccountData(decompiled.Mint, mint.Marshal())
}

func (p *tokenProgram) getOwnedAccount(ctx *InvokeContext, key ed25519.PublicKey) (*solana.AccountInfo, error) {
	info, err := ctx.GetAccount(key)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(info.Owner, p.id) {
		return nil, ErrInvalidAccountOwner
	}
	return info, nil
}

func (p *tokenProgram) getMint(ctx *InvokeContext, key ed25519.PublicKey) (*token.Mint, error) {
	info, err := p.getOwnedAccount(ctx, key)
	if err != nil {
		return nil, err
	}

	var mint token.Mint
	if !mint.Unmarshal(info.Data) || !mint.IsInitialized {
		return nil, token.ErrorUninitializedState
	}
	return &mint, nil
}

func (p *tokenProgram) getTokenAccount(ctx *InvokeContext, key ed25519.PublicKey) (*token.Account, error) {
	info, err := p.getOwnedAccount(ctx, key)
	if err != nil {
		return nil, err
	}

	var account token.Account
	if !account.Unmarshal(info.Data) || account.State == token.AccountStateUninitialized {
		return nil, token.ErrorUninitializedState
	}
	return &account, nil
}

func isZero(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}

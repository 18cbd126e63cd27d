package program

import (
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
	"github.com/valhalla-so/valhalla-server/pkg/solana/valhalla"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/ledger"
)

// disburse releases the next payout of a vault to its recipient. Anyone can
// disburse, and the caller is rewarded with governance tokens.
func (p *Program) disburse(ctx *ledger.InvokeContext, ix solana.Instruction) error {
	accounts, err := valhalla.DecompileDisburseInstruction(ix)
	if err != nil {
		return decompileError(err)
	}

	if err := requireSigner(ctx, accounts.Signer); err != nil {
		return err
	}

	config, err := loadConfig(ctx, accounts.Config)
	if err != nil {
		return err
	}
	if err := requireHasOne(accounts.GovernanceTokenMint, config.account.GovernanceTokenMint); err != nil {
		return err
	}

	vault, err := loadVault(ctx, accounts.Vault, accounts.Creator, accounts.VaultEscrow, accounts.Mint, accounts.TokenProgram)
	if err != nil {
		return err
	}
	if err := requireHasOne(accounts.Recipient, vault.account.Recipient); err != nil {
		return err
	}

	now := uint64(ctx.UnixTimestamp())
	escrowBalance := vault.escrowTokens.Amount
	if !vault.account.CanDisburse(escrowBalance, now) {
		return valhalla.ErrLocked
	}

	amount := vault.account.PayoutAmount(escrowBalance)

	err = getOrCreateAssociatedTokenAccount(
		ctx,
		accounts.Signer,
		accounts.Recipient,
		accounts.Mint,
		accounts.TokenProgram,
		accounts.RecipientTokenAccount,
	)
	if err != nil {
		return err
	}
	if err := vault.transferFromEscrow(ctx, accounts.RecipientTokenAccount, amount); err != nil {
		return err
	}

	vault.account.RecordPayout(now)
	if err := vault.save(ctx); err != nil {
		return err
	}

	err = mintGovernanceReward(
		ctx,
		config,
		accounts.Signer,
		accounts.Signer,
		accounts.SignerGovernanceTokenAccount,
		config.account.GovernanceTokenAmount,
	)
	if err != nil {
		return err
	}

	p.log.WithFields(logrus.Fields{
		"method":   "disburse",
		"vault":    base58.Encode(accounts.Vault),
		"signer":   base58.Encode(accounts.Signer),
		"amount":   amount,
		"payments": vault.account.NumberOfPaymentsMade,
	}).Debug("payout released")

	return nil
}

package program

import (
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
	"github.com/valhalla-so/valhalla-server/pkg/solana/token"
	"github.com/valhalla-so/valhalla-server/pkg/solana/valhalla"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/ledger"
)

// cancel returns everything left in escrow to the creator and destroys the
// vault. The caller must satisfy the vault's cancel authority.
func (p *Program) cancel(ctx *ledger.InvokeContext, ix solana.Instruction) error {
	accounts, err := valhalla.DecompileCancelInstruction(ix)
	if err != nil {
		return decompileError(err)
	}

	if err := requireSigner(ctx, accounts.Signer); err != nil {
		return err
	}

	vault, err := loadVault(ctx, accounts.Vault, accounts.Creator, accounts.VaultEscrow, accounts.Mint, accounts.TokenProgram)
	if err != nil {
		return err
	}
	if err := requireHasOne(accounts.Recipient, vault.account.Recipient); err != nil {
		return err
	}

	if !vault.account.CanCancel(accounts.Signer) {
		return valhalla.ErrUnauthorized
	}

	// Fees withheld in the escrow would otherwise block closing it
	if vault.mint.TransferFeeConfig != nil && vault.escrowWithheldAmount() > 0 {
		if err := ctx.Invoke(token.HarvestWithheldTokensToMint(accounts.Mint, vault.escrow)); err != nil {
			return err
		}
	}

	err = getOrCreateAssociatedTokenAccount(
		ctx,
		accounts.Signer,
		accounts.Creator,
		accounts.Mint,
		accounts.TokenProgram,
		accounts.CreatorTokenAccount,
	)
	if err != nil {
		return err
	}

	remaining := vault.escrowTokens.Amount
	if remaining > 0 {
		if err := vault.transferFromEscrow(ctx, accounts.CreatorTokenAccount, remaining); err != nil {
			return err
		}
	}

	if err := vault.closeEscrow(ctx, accounts.Creator); err != nil {
		return err
	}
	if err := ctx.CloseAccount(vault.address, accounts.Creator); err != nil {
		return err
	}

	p.log.WithFields(logrus.Fields{
		"method":   "cancel",
		"vault":    base58.Encode(accounts.Vault),
		"signer":   base58.Encode(accounts.Signer),
		"returned": remaining,
	}).Debug("vault cancelled")

	return nil
}

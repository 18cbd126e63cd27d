package program

import (
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
	"github.com/valhalla-so/valhalla-server/pkg/solana/valhalla"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/ledger"
)

// close destroys a completed vault with an empty escrow, returning the rent of
// both accounts to the creator. Anyone can close a vault.
func (p *Program) close(ctx *ledger.InvokeContext, ix solana.Instruction) error {
	accounts, err := valhalla.DecompileCloseInstruction(ix)
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

	if !vault.account.CanClose(vault.escrowTokens.Amount, vault.escrowWithheldAmount()) {
		return valhalla.ErrLocked
	}

	if err := vault.closeEscrow(ctx, accounts.Creator); err != nil {
		return err
	}
	if err := ctx.CloseAccount(vault.address, accounts.Creator); err != nil {
		return err
	}

	p.log.WithFields(logrus.Fields{
		"method": "close",
		"vault":  base58.Encode(accounts.Vault),
	}).Debug("vault closed")

	return nil
}

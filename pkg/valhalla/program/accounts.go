package program

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/valhalla-so/valhalla-server/pkg/solana/system"
	"github.com/valhalla-so/valhalla-server/pkg/solana/token"
	"github.com/valhalla-so/valhalla-server/pkg/solana/valhalla"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/ledger"
)

func requireSigner(ctx *ledger.InvokeContext, key ed25519.PublicKey) error {
	if !ctx.IsSigner(key) {
		return errors.Wrap(ledger.ErrMissingRequiredSignature, "signer")
	}
	return nil
}

func requireAddress(actual, expected ed25519.PublicKey) error {
	if !bytes.Equal(actual, expected) {
		return valhalla.ErrConstraintSeeds
	}
	return nil
}

func requireHasOne(actual, expected ed25519.PublicKey) error {
	if !bytes.Equal(actual, expected) {
		return valhalla.ErrConstraintHasOne
	}
	return nil
}

// decompileError maps instruction decoding failures onto the program's
// error codes
func decompileError(err error) error {
	if err == valhalla.ErrInvalidInstructionData {
		return valhalla.ErrInstructionDidNotDeserialize
	}
	return err
}

func getProgramAccountData(ctx *ledger.InvokeContext, key ed25519.PublicKey) ([]byte, error) {
	info, err := ctx.GetAccount(key)
	if err == ledger.ErrAccountNotFound {
		return nil, valhalla.ErrAccountNotInitialized
	} else if err != nil {
		return nil, err
	}

	if !bytes.Equal(info.Owner, valhalla.PROGRAM_ID) {
		return nil, valhalla.ErrAccountOwnedByWrongProgram
	}
	return info.Data, nil
}

type configState struct {
	address ed25519.PublicKey
	bump    uint8
	account *valhalla.ConfigAccount
}

func loadConfig(ctx *ledger.InvokeContext, key ed25519.PublicKey) (*configState, error) {
	address, bump, err := valhalla.GetConfigAddress()
	if err != nil {
		return nil, err
	}
	if err := requireAddress(key, address); err != nil {
		return nil, err
	}

	data, err := getProgramAccountData(ctx, key)
	if err != nil {
		return nil, err
	}

	var account valhalla.ConfigAccount
	if err := account.Unmarshal(data); err != nil {
		return nil, valhalla.ErrAccountDiscriminatorMismatch
	}

	return &configState{
		address: address,
		bump:    bump,
		account: &account,
	}, nil
}

func (s *configState) save(ctx *ledger.InvokeContext) error {
	return ctx.SetAccountData(s.address, s.account.Marshal())
}

type vaultState struct {
	address ed25519.PublicKey
	account *valhalla.VaultAccount

	escrow       ed25519.PublicKey
	escrowSeeds  [][]byte
	escrowTokens *token.Account

	mint         *token.Mint
	tokenProgram ed25519.PublicKey
}

// loadVault loads a vault, its escrow and its mint, verifying every address
// against the vault's own state.
func loadVault(ctx *ledger.InvokeContext, vault, creator, escrow, mint, tokenProgram ed25519.PublicKey) (*vaultState, error) {
	data, err := getProgramAccountData(ctx, vault)
	if err != nil {
		return nil, err
	}

	var account valhalla.VaultAccount
	if err := account.Unmarshal(data); err != nil {
		return nil, valhalla.ErrAccountDiscriminatorMismatch
	}

	address, _, err := valhalla.GetVaultAddress(&valhalla.GetVaultAddressArgs{
		Identifier: account.Identifier,
		Creator:    account.Creator,
		Mint:       account.Mint,
	})
	if err != nil {
		return nil, err
	}
	if err := requireAddress(vault, address); err != nil {
		return nil, err
	}
	if err := requireHasOne(creator, account.Creator); err != nil {
		return nil, err
	}
	if err := requireHasOne(mint, account.Mint); err != nil {
		return nil, err
	}

	escrowAddress, escrowBump, err := valhalla.GetVaultEscrowAddress(&valhalla.GetVaultEscrowAddressArgs{
		Vault: vault,
	})
	if err != nil {
		return nil, err
	}
	if err := requireAddress(escrow, escrowAddress); err != nil {
		return nil, err
	}
	if escrowBump != account.TokenAccountBump {
		return nil, valhalla.ErrConstraintSeeds
	}

	mintState, err := loadMint(ctx, mint, tokenProgram)
	if err != nil {
		return nil, err
	}

	escrowTokens, err := loadTokenAccount(ctx, escrow, tokenProgram)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(escrowTokens.Mint, mint) || !bytes.Equal(escrowTokens.Owner, escrow) {
		return nil, valhalla.ErrConstraintSeeds
	}

	return &vaultState{
		address:      vault,
		account:      &account,
		escrow:       escrow,
		escrowSeeds:  valhalla.VaultEscrowSeeds(vault, escrowBump),
		escrowTokens: escrowTokens,
		mint:         mintState,
		tokenProgram: tokenProgram,
	}, nil
}

func (s *vaultState) save(ctx *ledger.InvokeContext) error {
	return ctx.SetAccountData(s.address, s.account.Marshal())
}

func (s *vaultState) escrowWithheldAmount() uint64 {
	if s.escrowTokens.WithheldAmount == nil {
		return 0
	}
	return *s.escrowTokens.WithheldAmount
}

// transferFromEscrow moves amount out of the escrow, signing as the escrow's
// token authority
func (s *vaultState) transferFromEscrow(ctx *ledger.InvokeContext, destination ed25519.PublicKey, amount uint64) error {
	return ctx.InvokeSigned(
		token.TransferChecked(s.tokenProgram, s.escrow, s.account.Mint, destination, s.escrow, amount, s.mint.Decimals),
		s.escrowSeeds,
	)
}

func (s *vaultState) closeEscrow(ctx *ledger.InvokeContext, destination ed25519.PublicKey) error {
	return ctx.InvokeSigned(
		token.CloseAccount(s.tokenProgram, s.escrow, destination, s.escrow),
		s.escrowSeeds,
	)
}

func loadMint(ctx *ledger.InvokeContext, key, tokenProgram ed25519.PublicKey) (*token.Mint, error) {
	if !token.IsTokenProgram(tokenProgram) {
		return nil, ledger.ErrInvalidAccountOwner
	}

	info, err := ctx.GetAccount(key)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(info.Owner, tokenProgram) {
		return nil, ledger.ErrInvalidAccountOwner
	}

	var mint token.Mint
	if !mint.Unmarshal(info.Data) || !mint.IsInitialized {
		return nil, ledger.ErrUninitializedState
	}
	return &mint, nil
}

func loadTokenAccount(ctx *ledger.InvokeContext, key, tokenProgram ed25519.PublicKey) (*token.Account, error) {
	info, err := ctx.GetAccount(key)
	if err == ledger.ErrAccountNotFound {
		return nil, valhalla.ErrAccountNotInitialized
	} else if err != nil {
		return nil, err
	}
	if !bytes.Equal(info.Owner, tokenProgram) {
		return nil, ledger.ErrInvalidAccountOwner
	}

	var account token.Account
	if !account.Unmarshal(info.Data) {
		return nil, ledger.ErrInvalidAccountData
	}
	return &account, nil
}

// createProgramAccount allocates a rent exempt account of size bytes at a
// program derived address
func createProgramAccount(ctx *ledger.InvokeContext, payer, address, owner ed25519.PublicKey, size int, seeds [][]byte) error {
	return ctx.InvokeSigned(
		system.CreateAccount(payer, address, owner, system.RentExemptMinimum(size), uint64(size)),
		seeds,
	)
}

// getOrCreateAssociatedTokenAccount idempotently creates the associated token
// account of wallet, which must be at expected
func getOrCreateAssociatedTokenAccount(ctx *ledger.InvokeContext, payer, wallet, mint, tokenProgram, expected ed25519.PublicKey) error {
	ix, address, err := token.CreateAssociatedTokenAccountIdempotent(payer, wallet, mint, tokenProgram)
	if err != nil {
		return err
	}
	if err := requireAddress(expected, address); err != nil {
		return err
	}
	return ctx.Invoke(ix)
}

// mintGovernanceReward mints the reward token under the program's mint
// authority to the associated token account of receiver
func mintGovernanceReward(ctx *ledger.InvokeContext, config *configState, payer, receiver, receiverTokenAccount ed25519.PublicKey, amount uint64) error {
	if amount == 0 {
		return nil
	}

	mint, bump, err := valhalla.GetGovernanceTokenMintAddress()
	if err != nil {
		return err
	}
	if err := requireHasOne(mint, config.account.GovernanceTokenMint); err != nil {
		return err
	}

	if err := getOrCreateAssociatedTokenAccount(ctx, payer, receiver, mint, token.ProgramKey, receiverTokenAccount); err != nil {
		return err
	}

	return ctx.InvokeSigned(
		token.MintTo(token.ProgramKey, mint, receiverTokenAccount, mint, amount),
		valhalla.GovernanceTokenMintSeeds(bump),
	)
}

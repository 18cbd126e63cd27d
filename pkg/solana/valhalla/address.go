package valhalla

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
)

var (
	ConfigPrefix              = []byte("config")
	VaultPrefix               = []byte("vault")
	VaultEscrowPrefix         = []byte("vault_ata")
	GovernanceTokenMintPrefix = []byte("governance_token_mint")
)

func GetConfigAddress() (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		ConfigPrefix,
	)
}

func GetGovernanceTokenMintAddress() (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		GovernanceTokenMintPrefix,
	)
}

type GetVaultAddressArgs struct {
	Identifier uint64
	Creator    ed25519.PublicKey
	Mint       ed25519.PublicKey
}

func GetVaultAddress(args *GetVaultAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		vaultSeeds(args)...,
	)
}

func vaultSeeds(args *GetVaultAddressArgs) [][]byte {
	identifier := make([]byte, 8)
	binary.LittleEndian.PutUint64(identifier, args.Identifier)

	return [][]byte{identifier, args.Creator, args.Mint, VaultPrefix}
}

type GetVaultEscrowAddressArgs struct {
	Vault ed25519.PublicKey
}

// GetVaultEscrowAddress returns the escrow token account of a vault. The
// escrow is its own token authority, so the same seeds sign for it.
func GetVaultEscrowAddress(args *GetVaultEscrowAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		args.Vault,
		VaultEscrowPrefix,
	)
}

// VaultEscrowSeeds are the signer seeds of the escrow token account.
func VaultEscrowSeeds(vault ed25519.PublicKey, bump uint8) [][]byte {
	return [][]byte{vault, VaultEscrowPrefix, {bump}}
}

// GovernanceTokenMintSeeds are the signer seeds of the governance mint.
func GovernanceTokenMintSeeds(bump uint8) [][]byte {
	return [][]byte{GovernanceTokenMintPrefix, {bump}}
}

func ConfigSeeds(bump uint8) [][]byte {
	return [][]byte{ConfigPrefix, {bump}}
}

// VaultSeeds are the signer seeds of a vault account
func VaultSeeds(args *GetVaultAddressArgs, bump uint8) [][]byte {
	return append(vaultSeeds(args), []byte{bump})
}

package valhalla

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
)

func TestAddresses(t *testing.T) {
	config, configBump, err := GetConfigAddress()
	require.NoError(t, err)
	assert.False(t, solana.IsOnCurve(config))

	signer, err := solana.CreateProgramAddress(PROGRAM_ID, ConfigSeeds(configBump)...)
	require.NoError(t, err)
	assert.Equal(t, config, signer)

	mint, mintBump, err := GetGovernanceTokenMintAddress()
	require.NoError(t, err)
	assert.NotEqual(t, config, mint)

	signer, err = solana.CreateProgramAddress(PROGRAM_ID, GovernanceTokenMintSeeds(mintBump)...)
	require.NoError(t, err)
	assert.Equal(t, mint, signer)

	creator := newKey(t)
	tokenMint := newKey(t)

	vaultArgs := &GetVaultAddressArgs{
		Identifier: 1,
		Creator:    creator,
		Mint:       tokenMint,
	}
	vault, vaultBump, err := GetVaultAddress(vaultArgs)
	require.NoError(t, err)

	signer, err = solana.CreateProgramAddress(PROGRAM_ID, VaultSeeds(vaultArgs, vaultBump)...)
	require.NoError(t, err)
	assert.Equal(t, vault, signer)

	again, _, err := GetVaultAddress(&GetVaultAddressArgs{
		Identifier: 1,
		Creator:    creator,
		Mint:       tokenMint,
	})
	require.NoError(t, err)
	assert.Equal(t, vault, again)

	other, _, err := GetVaultAddress(&GetVaultAddressArgs{
		Identifier: 2,
		Creator:    creator,
		Mint:       tokenMint,
	})
	require.NoError(t, err)
	assert.NotEqual(t, vault, other)

	escrow, escrowBump, err := GetVaultEscrowAddress(&GetVaultEscrowAddressArgs{
		Vault: vault,
	})
	require.NoError(t, err)

	signer, err = solana.CreateProgramAddress(PROGRAM_ID, VaultEscrowSeeds(vault, escrowBump)...)
	require.NoError(t, err)
	assert.Equal(t, escrow, signer)
}

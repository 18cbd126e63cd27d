package system

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
)

func TestCreateAccount(t *testing.T) {
	keys := generateKeys(t, 3)

	instruction := CreateAccount(keys[0], keys[1], keys[2], 12345, 67890)
	assert.True(t, IsCreateAccount(instruction.Data))
	assert.False(t, IsTransfer(instruction.Data))

	decompiled, err := DecompileCreateAccount(instruction)
	require.NoError(t, err)
	assert.EqualValues(t, keys[0], decompiled.Funder)
	assert.EqualValues(t, keys[1], decompiled.Address)
	assert.EqualValues(t, keys[2], decompiled.Owner)
	assert.EqualValues(t, 12345, decompiled.Lamports)
	assert.EqualValues(t, 67890, decompiled.Size)

	instruction.Program = keys[2]
	_, err = DecompileCreateAccount(instruction)
	assert.Equal(t, solana.ErrIncorrectProgram, err)
}

func TestTransfer(t *testing.T) {
	keys := generateKeys(t, 2)

	instruction := Transfer(keys[0], keys[1], 42)
	assert.True(t, instruction.IsSigner(keys[0]))
	assert.False(t, instruction.IsSigner(keys[1]))
	assert.True(t, instruction.IsWritable(keys[1]))

	decompiled, err := DecompileTransfer(instruction)
	require.NoError(t, err)
	assert.EqualValues(t, keys[0], decompiled.From)
	assert.EqualValues(t, keys[1], decompiled.To)
	assert.EqualValues(t, 42, decompiled.Lamports)

	_, err = DecompileCreateAccount(instruction)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)
}

func TestRentExemptMinimum(t *testing.T) {
	// 165 byte token account
	assert.EqualValues(t, 2039280, RentExemptMinimum(165))
	assert.EqualValues(t, 890880, RentExemptMinimum(0))
}

func generateKeys(t *testing.T, amount int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, amount)

	for i := range keys {
		pub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)

		keys[i] = pub
	}

	return keys
}

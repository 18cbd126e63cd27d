// Package ledgertest provides helpers for setting up ledger state in tests.
package ledgertest

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
	"github.com/valhalla-so/valhalla-server/pkg/solana/system"
	"github.com/valhalla-so/valhalla-server/pkg/solana/token"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/ledger"
)

// DefaultAirdrop is enough lamports to pay rent and fees for any test
const DefaultAirdrop = 100 * system.LamportsPerSol

func NewKey(t *testing.T) ed25519.PrivateKey {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return key
}

func Public(key ed25519.PrivateKey) ed25519.PublicKey {
	return key.Public().(ed25519.PublicKey)
}

// NewFundedKey returns a new key holding DefaultAirdrop lamports
func NewFundedKey(t *testing.T, l *ledger.Ledger) ed25519.PrivateKey {
	key := NewKey(t)
	require.NoError(t, l.Airdrop(context.Background(), Public(key), DefaultAirdrop))
	return key
}

// CreateMint creates and initializes a mint owned by program with payer as the
// mint authority. A non-nil fee requires Token-2022 and enables the transfer
// fee extension.
func CreateMint(t *testing.T, l *ledger.Ledger, payer ed25519.PrivateKey, program ed25519.PublicKey, decimals uint8, fee *token.TransferFee) ed25519.PublicKey {
	mint := NewKey(t)

	size := token.MintSize
	if fee != nil {
		size = token.MintWithTransferFeeSize
	}

	instructions := []solana.Instruction{
		system.CreateAccount(
			Public(payer),
			Public(mint),
			program,
			system.RentExemptMinimum(size),
			uint64(size),
		),
	}
	if fee != nil {
		instructions = append(instructions, token.InitializeTransferFeeConfig(Public(mint), fee.BasisPoints, fee.MaximumFee))
	}
	instructions = append(instructions, token.InitializeMint2(program, Public(mint), Public(payer), decimals))

	_, err := l.Submit(context.Background(), []ed25519.PrivateKey{payer, mint}, instructions...)
	require.NoError(t, err)

	return Public(mint)
}

// CreateAssociatedTokenAccount creates the associated token account of owner
// for mint, paid for by payer.
func CreateAssociatedTokenAccount(t *testing.T, l *ledger.Ledger, payer ed25519.PrivateKey, owner, mint, program ed25519.PublicKey) ed25519.PublicKey {
	ix, address, err := token.CreateAssociatedTokenAccountIdempotent(Public(payer), owner, mint, program)
	require.NoError(t, err)

	_, err = l.Submit(context.Background(), []ed25519.PrivateKey{payer}, ix)
	require.NoError(t, err)

	return address
}

// MintTo mints amount to destination. The authority must be the mint's
// authority.
func MintTo(t *testing.T, l *ledger.Ledger, authority ed25519.PrivateKey, mint, destination, program ed25519.PublicKey, amount uint64) {
	_, err := l.Submit(
		context.Background(),
		[]ed25519.PrivateKey{authority},
		token.MintTo(program, mint, destination, Public(authority), amount),
	)
	require.NoError(t, err)
}

func GetTokenAccount(t *testing.T, l *ledger.Ledger, key ed25519.PublicKey) *token.Account {
	info, err := l.GetAccountInfo(context.Background(), key)
	require.NoError(t, err)

	var account token.Account
	require.True(t, account.Unmarshal(info.Data))
	return &account
}

func GetMint(t *testing.T, l *ledger.Ledger, key ed25519.PublicKey) *token.Mint {
	info, err := l.GetAccountInfo(context.Background(), key)
	require.NoError(t, err)

	var mint token.Mint
	require.True(t, mint.Unmarshal(info.Data))
	return &mint
}

func GetTokenBalance(t *testing.T, l *ledger.Ledger, key ed25519.PublicKey) uint64 {
	return GetTokenAccount(t, l, key).Amount
}

// GetWithheldAmount returns the transfer fees withheld in a token account
func GetWithheldAmount(t *testing.T, l *ledger.Ledger, key ed25519.PublicKey) uint64 {
	account := GetTokenAccount(t, l, key)
	if account.WithheldAmount == nil {
		return 0
	}
	return *account.WithheldAmount
}

func RequireAccountNotFound(t *testing.T, l *ledger.Ledger, key ed25519.PublicKey) {
	_, err := l.GetAccountInfo(context.Background(), key)
	require.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

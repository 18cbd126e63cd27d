// Package valhallatest sets up a ledger with the vault program and a config
// for tests.
package valhallatest

import (
	"context"
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/valhalla-so/valhalla-server/pkg/solana/token"
	"github.com/valhalla-so/valhalla-server/pkg/solana/valhalla"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/client"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/ledger"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/ledger/ledgertest"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/program"
)

const (
	DefaultDevFee                = valhalla.MinSolFee
	DefaultAutopayMultiplier     = 2
	DefaultTokenFeeBasisPoints   = 50
	DefaultGovernanceTokenAmount = 1_000_000_000

	DefaultMintDecimals = 6
)

var StartTime = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

type Environment struct {
	Ledger *ledger.Ledger
	Clock  *clockwork.FakeClock
	Client *client.Client

	Admin         ed25519.PrivateKey
	DevTreasury   ed25519.PublicKey
	DaoTreasury   ed25519.PublicKey
	MintAuthority ed25519.PrivateKey
}

// NewEnvironment returns an environment with a config created using the
// default fees
func NewEnvironment(t *testing.T) *Environment {
	env := NewEnvironmentWithoutConfig(t)

	_, err := env.Client.CreateConfig(context.Background(), env.Admin, env.DefaultConfigArgs())
	require.NoError(t, err)

	return env
}

func NewEnvironmentWithoutConfig(t *testing.T) *Environment {
	clock := clockwork.NewFakeClockAt(StartTime)
	l := ledger.New(clock)
	program.New().Register(l)

	return &Environment{
		Ledger:        l,
		Clock:         clock,
		Client:        client.New(l),
		Admin:         ledgertest.NewFundedKey(t, l),
		DevTreasury:   ledgertest.Public(ledgertest.NewKey(t)),
		DaoTreasury:   ledgertest.Public(ledgertest.NewKey(t)),
		MintAuthority: ledgertest.NewFundedKey(t, l),
	}
}

func (e *Environment) DefaultConfigArgs() *client.CreateConfigArgs {
	return &client.CreateConfigArgs{
		DevTreasury:           e.DevTreasury,
		DaoTreasury:           e.DaoTreasury,
		Name:                  "Valhalla",
		Symbol:                "ODIN",
		Uri:                   "https://valhalla.so/metadata.json",
		Decimals:              valhalla.GovernanceTokenDecimals,
		DevFee:                DefaultDevFee,
		AutopayMultiplier:     DefaultAutopayMultiplier,
		TokenFeeBasisPoints:   DefaultTokenFeeBasisPoints,
		GovernanceTokenAmount: DefaultGovernanceTokenAmount,
	}
}

// NewMint creates a mint under program. A non-nil fee creates a Token-2022
// mint with the transfer fee extension.
func (e *Environment) NewMint(t *testing.T, program ed25519.PublicKey, fee *token.TransferFee) ed25519.PublicKey {
	return ledgertest.CreateMint(t, e.Ledger, e.MintAuthority, program, DefaultMintDecimals, fee)
}

// NewWallet returns a funded key whose associated token account for mint
// holds amount tokens
func (e *Environment) NewWallet(t *testing.T, mint, program ed25519.PublicKey, amount uint64) ed25519.PrivateKey {
	wallet := ledgertest.NewFundedKey(t, e.Ledger)
	account := ledgertest.CreateAssociatedTokenAccount(t, e.Ledger, wallet, ledgertest.Public(wallet), mint, program)
	if amount > 0 {
		ledgertest.MintTo(t, e.Ledger, e.MintAuthority, mint, account, program, amount)
	}
	return wallet
}

func (e *Environment) CreateVault(t *testing.T, creator ed25519.PrivateKey, args *client.CreateVaultArgs) ed25519.PublicKey {
	vault, _, err := e.Client.CreateVault(context.Background(), creator, args)
	require.NoError(t, err)
	return vault
}

// Now is the ledger clock in unix seconds
func (e *Environment) Now() uint64 {
	return uint64(e.Clock.Now().Unix())
}

func (e *Environment) Advance(d time.Duration) {
	e.Clock.Advance(d)
}

// TokenBalance returns the balance of the associated token account of wallet
// for mint, or zero if it doesn't exist
func (e *Environment) TokenBalance(t *testing.T, wallet, mint, program ed25519.PublicKey) uint64 {
	address, err := token.GetAssociatedAccountForProgram(wallet, mint, program)
	require.NoError(t, err)

	if _, err := e.Ledger.GetAccountInfo(context.Background(), address); err == ledger.ErrAccountNotFound {
		return 0
	}
	return ledgertest.GetTokenBalance(t, e.Ledger, address)
}

func (e *Environment) GovernanceTokenBalance(t *testing.T, wallet ed25519.PublicKey) uint64 {
	mint, _, err := valhalla.GetGovernanceTokenMintAddress()
	require.NoError(t, err)
	return e.TokenBalance(t, wallet, mint, token.ProgramKey)
}

func (e *Environment) Balance(t *testing.T, key ed25519.PublicKey) uint64 {
	balance, err := e.Ledger.GetBalance(context.Background(), key)
	require.NoError(t, err)
	return balance
}

// Vault is a vault funded by its own creator and mint
type Vault struct {
	Address   ed25519.PublicKey
	Mint      ed25519.PublicKey
	Creator   ed25519.PrivateKey
	Recipient ed25519.PrivateKey
}

// NewVestingVault creates a vault releasing amount tokens of a new mint over
// payouts payouts, one per second starting now.
func (e *Environment) NewVestingVault(t *testing.T, amount, payouts uint64, autopay bool) *Vault {
	mint := e.NewMint(t, token.ProgramKey, nil)
	v := &Vault{
		Mint:      mint,
		Creator:   e.NewWallet(t, mint, token.ProgramKey, amount),
		Recipient: ledgertest.NewFundedKey(t, e.Ledger),
	}

	v.Address = e.CreateVault(t, v.Creator, &client.CreateVaultArgs{
		Identifier:           1,
		Name:                 "vesting",
		Recipient:            ledgertest.Public(v.Recipient),
		Mint:                 mint,
		AmountToBeVested:     amount,
		TotalVestingDuration: payouts,
		StartDate:            e.Now(),
		PayoutInterval:       1,
		CancelAuthority:      valhalla.AuthorityCreator,
		Autopay:              autopay,
	})
	return v
}

// RecipientBalance is the amount released to the recipient so far
func (v *Vault) RecipientBalance(t *testing.T, e *Environment) uint64 {
	return e.TokenBalance(t, ledgertest.Public(v.Recipient), v.Mint, token.ProgramKey)
}

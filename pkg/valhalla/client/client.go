package client

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/valhalla-so/valhalla-server/pkg/metrics"
	"github.com/valhalla-so/valhalla-server/pkg/solana"
	"github.com/valhalla-so/valhalla-server/pkg/solana/token"
	"github.com/valhalla-so/valhalla-server/pkg/solana/valhalla"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/ledger"
)

const metricsComponentName = "valhalla.client"

var (
	ErrConfigNotFound = errors.New("config not found")
	ErrVaultNotFound  = errors.New("vault not found")
	ErrMintNotFound   = errors.New("mint not found")
	ErrEscrowNotFound = errors.New("vault escrow not found")
)

// Ledger is the subset of the ledger used by the client
type Ledger interface {
	Submit(ctx context.Context, signers []ed25519.PrivateKey, instructions ...solana.Instruction) (*ledger.Receipt, error)
	GetAccountInfo(ctx context.Context, key ed25519.PublicKey) (*solana.AccountInfo, error)
	GetProgramAccounts(ctx context.Context, program ed25519.PublicKey, filters ...solana.AccountFilter) ([]solana.KeyedAccount, error)
	GetBlockTime(ctx context.Context) (time.Time, error)
	GetSlot(ctx context.Context) (uint64, error)
}

// Client reads vault program state and submits vault program instructions
type Client struct {
	log    *logrus.Entry
	ledger Ledger
}

func New(l Ledger) *Client {
	return &Client{
		log:    logrus.StandardLogger().WithField("type", "valhalla/client"),
		ledger: l,
	}
}

// Vault is a vault account together with its address
type Vault struct {
	Address ed25519.PublicKey
	Account *valhalla.VaultAccount
}

// Mint is a mint together with the token program that owns it
type Mint struct {
	Address      ed25519.PublicKey
	TokenProgram ed25519.PublicKey
	Account      *token.Mint
}

// Escrow is the token account holding a vault's unreleased tokens
type Escrow struct {
	Address        ed25519.PublicKey
	Balance        uint64
	WithheldAmount uint64
}

func (c *Client) GetConfig(ctx context.Context) (*valhalla.ConfigAccount, error) {
	address, _, err := valhalla.GetConfigAddress()
	if err != nil {
		return nil, err
	}

	info, err := c.ledger.GetAccountInfo(ctx, address)
	if err == ledger.ErrAccountNotFound {
		return nil, ErrConfigNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "error getting config account")
	}

	var config valhalla.ConfigAccount
	if err := config.Unmarshal(info.Data); err != nil {
		return nil, errors.Wrap(err, "invalid config account")
	}
	return &config, nil
}

func (c *Client) GetVault(ctx context.Context, address ed25519.PublicKey) (*valhalla.VaultAccount, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsComponentName, "GetVault")
	defer tracer.End()

	info, err := c.ledger.GetAccountInfo(ctx, address)
	if err == ledger.ErrAccountNotFound {
		return nil, ErrVaultNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "error getting vault account")
	}

	if !bytes.Equal(info.Owner, valhalla.PROGRAM_ID) {
		return nil, ErrVaultNotFound
	}

	var vault valhalla.VaultAccount
	if err := vault.Unmarshal(info.Data); err != nil {
		return nil, ErrVaultNotFound
	}
	return &vault, nil
}

// VaultFilter narrows vault enumeration. Unset fields match every vault.
type VaultFilter struct {
	Creator   ed25519.PublicKey
	Recipient ed25519.PublicKey
	Mint      ed25519.PublicKey
	Name      *[valhalla.NameSize]byte
	Autopay   *bool
}

func (f *VaultFilter) filters() []solana.AccountFilter {
	filters := []solana.AccountFilter{
		solana.DataSizeFilter{Size: valhalla.VaultAccountSize},
		valhalla.VaultAccountFilter(),
	}
	if f == nil {
		return filters
	}

	if len(f.Creator) > 0 {
		filters = append(filters, valhalla.VaultCreatorFilter(f.Creator))
	}
	if len(f.Recipient) > 0 {
		filters = append(filters, valhalla.VaultRecipientFilter(f.Recipient))
	}
	if len(f.Mint) > 0 {
		filters = append(filters, valhalla.VaultMintFilter(f.Mint))
	}
	if f.Name != nil {
		filters = append(filters, valhalla.VaultNameFilter(*f.Name))
	}
	if f.Autopay != nil {
		filters = append(filters, valhalla.VaultAutopayFilter(*f.Autopay))
	}
	return filters
}

// GetVaults enumerates vault accounts matching filter, without decoding
// accounts that don't match. It returns the slot the results were read at.
func (c *Client) GetVaults(ctx context.Context, filter *VaultFilter) ([]*Vault, uint64, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsComponentName, "GetVaults")
	defer tracer.End()

	slot, err := c.ledger.GetSlot(ctx)
	if err != nil {
		tracer.OnError(err)
		return nil, 0, err
	}

	accounts, err := c.ledger.GetProgramAccounts(ctx, valhalla.PROGRAM_ID, filter.filters()...)
	if err != nil {
		tracer.OnError(err)
		return nil, 0, errors.Wrap(err, "error getting program accounts")
	}
	tracer.AddAttribute("accounts", len(accounts))

	vaults := make([]*Vault, 0, len(accounts))
	for _, account := range accounts {
		var vault valhalla.VaultAccount
		if err := vault.Unmarshal(account.Account.Data); err != nil {
			c.log.WithError(err).WithField("vault", base58.Encode(account.PublicKey)).Warn("skipping invalid vault account")
			continue
		}

		vaults = append(vaults, &Vault{
			Address: account.PublicKey,
			Account: &vault,
		})
	}
	return vaults, slot, nil
}

// GetMintWithTokenProgram loads a mint, trying the conventional token program
// before Token-2022.
func (c *Client) GetMintWithTokenProgram(ctx context.Context, address ed25519.PublicKey) (*Mint, error) {
	info, err := c.ledger.GetAccountInfo(ctx, address)
	if err == ledger.ErrAccountNotFound {
		return nil, ErrMintNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "error getting mint account")
	}

	for _, program := range []ed25519.PublicKey{token.ProgramKey, token.Program2022Key} {
		if !bytes.Equal(info.Owner, program) {
			continue
		}

		var mint token.Mint
		if !mint.Unmarshal(info.Data) || !mint.IsInitialized {
			return nil, ErrMintNotFound
		}

		return &Mint{
			Address:      address,
			TokenProgram: program,
			Account:      &mint,
		}, nil
	}
	return nil, ErrMintNotFound
}

func (c *Client) GetEscrow(ctx context.Context, vault ed25519.PublicKey) (*Escrow, error) {
	address, _, err := valhalla.GetVaultEscrowAddress(&valhalla.GetVaultEscrowAddressArgs{
		Vault: vault,
	})
	if err != nil {
		return nil, err
	}

	info, err := c.ledger.GetAccountInfo(ctx, address)
	if err == ledger.ErrAccountNotFound {
		return nil, ErrEscrowNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "error getting escrow account")
	}

	var account token.Account
	if !account.Unmarshal(info.Data) {
		return nil, ErrEscrowNotFound
	}

	escrow := &Escrow{
		Address: address,
		Balance: account.Amount,
	}
	if account.WithheldAmount != nil {
		escrow.WithheldAmount = *account.WithheldAmount
	}
	return escrow, nil
}

// CanDisburse evaluates the disbursement predicate against current ledger
// state. It is the same check the program performs, so a true result only
// fails on submission if state changes in between.
func (c *Client) CanDisburse(ctx context.Context, vault ed25519.PublicKey) (bool, error) {
	account, err := c.GetVault(ctx, vault)
	if err != nil {
		return false, err
	}

	escrow, err := c.GetEscrow(ctx, vault)
	if err != nil {
		return false, err
	}

	now, err := c.ledger.GetBlockTime(ctx)
	if err != nil {
		return false, err
	}

	return account.CanDisburse(escrow.Balance, uint64(now.Unix())), nil
}

package client

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/valhalla-so/valhalla-server/pkg/metrics"
	"github.com/valhalla-so/valhalla-server/pkg/solana"
	"github.com/valhalla-so/valhalla-server/pkg/solana/token"
	"github.com/valhalla-so/valhalla-server/pkg/solana/valhalla"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/ledger"
)

func (c *Client) submit(ctx context.Context, method string, signers []ed25519.PrivateKey, instructions ...solana.Instruction) (*ledger.Receipt, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsComponentName, method)
	defer tracer.End()

	receipt, err := c.ledger.Submit(ctx, signers, instructions...)
	if err != nil {
		c.log.WithError(err).WithField("method", method).Debug("transaction failed")
		tracer.OnError(err)
		return nil, err
	}

	tracer.AddAttribute("slot", receipt.Slot)
	return receipt, nil
}

type CreateConfigArgs struct {
	DevTreasury ed25519.PublicKey
	DaoTreasury ed25519.PublicKey

	Name                  string
	Symbol                string
	Uri                   string
	Decimals              uint8
	DevFee                uint64
	AutopayMultiplier     uint64
	TokenFeeBasisPoints   uint64
	GovernanceTokenAmount uint64
}

func (c *Client) CreateConfig(ctx context.Context, admin ed25519.PrivateKey, args *CreateConfigArgs) (*ledger.Receipt, error) {
	config, _, err := valhalla.GetConfigAddress()
	if err != nil {
		return nil, err
	}
	governanceTokenMint, _, err := valhalla.GetGovernanceTokenMintAddress()
	if err != nil {
		return nil, err
	}

	ix := valhalla.NewCreateConfigInstruction(
		&valhalla.CreateConfigInstructionAccounts{
			Admin:               public(admin),
			Config:              config,
			DevTreasury:         args.DevTreasury,
			DaoTreasury:         args.DaoTreasury,
			GovernanceTokenMint: governanceTokenMint,
		},
		&valhalla.CreateConfigInstructionArgs{
			Name:                  args.Name,
			Symbol:                args.Symbol,
			Uri:                   args.Uri,
			Decimals:              args.Decimals,
			DevFee:                args.DevFee,
			AutopayMultiplier:     args.AutopayMultiplier,
			TokenFeeBasisPoints:   args.TokenFeeBasisPoints,
			GovernanceTokenAmount: args.GovernanceTokenAmount,
		},
	)
	return c.submit(ctx, "CreateConfig", []ed25519.PrivateKey{admin}, ix)
}

func (c *Client) UpdateAdmin(ctx context.Context, admin ed25519.PrivateKey, newAdmin ed25519.PublicKey) (*ledger.Receipt, error) {
	config, _, err := valhalla.GetConfigAddress()
	if err != nil {
		return nil, err
	}

	ix := valhalla.NewUpdateAdminInstruction(&valhalla.UpdateAdminInstructionAccounts{
		Admin:    public(admin),
		Config:   config,
		NewAdmin: newAdmin,
	})
	return c.submit(ctx, "UpdateAdmin", []ed25519.PrivateKey{admin}, ix)
}

func (c *Client) UpdateDaoTreasury(ctx context.Context, admin ed25519.PrivateKey, newDaoTreasury ed25519.PublicKey) (*ledger.Receipt, error) {
	config, _, err := valhalla.GetConfigAddress()
	if err != nil {
		return nil, err
	}

	ix := valhalla.NewUpdateDaoTreasuryInstruction(&valhalla.UpdateDaoTreasuryInstructionAccounts{
		Admin:          public(admin),
		Config:         config,
		NewDaoTreasury: newDaoTreasury,
	})
	return c.submit(ctx, "UpdateDaoTreasury", []ed25519.PrivateKey{admin}, ix)
}

func (c *Client) UpdateDevFee(ctx context.Context, admin ed25519.PrivateKey, devFee uint64) (*ledger.Receipt, error) {
	config, _, err := valhalla.GetConfigAddress()
	if err != nil {
		return nil, err
	}

	ix := valhalla.NewUpdateDevFeeInstruction(
		&valhalla.UpdateDevFeeInstructionAccounts{
			Admin:  public(admin),
			Config: config,
		},
		&valhalla.UpdateDevFeeInstructionArgs{
			DevFee: devFee,
		},
	)
	return c.submit(ctx, "UpdateDevFee", []ed25519.PrivateKey{admin}, ix)
}

func (c *Client) UpdateTokenFeeBasisPoints(ctx context.Context, admin ed25519.PrivateKey, basisPoints uint64) (*ledger.Receipt, error) {
	config, _, err := valhalla.GetConfigAddress()
	if err != nil {
		return nil, err
	}

	ix := valhalla.NewUpdateTokenFeeBasisPointsInstruction(
		&valhalla.UpdateTokenFeeBasisPointsInstructionAccounts{
			Admin:  public(admin),
			Config: config,
		},
		&valhalla.UpdateTokenFeeBasisPointsInstructionArgs{
			TokenFeeBasisPoints: basisPoints,
		},
	)
	return c.submit(ctx, "UpdateTokenFeeBasisPoints", []ed25519.PrivateKey{admin}, ix)
}

func (c *Client) UpdateGovernanceTokenAmount(ctx context.Context, admin ed25519.PrivateKey, amount uint64) (*ledger.Receipt, error) {
	config, _, err := valhalla.GetConfigAddress()
	if err != nil {
		return nil, err
	}

	ix := valhalla.NewUpdateGovernanceTokenAmountInstruction(
		&valhalla.UpdateGovernanceTokenAmountInstructionAccounts{
			Admin:  public(admin),
			Config: config,
		},
		&valhalla.UpdateGovernanceTokenAmountInstructionArgs{
			GovernanceTokenAmount: amount,
		},
	)
	return c.submit(ctx, "UpdateGovernanceTokenAmount", []ed25519.PrivateKey{admin}, ix)
}

func (c *Client) MintGovernanceTokens(ctx context.Context, admin ed25519.PrivateKey, receiver ed25519.PublicKey, amount uint64) (*ledger.Receipt, error) {
	config, _, err := valhalla.GetConfigAddress()
	if err != nil {
		return nil, err
	}
	governanceTokenMint, _, err := valhalla.GetGovernanceTokenMintAddress()
	if err != nil {
		return nil, err
	}
	receiverTokenAccount, err := token.GetAssociatedAccount(receiver, governanceTokenMint)
	if err != nil {
		return nil, err
	}

	ix := valhalla.NewMintGovernanceTokensInstruction(
		&valhalla.MintGovernanceTokensInstructionAccounts{
			Admin:                public(admin),
			Receiver:             receiver,
			Config:               config,
			GovernanceTokenMint:  governanceTokenMint,
			ReceiverTokenAccount: receiverTokenAccount,
		},
		&valhalla.MintGovernanceTokensInstructionArgs{
			Amount: amount,
		},
	)
	return c.submit(ctx, "MintGovernanceTokens", []ed25519.PrivateKey{admin}, ix)
}

type CreateVaultArgs struct {
	Identifier           uint64
	Name                 string
	Recipient            ed25519.PublicKey
	Mint                 ed25519.PublicKey
	AmountToBeVested     uint64
	TotalVestingDuration uint64
	StartDate            uint64
	PayoutInterval       uint64
	CancelAuthority      valhalla.Authority
	Autopay              bool
}

// CreateVault creates a vault funded from the creator's associated token
// account and returns the vault's address.
func (c *Client) CreateVault(ctx context.Context, creator ed25519.PrivateKey, args *CreateVaultArgs) (ed25519.PublicKey, *ledger.Receipt, error) {
	config, err := c.GetConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	configAddress, _, err := valhalla.GetConfigAddress()
	if err != nil {
		return nil, nil, err
	}

	mint, err := c.GetMintWithTokenProgram(ctx, args.Mint)
	if err != nil {
		return nil, nil, err
	}

	vault, _, err := valhalla.GetVaultAddress(&valhalla.GetVaultAddressArgs{
		Identifier: args.Identifier,
		Creator:    public(creator),
		Mint:       args.Mint,
	})
	if err != nil {
		return nil, nil, err
	}
	escrow, _, err := valhalla.GetVaultEscrowAddress(&valhalla.GetVaultEscrowAddressArgs{
		Vault: vault,
	})
	if err != nil {
		return nil, nil, err
	}

	creatorTokenAccount, err := token.GetAssociatedAccountForProgram(public(creator), args.Mint, mint.TokenProgram)
	if err != nil {
		return nil, nil, err
	}
	daoTreasuryTokenAccount, err := token.GetAssociatedAccountForProgram(config.DaoTreasury, args.Mint, mint.TokenProgram)
	if err != nil {
		return nil, nil, err
	}
	creatorGovernanceTokenAccount, err := token.GetAssociatedAccount(public(creator), config.GovernanceTokenMint)
	if err != nil {
		return nil, nil, err
	}

	ix := valhalla.NewCreateInstruction(
		&valhalla.CreateInstructionAccounts{
			Creator:                       public(creator),
			Recipient:                     args.Recipient,
			DevTreasury:                   config.DevTreasury,
			DaoTreasury:                   config.DaoTreasury,
			Config:                        configAddress,
			Vault:                         vault,
			VaultEscrow:                   escrow,
			CreatorTokenAccount:           creatorTokenAccount,
			DaoTreasuryTokenAccount:       daoTreasuryTokenAccount,
			CreatorGovernanceTokenAccount: creatorGovernanceTokenAccount,
			Mint:                          args.Mint,
			GovernanceTokenMint:           config.GovernanceTokenMint,
			TokenProgram:                  mint.TokenProgram,
		},
		&valhalla.CreateInstructionArgs{
			Identifier:           args.Identifier,
			Name:                 valhalla.ToName(args.Name),
			AmountToBeVested:     args.AmountToBeVested,
			TotalVestingDuration: args.TotalVestingDuration,
			StartDate:            args.StartDate,
			PayoutInterval:       args.PayoutInterval,
			CancelAuthority:      args.CancelAuthority,
			Autopay:              args.Autopay,
		},
	)

	receipt, err := c.submit(ctx, "CreateVault", []ed25519.PrivateKey{creator}, ix)
	if err != nil {
		return nil, nil, err
	}
	return vault, receipt, nil
}

// vaultContext resolves the accounts shared by the vault lifecycle
// instructions
type vaultContext struct {
	address      ed25519.PublicKey
	account      *valhalla.VaultAccount
	escrow       ed25519.PublicKey
	tokenProgram ed25519.PublicKey
}

func (c *Client) getVaultContext(ctx context.Context, address ed25519.PublicKey) (*vaultContext, error) {
	account, err := c.GetVault(ctx, address)
	if err != nil {
		return nil, err
	}

	mint, err := c.GetMintWithTokenProgram(ctx, account.Mint)
	if err != nil {
		return nil, err
	}

	escrow, _, err := valhalla.GetVaultEscrowAddress(&valhalla.GetVaultEscrowAddressArgs{
		Vault: address,
	})
	if err != nil {
		return nil, err
	}

	return &vaultContext{
		address:      address,
		account:      account,
		escrow:       escrow,
		tokenProgram: mint.TokenProgram,
	}, nil
}

func (c *Client) Disburse(ctx context.Context, signer ed25519.PrivateKey, vault ed25519.PublicKey) (*ledger.Receipt, error) {
	vc, err := c.getVaultContext(ctx, vault)
	if err != nil {
		return nil, err
	}

	config, _, err := valhalla.GetConfigAddress()
	if err != nil {
		return nil, err
	}
	governanceTokenMint, _, err := valhalla.GetGovernanceTokenMintAddress()
	if err != nil {
		return nil, err
	}

	signerGovernanceTokenAccount, err := token.GetAssociatedAccount(public(signer), governanceTokenMint)
	if err != nil {
		return nil, err
	}
	recipientTokenAccount, err := token.GetAssociatedAccountForProgram(vc.account.Recipient, vc.account.Mint, vc.tokenProgram)
	if err != nil {
		return nil, err
	}

	ix := valhalla.NewDisburseInstruction(&valhalla.DisburseInstructionAccounts{
		Signer:                       public(signer),
		Creator:                      vc.account.Creator,
		Recipient:                    vc.account.Recipient,
		Config:                       config,
		Vault:                        vault,
		VaultEscrow:                  vc.escrow,
		SignerGovernanceTokenAccount: signerGovernanceTokenAccount,
		RecipientTokenAccount:        recipientTokenAccount,
		Mint:                         vc.account.Mint,
		GovernanceTokenMint:          governanceTokenMint,
		TokenProgram:                 vc.tokenProgram,
	})
	return c.submit(ctx, "Disburse", []ed25519.PrivateKey{signer}, ix)
}

func (c *Client) Cancel(ctx context.Context, signer ed25519.PrivateKey, vault ed25519.PublicKey) (*ledger.Receipt, error) {
	vc, err := c.getVaultContext(ctx, vault)
	if err != nil {
		return nil, err
	}

	creatorTokenAccount, err := token.GetAssociatedAccountForProgram(vc.account.Creator, vc.account.Mint, vc.tokenProgram)
	if err != nil {
		return nil, err
	}

	ix := valhalla.NewCancelInstruction(&valhalla.CancelInstructionAccounts{
		Signer:              public(signer),
		Creator:             vc.account.Creator,
		Recipient:           vc.account.Recipient,
		Vault:               vault,
		VaultEscrow:         vc.escrow,
		CreatorTokenAccount: creatorTokenAccount,
		Mint:                vc.account.Mint,
		TokenProgram:        vc.tokenProgram,
	})
	return c.submit(ctx, "Cancel", []ed25519.PrivateKey{signer}, ix)
}

func (c *Client) Close(ctx context.Context, signer ed25519.PrivateKey, vault ed25519.PublicKey) (*ledger.Receipt, error) {
	vc, err := c.getVaultContext(ctx, vault)
	if err != nil {
		return nil, err
	}

	ix := valhalla.NewCloseInstruction(&valhalla.CloseInstructionAccounts{
		Signer:       public(signer),
		Creator:      vc.account.Creator,
		Vault:        vault,
		VaultEscrow:  vc.escrow,
		Mint:         vc.account.Mint,
		TokenProgram: vc.tokenProgram,
	})
	return c.submit(ctx, "Close", []ed25519.PrivateKey{signer}, ix)
}

// HarvestEscrowFees moves transfer fees withheld in a vault's escrow into the
// mint. Only mints with the transfer fee extension withhold fees.
func (c *Client) HarvestEscrowFees(ctx context.Context, payer ed25519.PrivateKey, vault ed25519.PublicKey) (*ledger.Receipt, error) {
	vc, err := c.getVaultContext(ctx, vault)
	if err != nil {
		return nil, err
	}
	if !vc.supportsTransferFees() {
		return nil, errors.New("mint does not charge transfer fees")
	}

	ix := token.HarvestWithheldTokensToMint(vc.account.Mint, vc.escrow)
	return c.submit(ctx, "HarvestEscrowFees", []ed25519.PrivateKey{payer}, ix)
}

func (vc *vaultContext) supportsTransferFees() bool {
	return bytes.Equal(vc.tokenProgram, token.Program2022Key)
}

func public(key ed25519.PrivateKey) ed25519.PublicKey {
	return key.Public().(ed25519.PublicKey)
}

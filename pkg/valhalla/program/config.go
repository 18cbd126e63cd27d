package program

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
	"github.com/valhalla-so/valhalla-server/pkg/solana/token"
	"github.com/valhalla-so/valhalla-server/pkg/solana/valhalla"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/ledger"
)

func (p *Program) createConfig(ctx *ledger.InvokeContext, ix solana.Instruction) error {
	args, accounts, err := valhalla.DecompileCreateConfigInstruction(ix)
	if err != nil {
		return decompileError(err)
	}

	if err := requireSigner(ctx, accounts.Admin); err != nil {
		return err
	}

	config, configBump, err := valhalla.GetConfigAddress()
	if err != nil {
		return err
	}
	if err := requireAddress(accounts.Config, config); err != nil {
		return err
	}

	governanceTokenMint, governanceTokenMintBump, err := valhalla.GetGovernanceTokenMintAddress()
	if err != nil {
		return err
	}
	if err := requireAddress(accounts.GovernanceTokenMint, governanceTokenMint); err != nil {
		return err
	}

	exists, err := ctx.AccountExists(config)
	if err != nil {
		return err
	} else if exists {
		return valhalla.ErrAlreadyInitialized
	}

	if args.TokenFeeBasisPoints > valhalla.MaxBasisPoints {
		return valhalla.ErrInvalidTokenFeeBasisPoints
	}
	if !args.ValidMetadata() {
		return valhalla.ErrInstructionDidNotDeserialize
	}

	err = createProgramAccount(
		ctx,
		accounts.Admin,
		config,
		valhalla.PROGRAM_ID,
		valhalla.ConfigAccountSize,
		valhalla.ConfigSeeds(configBump),
	)
	if err != nil {
		return err
	}

	state := &configState{
		address: config,
		bump:    configBump,
		account: &valhalla.ConfigAccount{
			Admin:                 accounts.Admin,
			DevTreasury:           accounts.DevTreasury,
			DaoTreasury:           accounts.DaoTreasury,
			GovernanceTokenMint:   governanceTokenMint,
			DevFee:                args.DevFee,
			AutopayMultiplier:     args.AutopayMultiplier,
			TokenFeeBasisPoints:   args.TokenFeeBasisPoints,
			GovernanceTokenAmount: args.GovernanceTokenAmount,
		},
	}
	if err := state.save(ctx); err != nil {
		return err
	}

	// The governance mint is its own mint authority
	err = createProgramAccount(
		ctx,
		accounts.Admin,
		governanceTokenMint,
		token.ProgramKey,
		token.MintSize,
		valhalla.GovernanceTokenMintSeeds(governanceTokenMintBump),
	)
	if err != nil {
		return err
	}
	err = ctx.Invoke(token.InitializeMint2(
		token.ProgramKey,
		governanceTokenMint,
		governanceTokenMint,
		valhalla.GovernanceTokenDecimals,
	))
	if err != nil {
		return err
	}

	p.log.WithFields(logrus.Fields{
		"method":   "createConfig",
		"admin":    base58.Encode(accounts.Admin),
		"name":     args.Name,
		"symbol":   args.Symbol,
		"uri":      args.Uri,
		"decimals": args.Decimals,
	}).Debug("config created")

	return nil
}

// loadConfigAsAdmin loads the config and checks the signing admin against it
func loadConfigAsAdmin(ctx *ledger.InvokeContext, admin, config ed25519.PublicKey) (*configState, error) {
	if err := requireSigner(ctx, admin); err != nil {
		return nil, err
	}

	state, err := loadConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	if !bytes.Equal(state.account.Admin, admin) {
		return nil, valhalla.ErrUnauthorized
	}
	return state, nil
}

func (p *Program) updateAdmin(ctx *ledger.InvokeContext, ix solana.Instruction) error {
	accounts, err := valhalla.DecompileUpdateAdminInstruction(ix)
	if err != nil {
		return decompileError(err)
	}

	state, err := loadConfigAsAdmin(ctx, accounts.Admin, accounts.Config)
	if err != nil {
		return err
	}

	state.account.Admin = accounts.NewAdmin
	return state.save(ctx)
}

func (p *Program) updateDaoTreasury(ctx *ledger.InvokeContext, ix solana.Instruction) error {
	accounts, err := valhalla.DecompileUpdateDaoTreasuryInstruction(ix)
	if err != nil {
		return decompileError(err)
	}

	state, err := loadConfigAsAdmin(ctx, accounts.Admin, accounts.Config)
	if err != nil {
		return err
	}

	state.account.DaoTreasury = accounts.NewDaoTreasury
	return state.save(ctx)
}

func (p *Program) updateDevFee(ctx *ledger.InvokeContext, ix solana.Instruction) error {
	args, accounts, err := valhalla.DecompileUpdateDevFeeInstruction(ix)
	if err != nil {
		return decompileError(err)
	}

	state, err := loadConfigAsAdmin(ctx, accounts.Admin, accounts.Config)
	if err != nil {
		return err
	}

	state.account.DevFee = args.DevFee
	return state.save(ctx)
}

func (p *Program) updateTokenFeeBasisPoints(ctx *ledger.InvokeContext, ix solana.Instruction) error {
	args, accounts, err := valhalla.DecompileUpdateTokenFeeBasisPointsInstruction(ix)
	if err != nil {
		return decompileError(err)
	}

	state, err := loadConfigAsAdmin(ctx, accounts.Admin, accounts.Config)
	if err != nil {
		return err
	}

	if args.TokenFeeBasisPoints > valhalla.MaxBasisPoints {
		return valhalla.ErrInvalidTokenFeeBasisPoints
	}

	state.account.TokenFeeBasisPoints = args.TokenFeeBasisPoints
	return state.save(ctx)
}

func (p *Program) updateGovernanceTokenAmount(ctx *ledger.InvokeContext, ix solana.Instruction) error {
	args, accounts, err := valhalla.DecompileUpdateGovernanceTokenAmountInstruction(ix)
	if err != nil {
		return decompileError(err)
	}

	state, err := loadConfigAsAdmin(ctx, accounts.Admin, accounts.Config)
	if err != nil {
		return err
	}

	state.account.GovernanceTokenAmount = args.GovernanceTokenAmount
	return state.save(ctx)
}

func (p *Program) mintGovernanceTokens(ctx *ledger.InvokeContext, ix solana.Instruction) error {
	args, accounts, err := valhalla.DecompileMintGovernanceTokensInstruction(ix)
	if err != nil {
		return decompileError(err)
	}

	state, err := loadConfigAsAdmin(ctx, accounts.Admin, accounts.Config)
	if err != nil {
		return err
	}
	if err := requireHasOne(accounts.GovernanceTokenMint, state.account.GovernanceTokenMint); err != nil {
		return err
	}

	return mintGovernanceReward(
		ctx,
		state,
		accounts.Admin,
		accounts.Receiver,
		accounts.ReceiverTokenAccount,
		args.Amount,
	)
}

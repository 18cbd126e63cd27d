package program

import (
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
	"github.com/valhalla-so/valhalla-server/pkg/solana/system"
	"github.com/valhalla-so/valhalla-server/pkg/solana/token"
	"github.com/valhalla-so/valhalla-server/pkg/solana/valhalla"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/ledger"
)

func (p *Program) create(ctx *ledger.InvokeContext, ix solana.Instruction) error {
	args, accounts, err := valhalla.DecompileCreateInstruction(ix)
	if err != nil {
		return decompileError(err)
	}

	if !args.CancelAuthority.IsValid() {
		return valhalla.ErrInstructionDidNotDeserialize
	}

	if err := requireSigner(ctx, accounts.Creator); err != nil {
		return err
	}

	config, err := loadConfig(ctx, accounts.Config)
	if err != nil {
		return err
	}
	if err := requireHasOne(accounts.DevTreasury, config.account.DevTreasury); err != nil {
		return err
	}
	if err := requireHasOne(accounts.DaoTreasury, config.account.DaoTreasury); err != nil {
		return err
	}
	if err := requireHasOne(accounts.GovernanceTokenMint, config.account.GovernanceTokenMint); err != nil {
		return err
	}

	if args.AmountToBeVested == 0 {
		return valhalla.ErrInvalidAmount
	}
	if config.account.TokenFeeBasisPoints > valhalla.MaxBasisPoints {
		return valhalla.ErrInvalidTokenFeeBasisPoints
	}

	totalNumberOfPayouts, err := valhalla.TotalNumberOfPayouts(args.TotalVestingDuration, args.PayoutInterval)
	if err != nil {
		return err
	}

	vaultSeedArgs := &valhalla.GetVaultAddressArgs{
		Identifier: args.Identifier,
		Creator:    accounts.Creator,
		Mint:       accounts.Mint,
	}
	vault, vaultBump, err := valhalla.GetVaultAddress(vaultSeedArgs)
	if err != nil {
		return err
	}
	if err := requireAddress(accounts.Vault, vault); err != nil {
		return err
	}

	escrow, escrowBump, err := valhalla.GetVaultEscrowAddress(&valhalla.GetVaultEscrowAddressArgs{
		Vault: vault,
	})
	if err != nil {
		return err
	}
	if err := requireAddress(accounts.VaultEscrow, escrow); err != nil {
		return err
	}

	mint, err := loadMint(ctx, accounts.Mint, accounts.TokenProgram)
	if err != nil {
		return err
	}

	// Native fee to the dev treasury
	devFee, ok := config.account.CreationFee(args.Autopay)
	if !ok {
		return valhalla.ErrFeePaymentFailed
	}
	if devFee > 0 {
		if err := ctx.Invoke(system.Transfer(accounts.Creator, accounts.DevTreasury, devFee)); err != nil {
			return err
		}
	}

	// Token fee to the dao treasury
	tokenFee := config.account.TokenFee(args.AmountToBeVested)
	err = getOrCreateAssociatedTokenAccount(
		ctx,
		accounts.Creator,
		accounts.DaoTreasury,
		accounts.Mint,
		accounts.TokenProgram,
		accounts.DaoTreasuryTokenAccount,
	)
	if err != nil {
		return err
	}
	if tokenFee > 0 {
		err = ctx.Invoke(token.TransferChecked(
			accounts.TokenProgram,
			accounts.CreatorTokenAccount,
			accounts.Mint,
			accounts.DaoTreasuryTokenAccount,
			accounts.Creator,
			tokenFee,
			mint.Decimals,
		))
		if err != nil {
			return err
		}
	}

	// Vault and escrow accounts. Creating the vault fails on an identifier
	// that is already in use by the creator for this mint.
	err = createProgramAccount(
		ctx,
		accounts.Creator,
		vault,
		valhalla.PROGRAM_ID,
		valhalla.VaultAccountSize,
		valhalla.VaultSeeds(vaultSeedArgs, vaultBump),
	)
	if err != nil {
		return err
	}

	escrowSize := token.AccountSize
	if mint.TransferFeeConfig != nil {
		escrowSize = token.AccountWithTransferFeeSize
	}
	err = createProgramAccount(
		ctx,
		accounts.Creator,
		escrow,
		accounts.TokenProgram,
		escrowSize,
		valhalla.VaultEscrowSeeds(vault, escrowBump),
	)
	if err != nil {
		return err
	}
	err = ctx.Invoke(token.InitializeAccount3(accounts.TokenProgram, escrow, accounts.Mint, escrow))
	if err != nil {
		return err
	}

	deposit := args.AmountToBeVested - tokenFee
	err = ctx.Invoke(token.TransferChecked(
		accounts.TokenProgram,
		accounts.CreatorTokenAccount,
		accounts.Mint,
		escrow,
		accounts.Creator,
		deposit,
		mint.Decimals,
	))
	if err != nil {
		return err
	}

	// Transfer fees are withheld from the escrow
	escrowTokens, err := loadTokenAccount(ctx, escrow, accounts.TokenProgram)
	if err != nil {
		return err
	}
	deposit = escrowTokens.Amount

	// Creation incentive
	err = mintGovernanceReward(
		ctx,
		config,
		accounts.Creator,
		accounts.Creator,
		accounts.CreatorGovernanceTokenAccount,
		config.account.GovernanceTokenAmount,
	)
	if err != nil {
		return err
	}

	state := &vaultState{
		address: vault,
		account: &valhalla.VaultAccount{
			Identifier:           args.Identifier,
			Name:                 args.Name,
			Creator:              accounts.Creator,
			Recipient:            accounts.Recipient,
			Mint:                 accounts.Mint,
			TotalVestingDuration: args.TotalVestingDuration,
			CreatedTimestamp:     uint64(ctx.UnixTimestamp()),
			StartDate:            args.StartDate,
			LastPaymentTimestamp: args.StartDate,
			InitialDepositAmount: deposit,
			TotalNumberOfPayouts: totalNumberOfPayouts,
			PayoutInterval:       args.PayoutInterval,
			NumberOfPaymentsMade: 0,
			CancelAuthority:      args.CancelAuthority,
			TokenAccountBump:     escrowBump,
			Autopay:              args.Autopay,
		},
	}
	if err := state.save(ctx); err != nil {
		return err
	}

	p.log.WithFields(logrus.Fields{
		"method":    "create",
		"vault":     base58.Encode(vault),
		"creator":   base58.Encode(accounts.Creator),
		"recipient": base58.Encode(accounts.Recipient),
		"deposit":   deposit,
		"payouts":   totalNumberOfPayouts,
	}).Debug("vault created")

	return nil
}

package program_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valhalla-so/valhalla-server/pkg/solana/system"
	"github.com/valhalla-so/valhalla-server/pkg/solana/token"
	"github.com/valhalla-so/valhalla-server/pkg/solana/valhalla"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/client"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/ledger"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/ledger/ledgertest"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/valhallatest"
)

func TestCreate_HappyPath(t *testing.T) {
	env := valhallatest.NewEnvironment(t)
	v := newFundedCreator(t, env, token.ProgramKey, nil)

	creator := ledgertest.Public(v.creator)
	lamportsBefore := env.Balance(t, creator)

	args := v.vestingArgs()
	args.AmountToBeVested = 100_000
	v.create(t, args)

	account := v.account(t)
	assert.EqualValues(t, 1, account.Identifier)
	assert.Equal(t, "team", valhalla.NameToString(account.Name))
	assert.EqualValues(t, creator, account.Creator)
	assert.EqualValues(t, ledgertest.Public(v.recipient), account.Recipient)
	assert.EqualValues(t, v.mint, account.Mint)
	assert.EqualValues(t, 10, account.TotalVestingDuration)
	assert.EqualValues(t, env.Now(), account.CreatedTimestamp)
	assert.EqualValues(t, env.Now(), account.StartDate)
	assert.EqualValues(t, env.Now(), account.LastPaymentTimestamp)
	assert.EqualValues(t, 99_500, account.InitialDepositAmount)
	assert.EqualValues(t, 10, account.TotalNumberOfPayouts)
	assert.EqualValues(t, 1, account.PayoutInterval)
	assert.Zero(t, account.NumberOfPaymentsMade)
	assert.Equal(t, valhalla.AuthorityCreator, account.CancelAuthority)
	assert.False(t, account.Autopay)
	assert.Equal(t, valhalla.KindVestingSchedule, account.Kind())

	escrow := v.escrow(t)
	assert.EqualValues(t, 99_500, escrow.Balance)
	assert.Zero(t, escrow.WithheldAmount)

	escrowAccount := ledgertest.GetTokenAccount(t, env.Ledger, escrow.Address)
	assert.EqualValues(t, escrow.Address, escrowAccount.Owner)
	assert.EqualValues(t, v.mint, escrowAccount.Mint)

	_, escrowBump, err := valhalla.GetVaultEscrowAddress(&valhalla.GetVaultEscrowAddressArgs{Vault: v.address})
	require.NoError(t, err)
	assert.Equal(t, escrowBump, account.TokenAccountBump)

	assert.EqualValues(t, defaultCreatorBalance-100_000, v.creatorBalance(t))
	assert.EqualValues(t, 500, env.TokenBalance(t, env.DaoTreasury, v.mint, token.ProgramKey))
	assert.EqualValues(t, valhallatest.DefaultDevFee, env.Balance(t, env.DevTreasury))
	assert.EqualValues(t, valhallatest.DefaultGovernanceTokenAmount, env.GovernanceTokenBalance(t, creator))
	assert.Zero(t, v.recipientBalance(t))

	spent := valhallatest.DefaultDevFee +
		system.RentExemptMinimum(valhalla.VaultAccountSize) +
		system.RentExemptMinimum(token.AccountSize) + // escrow
		system.RentExemptMinimum(token.AccountSize) + // dao treasury token account
		system.RentExemptMinimum(token.AccountSize) // governance token account
	assert.EqualValues(t, lamportsBefore-spent, env.Balance(t, creator))
}

func TestCreate_AutopayFee(t *testing.T) {
	env := valhallatest.NewEnvironment(t)
	v := newFundedCreator(t, env, token.ProgramKey, nil)

	args := v.vestingArgs()
	args.Autopay = true
	v.create(t, args)

	assert.True(t, v.account(t).Autopay)
	assert.EqualValues(t, valhallatest.DefaultAutopayMultiplier*valhallatest.DefaultDevFee, env.Balance(t, env.DevTreasury))
}

func TestCreate_TransferFeeMint(t *testing.T) {
	env := valhallatest.NewEnvironment(t)
	v := newFundedCreator(t, env, token.Program2022Key, transferFee)

	args := v.vestingArgs()
	args.AmountToBeVested = 100_000
	v.create(t, args)

	// 1% of each transfer is withheld in the destination
	escrow := v.escrow(t)
	assert.EqualValues(t, 98_505, escrow.Balance)
	assert.EqualValues(t, 995, escrow.WithheldAmount)

	// the schedule is based on what landed in escrow
	account := v.account(t)
	assert.EqualValues(t, 98_505, account.InitialDepositAmount)
	assert.EqualValues(t, 9_850, account.AmountPerPayout())
	assert.Equal(t, escrow.Balance/account.TotalNumberOfPayouts, account.AmountPerPayout())

	escrowInfo, err := env.Ledger.GetAccountInfo(context.Background(), escrow.Address)
	require.NoError(t, err)
	assert.Len(t, escrowInfo.Data, token.AccountWithTransferFeeSize)
	assert.EqualValues(t, token.Program2022Key, escrowInfo.Owner)

	assert.EqualValues(t, 495, env.TokenBalance(t, env.DaoTreasury, v.mint, token.Program2022Key))
	assert.EqualValues(t, defaultCreatorBalance-100_000, v.creatorBalance(t))
}

func TestCreate_NoTokenFee(t *testing.T) {
	ctx := context.Background()
	env := valhallatest.NewEnvironment(t)

	_, err := env.Client.UpdateTokenFeeBasisPoints(ctx, env.Admin, 0)
	require.NoError(t, err)

	v := newFundedCreator(t, env, token.ProgramKey, nil)
	v.create(t, v.vestingArgs())

	assert.EqualValues(t, 100, v.escrow(t).Balance)
	assert.EqualValues(t, 100, v.account(t).InitialDepositAmount)
	assert.Zero(t, env.TokenBalance(t, env.DaoTreasury, v.mint, token.ProgramKey))
}

func TestCreate_Schedules(t *testing.T) {
	for _, tc := range []struct {
		name     string
		duration uint64
		interval uint64
		start    uint64
		payouts  uint64
		kind     valhalla.Kind
	}{
		{name: "lock", duration: 3600, interval: 0, payouts: 1, kind: valhalla.KindTokenLock},
		{name: "one time payment", duration: 0, interval: 0, start: 60, payouts: 1, kind: valhalla.KindOneTimePayment},
		{name: "vesting", duration: 3600, interval: 600, payouts: 6, kind: valhalla.KindVestingSchedule},
	} {
		t.Run(tc.name, func(t *testing.T) {
			env := valhallatest.NewEnvironment(t)
			v := newFundedCreator(t, env, token.ProgramKey, nil)

			args := v.vestingArgs()
			args.TotalVestingDuration = tc.duration
			args.PayoutInterval = tc.interval
			args.StartDate = env.Now() + tc.start
			v.create(t, args)

			account := v.account(t)
			assert.Equal(t, tc.payouts, account.TotalNumberOfPayouts)
			assert.Equal(t, tc.kind, account.Kind())
			assert.Equal(t, tc.interval, account.PayoutInterval)
		})
	}
}

func TestCreate_Validation(t *testing.T) {
	for _, tc := range []struct {
		name     string
		mutate   func(args *client.CreateVaultArgs)
		expected error
	}{
		{
			name:     "zero amount",
			mutate:   func(args *client.CreateVaultArgs) { args.AmountToBeVested = 0 },
			expected: valhalla.ErrInvalidAmount,
		},
		{
			name:     "duration not a multiple of interval",
			mutate:   func(args *client.CreateVaultArgs) { args.PayoutInterval = 3 },
			expected: valhalla.ErrInvalidPayoutSchedule,
		},
		{
			name:     "interval longer than duration",
			mutate:   func(args *client.CreateVaultArgs) { args.PayoutInterval = 20 },
			expected: valhalla.ErrInvalidPayoutSchedule,
		},
		{
			name:     "invalid cancel authority",
			mutate:   func(args *client.CreateVaultArgs) { args.CancelAuthority = valhalla.AuthorityBoth + 1 },
			expected: valhalla.ErrInstructionDidNotDeserialize,
		},
		{
			name:     "insufficient tokens",
			mutate:   func(args *client.CreateVaultArgs) { args.AmountToBeVested = defaultCreatorBalance + 1 },
			expected: token.ErrorInsufficientFunds,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			env := valhallatest.NewEnvironment(t)
			v := newFundedCreator(t, env, token.ProgramKey, nil)

			creator := ledgertest.Public(v.creator)
			lamportsBefore := env.Balance(t, creator)

			args := v.vestingArgs()
			tc.mutate(args)

			_, _, err := env.Client.CreateVault(context.Background(), v.creator, args)
			require.ErrorIs(t, err, tc.expected)

			// Nothing is charged for a rejected vault
			assert.Equal(t, lamportsBefore, env.Balance(t, creator))
			assert.EqualValues(t, defaultCreatorBalance, v.creatorBalance(t))
			assert.Zero(t, env.Balance(t, env.DevTreasury))
			assert.Zero(t, env.GovernanceTokenBalance(t, creator))

			vault, _, err := valhalla.GetVaultAddress(&valhalla.GetVaultAddressArgs{
				Identifier: args.Identifier,
				Creator:    creator,
				Mint:       v.mint,
			})
			require.NoError(t, err)
			ledgertest.RequireAccountNotFound(t, env.Ledger, vault)
		})
	}
}

func TestCreate_DuplicateIdentifier(t *testing.T) {
	env := valhallatest.NewEnvironment(t)
	v := newFundedCreator(t, env, token.ProgramKey, nil)

	v.create(t, v.vestingArgs())

	_, _, err := env.Client.CreateVault(context.Background(), v.creator, v.vestingArgs())
	assert.ErrorIs(t, err, ledger.ErrAccountAlreadyInUse)

	args := v.vestingArgs()
	args.Identifier = 2
	second := env.CreateVault(t, v.creator, args)
	assert.NotEqual(t, v.address, second)
}

func TestCreate_RequiresConfig(t *testing.T) {
	env := valhallatest.NewEnvironmentWithoutConfig(t)
	v := newFundedCreator(t, env, token.ProgramKey, nil)

	_, _, err := env.Client.CreateVault(context.Background(), v.creator, v.vestingArgs())
	assert.Error(t, err)
}

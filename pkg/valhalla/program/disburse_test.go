package program_test

import (
	"context"
	"crypto/ed25519"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valhalla-so/valhalla-server/pkg/solana/token"
	"github.com/valhalla-so/valhalla-server/pkg/solana/valhalla"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/ledger/ledgertest"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/valhallatest"
)

func TestDisburse_ThirdPartyPayout(t *testing.T) {
	ctx := context.Background()
	env := valhallatest.NewEnvironment(t)
	v := newFundedCreator(t, env, token.ProgramKey, nil)
	v.create(t, v.vestingArgs())

	caller := ledgertest.NewFundedKey(t, env.Ledger)

	canDisburse, err := env.Client.CanDisburse(ctx, v.address)
	require.NoError(t, err)
	assert.False(t, canDisburse)
	assert.ErrorIs(t, v.disburse(caller), valhalla.ErrLocked)

	env.Advance(time.Second)

	canDisburse, err = env.Client.CanDisburse(ctx, v.address)
	require.NoError(t, err)
	assert.True(t, canDisburse)
	require.NoError(t, v.disburse(caller))

	account := v.account(t)
	assert.EqualValues(t, 1, account.NumberOfPaymentsMade)
	assert.Equal(t, env.Now(), account.LastPaymentTimestamp)
	assert.EqualValues(t, 10, v.recipientBalance(t))
	assert.EqualValues(t, 90, v.escrow(t).Balance)

	// The caller is rewarded, not the recipient
	assert.EqualValues(t, valhallatest.DefaultGovernanceTokenAmount, env.GovernanceTokenBalance(t, ledgertest.Public(caller)))
	assert.Zero(t, env.GovernanceTokenBalance(t, ledgertest.Public(v.recipient)))

	// A second payout in the same interval is locked
	assert.ErrorIs(t, v.disburse(caller), valhalla.ErrLocked)
	assert.EqualValues(t, 1, v.account(t).NumberOfPaymentsMade)
}

func TestDisburse_FullSchedule(t *testing.T) {
	env := valhallatest.NewEnvironment(t)
	v := newFundedCreator(t, env, token.ProgramKey, nil)

	args := v.vestingArgs()
	args.AmountToBeVested = 1_000
	v.create(t, args)

	// 1_000 less the 0.5% token fee
	deposit := uint64(995)
	perPayout := deposit / 10

	var released, last uint64
	for i := 1; i <= 10; i++ {
		env.Advance(time.Second)
		require.NoError(t, v.disburse(v.recipient))

		account := v.account(t)
		assert.EqualValues(t, i, account.NumberOfPaymentsMade)
		assert.True(t, account.LastPaymentTimestamp >= last)
		last = account.LastPaymentTimestamp

		balance := v.recipientBalance(t)
		assert.True(t, balance > released)
		if i < 10 {
			assert.Equal(t, released+perPayout, balance)
		}
		released = balance
	}

	// The final payout releases the rounding remainder
	assert.Equal(t, deposit, released)
	assert.Zero(t, v.escrow(t).Balance)

	env.Advance(time.Hour)
	assert.ErrorIs(t, v.disburse(v.recipient), valhalla.ErrLocked)
	assert.EqualValues(t, 10, v.account(t).NumberOfPaymentsMade)
}

func TestDisburse_BeforeStartDate(t *testing.T) {
	env := valhallatest.NewEnvironment(t)
	v := newFundedCreator(t, env, token.ProgramKey, nil)

	args := v.vestingArgs()
	args.StartDate = env.Now() + 60
	v.create(t, args)

	env.Advance(59 * time.Second)
	assert.ErrorIs(t, v.disburse(v.recipient), valhalla.ErrLocked)

	env.Advance(2 * time.Second)
	require.NoError(t, v.disburse(v.recipient))
	assert.EqualValues(t, 10, v.recipientBalance(t))
}

func TestDisburse_OneTimePayment(t *testing.T) {
	env := valhallatest.NewEnvironment(t)
	v := newFundedCreator(t, env, token.ProgramKey, nil)

	args := v.vestingArgs()
	args.TotalVestingDuration = 0
	args.PayoutInterval = 0
	args.StartDate = env.Now() + 3600
	v.create(t, args)

	assert.ErrorIs(t, v.disburse(v.recipient), valhalla.ErrLocked)

	env.Advance(time.Hour)
	require.NoError(t, v.disburse(v.recipient))
	assert.EqualValues(t, 100, v.recipientBalance(t))
	assert.EqualValues(t, 1, v.account(t).NumberOfPaymentsMade)

	assert.ErrorIs(t, v.disburse(v.recipient), valhalla.ErrLocked)
}

func TestDisburse_ZeroPayoutInterval(t *testing.T) {
	env := valhallatest.NewEnvironment(t)
	v := newFundedCreator(t, env, token.ProgramKey, nil)

	args := v.vestingArgs()
	args.TotalVestingDuration = 3600
	args.PayoutInterval = 0
	args.StartDate = env.Now() + 60
	v.create(t, args)

	env.Advance(time.Minute - time.Second)
	assert.ErrorIs(t, v.disburse(v.recipient), valhalla.ErrLocked)

	// a zero interval releases the whole deposit at the start date
	env.Advance(time.Second)
	require.NoError(t, v.disburse(v.recipient))
	assert.EqualValues(t, 100, v.recipientBalance(t))
	assert.True(t, v.account(t).PaymentsComplete())
}

func TestDisburse_AfterEndDate(t *testing.T) {
	env := valhallatest.NewEnvironment(t)
	v := newFundedCreator(t, env, token.ProgramKey, nil)
	v.create(t, v.vestingArgs())

	env.Advance(3 * time.Second)
	require.NoError(t, v.disburse(v.recipient))
	assert.EqualValues(t, 10, v.recipientBalance(t))

	// late payouts are still released one at a time
	env.Advance(time.Minute)
	require.NoError(t, v.disburse(v.recipient))
	assert.EqualValues(t, 20, v.recipientBalance(t))
	assert.EqualValues(t, 2, v.account(t).NumberOfPaymentsMade)

	for i := 3; i <= 10; i++ {
		env.Advance(time.Second)
		require.NoError(t, v.disburse(v.recipient))
		assert.EqualValues(t, i, v.account(t).NumberOfPaymentsMade)
		assert.EqualValues(t, 10*i, v.recipientBalance(t))
	}
	assert.True(t, v.account(t).PaymentsComplete())

	env.Advance(time.Second)
	assert.ErrorIs(t, v.disburse(v.recipient), valhalla.ErrLocked)
}

func TestDisburse_TransferFeeMint(t *testing.T) {
	ctx := context.Background()
	env := valhallatest.NewEnvironment(t)

	_, err := env.Client.UpdateTokenFeeBasisPoints(ctx, env.Admin, 0)
	require.NoError(t, err)

	v := newFundedCreator(t, env, token.Program2022Key, transferFee)

	args := v.vestingArgs()
	args.AmountToBeVested = 10_000
	args.TotalVestingDuration = 2
	v.create(t, args)

	// 100 withheld on deposit
	assert.EqualValues(t, 9_900, v.escrow(t).Balance)

	env.Advance(time.Second)
	require.NoError(t, v.disburse(v.recipient))

	recipientTokenAccount, err := token.GetAssociatedAccountForProgram(ledgertest.Public(v.recipient), v.mint, token.Program2022Key)
	require.NoError(t, err)
	assert.EqualValues(t, 4_950, v.account(t).AmountPerPayout())
	assert.EqualValues(t, 4_900, ledgertest.GetTokenBalance(t, env.Ledger, recipientTokenAccount))
	assert.EqualValues(t, 50, ledgertest.GetWithheldAmount(t, env.Ledger, recipientTokenAccount))

	env.Advance(time.Second)
	require.NoError(t, v.disburse(v.recipient))

	escrow := v.escrow(t)
	assert.Zero(t, escrow.Balance)
	assert.EqualValues(t, 100, escrow.WithheldAmount)
	assert.EqualValues(t, 9_800, ledgertest.GetTokenBalance(t, env.Ledger, recipientTokenAccount))
	assert.EqualValues(t, 100, ledgertest.GetWithheldAmount(t, env.Ledger, recipientTokenAccount))
	assert.True(t, v.account(t).PaymentsComplete())
}

func TestDisburse_ConcurrentCallers(t *testing.T) {
	env := valhallatest.NewEnvironment(t)
	v := newFundedCreator(t, env, token.ProgramKey, nil)
	v.create(t, v.vestingArgs())

	env.Advance(time.Second)

	callers := make([]ed25519.PrivateKey, 8)
	for i := range callers {
		callers[i] = ledgertest.NewFundedKey(t, env.Ledger)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(callers))
	for i, caller := range callers {
		wg.Add(1)
		go func(i int, caller ed25519.PrivateKey) {
			defer wg.Done()
			errs[i] = v.disburse(caller)
		}(i, caller)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, valhalla.ErrLocked)
	}
	assert.Equal(t, 1, succeeded)

	assert.EqualValues(t, 1, v.account(t).NumberOfPaymentsMade)
	assert.EqualValues(t, 10, v.recipientBalance(t))
}

func TestDisburse_WrongRecipient(t *testing.T) {
	env := valhallatest.NewEnvironment(t)
	v := newFundedCreator(t, env, token.ProgramKey, nil)
	v.create(t, v.vestingArgs())

	env.Advance(time.Second)

	// Redirecting the payout to another wallet violates the vault's recipient
	impostor := ledgertest.NewFundedKey(t, env.Ledger)
	ix := v.disburseInstruction(t, impostor, ledgertest.Public(impostor))
	_, err := env.Ledger.Submit(context.Background(), []ed25519.PrivateKey{impostor}, ix)
	assert.ErrorIs(t, err, valhalla.ErrConstraintHasOne)

	assert.Zero(t, v.account(t).NumberOfPaymentsMade)
}

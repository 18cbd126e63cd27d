package program_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valhalla-so/valhalla-server/pkg/solana/system"
	"github.com/valhalla-so/valhalla-server/pkg/solana/token"
	"github.com/valhalla-so/valhalla-server/pkg/solana/valhalla"
	"github.com/valhalla-so/valhalla-server/pkg/testutil"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/ledger/ledgertest"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/valhallatest"
)

func TestClose_CompletedVault(t *testing.T) {
	ctx := context.Background()
	env := valhallatest.NewEnvironment(t)
	v := newFundedCreator(t, env, token.ProgramKey, nil)

	args := v.vestingArgs()
	args.TotalVestingDuration = 2
	v.create(t, args)

	caller := ledgertest.NewFundedKey(t, env.Ledger)

	_, err := env.Client.Close(ctx, caller, v.address)
	testutil.AssertInstructionError(t, err, 0, valhalla.ErrLocked)

	env.Advance(time.Second)
	require.NoError(t, v.disburse(caller))

	_, err = env.Client.Close(ctx, caller, v.address)
	assert.ErrorIs(t, err, valhalla.ErrLocked)

	env.Advance(time.Second)
	require.NoError(t, v.disburse(caller))
	assert.EqualValues(t, 100, v.recipientBalance(t))

	creator := ledgertest.Public(v.creator)
	lamportsBefore := env.Balance(t, creator)
	callerLamportsBefore := env.Balance(t, ledgertest.Public(caller))

	_, err = env.Client.Close(ctx, caller, v.address)
	require.NoError(t, err)

	v.requireDestroyed(t)

	rent := system.RentExemptMinimum(valhalla.VaultAccountSize) + system.RentExemptMinimum(token.AccountSize)
	assert.Equal(t, lamportsBefore+rent, env.Balance(t, creator))
	assert.Equal(t, callerLamportsBefore, env.Balance(t, ledgertest.Public(caller)))
}

func TestClose_WithheldFees(t *testing.T) {
	ctx := context.Background()
	env := valhallatest.NewEnvironment(t)
	v := newFundedCreator(t, env, token.Program2022Key, transferFee)

	args := v.vestingArgs()
	args.AmountToBeVested = 10_000
	args.TotalVestingDuration = 0
	args.PayoutInterval = 0
	v.create(t, args)

	require.NoError(t, v.disburse(v.recipient))

	escrow := v.escrow(t)
	require.Zero(t, escrow.Balance)
	require.NotZero(t, escrow.WithheldAmount)
	require.True(t, v.account(t).PaymentsComplete())

	// The escrow cannot close while it still holds withheld fees
	_, err := env.Client.Close(ctx, v.recipient, v.address)
	assert.ErrorIs(t, err, valhalla.ErrLocked)

	_, err = env.Client.HarvestEscrowFees(ctx, v.recipient, v.address)
	require.NoError(t, err)
	assert.Zero(t, v.escrow(t).WithheldAmount)

	_, err = env.Client.Close(ctx, v.recipient, v.address)
	require.NoError(t, err)

	v.requireDestroyed(t)
}

func TestClose_CancelledVault(t *testing.T) {
	ctx := context.Background()
	env := valhallatest.NewEnvironment(t)
	v := newFundedCreator(t, env, token.ProgramKey, nil)
	v.create(t, v.vestingArgs())

	_, err := env.Client.Cancel(ctx, v.creator, v.address)
	require.NoError(t, err)

	_, err = env.Client.Close(ctx, v.creator, v.address)
	assert.Error(t, err)
}

package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valhalla-so/valhalla-server/pkg/database/query"
	"github.com/valhalla-so/valhalla-server/pkg/solana/valhalla"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/data/vault"
)

func RunTests(t *testing.T, s vault.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s vault.Store){
		testHappyPath,
		testGetAllByAccount,
		testGetAllByState,
		testGetAutopayDue,
	} {
		tf(t, s)
		teardown()
	}
}

func testHappyPath(t *testing.T, s vault.Store) {
	t.Run("testHappyPath", func(t *testing.T) {
		start := time.Now()

		ctx := context.Background()

		expected := newRecord("vault", "creator", "recipient", 100)
		cloned := expected.Clone()

		_, err := s.GetByAddress(ctx, expected.Address)
		assert.Equal(t, vault.ErrVaultNotFound, err)

		require.NoError(t, s.Save(ctx, expected))
		assert.True(t, expected.Id > 0)
		assert.True(t, expected.CreatedAt.After(start.Add(-time.Second)))

		actual, err := s.GetByAddress(ctx, expected.Address)
		require.NoError(t, err)
		assertEquivalentRecords(t, cloned, actual)
		assert.Equal(t, expected.Id, actual.Id)

		createdAt := actual.CreatedAt

		expected.NumberOfPaymentsMade = 3
		expected.LastPaymentTimestamp = expected.StartDate + 30
		expected.NextPayoutAt = expected.StartDate + 40
		expected.Slot = 101
		cloned = expected.Clone()
		require.NoError(t, s.Save(ctx, expected))

		actual, err = s.GetByAddress(ctx, expected.Address)
		require.NoError(t, err)
		assertEquivalentRecords(t, cloned, actual)
		assert.WithinDuration(t, createdAt, actual.CreatedAt, time.Millisecond)
		assert.False(t, actual.LastUpdatedAt.Before(actual.CreatedAt))

		for _, slot := range []uint64{100, 101} {
			stale := cloned.Clone()
			stale.NumberOfPaymentsMade = 1
			stale.Slot = slot
			assert.Equal(t, vault.ErrStaleVaultState, s.Save(ctx, stale))
		}

		closed := actual.Clone()
		require.NoError(t, closed.MarkClosed(102))
		require.NoError(t, s.Save(ctx, closed))

		actual, err = s.GetByAddress(ctx, expected.Address)
		require.NoError(t, err)
		assert.Equal(t, vault.StateClosed, actual.State)
		assert.EqualValues(t, 3, actual.NumberOfPaymentsMade)
		assert.EqualValues(t, 102, actual.Slot)

		invalid := newRecord("", "creator", "recipient", 1)
		assert.ErrorIs(t, s.Save(ctx, invalid), vault.ErrInvalidVault)
	})
}

func testGetAllByAccount(t *testing.T, s vault.Store) {
	t.Run("testGetAllByAccount", func(t *testing.T) {
		ctx := context.Background()

		var expected []*vault.Record
		for i := 0; i < 5; i++ {
			record := newRecord(fmt.Sprintf("vault%d", i), "creator1", fmt.Sprintf("recipient%d", i%2), 1)
			require.NoError(t, s.Save(ctx, record))
			expected = append(expected, record)
		}
		other := newRecord("other", "creator2", "recipient0", 1)
		other.Mint = "other-mint"
		require.NoError(t, s.Save(ctx, other))

		_, err := s.GetAllByCreator(ctx, "unknown", query.EmptyCursor, 10, query.Ascending)
		assert.Equal(t, vault.ErrVaultNotFound, err)

		actual, err := s.GetAllByCreator(ctx, "creator1", query.EmptyCursor, 10, query.Ascending)
		require.NoError(t, err)
		require.Len(t, actual, 5)
		for i, record := range actual {
			assert.Equal(t, expected[i].Address, record.Address)
		}

		actual, err = s.GetAllByCreator(ctx, "creator1", query.EmptyCursor, 2, query.Ascending)
		require.NoError(t, err)
		require.Len(t, actual, 2)
		assert.Equal(t, "vault0", actual[0].Address)
		assert.Equal(t, "vault1", actual[1].Address)

		actual, err = s.GetAllByCreator(ctx, "creator1", query.ToCursor(actual[1].Id), 2, query.Ascending)
		require.NoError(t, err)
		require.Len(t, actual, 2)
		assert.Equal(t, "vault2", actual[0].Address)
		assert.Equal(t, "vault3", actual[1].Address)

		actual, err = s.GetAllByCreator(ctx, "creator1", query.EmptyCursor, 2, query.Descending)
		require.NoError(t, err)
		require.Len(t, actual, 2)
		assert.Equal(t, "vault4", actual[0].Address)
		assert.Equal(t, "vault3", actual[1].Address)

		actual, err = s.GetAllByCreator(ctx, "creator1", query.ToCursor(expected[4].Id), 10, query.Ascending)
		assert.Equal(t, vault.ErrVaultNotFound, err)
		assert.Empty(t, actual)

		actual, err = s.GetAllByRecipient(ctx, "recipient0", query.EmptyCursor, 10, query.Ascending)
		require.NoError(t, err)
		require.Len(t, actual, 4)
		assert.Equal(t, "vault0", actual[0].Address)
		assert.Equal(t, "vault2", actual[1].Address)
		assert.Equal(t, "vault4", actual[2].Address)
		assert.Equal(t, "other", actual[3].Address)

		actual, err = s.GetAllByMint(ctx, "mint", query.EmptyCursor, 10, query.Descending)
		require.NoError(t, err)
		require.Len(t, actual, 5)
		assert.Equal(t, "vault4", actual[0].Address)
		assert.Equal(t, "vault0", actual[4].Address)

		actual, err = s.GetAllByMint(ctx, "other-mint", query.EmptyCursor, 10, query.Ascending)
		require.NoError(t, err)
		require.Len(t, actual, 1)
		assert.Equal(t, "other", actual[0].Address)

		_, err = s.GetAllByMint(ctx, "unknown", query.EmptyCursor, 10, query.Ascending)
		assert.Equal(t, vault.ErrVaultNotFound, err)
	})
}

func testGetAllByState(t *testing.T, s vault.Store) {
	t.Run("testGetAllByState", func(t *testing.T) {
		ctx := context.Background()

		for i := 0; i < 4; i++ {
			record := newRecord(fmt.Sprintf("vault%d", i), "creator", "recipient", 1)
			if i%2 == 1 {
				require.NoError(t, record.MarkClosed(2))
			}
			require.NoError(t, s.Save(ctx, record))
		}

		for _, tc := range []struct {
			state    vault.State
			expected []string
		}{
			{vault.StateActive, []string{"vault0", "vault2"}},
			{vault.StateClosed, []string{"vault1", "vault3"}},
		} {
			count, err := s.GetCountByState(ctx, tc.state)
			require.NoError(t, err)
			assert.EqualValues(t, len(tc.expected), count)

			actual, err := s.GetAllByState(ctx, tc.state, query.EmptyCursor, 10, query.Ascending)
			require.NoError(t, err)
			require.Len(t, actual, len(tc.expected))
			for i, record := range actual {
				assert.Equal(t, tc.expected[i], record.Address)
				assert.Equal(t, tc.state, record.State)
			}
		}

		count, err := s.GetCountByState(ctx, vault.StateUnknown)
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)
	})
}

func testGetAutopayDue(t *testing.T, s vault.Store) {
	t.Run("testGetAutopayDue", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetAutopayDue(ctx, 1000, 10)
		assert.Equal(t, vault.ErrVaultNotFound, err)

		for _, tc := range []struct {
			address      string
			nextPayoutAt uint64
			autopay      bool
			complete     bool
			closed       bool
		}{
			{"later", 1500, true, false, false},
			{"due-second", 900, true, false, false},
			{"due-first", 500, true, false, false},
			{"due-exactly", 1000, true, false, false},
			{"manual", 100, false, false, false},
			{"complete", 100, true, true, false},
			{"closed", 100, true, false, true},
		} {
			record := newRecord(tc.address, "creator", "recipient", 1)
			record.Autopay = tc.autopay
			record.NextPayoutAt = tc.nextPayoutAt
			if tc.complete {
				record.NumberOfPaymentsMade = record.TotalNumberOfPayouts
			}
			if tc.closed {
				require.NoError(t, record.MarkClosed(2))
			}
			require.NoError(t, s.Save(ctx, record))
		}

		actual, err := s.GetAutopayDue(ctx, 1000, 10)
		require.NoError(t, err)
		require.Len(t, actual, 3)
		assert.Equal(t, "due-first", actual[0].Address)
		assert.Equal(t, "due-second", actual[1].Address)
		assert.Equal(t, "due-exactly", actual[2].Address)

		actual, err = s.GetAutopayDue(ctx, 1000, 1)
		require.NoError(t, err)
		require.Len(t, actual, 1)
		assert.Equal(t, "due-first", actual[0].Address)
	})
}

func newRecord(address, creator, recipient string, slot uint64) *vault.Record {
	return &vault.Record{
		Address: address,

		Identifier: 42,
		Name:       "team",
		Creator:    creator,
		Recipient:  recipient,
		Mint:       "mint",

		TotalVestingDuration: 100,
		CreatedTimestamp:     1_700_000_000,
		StartDate:            1_700_000_000,
		InitialDepositAmount: 1_000,
		TotalNumberOfPayouts: 10,
		PayoutInterval:       10,
		NextPayoutAt:         1_700_000_010,

		CancelAuthority: valhalla.AuthorityCreator,
		Autopay:         true,

		State: vault.StateActive,

		Slot: slot,
	}
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *vault.Record) {
	assert.Equal(t, obj1.Address, obj2.Address)
	assert.Equal(t, obj1.Identifier, obj2.Identifier)
	assert.Equal(t, obj1.Name, obj2.Name)
	assert.Equal(t, obj1.Creator, obj2.Creator)
	assert.Equal(t, obj1.Recipient, obj2.Recipient)
	assert.Equal(t, obj1.Mint, obj2.Mint)
	assert.Equal(t, obj1.TotalVestingDuration, obj2.TotalVestingDuration)
	assert.Equal(t, obj1.CreatedTimestamp, obj2.CreatedTimestamp)
	assert.Equal(t, obj1.StartDate, obj2.StartDate)
	assert.Equal(t, obj1.LastPaymentTimestamp, obj2.LastPaymentTimestamp)
	assert.Equal(t, obj1.InitialDepositAmount, obj2.InitialDepositAmount)
	assert.Equal(t, obj1.TotalNumberOfPayouts, obj2.TotalNumberOfPayouts)
	assert.Equal(t, obj1.PayoutInterval, obj2.PayoutInterval)
	assert.Equal(t, obj1.NumberOfPaymentsMade, obj2.NumberOfPaymentsMade)
	assert.Equal(t, obj1.NextPayoutAt, obj2.NextPayoutAt)
	assert.Equal(t, obj1.CancelAuthority, obj2.CancelAuthority)
	assert.Equal(t, obj1.Autopay, obj2.Autopay)
	assert.Equal(t, obj1.State, obj2.State)
	assert.Equal(t, obj1.Slot, obj2.Slot)
}

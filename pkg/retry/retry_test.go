package retry

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valhalla-so/valhalla-server/pkg/retry/backoff"
)

func TestRetry_SucceedsEventually(t *testing.T) {
	var calls int
	attempts, err := Retry(func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	}, Limit(5))

	require.NoError(t, err)
	assert.EqualValues(t, 3, attempts)
}

func TestRetry_StrategyOrder(t *testing.T) {
	retriable := errors.New("retriable")

	ts := &testSleeper{}
	sleeperImpl = ts
	defer func() { sleeperImpl = realSleeper{} }()

	// A declining strategy short circuits the backoff after it
	attempts, err := Retry(func() error { return errors.New("other") },
		Limit(5),
		RetriableErrors(retriable),
		Backoff(backoff.Constant(time.Millisecond), time.Second),
	)
	assert.EqualError(t, err, "other")
	assert.EqualValues(t, 1, attempts)
	assert.Empty(t, ts.sleepTimes)

	attempts, err = Retry(func() error { return retriable },
		Limit(5),
		RetriableErrors(retriable),
		Backoff(backoff.Constant(time.Millisecond), time.Second),
	)
	assert.Equal(t, retriable, err)
	assert.EqualValues(t, 5, attempts)
	assert.Len(t, ts.sleepTimes, 4)
}

func TestRetry_RealSleeper(t *testing.T) {
	start := time.Now()
	attempts, err := Retry(func() error { return errors.New("err") },
		Limit(2),
		Backoff(backoff.Constant(200*time.Millisecond), time.Second),
	)

	assert.Error(t, err)
	assert.EqualValues(t, 2, attempts)
	assert.True(t, time.Since(start) >= 200*time.Millisecond)
	assert.True(t, time.Since(start) < time.Second)
}

func TestLoop_ResetsAfterSuccess(t *testing.T) {
	ts := &testSleeper{}
	sleeperImpl = ts
	defer func() { sleeperImpl = realSleeper{} }()

	errStop := errors.New("stop")

	var i int
	err := Loop(
		func() error {
			defer func() { i++ }()

			switch {
			case i > 10:
				return errStop
			case i%4 == 0:
				return nil
			}
			return errors.New("transient")
		},
		NonRetriableErrors(errStop),
		Backoff(backoff.Linear(1), time.Second),
	)

	assert.Equal(t, errStop, err)
	assert.Equal(t, []time.Duration{1, 2, 3, 1, 2, 3, 1, 2}, ts.sleepTimes)
}

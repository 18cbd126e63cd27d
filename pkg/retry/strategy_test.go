package retry

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/valhalla-so/valhalla-server/pkg/retry/backoff"
)

func TestLimit(t *testing.T) {
	strategy := Limit(2)
	assert.True(t, strategy(1, errors.New("err")))
	assert.False(t, strategy(2, errors.New("err")))
	assert.False(t, Limit(1)(1, errors.New("err")))
}

func TestErrorMatching(t *testing.T) {
	errA, errB := errors.New("a"), errors.New("b")
	unknown := errors.New("unknown")

	retriable := RetriableErrors(errA, errB)
	nonRetriable := NonRetriableErrors(errA, errB)

	for _, err := range []error{errA, errB, errors.Wrap(errA, "wrapped")} {
		assert.True(t, retriable(1, err))
		assert.False(t, nonRetriable(1, err))
	}
	assert.False(t, retriable(1, unknown))
	assert.True(t, nonRetriable(1, unknown))
}

type codedError uint32

func (e codedError) Error() string { return "coded" }

func isCode(code uint32) func(error) bool {
	return func(err error) bool {
		var ce codedError
		return errors.As(err, &ce) && uint32(ce) == code
	}
}

func TestPredicates(t *testing.T) {
	retriable := RetriableIf(isCode(6000))
	assert.True(t, retriable(1, codedError(6000)))
	assert.True(t, retriable(1, errors.Wrap(codedError(6000), "wrapped")))
	assert.False(t, retriable(1, codedError(6001)))
	assert.False(t, retriable(1, errors.New("other")))

	nonRetriable := NonRetriableIf(isCode(6002))
	assert.False(t, nonRetriable(1, codedError(6002)))
	assert.True(t, nonRetriable(1, codedError(6000)))
}

func TestUntilDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	strategy := UntilDone(ctx)
	assert.True(t, strategy(1, errors.New("err")))

	cancel()
	assert.False(t, strategy(2, errors.New("err")))
}

func TestBackoff_Capped(t *testing.T) {
	ts := &testSleeper{}
	sleeperImpl = ts
	defer func() { sleeperImpl = realSleeper{} }()

	strategy := Backoff(backoff.BinaryExponential(100*time.Millisecond), 300*time.Millisecond)
	for attempts := uint(1); attempts <= 4; attempts++ {
		assert.True(t, strategy(attempts, errors.New("err")))
	}

	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		300 * time.Millisecond,
		300 * time.Millisecond,
	}, ts.sleepTimes)
}

func TestBackoffWithJitter(t *testing.T) {
	const (
		iterations = 10_000
		delay      = time.Millisecond
	)

	ts := &testSleeper{}
	sleeperImpl = ts
	defer func() { sleeperImpl = realSleeper{} }()

	strategy := BackoffWithJitter(backoff.Constant(delay), delay, 0.1)
	for i := 0; i < iterations; i++ {
		assert.True(t, strategy(1, errors.New("err")))
	}

	for _, d := range ts.sleepTimes {
		assert.True(t, d >= 900*time.Microsecond && d <= 1100*time.Microsecond)
	}

	// Uniform jitter over +/- 10% is centered on the delay with a mean
	// absolute deviation of 5%
	assert.InDelta(t, float64(delay), float64(ts.mean()), 0.01*float64(delay))
	assert.InDelta(t, 0.05*float64(delay), ts.absDeviation(), 0.005*float64(delay))
}

func TestBackoffUntilDone(t *testing.T) {
	strategy := BackoffUntilDone(context.Background(), backoff.Constant(10*time.Millisecond), time.Second)
	start := time.Now()
	assert.True(t, strategy(1, errors.New("err")))
	assert.True(t, time.Since(start) >= 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	strategy = BackoffUntilDone(ctx, backoff.Constant(time.Minute), time.Minute)
	start = time.Now()
	assert.False(t, strategy(1, errors.New("err")))
	assert.True(t, time.Since(start) < 10*time.Second)
}

type testSleeper struct {
	sleepTimes []time.Duration
}

func (t *testSleeper) Sleep(d time.Duration) {
	t.sleepTimes = append(t.sleepTimes, d)
}

func (t *testSleeper) mean() time.Duration {
	var total time.Duration
	for _, d := range t.sleepTimes {
		total += d
	}
	return total / time.Duration(len(t.sleepTimes))
}

func (t *testSleeper) absDeviation() float64 {
	mean := float64(t.mean())

	var total float64
	for _, d := range t.sleepTimes {
		total += math.Abs(float64(d) - mean)
	}
	return total / float64(len(t.sleepTimes))
}

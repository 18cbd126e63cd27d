package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/valhalla-so/valhalla-server/pkg/retry/backoff"
)

// Strategy decides whether a failed action should run again. attempts counts
// the failed runs so far and starts at 1. Strategies may sleep.
type Strategy func(attempts uint, err error) bool

// Limit allows at most maxAttempts runs of the action in total.
func Limit(maxAttempts uint) Strategy {
	return func(attempts uint, _ error) bool {
		return attempts < maxAttempts
	}
}

// RetriableErrors only retries errors matching one of retriable.
func RetriableErrors(retriable ...error) Strategy {
	return RetriableIf(func(err error) bool {
		return matchesAny(err, retriable)
	})
}

// NonRetriableErrors retries everything except errors matching one of
// nonRetriable.
func NonRetriableErrors(nonRetriable ...error) Strategy {
	return NonRetriableIf(func(err error) bool {
		return matchesAny(err, nonRetriable)
	})
}

// RetriableIf only retries errors for which predicate holds.
func RetriableIf(predicate func(err error) bool) Strategy {
	return func(_ uint, err error) bool {
		return predicate(err)
	}
}

// NonRetriableIf stops on errors for which predicate holds.
func NonRetriableIf(predicate func(err error) bool) Strategy {
	return func(_ uint, err error) bool {
		return !predicate(err)
	}
}

// UntilDone stops retrying once ctx is done.
func UntilDone(ctx context.Context) Strategy {
	return func(_ uint, _ error) bool {
		return ctx.Err() == nil
	}
}

// Backoff sleeps for the delay given by strategy, capped at maxBackoff, before
// allowing the next attempt.
func Backoff(strategy backoff.Strategy, maxBackoff time.Duration) Strategy {
	return func(attempts uint, _ error) bool {
		sleeperImpl.Sleep(capped(strategy(attempts), maxBackoff))
		return true
	}
}

// BackoffWithJitter is Backoff with the capped delay moved by up to
// +/- jitter of itself. A jitter of 0.1 on a 100ms delay sleeps 90ms to 110ms.
func BackoffWithJitter(strategy backoff.Strategy, maxBackoff time.Duration, jitter float64) Strategy {
	return func(attempts uint, _ error) bool {
		delay := float64(capped(strategy(attempts), maxBackoff))
		offset := (2*rand.Float64() - 1) * jitter
		sleeperImpl.Sleep(time.Duration(delay * (1 + offset)))
		return true
	}
}

// BackoffUntilDone is Backoff with a sleep that is cut short when ctx is done,
// in which case no further attempt is allowed.
func BackoffUntilDone(ctx context.Context, strategy backoff.Strategy, maxBackoff time.Duration) Strategy {
	return func(attempts uint, _ error) bool {
		timer := time.NewTimer(capped(strategy(attempts), maxBackoff))
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return true
		}
	}
}

func capped(delay, maxDelay time.Duration) time.Duration {
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

type sleeper interface {
	Sleep(time.Duration)
}

type realSleeper struct{}

func (realSleeper) Sleep(d time.Duration) { time.Sleep(d) }

var sleeperImpl sleeper = realSleeper{}

package testutil

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

var ErrConditionNotMet = errors.New("condition not met")

// WaitFor polls condition every interval until it holds or timeout elapses.
// The condition is always checked at least once.
func WaitFor(timeout, interval time.Duration, condition func() bool) error {
	if interval <= 0 || timeout < interval {
		return errors.Errorf("invalid poll interval %v for timeout %v", interval, timeout)
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for !condition() {
		select {
		case <-deadline.C:
			if condition() {
				return nil
			}
			return errors.Wrapf(ErrConditionNotMet, "after %v", timeout)
		case <-ticker.C:
		}
	}
	return nil
}

// RequireEventually fails the test if condition is not met within timeout
func RequireEventually(t *testing.T, timeout time.Duration, condition func() bool) {
	t.Helper()
	require.NoError(t, WaitFor(timeout, 10*time.Millisecond, condition))
}

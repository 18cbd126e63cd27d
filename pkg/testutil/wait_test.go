package testutil

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitFor_ImmediateSuccess(t *testing.T) {
	var calls int
	err := WaitFor(time.Second, time.Millisecond, func() bool {
		calls++
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWaitFor_Timeout(t *testing.T) {
	start := time.Now()
	err := WaitFor(30*time.Millisecond, 5*time.Millisecond, func() bool { return false })
	assert.ErrorIs(t, err, ErrConditionNotMet)
	assert.True(t, time.Since(start) >= 30*time.Millisecond)
}

func TestWaitFor_InvalidInterval(t *testing.T) {
	assert.Error(t, WaitFor(10*time.Millisecond, 20*time.Millisecond, func() bool { return true }))
	assert.Error(t, WaitFor(10*time.Millisecond, 0, func() bool { return true }))
}

func TestRequireEventually(t *testing.T) {
	var ready atomic.Bool
	time.AfterFunc(20*time.Millisecond, func() { ready.Store(true) })

	RequireEventually(t, time.Second, ready.Load)
	assert.True(t, ready.Load())
}

// Package rate provides keyed rate limiting.
package rate

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter limits operations per key
type Limiter interface {
	// Allow reports whether an operation for key may happen now
	Allow(key string) (bool, error)

	// Wait blocks until an operation for key may happen, or ctx is done
	Wait(ctx context.Context, key string) error
}

type localRateLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// NewLocalRateLimiter returns an in memory token bucket per key, refilled at
// limit tokens per second. Buckets hold at least one token, so fractional
// limits still admit a first operation.
func NewLocalRateLimiter(limit rate.Limit) Limiter {
	return &localRateLimiter{
		limit:   limit,
		burst:   max(int(limit), 1),
		buckets: make(map[string]*rate.Limiter),
	}
}

// Allow implements Limiter.Allow
func (l *localRateLimiter) Allow(key string) (bool, error) {
	return l.bucket(key).Allow(), nil
}

// Wait implements Limiter.Wait
func (l *localRateLimiter) Wait(ctx context.Context, key string) error {
	return l.bucket(key).Wait(ctx)
}

func (l *localRateLimiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if bucket, ok := l.buckets[key]; ok {
		return bucket
	}

	bucket := rate.NewLimiter(l.limit, l.burst)
	l.buckets[key] = bucket
	return bucket
}

// NoLimiter admits every operation
type NoLimiter struct{}

// Allow implements Limiter.Allow
func (*NoLimiter) Allow(string) (bool, error) {
	return true, nil
}

// Wait implements Limiter.Wait
func (*NoLimiter) Wait(ctx context.Context, _ string) error {
	return ctx.Err()
}

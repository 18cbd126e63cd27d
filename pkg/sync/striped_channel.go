package sync

import (
	"context"
	"sync"
)

const (
	hashEntriesPerChannel = 200
)

// StripedChannel is a partitioned channel that consistently maps a key space
// to a set of buffered channels, so values for the same key are always
// received by the same consumer in send order.
type StripedChannel[T any] struct {
	channels []chan T
	hashRing *ring

	closeOnce sync.Once
}

// NewStripedChannel returns a new StripedChannel with count channels, each
// buffering up to queueSize values.
func NewStripedChannel[T any](count, queueSize uint) *StripedChannel[T] {
	channels := make([]chan T, count)
	for i := range channels {
		channels[i] = make(chan T, queueSize)
	}

	return &StripedChannel[T]{
		channels: channels,
		hashRing: newRing(len(channels), hashEntriesPerChannel),
	}
}

// GetChannels returns the receiving end of every stripe
func (c *StripedChannel[T]) GetChannels() []<-chan T {
	receivers := make([]<-chan T, len(c.channels))
	for i, channel := range c.channels {
		receivers[i] = channel
	}
	return receivers
}

// Send puts the value on the stripe for key without blocking. It returns false
// if the stripe is full.
func (c *StripedChannel[T]) Send(key []byte, value T) bool {
	select {
	case c.channels[c.hashRing.stripe(key)] <- value:
		return true
	default:
		return false
	}
}

// SendContext waits for room on the stripe for key, returning false if ctx is
// done first.
func (c *StripedChannel[T]) SendContext(ctx context.Context, key []byte, value T) bool {
	select {
	case c.channels[c.hashRing.stripe(key)] <- value:
		return true
	case <-ctx.Done():
		return false
	}
}

// Close closes every stripe. Sending after Close panics.
func (c *StripedChannel[T]) Close() {
	c.closeOnce.Do(func() {
		for _, channel := range c.channels {
			close(channel)
		}
	})
}

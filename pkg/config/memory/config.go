// Package memory provides a mutable in-process config, mostly for tests.
package memory

import (
	"context"
	"sync"

	"github.com/valhalla-so/valhalla-server/pkg/config"
)

// Config holds a value that can be changed at runtime. A nil value reads as
// config.ErrNoValue.
type Config struct {
	mu       sync.RWMutex
	value    interface{}
	err      error
	shutdown bool
}

func NewConfig(value interface{}) *Config {
	return &Config{value: value}
}

// Get implements config.Config.Get
func (c *Config) Get(_ context.Context) (interface{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch {
	case c.shutdown:
		return nil, config.ErrShutdown
	case c.err != nil:
		return nil, c.err
	case c.value == nil:
		return nil, config.ErrNoValue
	}
	return c.value, nil
}

// Shutdown implements config.Config.Shutdown
func (c *Config) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shutdown = true
}

// Set replaces the value returned by Get
func (c *Config) Set(value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
}

// Clear unsets the value, so Get returns config.ErrNoValue
func (c *Config) Clear() {
	c.Set(nil)
}

// Fail makes Get return err until Recover is called
func (c *Config) Fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

func (c *Config) Recover() {
	c.Fail(nil)
}

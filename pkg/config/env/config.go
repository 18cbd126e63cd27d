// Package env provides configs read from environment variables.
package env

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/valhalla-so/valhalla-server/pkg/config"
	"github.com/valhalla-so/valhalla-server/pkg/config/wrapper"
)

type variable string

// NewConfig returns a config backed by the upper cased variable name. Values
// are looked up on every Get, and an empty variable counts as unset.
func NewConfig(name string) config.Config {
	return variable(strings.ToUpper(name))
}

// Get implements Config.Get
func (v variable) Get(_ context.Context) (interface{}, error) {
	if val := os.Getenv(string(v)); len(val) > 0 {
		return []byte(val), nil
	}
	return nil, config.ErrNoValue
}

// Shutdown implements Config.Shutdown
func (v variable) Shutdown() {}

func NewUint64Config(name string, defaultValue uint64) config.Uint64 {
	return wrapper.NewUint64Config(NewConfig(name), defaultValue)
}

func NewStringConfig(name string, defaultValue string) config.String {
	return wrapper.NewStringConfig(NewConfig(name), defaultValue)
}

func NewBoolConfig(name string, defaultValue bool) config.Bool {
	return wrapper.NewBoolConfig(NewConfig(name), defaultValue)
}

func NewDurationConfig(name string, defaultValue time.Duration) config.Duration {
	return wrapper.NewDurationConfig(NewConfig(name), defaultValue)
}

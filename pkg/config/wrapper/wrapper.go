package wrapper

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/valhalla-so/valhalla-server/pkg/config"
)

// ErrUnsuportedConversion indicates the wrapper does not implement conversion from the source type
var ErrUnsuportedConversion = errors.New("config: wrapper conversion from source type not implemented")

// Parser converts the textual form of a config value
type Parser[T any] func(raw string) (T, error)

type value[T any] struct {
	override     config.Config
	defaultValue T
	parse        Parser[T]

	stateMu   sync.RWMutex
	lastValue T
}

// NewValue wraps a raw config. Values of type T are used as is, and textual
// values are converted with parse.
func NewValue[T any](override config.Config, defaultValue T, parse Parser[T]) config.Value[T] {
	return &value[T]{
		override:     override,
		defaultValue: defaultValue,
		parse:        parse,
		lastValue:    defaultValue,
	}
}

// GetSafe gets a config value and propagates any errors that arise. A best-effort
// attempt is made to return the last known value
func (c *value[T]) GetSafe(ctx context.Context) (T, error) {
	override, err := c.override.Get(ctx)

	c.stateMu.RLock()
	lastValue := c.lastValue
	c.stateMu.RUnlock()

	if err == config.ErrNoValue {
		c.set(c.defaultValue)
		return c.defaultValue, nil
	} else if err != nil {
		return lastValue, err
	}

	var newValue T
	switch typed := override.(type) {
	case T:
		newValue = typed
	case []byte:
		if c.parse == nil {
			return lastValue, ErrUnsuportedConversion
		}
		newValue, err = c.parse(string(typed))
	case string:
		if c.parse == nil {
			return lastValue, ErrUnsuportedConversion
		}
		newValue, err = c.parse(typed)
	default:
		return lastValue, ErrUnsuportedConversion
	}
	if err != nil {
		return lastValue, err
	}

	c.set(newValue)
	return newValue, nil
}

// Get is a wrapper for GetSafe that ignores the returned error
func (c *value[T]) Get(ctx context.Context) T {
	val, _ := c.GetSafe(ctx)
	return val
}

// Shutdown signals the config to stop all underlying resources
func (c *value[T]) Shutdown() {
	c.override.Shutdown()
}

func (c *value[T]) set(v T) {
	c.stateMu.Lock()
	c.lastValue = v
	c.stateMu.Unlock()
}

func NewBoolConfig(override config.Config, defaultValue bool) config.Bool {
	return NewValue(override, defaultValue, strconv.ParseBool)
}

func NewDurationConfig(override config.Config, defaultValue time.Duration) config.Duration {
	return NewValue(override, defaultValue, time.ParseDuration)
}

func NewUint64Config(override config.Config, defaultValue uint64) config.Uint64 {
	return NewValue(override, defaultValue, func(raw string) (uint64, error) {
		return strconv.ParseUint(raw, 10, 64)
	})
}

func NewStringConfig(override config.Config, defaultValue string) config.String {
	return NewValue(override, defaultValue, func(raw string) (string, error) {
		return raw, nil
	})
}

package app

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the application specific configuration under the "app" key. It
// is passed to App.Init, and is optional.
type Config map[string]interface{}

// BaseConfig contains the base configuration for the process, as well as the
// application itself.
type BaseConfig struct {
	LogLevel string `mapstructure:"log_level"`

	AppName string `mapstructure:"app_name"`

	ListenAddress      string `mapstructure:"listen_address"`
	DebugListenAddress string `mapstructure:"debug_listen_address"`

	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`

	EnablePprof  bool `mapstructure:"enable_pprof"`
	EnableExpvar bool `mapstructure:"enable_expvar"`

	// Ballast for improving GC performance. Capacity is limited to 50% of
	// the total memory.
	EnableBallast   bool    `mapstructure:"enable_ballast"`
	BallastCapacity float32 `mapstructure:"ballast_capacity"`

	// Periodically terminate the application when there's a memory leak
	EnableMemoryLeakCron   bool   `mapstructure:"enable_memory_leak_cron"`
	MemoryLeakCronSchedule string `mapstructure:"memory_leak_cron_schedule"`

	NewRelicLicenseKey string `mapstructure:"new_relic_license_key"`

	// Users should use mapstructure.Decode for AppConfig.
	AppConfig Config `mapstructure:"app"`
}

const maxBallastCapacity = 0.5

var defaultConfig = BaseConfig{
	LogLevel: "info",

	ListenAddress:      ":8085",
	DebugListenAddress: ":8123",

	ShutdownGracePeriod: 30 * time.Second,

	EnablePprof:  true,
	EnableExpvar: true,

	EnableBallast:   false,
	BallastCapacity: 0.333,

	EnableMemoryLeakCron:   false,
	MemoryLeakCronSchedule: "0 5 * * *",
}

var envBindings = map[string]string{
	"log_level":                 "LOG_LEVEL",
	"app_name":                  "APP_NAME",
	"listen_address":            "LISTEN_ADDRESS",
	"debug_listen_address":      "DEBUG_LISTEN_ADDRESS",
	"shutdown_grace_period":     "SHUTDOWN_GRACE_PERIOD",
	"enable_pprof":              "ENABLE_PPROF",
	"enable_expvar":             "ENABLE_EXPVAR",
	"enable_ballast":            "ENABLE_BALLAST",
	"ballast_capacity":          "BALLAST_CAPACITY",
	"enable_memory_leak_cron":   "ENABLE_MEMORY_LEAK_CRON",
	"memory_leak_cron_schedule": "MEMORY_LEAK_CRON_SCHEDULE",
	"new_relic_license_key":     "NEW_RELIC_LICENSE_KEY",
}

// LoadConfig reads the config file at path, if it exists, and overlays the
// environment bindings on top of the defaults.
func LoadConfig(path string) (BaseConfig, error) {
	v := viper.New()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return BaseConfig{}, errors.Wrapf(err, "error binding %s", env)
		}
	}

	// viper only returns ConfigFileNotFoundError when it searches for a
	// config file itself, so a missing explicit path is checked here.
	if len(path) > 0 {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return BaseConfig{}, errors.Wrap(err, "error reading config")
			}
		} else if !os.IsNotExist(err) {
			return BaseConfig{}, errors.Wrap(err, "error checking if config exists")
		}
	}

	config := defaultConfig
	if err := v.Unmarshal(&config); err != nil {
		return BaseConfig{}, errors.Wrap(err, "error unmarshalling config")
	}

	if len(config.AppName) == 0 {
		return BaseConfig{}, errors.New("must specify an application name")
	}
	if config.BallastCapacity > maxBallastCapacity {
		config.BallastCapacity = maxBallastCapacity
	}
	return config, nil
}

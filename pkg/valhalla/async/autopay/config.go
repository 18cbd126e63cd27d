package async_autopay

import (
	"github.com/valhalla-so/valhalla-server/pkg/config"
	"github.com/valhalla-so/valhalla-server/pkg/config/env"
	"github.com/valhalla-so/valhalla-server/pkg/config/memory"
	"github.com/valhalla-so/valhalla-server/pkg/config/wrapper"
)

const (
	envConfigPrefix = "AUTOPAY_SERVICE_"

	DisableAutopayConfigEnvName = envConfigPrefix + "DISABLE_AUTOPAY"
	defaultDisableAutopay       = false

	DiscoveryBatchSizeConfigEnvName = envConfigPrefix + "DISCOVERY_BATCH_SIZE"
	defaultDiscoveryBatchSize       = 100

	DisburseRetryLimitConfigEnvName = envConfigPrefix + "DISBURSE_RETRY_LIMIT"
	defaultDisburseRetryLimit       = 3
)

type conf struct {
	disableAutopay     config.Bool
	discoveryBatchSize config.Uint64
	disburseRetryLimit config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			disableAutopay:     env.NewBoolConfig(DisableAutopayConfigEnvName, defaultDisableAutopay),
			discoveryBatchSize: env.NewUint64Config(DiscoveryBatchSizeConfigEnvName, defaultDiscoveryBatchSize),
			disburseRetryLimit: env.NewUint64Config(DisburseRetryLimitConfigEnvName, defaultDisburseRetryLimit),
		}
	}
}

type testOverrides struct {
	disableAutopay     bool
	discoveryBatchSize uint64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			disableAutopay:     wrapper.NewBoolConfig(memory.NewConfig(overrides.disableAutopay), defaultDisableAutopay),
			discoveryBatchSize: wrapper.NewUint64Config(memory.NewConfig(overrides.discoveryBatchSize), defaultDiscoveryBatchSize),
			disburseRetryLimit: wrapper.NewUint64Config(memory.NewConfig(uint64(2)), defaultDisburseRetryLimit),
		}
	}
}

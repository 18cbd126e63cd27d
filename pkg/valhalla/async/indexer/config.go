package async_indexer

import (
	"github.com/valhalla-so/valhalla-server/pkg/config"
	"github.com/valhalla-so/valhalla-server/pkg/config/env"
	"github.com/valhalla-so/valhalla-server/pkg/config/memory"
	"github.com/valhalla-so/valhalla-server/pkg/config/wrapper"
)

const (
	envConfigPrefix = "INDEXER_SERVICE_"

	DisableIndexingConfigEnvName = envConfigPrefix + "DISABLE_INDEXING"
	defaultDisableIndexing       = false

	WorkerBatchSizeConfigEnvName = envConfigPrefix + "WORKER_BATCH_SIZE"
	defaultWorkerBatchSize       = 100
)

type conf struct {
	disableIndexing config.Bool
	workerBatchSize config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			disableIndexing: env.NewBoolConfig(DisableIndexingConfigEnvName, defaultDisableIndexing),
			workerBatchSize: env.NewUint64Config(WorkerBatchSizeConfigEnvName, defaultWorkerBatchSize),
		}
	}
}

type testOverrides struct {
	disableIndexing bool
	workerBatchSize uint64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			disableIndexing: wrapper.NewBoolConfig(memory.NewConfig(overrides.disableIndexing), defaultDisableIndexing),
			workerBatchSize: wrapper.NewUint64Config(memory.NewConfig(overrides.workerBatchSize), defaultWorkerBatchSize),
		}
	}
}

package main

import (
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/valhalla-so/valhalla-server/pkg/app"
	pg "github.com/valhalla-so/valhalla-server/pkg/database/postgres"
	"github.com/valhalla-so/valhalla-server/pkg/solana/valhalla"
)

const (
	storeMemory   = "memory"
	storePostgres = "postgres"
)

type bootstrapConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Base58 treasury addresses. Random keys are used when empty.
	DevTreasury string `mapstructure:"dev_treasury"`
	DaoTreasury string `mapstructure:"dao_treasury"`

	Name                  string `mapstructure:"name"`
	Symbol                string `mapstructure:"symbol"`
	Uri                   string `mapstructure:"uri"`
	Decimals              uint8  `mapstructure:"decimals"`
	DevFee                uint64 `mapstructure:"dev_fee"`
	AutopayMultiplier     uint64 `mapstructure:"autopay_multiplier"`
	TokenFeeBasisPoints   uint64 `mapstructure:"token_fee_basis_points"`
	GovernanceTokenAmount uint64 `mapstructure:"governance_token_amount"`
}

type localnetConfig struct {
	Store    string    `mapstructure:"store"`
	Postgres pg.Config `mapstructure:"postgres"`

	// JSON byte array key file, generated on first start when missing
	PayerKeyFile    string        `mapstructure:"payer_key_file"`
	PayerAirdrop    uint64        `mapstructure:"payer_airdrop"`
	AutopayRateHz   float64       `mapstructure:"autopay_rate_hz"`
	IndexerInterval time.Duration `mapstructure:"indexer_interval"`
	AutopayInterval time.Duration `mapstructure:"autopay_interval"`

	Bootstrap bootstrapConfig `mapstructure:"bootstrap"`
}

var defaultLocalnetConfig = localnetConfig{
	Store: storeMemory,

	PayerKeyFile:    "payer.json",
	PayerAirdrop:    100_000_000_000,
	AutopayRateHz:   1,
	IndexerInterval: time.Second,
	AutopayInterval: time.Second,

	Bootstrap: bootstrapConfig{
		Enabled:               true,
		Name:                  "Valhalla",
		Symbol:                "ODIN",
		Uri:                   "https://valhalla.so/metadata.json",
		Decimals:              valhalla.GovernanceTokenDecimals,
		DevFee:                valhalla.MinSolFee,
		AutopayMultiplier:     2,
		TokenFeeBasisPoints:   50,
		GovernanceTokenAmount: 1_000_000_000,
	},
}

func decodeConfig(raw app.Config) (*localnetConfig, error) {
	config := defaultLocalnetConfig

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           &config,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(map[string]interface{}(raw)); err != nil {
		return nil, errors.Wrap(err, "error decoding app config")
	}

	switch config.Store {
	case storeMemory, storePostgres:
	default:
		return nil, errors.Errorf("unsupported store %q", config.Store)
	}
	if len(config.PayerKeyFile) == 0 {
		return nil, errors.New("payer key file is required")
	}
	if config.IndexerInterval <= 0 || config.AutopayInterval <= 0 {
		return nil, errors.New("worker intervals must be positive")
	}
	return &config, nil
}

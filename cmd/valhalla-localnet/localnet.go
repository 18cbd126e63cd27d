package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"net/http"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/mr-tron/base58"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	xrate "golang.org/x/time/rate"

	"github.com/valhalla-so/valhalla-server/pkg/app"
	pg "github.com/valhalla-so/valhalla-server/pkg/database/postgres"
	"github.com/valhalla-so/valhalla-server/pkg/metrics"
	"github.com/valhalla-so/valhalla-server/pkg/rate"
	async_autopay "github.com/valhalla-so/valhalla-server/pkg/valhalla/async/autopay"
	async_indexer "github.com/valhalla-so/valhalla-server/pkg/valhalla/async/indexer"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/client"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/data/vault"
	vault_memory "github.com/valhalla-so/valhalla-server/pkg/valhalla/data/vault/memory"
	vault_postgres "github.com/valhalla-so/valhalla-server/pkg/valhalla/data/vault/postgres"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/ledger"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/program"
)

type localnetApp struct {
	log   *logrus.Entry
	clock clockwork.Clock

	ledger *ledger.Ledger
	client *client.Client
	vaults vault.Store
	payer  ed25519.PrivateKey

	closeStore func() error

	ctx        context.Context
	cancel     context.CancelFunc
	workers    sync.WaitGroup
	shutdownCh chan struct{}
	stopOnce   sync.Once
}

func newLocalnetApp(clock clockwork.Clock) *localnetApp {
	return &localnetApp{
		log:        logrus.StandardLogger().WithField("app", "valhalla-localnet"),
		clock:      clock,
		closeStore: func() error { return nil },
		shutdownCh: make(chan struct{}),
	}
}

// Init implements app.App.Init
func (a *localnetApp) Init(raw app.Config, metricsProvider *newrelic.Application) error {
	config, err := decodeConfig(raw)
	if err != nil {
		return err
	}

	a.ctx, a.cancel = context.WithCancel(context.Background())
	if metricsProvider != nil {
		a.ctx = metrics.WithNewRelic(a.ctx, metricsProvider)
	}

	a.ledger = ledger.New(a.clock)
	program.New().Register(a.ledger)
	a.client = client.New(a.ledger)

	if err := a.initStore(a.ctx, config); err != nil {
		return err
	}

	a.payer, err = loadOrCreateKey(config.PayerKeyFile)
	if err != nil {
		return errors.Wrap(err, "error loading payer key")
	}
	payer := a.payer.Public().(ed25519.PublicKey)
	if err := a.ledger.Airdrop(a.ctx, payer, config.PayerAirdrop); err != nil {
		return errors.Wrap(err, "error funding payer")
	}

	if config.Bootstrap.Enabled {
		if err := a.bootstrap(a.ctx, &config.Bootstrap); err != nil {
			return err
		}
	}

	indexer := async_indexer.New(a.client, a.vaults, async_indexer.WithEnvConfigs())
	a.workers.Add(1)
	go func() {
		defer a.workers.Done()

		if err := indexer.Start(a.ctx, config.IndexerInterval); err != nil && a.ctx.Err() == nil {
			a.log.WithError(err).Warn("indexer service stopped")
		}
	}()

	autopay := async_autopay.New(
		a.client,
		a.vaults,
		a.payer,
		a.clock,
		rate.NewLocalRateLimiter(xrate.Limit(config.AutopayRateHz)),
		async_autopay.WithEnvConfigs(),
	)
	a.workers.Add(1)
	go func() {
		defer a.workers.Done()

		if err := autopay.Start(a.ctx, config.AutopayInterval); err != nil && a.ctx.Err() == nil {
			a.log.WithError(err).Warn("autopay service stopped")
		}
	}()

	a.log.WithFields(logrus.Fields{
		"store": config.Store,
		"payer": base58.Encode(payer),
	}).Info("localnet started")
	return nil
}

func (a *localnetApp) initStore(ctx context.Context, config *localnetConfig) error {
	switch config.Store {
	case storePostgres:
		db, err := pg.New(ctx, &config.Postgres)
		if err != nil {
			return errors.Wrap(err, "error connecting to postgres")
		}
		a.vaults = vault_postgres.New(db)
		a.closeStore = db.Close
	default:
		a.vaults = vault_memory.New()
	}
	return nil
}

func (a *localnetApp) bootstrap(ctx context.Context, config *bootstrapConfig) error {
	_, err := a.client.GetConfig(ctx)
	if err == nil {
		return nil
	} else if !errors.Is(err, client.ErrConfigNotFound) {
		return errors.Wrap(err, "error getting config")
	}

	devTreasury, err := treasuryOrRandom(config.DevTreasury)
	if err != nil {
		return errors.Wrap(err, "invalid dev treasury")
	}
	daoTreasury, err := treasuryOrRandom(config.DaoTreasury)
	if err != nil {
		return errors.Wrap(err, "invalid dao treasury")
	}

	_, err = a.client.CreateConfig(ctx, a.payer, &client.CreateConfigArgs{
		DevTreasury:           devTreasury,
		DaoTreasury:           daoTreasury,
		Name:                  config.Name,
		Symbol:                config.Symbol,
		Uri:                   config.Uri,
		Decimals:              config.Decimals,
		DevFee:                config.DevFee,
		AutopayMultiplier:     config.AutopayMultiplier,
		TokenFeeBasisPoints:   config.TokenFeeBasisPoints,
		GovernanceTokenAmount: config.GovernanceTokenAmount,
	})
	if err != nil {
		return errors.Wrap(err, "error creating config")
	}

	a.log.WithFields(logrus.Fields{
		"dev_treasury": base58.Encode(devTreasury),
		"dao_treasury": base58.Encode(daoTreasury),
	}).Info("config created")
	return nil
}

func treasuryOrRandom(value string) (ed25519.PublicKey, error) {
	if len(value) == 0 {
		public, _, err := ed25519.GenerateKey(rand.Reader)
		return public, err
	}

	decoded, err := base58.Decode(value)
	if err != nil {
		return nil, err
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid address length %d", len(decoded))
	}
	return decoded, nil
}

// RegisterWithHTTP implements app.App.RegisterWithHTTP
func (a *localnetApp) RegisterWithHTTP(mux *http.ServeMux) {
	mux.Handle(vaultPath, newVaultHandler(a.vaults))
	mux.Handle(vaultsPath, newVaultListHandler(a.vaults))
}

// ShutdownChan implements app.App.ShutdownChan
func (a *localnetApp) ShutdownChan() <-chan struct{} {
	return a.shutdownCh
}

// Stop implements app.App.Stop
func (a *localnetApp) Stop() {
	a.stopOnce.Do(func() {
		if a.cancel != nil {
			a.cancel()
		}
		a.workers.Wait()

		if err := a.closeStore(); err != nil {
			a.log.WithError(err).Warn("failure closing store")
		}
		close(a.shutdownCh)
	})
}

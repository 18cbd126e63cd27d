// Package async_indexer mirrors vault accounts on the ledger into the vault
// store, marking vaults closed once their account disappears.
package async_indexer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/valhalla-so/valhalla-server/pkg/valhalla/async"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/client"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/data/vault"
)

type service struct {
	log    *logrus.Entry
	conf   *conf
	client *client.Client
	vaults vault.Store
}

func New(client *client.Client, vaults vault.Store, configProvider ConfigProvider) async.Service {
	return &service{
		log:    logrus.StandardLogger().WithField("service", "indexer"),
		conf:   configProvider(),
		client: client,
		vaults: vaults,
	}
}

func (p *service) Start(ctx context.Context, interval time.Duration) error {
	go func() {
		err := p.worker(ctx, interval)
		if err != nil && err != context.Canceled {
			p.log.WithError(err).Warn("vault indexing loop terminated unexpectedly")
		}
	}()

	go func() {
		err := p.metricsGaugeWorker(ctx)
		if err != nil && err != context.Canceled {
			p.log.WithError(err).Warn("vault metrics gauge loop terminated unexpectedly")
		}
	}()

	<-ctx.Done()
	return ctx.Err()
}

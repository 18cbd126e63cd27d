// Package async_autopay disburses due payouts of autopay vaults on behalf of
// their recipients.
package async_autopay

import (
	"context"
	"crypto/ed25519"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/valhalla-so/valhalla-server/pkg/rate"
	sync_util "github.com/valhalla-so/valhalla-server/pkg/sync"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/async"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/client"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/data/vault"
)

const (
	workerCount     = 4
	workerQueueSize = 256
)

type service struct {
	log     *logrus.Entry
	conf    *conf
	client  *client.Client
	vaults  vault.Store
	payer   ed25519.PrivateKey
	clock   clockwork.Clock
	limiter rate.Limiter

	pendingMu sync.Mutex
	pending   map[string]struct{}
}

// New returns the autopay service. Disbursements are signed and paid for by
// payer, which collects the governance token rewards. limiter bounds attempts
// per vault.
func New(
	client *client.Client,
	vaults vault.Store,
	payer ed25519.PrivateKey,
	clock clockwork.Clock,
	limiter rate.Limiter,
	configProvider ConfigProvider,
) async.Service {
	return &service{
		log:     logrus.StandardLogger().WithField("service", "autopay"),
		conf:    configProvider(),
		client:  client,
		vaults:  vaults,
		payer:   payer,
		clock:   clock,
		limiter: limiter,
		pending: make(map[string]struct{}),
	}
}

func (p *service) Start(ctx context.Context, interval time.Duration) error {
	channels := sync_util.NewStripedChannel[*vault.Record](workerCount, workerQueueSize)

	var wg sync.WaitGroup
	for i, channel := range channels.GetChannels() {
		wg.Add(1)

		go func(id int, channel <-chan *vault.Record) {
			defer wg.Done()
			p.disburseWorker(ctx, id, channel)
		}(i, channel)
	}

	err := p.discoveryWorker(ctx, channels, interval)
	if err != nil && err != context.Canceled {
		p.log.WithError(err).Warn("autopay discovery loop terminated unexpectedly")
	}

	channels.Close()
	wg.Wait()

	return ctx.Err()
}

package async_autopay

import (
	"context"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/valhalla-so/valhalla-server/pkg/metrics"
	"github.com/valhalla-so/valhalla-server/pkg/retry"
	"github.com/valhalla-so/valhalla-server/pkg/retry/backoff"
	"github.com/valhalla-so/valhalla-server/pkg/solana"
	sync_util "github.com/valhalla-so/valhalla-server/pkg/sync"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/client"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/data/vault"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/ledger"
)

type attemptResult string

const (
	attemptSucceeded attemptResult = "succeeded"
	attemptSkipped   attemptResult = "skipped"
	attemptLimited   attemptResult = "rate_limited"
	attemptFailed    attemptResult = "failed"
)

func (p *service) discoveryWorker(serviceCtx context.Context, channels *sync_util.StripedChannel[*vault.Record], interval time.Duration) error {
	delay := interval

	return retry.Loop(
		func() error {
			select {
			case <-serviceCtx.Done():
				return serviceCtx.Err()
			case <-time.After(delay):
			}

			if p.conf.disableAutopay.Get(serviceCtx) {
				return nil
			}

			tracedCtx, end := metrics.StartTransaction(serviceCtx, "async__autopay_service__discover")
			defer end()

			_, err := p.discover(tracedCtx, channels)
			return err
		},
		retry.NonRetriableErrors(context.Canceled),
	)
}

// discover queues every vault due for an autopay payout that isn't already
// queued, returning the number of newly queued vaults.
func (p *service) discover(ctx context.Context, channels *sync_util.StripedChannel[*vault.Record]) (int, error) {
	now := uint64(p.clock.Now().Unix())

	records, err := p.vaults.GetAutopayDue(ctx, now, p.conf.discoveryBatchSize.Get(ctx))
	if err == vault.ErrVaultNotFound {
		return 0, nil
	} else if err != nil {
		p.log.WithError(err).Warn("failure getting vaults due for autopay")
		return 0, err
	}

	var queued int
	for _, record := range records {
		if !p.markPending(record.Address) {
			continue
		}

		if !channels.Send([]byte(record.Address), record) {
			p.clearPending(record.Address)
			p.log.WithField("vault", record.Address).Debug("autopay queue full, deferring vault")
			continue
		}
		queued++
	}
	return queued, nil
}

func (p *service) disburseWorker(serviceCtx context.Context, id int, channel <-chan *vault.Record) {
	log := p.log.WithField("worker", id)

	for record := range channel {
		if serviceCtx.Err() != nil {
			p.clearPending(record.Address)
			continue
		}

		func() {
			tracedCtx, end := metrics.StartTransaction(serviceCtx, "async__autopay_service__disburse")
			defer end()

			result, attempts, err := p.handle(tracedCtx, record)
			if err != nil {
				log.WithError(err).WithField("vault", record.Address).Warn("failure disbursing autopay vault")
			}
			recordAttemptEvent(tracedCtx, record, result, attempts, err)
		}()

		p.clearPending(record.Address)
	}
}

// handle makes a single payout for the vault if one is still due on the
// ledger, then refreshes the stored record from the resulting account state.
func (p *service) handle(ctx context.Context, record *vault.Record) (attemptResult, uint, error) {
	log := p.log.WithField("vault", record.Address)

	allowed, err := p.limiter.Allow(record.Address)
	if err != nil {
		return attemptFailed, 0, errors.Wrap(err, "error checking rate limit")
	} else if !allowed {
		log.Debug("autopay attempt rate limited")
		return attemptLimited, 0, nil
	}

	address, err := base58.Decode(record.Address)
	if err != nil {
		return attemptFailed, 0, errors.Wrap(err, "invalid vault address")
	}

	canDisburse, err := p.client.CanDisburse(ctx, address)
	if errors.Is(err, client.ErrVaultNotFound) || errors.Is(err, client.ErrEscrowNotFound) {
		log.Debug("vault no longer exists")
		return attemptSkipped, 0, nil
	} else if err != nil {
		return attemptFailed, 0, errors.Wrap(err, "error checking payout eligibility")
	} else if !canDisburse {
		return attemptSkipped, 0, nil
	}

	var receipt *ledger.Receipt
	attempts, err := retry.Retry(
		func() error {
			var disburseErr error
			receipt, disburseErr = p.client.Disburse(ctx, p.payer, address)
			return disburseErr
		},
		retry.NonRetriableIf(isTerminal),
		retry.Limit(uint(p.conf.disburseRetryLimit.Get(ctx))),
		retry.BackoffUntilDone(ctx, backoff.BinaryExponential(25*time.Millisecond), 500*time.Millisecond),
	)
	if err != nil {
		return attemptFailed, attempts, err
	}

	log.WithFields(logrus.Fields{
		"slot":     receipt.Slot,
		"attempts": attempts,
	}).Debug("autopay payout disbursed")

	if err := p.refresh(ctx, record, address, receipt.Slot); err != nil {
		log.WithError(err).Warn("failure refreshing vault record after payout")
	}

	return attemptSucceeded, attempts, nil
}

func (p *service) refresh(ctx context.Context, record *vault.Record, address []byte, slot uint64) error {
	account, err := p.client.GetVault(ctx, address)
	if err != nil {
		return err
	}

	updated := record.Clone()
	err = updated.UpdateFromProgramAccount(account, slot)
	if err == vault.ErrStaleVaultState {
		return nil
	} else if err != nil {
		return err
	}

	err = p.vaults.Save(ctx, updated)
	if err == vault.ErrStaleVaultState {
		return nil
	}
	return err
}

// isTerminal reports whether a disbursement failed for a reason retrying
// cannot fix. Program errors are final for the current ledger state.
func isTerminal(err error) bool {
	var ixnErr solana.InstructionError
	if errors.As(err, &ixnErr) {
		return true
	}
	return errors.Is(err, client.ErrVaultNotFound) || errors.Is(err, client.ErrEscrowNotFound)
}

func (p *service) markPending(address string) bool {
	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()

	if _, ok := p.pending[address]; ok {
		return false
	}
	p.pending[address] = struct{}{}
	return true
}

func (p *service) clearPending(address string) {
	p.pendingMu.Lock()
	delete(p.pending, address)
	p.pendingMu.Unlock()
}

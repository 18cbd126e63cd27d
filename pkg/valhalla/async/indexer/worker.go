package async_indexer

import (
	"context"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/valhalla-so/valhalla-server/pkg/database/query"
	"github.com/valhalla-so/valhalla-server/pkg/metrics"
	"github.com/valhalla-so/valhalla-server/pkg/retry"
	"github.com/valhalla-so/valhalla-server/pkg/solana/valhalla"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/data/vault"
)

type syncResult struct {
	created uint64
	updated uint64
	closed  uint64
}

func (p *service) worker(serviceCtx context.Context, interval time.Duration) error {
	delay := interval

	return retry.Loop(
		func() error {
			select {
			case <-serviceCtx.Done():
				return serviceCtx.Err()
			case <-time.After(delay):
			}

			if p.conf.disableIndexing.Get(serviceCtx) {
				return nil
			}

			tracedCtx, end := metrics.StartTransaction(serviceCtx, "async__indexer_service__sync")
			defer end()

			start := time.Now()
			res, err := p.sync(tracedCtx)
			if err != nil {
				p.log.WithError(err).Warn("failure syncing vaults")
				return err
			}

			recordSyncEvent(tracedCtx, res, time.Since(start))
			return nil
		},
		retry.NonRetriableErrors(context.Canceled),
	)
}

// sync upserts every vault account on the ledger, then closes stored active
// vaults whose account no longer exists.
func (p *service) sync(ctx context.Context) (*syncResult, error) {
	res := &syncResult{}

	accounts, slot, err := p.client.GetVaults(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "error getting vault accounts")
	}

	seen := make(map[string]struct{}, len(accounts))
	for _, account := range accounts {
		address := base58.Encode(account.Address)
		seen[address] = struct{}{}

		created, updated, err := p.upsert(ctx, account.Address, account.Account, slot)
		if err != nil {
			return nil, err
		}
		if created {
			res.created++
		} else if updated {
			res.updated++
		}
	}

	cursor := query.EmptyCursor
	for {
		active, err := p.vaults.GetAllByState(ctx, vault.StateActive, cursor, p.conf.workerBatchSize.Get(ctx), query.Ascending)
		if err == vault.ErrVaultNotFound {
			break
		} else if err != nil {
			return nil, errors.Wrap(err, "error getting active vaults")
		}

		for _, record := range active {
			if _, ok := seen[record.Address]; ok {
				continue
			}

			err := record.MarkClosed(slot)
			if err == vault.ErrStaleVaultState {
				continue
			} else if err != nil {
				return nil, err
			}

			err = p.vaults.Save(ctx, record)
			if err == vault.ErrStaleVaultState {
				continue
			} else if err != nil {
				return nil, errors.Wrap(err, "error saving closed vault")
			}

			p.log.WithField("vault", record.Address).Debug("vault closed")
			res.closed++
		}

		cursor = query.ToCursor(active[len(active)-1].Id)
	}

	return res, nil
}

func (p *service) upsert(ctx context.Context, address []byte, account *valhalla.VaultAccount, slot uint64) (created, updated bool, err error) {
	log := p.log.WithField("vault", base58.Encode(address))

	record, err := p.vaults.GetByAddress(ctx, base58.Encode(address))
	switch err {
	case nil:
		if isUnchanged(record, account) {
			return false, false, nil
		}

		err = record.UpdateFromProgramAccount(account, slot)
	case vault.ErrVaultNotFound:
		created = true
		record, err = vault.NewFromProgramAccount(address, account, slot)
	}
	if err == vault.ErrStaleVaultState {
		return false, false, nil
	} else if err != nil {
		return false, false, errors.Wrap(err, "error loading vault record")
	}

	err = p.vaults.Save(ctx, record)
	if err == vault.ErrStaleVaultState {
		return false, false, nil
	} else if err != nil {
		return false, false, errors.Wrap(err, "error saving vault record")
	}

	if created {
		log.Debug("vault indexed")
	}
	return created, !created, nil
}

func isUnchanged(record *vault.Record, account *valhalla.VaultAccount) bool {
	return record.IsActive() &&
		record.CreatedTimestamp == account.CreatedTimestamp &&
		record.NumberOfPaymentsMade == account.NumberOfPaymentsMade &&
		record.LastPaymentTimestamp == account.LastPaymentTimestamp
}

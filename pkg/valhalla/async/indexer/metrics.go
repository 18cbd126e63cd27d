package async_indexer

import (
	"context"
	"time"

	"github.com/valhalla-so/valhalla-server/pkg/metrics"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/data/vault"
)

const (
	vaultCountEventName = "VaultCountPollingCheck"
	vaultSyncEventName  = "VaultIndexerSync"

	syncDurationMetricName = "Custom/VaultIndexer/SyncDuration"
	activeVaultsMetricName = "Custom/VaultIndexer/ActiveVaults"
)

func (p *service) metricsGaugeWorker(ctx context.Context) error {
	delay := time.Second

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			start := time.Now()

			for _, state := range []vault.State{
				vault.StateActive,
				vault.StateClosed,
			} {
				count, err := p.vaults.GetCountByState(ctx, state)
				if err != nil {
					continue
				}
				recordVaultCountEvent(ctx, state, count)
			}

			delay = time.Second - time.Since(start)
		}
	}
}

func recordVaultCountEvent(ctx context.Context, state vault.State, count uint64) {
	metrics.RecordEvent(ctx, vaultCountEventName, map[string]interface{}{
		"count": count,
		"state": state.String(),
	})
	if state == vault.StateActive {
		metrics.RecordCount(ctx, activeVaultsMetricName, count)
	}
}

func recordSyncEvent(ctx context.Context, res *syncResult, duration time.Duration) {
	metrics.RecordEvent(ctx, vaultSyncEventName, map[string]interface{}{
		"created":  res.created,
		"updated":  res.updated,
		"closed":   res.closed,
		"duration": duration.Milliseconds(),
	})
	metrics.RecordDuration(ctx, syncDurationMetricName, duration)
}

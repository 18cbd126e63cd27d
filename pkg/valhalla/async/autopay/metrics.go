package async_autopay

import (
	"context"

	"github.com/valhalla-so/valhalla-server/pkg/metrics"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/data/vault"
)

const (
	disbursementAttemptEventName = "AutopayDisbursementAttempt"
)

func recordAttemptEvent(ctx context.Context, record *vault.Record, result attemptResult, attempts uint, err error) {
	kvs := map[string]interface{}{
		"vault":    record.Address,
		"mint":     record.Mint,
		"result":   string(result),
		"attempts": attempts,
	}
	if err != nil {
		kvs["error"] = err.Error()
	}
	metrics.RecordEvent(ctx, disbursementAttemptEventName, kvs)
}

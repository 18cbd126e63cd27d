package metrics

import (
	"context"
	"time"
)

// Every recorder is a no-op when ctx carries no New Relic application

// RecordCount records count under the custom metric name
func RecordCount(ctx context.Context, name string, count uint64) {
	recordCustomMetric(ctx, name, float64(count))
}

// RecordDuration records duration in milliseconds under the custom metric name
func RecordDuration(ctx context.Context, name string, duration time.Duration) {
	recordCustomMetric(ctx, name, float64(duration.Milliseconds()))
}

// RecordEvent records a custom event with the given attributes
func RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	if nr, ok := FromContext(ctx); ok {
		nr.RecordCustomEvent(name, attributes)
	}
}

func recordCustomMetric(ctx context.Context, name string, value float64) {
	if nr, ok := FromContext(ctx); ok {
		nr.RecordCustomMetric(name, value)
	}
}

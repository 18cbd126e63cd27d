// Package metrics records New Relic events, metrics and traces. Every helper
// is a no-op when the context carries no New Relic application.
package metrics

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// NewRelicContextKey is the context key holding the *newrelic.Application
type NewRelicContextKey struct{}

// WithNewRelic returns a copy of ctx carrying app
func WithNewRelic(ctx context.Context, app *newrelic.Application) context.Context {
	if app == nil {
		return ctx
	}
	return context.WithValue(ctx, NewRelicContextKey{}, app)
}

// FromContext returns the New Relic application carried by ctx, if any
func FromContext(ctx context.Context) (*newrelic.Application, bool) {
	app, ok := ctx.Value(NewRelicContextKey{}).(*newrelic.Application)
	return app, ok && app != nil
}

// StartTransaction starts a background transaction named name and returns a
// context carrying it, along with a function ending it.
func StartTransaction(ctx context.Context, name string) (context.Context, func()) {
	app, ok := FromContext(ctx)
	if !ok {
		return ctx, func() {}
	}

	txn := app.StartTransaction(name)
	return newrelic.NewContext(ctx, txn), txn.End
}

package metrics

import (
	"context"
	"errors"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// MethodTracer is a segment for one method call within the transaction on a
// context. A nil tracer is valid and records nothing.
type MethodTracer struct {
	txn *newrelic.Transaction
	seg *newrelic.Segment
}

// TraceMethodCall starts a segment named "<component> <method>" when ctx
// carries a transaction, and returns nil otherwise.
func TraceMethodCall(ctx context.Context, component, method string) *MethodTracer {
	txn := newrelic.FromContext(ctx)
	if txn == nil {
		return nil
	}

	return &MethodTracer{
		txn: txn,
		seg: txn.StartSegment(component + " " + method),
	}
}

// AddAttribute attaches metadata to the segment
func (t *MethodTracer) AddAttribute(key string, value interface{}) {
	if t != nil {
		t.seg.AddAttribute(key, value)
	}
}

func (t *MethodTracer) AddAttributes(attributes map[string]interface{}) {
	for key, value := range attributes {
		t.AddAttribute(key, value)
	}
}

// OnError notices err on the transaction unless it matches one of expected,
// such as a not found error callers handle.
func (t *MethodTracer) OnError(err error, expected ...error) {
	if t == nil || err == nil {
		return
	}
	for _, target := range expected {
		if errors.Is(err, target) {
			return
		}
	}
	t.txn.NoticeError(err)
}

func (t *MethodTracer) End() {
	if t != nil {
		t.seg.End()
	}
}

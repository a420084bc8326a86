package tracing

import (
	"context"

	"github.com/luno/jettison/j"
	"github.com/luno/jettison/log"
	"go.opentelemetry.io/otel/trace"
)

// Extract returns the span context of ctx and whether it identifies a span
// that can be stored with an event.
func Extract(ctx context.Context) (trace.SpanContext, bool) {
	sc := trace.SpanContextFromContext(ctx)
	return sc, sc.IsValid()
}

// Inject returns ctx with the stored event trace as remote span context and
// its trace id in the log context. Empty or undecodable traces leave ctx as is.
func Inject(ctx context.Context, data []byte) context.Context {
	if len(data) == 0 {
		return ctx
	}

	sc, err := Unmarshal(data)
	if err != nil || !sc.IsValid() {
		return ctx
	}

	ctx = trace.ContextWithRemoteSpanContext(ctx, sc)
	return log.ContextWith(ctx, j.KS("trace_id", sc.TraceID().String()))
}

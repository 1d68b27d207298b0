package kv

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/flashkv/engine/internal/tracing"
)

// startSpan starts a client span for a store operation. The key attribute
// is omitted for batch and sweep operations that have no single key.
func startSpan(ctx context.Context, op, key string) (context.Context, trace.Span) {
	tracer := otel.Tracer("flashkv.store")
	ctx, span := tracer.Start(ctx, "store."+op,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	attrs := []attribute.KeyValue{
		attribute.String(tracing.AttrOperation, op),
	}
	if key != "" {
		attrs = append(attrs, attribute.String(tracing.AttrKey, key))
	}
	span.SetAttributes(attrs...)
	return ctx, span
}

func recordSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
}

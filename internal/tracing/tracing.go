// Package tracing wraps one OpenTelemetry tracer and gives callers two
// small span helpers, StartStep and RecordError, grounded on the span-start /
// attribute / status-on-error shape in
// `infrastructure/middleware/otel_budget_observer.go`.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "jobqueue"

// StartStep begins a span for one FSM step or runner invocation,
// naming it and attaching the given attributes. The caller must End
// the returned span; on error, call RecordError before doing so.
func StartStep(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, name)
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	return ctx, span
}

// RecordError marks span as failed with err, or leaves it marked OK if
// err is nil. It does not End the span.
func RecordError(span trace.Span, err error) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

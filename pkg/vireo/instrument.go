package vireo

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// DefaultTracerName is the tracer name used with WithTracerName("")
// conventions in applications embedding the runtime.
const DefaultTracerName = "vireo"

// startSpan begins a span on the Runtime's tracer, or a no-op span when
// tracing is disabled; callers End it unconditionally.
func (rt *Runtime) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if rt.tracer == nil {
		return noop.NewTracerProvider().Tracer("").Start(ctx, name)
	}
	return rt.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

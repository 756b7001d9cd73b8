// Package otelhook connects a hook.Router to OpenTelemetry tracing.
//
//	tp := sdktrace.NewTracerProvider(...)
//	r := hook.New(
//		hook.WithTracer(otelhook.New(tp)),
//		hook.WithFailureReporter(otelhook.RecordFailure),
//	)
package otelhook

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bjaus/hook"
)

// ScopeName is the instrumentation scope of the spans created by Tracer.
const ScopeName = "github.com/bjaus/hook"

// Tracer implements hook.SpanStarter with an OpenTelemetry tracer.
type Tracer struct {
	tracer trace.Tracer
}

var _ hook.SpanStarter = (*Tracer)(nil)

// New returns a Tracer using a tracer from tp.
func New(tp trace.TracerProvider) *Tracer {
	return &Tracer{tracer: tp.Tracer(ScopeName)}
}

// StartSpan starts a server span carrying attrs as string attributes.
func (t *Tracer) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, func()) {
	kv := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kv = append(kv, attribute.String(k, v))
	}
	ctx, span := t.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(kv...),
	)
	return ctx, func() { span.End() }
}

// RecordFailure is a hook.FailureReporter that marks the dispatch span as
// failed. The span receives the failure kind, stage and status; the cause is
// recorded as a span error event.
func RecordFailure(ctx context.Context, res *hook.Result) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(
		attribute.String("hook.kind", res.Kind.String()),
		attribute.String("hook.stage", res.Stage.String()),
		attribute.Int("http.response.status_code", res.Status),
	)
	if res.Route != nil {
		span.SetAttributes(attribute.String("hook.route", res.Route.Pattern))
	}
	if res.Err != nil {
		span.RecordError(res.Err)
	}
	span.SetStatus(codes.Error, res.Kind.String()+" ("+strconv.Itoa(res.Status)+")")
}

package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// SpanTick is the name of the span covering one monitoring tick.
const SpanTick = "healthwatch.tick"

// Span attribute keys.
const (
	AttrComponent = attribute.Key("healthwatch.component")
	AttrFailed    = attribute.Key("healthwatch.failed")
)

// ProbeSpanName returns the span name for a probe: healthwatch.probe.<component>.
func ProbeSpanName(component string) string {
	return "healthwatch.probe." + component
}

// Tracer starts the tick and probe spans. Probe spans started from the
// context returned by StartTick are children of the tick.
type Tracer interface {
	StartTick(ctx context.Context) (context.Context, trace.Span)
	StartProbe(ctx context.Context, component string) (context.Context, trace.Span)

	// EndSpan ends span, marking it failed when err is non-nil.
	EndSpan(span trace.Span, err error)
}

type spanTracer struct {
	tracer trace.Tracer
	record bool
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return spanTracer{tracer: t, record: true}
}

// NopTracer returns a Tracer whose spans are never recorded.
func NopTracer() Tracer {
	return spanTracer{tracer: tracenoop.NewTracerProvider().Tracer("")}
}

func (t spanTracer) StartTick(ctx context.Context) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanTick, trace.WithSpanKind(trace.SpanKindInternal))
}

func (t spanTracer) StartProbe(ctx context.Context, component string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, ProbeSpanName(component),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(AttrComponent.String(component)),
	)
}

func (t spanTracer) EndSpan(span trace.Span, err error) {
	defer span.End()
	if !t.record {
		return
	}
	span.SetAttributes(AttrFailed.Bool(err != nil))
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

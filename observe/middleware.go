package observe

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jonwraymond/healthwatch/health"
)

// Middleware wraps probe execution with observability (tracing, metrics, logging).
//
// Contract:
//   - Concurrency: wrapped probes are safe for concurrent use if the inner probe is.
//   - Context: the probe span is propagated to the inner probe through ctx.
//   - Ownership: results are returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware. Nil components become no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NopTracer()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Tracer returns the middleware tracer.
func (m *Middleware) Tracer() Tracer { return m.tracer }

// Metrics returns the middleware metrics.
func (m *Middleware) Metrics() Metrics { return m.metrics }

// Logger returns the middleware logger.
func (m *Middleware) Logger() Logger { return m.logger }

// WrapProbe returns p decorated with a span, probe metrics and a log entry.
func (m *Middleware) WrapProbe(p health.Probe) health.Probe {
	return &observedProbe{inner: p, mw: m}
}

// WrapProbes wraps every probe.
func (m *Middleware) WrapProbes(probes []health.Probe) []health.Probe {
	out := make([]health.Probe, len(probes))
	for i, p := range probes {
		out[i] = m.WrapProbe(p)
	}
	return out
}

type observedProbe struct {
	inner health.Probe
	mw    *Middleware
}

func (p *observedProbe) Name() string {
	return p.inner.Name()
}

func (p *observedProbe) Check(ctx context.Context) health.CheckResult {
	name := p.inner.Name()

	ctx, span := p.mw.tracer.StartProbe(ctx, name)
	start := time.Now()

	result := p.inner.Check(ctx)

	duration := time.Since(start)
	span.SetAttributes(attribute.String("probe.status", result.Status.String()))
	p.mw.tracer.EndSpan(span, resultError(result))

	p.mw.metrics.RecordProbe(ctx, name, result.Status.String(), duration)

	fields := []Field{
		{Key: "probe", Value: name},
		{Key: "status", Value: result.Status.String()},
		{Key: "duration_ms", Value: float64(duration) / float64(time.Millisecond)},
	}
	if result.Message != "" {
		fields = append(fields, Field{Key: "message", Value: result.Message})
	}
	if result.Err != nil {
		fields = append(fields, Field{Key: "error", Value: result.Err.Error()})
	}

	switch result.Status {
	case health.StatusHealthy:
		p.mw.logger.Debug(ctx, "probe completed", fields...)
	case health.StatusWarning:
		p.mw.logger.Warn(ctx, "probe degraded", fields...)
	default:
		p.mw.logger.Error(ctx, "probe failed", fields...)
	}

	return result
}

// resultError is the error recorded on the probe span.
func resultError(result health.CheckResult) error {
	if result.Err != nil {
		return result.Err
	}
	if result.Status == health.StatusCritical {
		return errors.New(result.Message)
	}
	return nil
}

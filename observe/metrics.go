package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Instrument names.
const (
	MetricTickDuration  = "healthwatch.tick.duration_ms"
	MetricTickTotal     = "healthwatch.tick.total"
	MetricTickSkipped   = "healthwatch.tick.skipped"
	MetricProbeTotal    = "healthwatch.probe.total"
	MetricProbeLatency  = "healthwatch.probe.latency_ms"
	MetricNotifications = "healthwatch.alert.notifications"
	MetricOpenAlerts    = "healthwatch.alert.open"
)

// Metrics records engine metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordTick records a completed tick with its overall status.
	RecordTick(ctx context.Context, duration time.Duration, overall string, err error)

	// RecordTickSkipped records a tick dropped because one was running.
	RecordTickSkipped(ctx context.Context)

	// RecordProbe records one probe execution.
	RecordProbe(ctx context.Context, component, status string, latency time.Duration)

	// RecordNotification records a delivery attempt by severity and outcome.
	RecordNotification(ctx context.Context, severity, outcome string)

	// RecordOpenAlerts records the number of open alerts after a tick.
	RecordOpenAlerts(ctx context.Context, n int)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	tickDuration  metric.Float64Histogram
	tickTotal     metric.Int64Counter
	tickSkipped   metric.Int64Counter
	probeTotal    metric.Int64Counter
	probeLatency  metric.Float64Histogram
	notifications metric.Int64Counter
	openAlerts    metric.Int64Gauge
}

// NewMetrics creates the engine instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	return newMetrics(meter)
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	m := &metricsImpl{}
	var err error

	if m.tickDuration, err = meter.Float64Histogram(
		MetricTickDuration,
		metric.WithDescription("Tick pipeline duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if m.tickTotal, err = meter.Int64Counter(
		MetricTickTotal,
		metric.WithDescription("Total number of completed ticks"),
		metric.WithUnit("{tick}"),
	); err != nil {
		return nil, err
	}

	if m.tickSkipped, err = meter.Int64Counter(
		MetricTickSkipped,
		metric.WithDescription("Ticks skipped because a tick was already running"),
		metric.WithUnit("{tick}"),
	); err != nil {
		return nil, err
	}

	if m.probeTotal, err = meter.Int64Counter(
		MetricProbeTotal,
		metric.WithDescription("Total number of probe executions"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, err
	}

	if m.probeLatency, err = meter.Float64Histogram(
		MetricProbeLatency,
		metric.WithDescription("Probe latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if m.notifications, err = meter.Int64Counter(
		MetricNotifications,
		metric.WithDescription("Alert notification attempts"),
		metric.WithUnit("{notification}"),
	); err != nil {
		return nil, err
	}

	if m.openAlerts, err = meter.Int64Gauge(
		MetricOpenAlerts,
		metric.WithDescription("Open alerts after the last tick"),
		metric.WithUnit("{alert}"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *metricsImpl) RecordTick(ctx context.Context, duration time.Duration, overall string, err error) {
	opt := metric.WithAttributes(
		attribute.String("overall", overall),
		attribute.Bool("error", err != nil),
	)
	m.tickTotal.Add(ctx, 1, opt)
	m.tickDuration.Record(ctx, float64(duration)/float64(time.Millisecond), opt)
}

func (m *metricsImpl) RecordTickSkipped(ctx context.Context) {
	m.tickSkipped.Add(ctx, 1)
}

func (m *metricsImpl) RecordProbe(ctx context.Context, component, status string, latency time.Duration) {
	m.probeTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("component", component),
		attribute.String("status", status),
	))
	m.probeLatency.Record(ctx, float64(latency)/float64(time.Millisecond),
		metric.WithAttributes(attribute.String("component", component)))
}

func (m *metricsImpl) RecordNotification(ctx context.Context, severity, outcome string) {
	m.notifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("severity", severity),
		attribute.String("outcome", outcome),
	))
}

func (m *metricsImpl) RecordOpenAlerts(ctx context.Context, n int) {
	m.openAlerts.Record(ctx, int64(n))
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics {
	return noopMetrics{}
}

func (noopMetrics) RecordTick(context.Context, time.Duration, string, error)   {}
func (noopMetrics) RecordTickSkipped(context.Context)                          {}
func (noopMetrics) RecordProbe(context.Context, string, string, time.Duration) {}
func (noopMetrics) RecordNotification(context.Context, string, string)         {}
func (noopMetrics) RecordOpenAlerts(context.Context, int)                      {}

package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/healthwatch/alert"
	"github.com/jonwraymond/healthwatch/health"
	"github.com/jonwraymond/healthwatch/observe"
	"github.com/jonwraymond/healthwatch/threshold"
)

// MetricLatencyMs is the sample derived from every check result's latency.
const MetricLatencyMs = "latency_ms"

// Store is the subset of the result store the monitor needs.
type Store interface {
	RecordStatus(ctx context.Context, status health.SystemStatus) error
	RecordSamples(ctx context.Context, at time.Time, samples []health.MetricSample) error
	Latest() (health.SystemStatus, bool)
	History(since time.Time) []health.SystemStatus
	OpenAlerts(ctx context.Context) ([]alert.Alert, error)
	RecentlyResolvedAlerts(within time.Duration) []alert.Alert
}

// Config configures a Monitor.
type Config struct {
	Probes     []health.Probe
	Runner     health.RunnerConfig
	Thresholds threshold.Set
	Scheduler  SchedulerConfig
}

// Options carries optional collaborators.
type Options struct {
	Logger  observe.Logger
	Metrics observe.Metrics
	Tracer  observe.Tracer

	// Now overrides the clock. Default: time.Now
	Now func() time.Time
}

// TickReport describes one completed tick.
type TickReport struct {
	Status   health.SystemStatus
	Samples  []health.MetricSample
	Breaches []threshold.Breach
	Alerts   alert.Report
	Duration time.Duration
}

// Monitor runs the tick pipeline: probes, aggregation, threshold
// evaluation, recording and alerting. It also serves the read-only status
// query surface.
type Monitor struct {
	probes     []health.Probe
	runner     *health.Runner
	thresholds threshold.Set
	store      Store
	engine     *alert.Engine
	scheduler  *Scheduler

	logger  observe.Logger
	metrics observe.Metrics
	tracer  observe.Tracer
	now     func() time.Time
}

// New creates a Monitor.
func New(cfg Config, store Store, engine *alert.Engine, opts Options) (*Monitor, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if engine == nil {
		return nil, ErrNilEngine
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = observe.NopLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = observe.NopMetrics()
	}
	if opts.Tracer == nil {
		opts.Tracer = observe.NopTracer()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	m := &Monitor{
		probes:     append([]health.Probe(nil), cfg.Probes...),
		runner:     health.NewRunner(cfg.Runner),
		thresholds: cfg.Thresholds,
		store:      store,
		engine:     engine,
		logger:     opts.Logger.With(observe.Field{Key: "component", Value: "monitor"}),
		metrics:    opts.Metrics,
		tracer:     opts.Tracer,
		now:        opts.Now,
	}

	scheduler, err := NewScheduler(cfg.Scheduler, m.tick, m.logger, m.metrics)
	if err != nil {
		return nil, err
	}
	m.scheduler = scheduler

	return m, nil
}

// Start begins periodic ticks.
func (m *Monitor) Start(ctx context.Context) error {
	return m.scheduler.Start(ctx)
}

// Stop stops periodic ticks and waits for a running tick.
func (m *Monitor) Stop() {
	m.scheduler.Stop()
}

// TickNow runs one tick synchronously. It returns ErrTickInProgress if a
// tick is already running.
func (m *Monitor) TickNow(ctx context.Context) error {
	return m.scheduler.TickNow(ctx)
}

// Scheduler returns the monitor scheduler.
func (m *Monitor) Scheduler() *Scheduler {
	return m.scheduler
}

func (m *Monitor) tick(ctx context.Context) error {
	_, err := m.RunTick(ctx)
	return err
}

// RunTick executes the pipeline once. It does not consult the scheduler
// state; use TickNow to respect the one-tick-at-a-time rule.
//
// A store failure drops the tick: nothing is alerted and the error wraps
// ErrTickDropped. Alert engine errors are returned after the status has
// been recorded.
func (m *Monitor) RunTick(ctx context.Context) (report TickReport, err error) {
	start := m.now()

	ctx, span := m.tracer.StartTick(ctx)
	defer func() {
		report.Duration = m.now().Sub(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordTick(ctx, report.Duration, report.Status.Overall.String(), err)
	}()

	results := m.runner.RunAll(ctx, m.probes)
	computedAt := m.now()

	report.Status = health.Aggregate(results, computedAt)
	report.Samples = deriveSamples(results)

	breaches, skips := threshold.EvaluateWithSkips(report.Samples, m.thresholds)
	report.Breaches = breaches
	for _, skip := range skips {
		m.logger.Warn(ctx, "metric sample skipped",
			observe.Field{Key: "metric_component", Value: skip.Sample.Component},
			observe.Field{Key: "metric", Value: skip.Sample.Name},
			observe.Field{Key: "error", Value: skip.Err.Error()},
		)
	}

	if err := m.store.RecordStatus(ctx, report.Status); err != nil {
		m.logger.Error(ctx, "tick dropped: status not recorded", observe.Field{Key: "error", Value: err.Error()})
		return report, fmt.Errorf("%w: %w", ErrTickDropped, err)
	}
	if err := m.store.RecordSamples(ctx, computedAt, report.Samples); err != nil {
		m.logger.Error(ctx, "tick dropped: samples not recorded", observe.Field{Key: "error", Value: err.Error()})
		return report, fmt.Errorf("%w: %w", ErrTickDropped, err)
	}

	alerts, err := m.engine.Process(ctx, computedAt, m.signals(results, breaches))
	report.Alerts = alerts
	if err != nil {
		m.logger.Error(ctx, "alert processing failed", observe.Field{Key: "error", Value: err.Error()})
	}

	m.logger.Info(ctx, "tick completed",
		observe.Field{Key: "overall", Value: report.Status.Overall.String()},
		observe.Field{Key: "components", Value: len(report.Status.Components)},
		observe.Field{Key: "breaches", Value: len(breaches)},
		observe.Field{Key: "open_alerts", Value: len(alerts.Open)},
		observe.Field{Key: "notified", Value: alerts.Notified},
	)

	return report, err
}

// signals builds the alert signals for one tick.
func (m *Monitor) signals(results []health.CheckResult, breaches []threshold.Breach) []alert.Signal {
	signals := make([]alert.Signal, 0, len(results)+len(breaches))

	if len(m.probes) == 0 {
		signals = append(signals, alert.NoChecksSignal())
	}
	for _, r := range results {
		if sig, ok := alert.UnhealthySignal(r); ok {
			signals = append(signals, sig)
		}
	}
	for _, b := range breaches {
		signals = append(signals, alert.BreachSignal(b))
	}
	return signals
}

// deriveSamples returns probe-emitted samples plus one latency_ms sample
// per result.
func deriveSamples(results []health.CheckResult) []health.MetricSample {
	var samples []health.MetricSample
	for _, r := range results {
		samples = append(samples, r.Metrics...)
		samples = append(samples, health.MetricSample{
			Component:  r.Component,
			Name:       MetricLatencyMs,
			Value:      r.LatencyMs(),
			MeasuredAt: r.MeasuredAt,
		})
	}
	return samples
}

// GetLatestStatus returns the status of the last recorded tick, or
// health.NotInitialized before the first one.
func (m *Monitor) GetLatestStatus() health.SystemStatus {
	if status, ok := m.store.Latest(); ok {
		return status
	}
	return health.NotInitialized()
}

// GetOpenAlerts returns all open alerts. Store errors yield an empty list.
func (m *Monitor) GetOpenAlerts() []alert.Alert {
	alerts, err := m.store.OpenAlerts(context.Background())
	if err != nil {
		m.logger.Warn(context.Background(), "open alerts unavailable", observe.Field{Key: "error", Value: err.Error()})
		return nil
	}
	return alerts
}

// GetHistory returns statuses computed at or after since.
func (m *Monitor) GetHistory(since time.Time) []health.SystemStatus {
	return m.store.History(since)
}

// GetRecentlyResolved returns alerts resolved within the window.
func (m *Monitor) GetRecentlyResolved(within time.Duration) []alert.Alert {
	return m.store.RecentlyResolvedAlerts(within)
}

var _ health.StatusSource = (*Monitor)(nil)

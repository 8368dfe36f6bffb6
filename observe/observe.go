package observe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/jonwraymond/healthwatch/observe/exporters"
)

// Config selects the telemetry backends of the engine.
type Config struct {
	ServiceName string        `yaml:"service_name"`
	Version     string        `yaml:"version"`
	Tracing     TracingConfig `yaml:"tracing"`
	Metrics     MetricsConfig `yaml:"metrics"`
	Logging     LoggingConfig `yaml:"logging"`
}

// TracingConfig selects the span exporter.
type TracingConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Exporter  string  `yaml:"exporter"`   // otlp, jaeger, stdout or none
	SamplePct float64 `yaml:"sample_pct"` // ratio in [0, 1]
}

// MetricsConfig selects the metric reader.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // otlp, prometheus, stdout or none

	// ExportInterval is the push period of the otlp and stdout readers.
	// Zero keeps the SDK default of one minute.
	ExportInterval time.Duration `yaml:"export_interval"`

	// Registerer receives the Prometheus collector. Nil uses
	// prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer `yaml:"-"`
}

// LoggingConfig sets the minimum log level.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"` // debug, info, warn or error
}

var (
	tracingExporters = set("otlp", "jaeger", "stdout", "none", "")
	metricsExporters = set("otlp", "prometheus", "stdout", "none", "")
	logLevels        = set("debug", "info", "warn", "error", "")
)

func set(names ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

// Validate checks the enabled sections. Disabled sections are ignored.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return ErrMissingServiceName
	}

	if t := c.Tracing; t.Enabled {
		if _, ok := tracingExporters[t.Exporter]; !ok {
			return fmt.Errorf("%w: %q", ErrInvalidTracingExporter, t.Exporter)
		}
		if t.SamplePct < 0 || t.SamplePct > 1 {
			return fmt.Errorf("%w: %g", ErrInvalidSamplePct, t.SamplePct)
		}
	}

	if m := c.Metrics; m.Enabled {
		if _, ok := metricsExporters[m.Exporter]; !ok {
			return fmt.Errorf("%w: %q", ErrInvalidMetricsExporter, m.Exporter)
		}
		if m.ExportInterval < 0 {
			return fmt.Errorf("%w: %s", ErrInvalidExportInterval, m.ExportInterval)
		}
	}

	if l := c.Logging; l.Enabled {
		if _, ok := logLevels[l.Level]; !ok {
			return fmt.Errorf("%w: %q", ErrInvalidLogLevel, l.Level)
		}
	}

	return nil
}

// Observer hands out the telemetry primitives built from a Config.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Context: Shutdown honors the deadline of ctx while flushing.
// - Errors: Shutdown joins the errors of every provider.
type Observer interface {
	Tracer() trace.Tracer
	Meter() metric.Meter
	Logger() Logger

	// Shutdown flushes pending spans, metrics and log entries.
	Shutdown(ctx context.Context) error
}

type observer struct {
	tracer   trace.Tracer
	meter    metric.Meter
	logger   Logger
	shutdown []func(context.Context) error
}

// NewObserver builds the tracer, meter and logger selected by cfg.
// Enabled providers are installed as the otel globals.
func NewObserver(ctx context.Context, cfg Config) (Observer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.Version),
	))
	if err != nil {
		return nil, fmt.Errorf("observe: resource: %w", err)
	}

	o := &observer{
		tracer: tracenoop.NewTracerProvider().Tracer(cfg.ServiceName),
		meter:  metricnoop.NewMeterProvider().Meter(cfg.ServiceName),
		logger: NopLogger(),
	}

	if cfg.Tracing.Enabled {
		tp, err := newTracerProvider(ctx, cfg.Tracing, res)
		if err != nil {
			return nil, fmt.Errorf("observe: tracing: %w", err)
		}
		otel.SetTracerProvider(tp)
		o.tracer = tp.Tracer(cfg.ServiceName)
		o.shutdown = append(o.shutdown, tp.Shutdown)
	}

	if cfg.Metrics.Enabled {
		mp, err := newMeterProvider(ctx, cfg.Metrics, res)
		if err != nil {
			_ = o.Shutdown(ctx)
			return nil, fmt.Errorf("observe: metrics: %w", err)
		}
		otel.SetMeterProvider(mp)
		o.meter = mp.Meter(cfg.ServiceName)
		o.shutdown = append(o.shutdown, mp.Shutdown)
	}

	if cfg.Logging.Enabled {
		o.logger = NewLogger(cfg.Logging.Level).With(
			Field{Key: "service", Value: cfg.ServiceName},
		)
	}

	return o, nil
}

func newTracerProvider(ctx context.Context, cfg TracingConfig, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	exp, err := exporters.NewTracingExporter(ctx, cfg.Exporter)
	if err != nil {
		return nil, err
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SamplePct)),
	}
	if exp != nil {
		opts = append(opts, sdktrace.WithBatcher(exp))
	}
	return sdktrace.NewTracerProvider(opts...), nil
}

func sampler(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1:
		return sdktrace.AlwaysSample()
	case ratio <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

func newMeterProvider(ctx context.Context, cfg MetricsConfig, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []exporters.Option{exporters.WithInterval(cfg.ExportInterval)}
	if cfg.Registerer != nil {
		opts = append(opts, exporters.WithRegisterer(cfg.Registerer))
	}

	reader, err := exporters.NewMetricsReader(ctx, cfg.Exporter, opts...)
	if err != nil {
		return nil, err
	}

	mpOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	if reader != nil {
		mpOpts = append(mpOpts, sdkmetric.WithReader(reader))
	}
	return sdkmetric.NewMeterProvider(mpOpts...), nil
}

func (o *observer) Tracer() trace.Tracer { return o.tracer }
func (o *observer) Meter() metric.Meter   { return o.meter }
func (o *observer) Logger() Logger        { return o.logger }

func (o *observer) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range o.shutdown {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	o.shutdown = nil

	if err := Sync(o.logger); err != nil {
		errs = append(errs, fmt.Errorf("observe: logger sync: %w", err))
	}
	return errors.Join(errs...)
}

// Package observe provides logging, metrics and tracing for the monitoring
// engine.
//
// Logging is structured JSON built on zap; fields named like credentials
// (password, secret, token, dsn, ...) are redacted. Metrics and traces use
// OpenTelemetry with stdout, OTLP or Prometheus exporters.
//
// Middleware.WrapProbe decorates a health.Probe with a span, probe metrics
// and a log line; the monitor uses the same Tracer and Metrics for ticks:
//
//	obs, err := observe.NewObserver(ctx, cfg)
//	mw, err := observe.MiddlewareFromObserver(obs)
//	probes = mw.WrapProbes(probes)
package observe

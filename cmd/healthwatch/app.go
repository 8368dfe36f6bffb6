package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonwraymond/healthwatch/alert"
	"github.com/jonwraymond/healthwatch/config"
	"github.com/jonwraymond/healthwatch/monitor"
	"github.com/jonwraymond/healthwatch/notify"
	"github.com/jonwraymond/healthwatch/observe"
	"github.com/jonwraymond/healthwatch/probes"
	"github.com/jonwraymond/healthwatch/store"
)

// app is a fully wired monitor.
type app struct {
	cfg      config.Config
	registry *prometheus.Registry
	observer observe.Observer
	logger   observe.Logger
	store    *store.MemoryStore
	monitor  *monitor.Monitor

	closeProbes func() error
	notifier    io.Closer
}

// newApp wires every component. withNotify false leaves the alert engine
// without a gateway.
func newApp(ctx context.Context, cfg config.Config, withNotify bool) (*app, error) {
	a := &app{cfg: cfg, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	cfg.Observe.Metrics.Registerer = a.registry
	obs, err := observe.NewObserver(ctx, cfg.Observe)
	if err != nil {
		return nil, fmt.Errorf("observer: %w", err)
	}
	a.observer = obs
	a.logger = obs.Logger()

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return nil, errors.Join(err, a.close(ctx))
	}

	list, closeProbes, err := probes.Build(ctx, cfg.Probes)
	a.closeProbes = closeProbes
	if err != nil {
		return nil, errors.Join(err, a.close(ctx))
	}

	a.store = store.NewMemoryStore(cfg.StoreConfig())

	var gateway alert.Gateway
	if withNotify {
		gateway, a.notifier, err = notify.Build(cfg.Notify, a.logger)
		if err != nil {
			return nil, errors.Join(err, a.close(ctx))
		}
	}

	engine, err := alert.NewEngine(a.store, gateway, alert.EngineConfig{
		Policy:  cfg.Policy(),
		Logger:  a.logger,
		Metrics: mw.Metrics(),
	})
	if err != nil {
		return nil, errors.Join(err, a.close(ctx))
	}

	a.monitor, err = monitor.New(cfg.MonitorConfig(mw.WrapProbes(list)), a.store, engine, monitor.Options{
		Logger:  a.logger,
		Metrics: mw.Metrics(),
		Tracer:  mw.Tracer(),
	})
	if err != nil {
		return nil, errors.Join(err, a.close(ctx))
	}

	a.logger.Info(ctx, "healthwatch configured",
		observe.Field{Key: "probes", Value: len(list)},
		observe.Field{Key: "thresholds", Value: len(cfg.Thresholds)},
		observe.Field{Key: "notify", Value: gateway != nil},
	)
	return a, nil
}

// handler returns the HTTP surface: health, alerts, history and metrics.
func (a *app) handler() http.Handler {
	mux := http.NewServeMux()
	monitor.RegisterHandlers(mux, a.monitor)
	mux.Handle(a.cfg.Server.MetricsPath, promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{
		Registry: a.registry,
	}))
	return mux
}

// close stops the monitor and releases every resource in reverse order of
// creation.
func (a *app) close(ctx context.Context) error {
	var errs []error
	if a.monitor != nil {
		a.monitor.Stop()
	}
	if a.notifier != nil {
		errs = append(errs, a.notifier.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.closeProbes != nil {
		errs = append(errs, a.closeProbes())
	}
	if a.observer != nil {
		errs = append(errs, a.observer.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

package probes

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/healthwatch/config"
	"github.com/jonwraymond/healthwatch/health"
)

// Build creates the probes described by cfg. The returned close function
// releases every client that was opened; it is safe to call when Build
// fails.
func Build(ctx context.Context, cfg config.ProbesConfig) ([]health.Probe, func() error, error) {
	var (
		probes  []health.Probe
		closers []func() error
	)
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	if rt := cfg.Runtime; rt != nil {
		probes = append(probes, health.NewRuntimeProbe(health.RuntimeProbeConfig{
			Component:   rt.Component,
			MaxAlloc:    rt.MaxAllocBytes,
			MetricsOnly: rt.MetricsOnly,
		}))
	}

	for _, pc := range cfg.Postgres {
		p, closePool, err := OpenPostgres(ctx, pc.Component, pc.DSN)
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, func() error { closePool(); return nil })
		probes = append(probes, p)
	}

	for _, rc := range cfg.Redis {
		client := redis.NewClient(&redis.Options{
			Addr:     rc.Addr,
			Password: rc.Password,
			DB:       rc.DB,
		})
		closers = append(closers, client.Close)
		probes = append(probes, NewRedis(rc.Component, client))
	}

	for _, kc := range cfg.Kafka {
		probes = append(probes, NewKafka(kc.Component, kc.Brokers))
	}

	for _, mc := range cfg.MinIO {
		p, err := OpenMinIO(mc.Component, mc.Endpoint, mc.AccessKeyID, mc.SecretAccessKey, mc.Bucket, mc.UseSSL)
		if err != nil {
			return nil, closeAll, err
		}
		probes = append(probes, p)
	}

	for _, sc := range cfg.S3 {
		p, err := OpenS3(sc.Component, sc.Region, sc.Endpoint, sc.Bucket)
		if err != nil {
			return nil, closeAll, err
		}
		probes = append(probes, p)
	}

	for _, dc := range cfg.Disk {
		probes = append(probes, NewDisk(dc.Component, dc.Path))
	}

	for _, hc := range cfg.HTTP {
		probes = append(probes, NewHTTP(hc.Component, hc.URL, nil))
	}

	return probes, closeAll, nil
}

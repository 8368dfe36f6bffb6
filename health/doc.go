// Package health provides the probe contract and the pure reduction steps
// of a monitoring tick.
//
// A Probe checks one dependency (database, cache, queue, object storage,
// application runtime) and returns a CheckResult. Probes may attach
// MetricSamples to their result for threshold evaluation.
//
// # Running Probes
//
// Runner executes probes on a bounded pool with a per-probe timeout. It
// always returns one result per probe; timeouts, panics and probe errors
// become Critical results instead of aborting the batch:
//
//	runner := health.NewRunner(health.RunnerConfig{
//	    Timeout:  5 * time.Second,
//	    PoolSize: 4,
//	})
//	results := runner.RunAll(ctx, probes)
//
// # Aggregating
//
// Aggregate reduces results with a worst-of rule. An empty result set is
// reported as Warning with NoteNoChecks rather than Healthy:
//
//	status := health.Aggregate(results, time.Now())
//
// # HTTP Endpoints
//
// The handlers serve the last computed status from a StatusSource and never
// run probes on the request path:
//
//	health.RegisterHandlers(mux, monitor)
package health

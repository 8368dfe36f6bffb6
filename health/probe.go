package health

import "context"

// Probe is the interface for health checks against one dependency.
//
// Contract:
// - Concurrency: Check may be called from a worker goroutine; it must not
//   assume it runs on the caller's goroutine.
// - Context: the per-probe timeout arrives as the context deadline. Probes
//   should return promptly once ctx is done; a probe that does not is
//   reported as timed out anyway.
// - Errors: failures are reported through the returned CheckResult, never
//   by panicking. Panics are recovered and reported as Critical.
type Probe interface {
	// Name returns the component this probe checks, e.g. "database".
	Name() string

	// Check performs the health check and returns the result.
	Check(ctx context.Context) CheckResult
}

// ProbeFunc is an adapter to allow ordinary functions to be used as Probes.
type ProbeFunc struct {
	name string
	fn   func(context.Context) CheckResult
}

// NewProbeFunc creates a new ProbeFunc.
func NewProbeFunc(name string, fn func(context.Context) CheckResult) *ProbeFunc {
	return &ProbeFunc{name: name, fn: fn}
}

// Name returns the component name.
func (f *ProbeFunc) Name() string {
	return f.name
}

// Check performs the health check.
func (f *ProbeFunc) Check(ctx context.Context) CheckResult {
	return f.fn(ctx)
}

// PingFunc adapts a connectivity check to a Probe: a nil error is Healthy,
// anything else is Critical.
func PingFunc(name string, ping func(context.Context) error) *ProbeFunc {
	return NewProbeFunc(name, func(ctx context.Context) CheckResult {
		if err := ping(ctx); err != nil {
			return Critical(name+" unreachable", err)
		}
		return Healthy(name + " reachable")
	})
}

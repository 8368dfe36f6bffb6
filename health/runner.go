package health

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// RunnerConfig configures the probe runner.
type RunnerConfig struct {
	// Timeout is the maximum time a single probe may take.
	// Default: 5 seconds
	Timeout time.Duration

	// PoolSize is the maximum number of probes executing at once.
	// Default: 4
	PoolSize int
}

// Runner executes probes concurrently on a bounded pool.
type Runner struct {
	config RunnerConfig
	now    func() time.Time

	mu sync.Mutex
	// stuck counts abandoned calls per component that have not returned yet.
	stuck map[string]int
}

// NewRunner creates a new probe runner.
func NewRunner(config ...RunnerConfig) *Runner {
	cfg := RunnerConfig{
		Timeout:  5 * time.Second,
		PoolSize: 4,
	}
	if len(config) > 0 {
		cfg = config[0]
		if cfg.Timeout <= 0 {
			cfg.Timeout = 5 * time.Second
		}
		if cfg.PoolSize <= 0 {
			cfg.PoolSize = 4
		}
	}

	return &Runner{config: cfg, now: time.Now, stuck: make(map[string]int)}
}

// Config returns the runner configuration.
func (r *Runner) Config() RunnerConfig {
	return r.config
}

// RunAll executes every probe and returns exactly one result per probe.
// out[i] always belongs to probes[i]. Failures, timeouts and panics are
// converted into Critical results and never abort the batch.
func (r *Runner) RunAll(ctx context.Context, probes []Probe) []CheckResult {
	results := make([]CheckResult, len(probes))
	if len(probes) == 0 {
		return results
	}

	var g errgroup.Group
	g.SetLimit(r.config.PoolSize)

	for i, probe := range probes {
		g.Go(func() error {
			results[i] = r.Run(ctx, probe)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Run executes a single probe with the configured timeout.
//
// A probe that outlives its timeout keeps running in the background. Until
// it returns, further calls for the same component report a timeout
// without starting another goroutine, so a probe that ignores its context
// holds at most one goroutine per component.
func (r *Runner) Run(ctx context.Context, probe Probe) CheckResult {
	name := probe.Name()
	start := r.now()

	if r.isStuck(name) {
		end := r.now()
		return normalize(name, timeoutResult(name, ErrProbeTimeout), end, end.Sub(start))
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	const (
		callRunning int32 = iota
		callDone
		callAbandoned
	)
	var state atomic.Int32

	// Buffered so an abandoned probe can still complete without blocking.
	resultCh := make(chan CheckResult, 1)

	go func() {
		defer func() {
			if v := recover(); v != nil {
				resultCh <- Critical(
					fmt.Sprintf("%s: panic: %v", name, v),
					fmt.Errorf("%w: %v", ErrProbePanic, v),
				)
			}
			if !state.CompareAndSwap(callRunning, callDone) {
				r.release(name)
			}
		}()
		resultCh <- probe.Check(ctx)
	}()

	var result CheckResult
	select {
	case result = <-resultCh:
	case <-ctx.Done():
		err := ErrProbeTimeout
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", ErrProbeCancelled, ctx.Err())
		}
		// Held before the swap so the goroutine can only release a held slot.
		r.hold(name)
		if !state.CompareAndSwap(callRunning, callAbandoned) {
			r.release(name)
		}
		result = timeoutResult(name, err)
	}

	end := r.now()
	return normalize(name, result.clone(), end, end.Sub(start))
}

func timeoutResult(name string, err error) CheckResult {
	return Critical(name+": timeout", err)
}

func (r *Runner) isStuck(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stuck[name] > 0
}

func (r *Runner) hold(name string) {
	r.mu.Lock()
	r.stuck[name]++
	r.mu.Unlock()
}

func (r *Runner) release(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stuck[name]--; r.stuck[name] <= 0 {
		delete(r.stuck, name)
	}
}

// normalize enforces the result invariants: component and status set,
// error-carrying results are Critical, timing reflects the call.
func normalize(name string, result CheckResult, measuredAt time.Time, latency time.Duration) CheckResult {
	if result.Component == "" {
		result.Component = name
	}

	switch {
	case !result.Status.Valid():
		result.Message = fmt.Sprintf("%s: invalid status %d", name, int(result.Status))
		result.Err = fmt.Errorf("%w: %d", ErrInvalidStatus, int(result.Status))
		result.Status = StatusCritical
	case result.Err != nil && result.Status != StatusCritical:
		result.Message = fmt.Sprintf("%s: %v", name, result.Err)
		result.Status = StatusCritical
	}

	result.MeasuredAt = measuredAt
	result.Latency = latency

	for i := range result.Metrics {
		if result.Metrics[i].Component == "" {
			result.Metrics[i].Component = result.Component
		}
		if result.Metrics[i].MeasuredAt.IsZero() {
			result.Metrics[i].MeasuredAt = measuredAt
		}
	}

	return result
}

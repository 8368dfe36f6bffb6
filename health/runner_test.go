package health

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewRunner_Defaults(t *testing.T) {
	r := NewRunner()

	if r.Config().Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", r.Config().Timeout)
	}
	if r.Config().PoolSize != 4 {
		t.Errorf("PoolSize = %d, want 4", r.Config().PoolSize)
	}
}

func TestNewRunner_InvalidConfigFallsBack(t *testing.T) {
	r := NewRunner(RunnerConfig{Timeout: -1, PoolSize: 0})

	if r.Config().Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", r.Config().Timeout)
	}
	if r.Config().PoolSize != 4 {
		t.Errorf("PoolSize = %d, want 4", r.Config().PoolSize)
	}
}

func TestRunner_RunAllPreservesOrderAndCount(t *testing.T) {
	r := NewRunner(RunnerConfig{Timeout: time.Second, PoolSize: 2})

	names := []string{"database", "cache", "queue", "storage", "app"}
	probes := make([]Probe, len(names))
	for i, name := range names {
		delay := time.Duration(len(names)-i) * time.Millisecond
		probes[i] = NewProbeFunc(name, func(ctx context.Context) CheckResult {
			time.Sleep(delay)
			return Healthy("ok")
		})
	}

	results := r.RunAll(context.Background(), probes)

	if len(results) != len(probes) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(probes))
	}
	for i, name := range names {
		if results[i].Component != name {
			t.Errorf("results[%d].Component = %q, want %q", i, results[i].Component, name)
		}
		if results[i].MeasuredAt.IsZero() {
			t.Errorf("results[%d].MeasuredAt is zero", i)
		}
	}
}

func TestRunner_RunAllEmpty(t *testing.T) {
	results := NewRunner().RunAll(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("Expected 0 results, got %d", len(results))
	}
}

func TestRunner_TimeoutSynthesizesCritical(t *testing.T) {
	r := NewRunner(RunnerConfig{Timeout: 20 * time.Millisecond, PoolSize: 2})

	slow := NewProbeFunc("database", func(ctx context.Context) CheckResult {
		time.Sleep(200 * time.Millisecond) // ignores ctx on purpose
		return Healthy("late")
	})

	result := r.Run(context.Background(), slow)

	if result.Status != StatusCritical {
		t.Errorf("Status = %v, want critical", result.Status)
	}
	if result.Message != "database: timeout" {
		t.Errorf("Message = %q, want 'database: timeout'", result.Message)
	}
	if !errors.Is(result.Err, ErrProbeTimeout) {
		t.Errorf("Err = %v, want ErrProbeTimeout", result.Err)
	}
}

func TestRunner_TimeoutDoesNotCancelSiblings(t *testing.T) {
	r := NewRunner(RunnerConfig{Timeout: 50 * time.Millisecond, PoolSize: 4})

	var siblingErr atomic.Value
	probes := []Probe{
		NewProbeFunc("slow", func(ctx context.Context) CheckResult {
			<-ctx.Done()
			return Critical("cancelled", ctx.Err())
		}),
		NewProbeFunc("fast", func(ctx context.Context) CheckResult {
			time.Sleep(10 * time.Millisecond)
			if ctx.Err() != nil {
				siblingErr.Store(ctx.Err())
			}
			return Healthy("ok")
		}),
	}

	results := r.RunAll(context.Background(), probes)

	if results[0].Status != StatusCritical {
		t.Errorf("slow status = %v, want critical", results[0].Status)
	}
	if results[1].Status != StatusHealthy {
		t.Errorf("fast status = %v, want healthy", results[1].Status)
	}
	if v := siblingErr.Load(); v != nil {
		t.Errorf("sibling context was cancelled: %v", v)
	}
}

func TestRunner_PanicIsRecovered(t *testing.T) {
	r := NewRunner(RunnerConfig{Timeout: time.Second})

	probes := []Probe{
		NewProbeFunc("cache", func(ctx context.Context) CheckResult {
			panic("boom")
		}),
		NewProbeFunc("queue", func(ctx context.Context) CheckResult {
			return Healthy("ok")
		}),
	}

	results := r.RunAll(context.Background(), probes)

	if results[0].Status != StatusCritical {
		t.Errorf("Status = %v, want critical", results[0].Status)
	}
	if !strings.Contains(results[0].Message, "cache: panic: boom") {
		t.Errorf("Message = %q", results[0].Message)
	}
	if !errors.Is(results[0].Err, ErrProbePanic) {
		t.Errorf("Err = %v, want ErrProbePanic", results[0].Err)
	}
	if results[1].Status != StatusHealthy {
		t.Errorf("sibling status = %v, want healthy", results[1].Status)
	}
}

func TestRunner_ErrorIsNormalizedToCritical(t *testing.T) {
	r := NewRunner()

	probe := NewProbeFunc("storage", func(ctx context.Context) CheckResult {
		res := Warning("slow")
		res.Err = errors.New("permission denied")
		return res
	})

	result := r.Run(context.Background(), probe)

	if result.Status != StatusCritical {
		t.Errorf("Status = %v, want critical", result.Status)
	}
	if result.Message != "storage: permission denied" {
		t.Errorf("Message = %q", result.Message)
	}
}

func TestRunner_InvalidStatusIsCritical(t *testing.T) {
	r := NewRunner()

	probe := NewProbeFunc("app", func(ctx context.Context) CheckResult {
		return CheckResult{Status: Status(42)}
	})

	result := r.Run(context.Background(), probe)

	if result.Status != StatusCritical {
		t.Errorf("Status = %v, want critical", result.Status)
	}
	if !errors.Is(result.Err, ErrInvalidStatus) {
		t.Errorf("Err = %v, want ErrInvalidStatus", result.Err)
	}
}

func TestRunner_FillsMetricComponent(t *testing.T) {
	r := NewRunner()

	probe := NewProbeFunc("storage", func(ctx context.Context) CheckResult {
		return Healthy("ok").WithMetric("disk_usage_percent", 42)
	})

	result := r.Run(context.Background(), probe)

	if len(result.Metrics) != 1 {
		t.Fatalf("Metrics = %d, want 1", len(result.Metrics))
	}
	if result.Metrics[0].Component != "storage" {
		t.Errorf("Metric component = %q, want 'storage'", result.Metrics[0].Component)
	}
}

func TestRunner_PoolBoundsConcurrency(t *testing.T) {
	const poolSize = 2
	r := NewRunner(RunnerConfig{Timeout: time.Second, PoolSize: poolSize})

	var active, peak atomic.Int32
	probes := make([]Probe, 8)
	for i := range probes {
		probes[i] = NewProbeFunc(fmt.Sprintf("p%d", i), func(ctx context.Context) CheckResult {
			n := active.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			active.Add(-1)
			return Healthy("ok")
		})
	}

	r.RunAll(context.Background(), probes)

	if got := peak.Load(); got > poolSize {
		t.Errorf("peak concurrency = %d, want <= %d", got, poolSize)
	}
}

func TestRunner_ParentCancellation(t *testing.T) {
	r := NewRunner(RunnerConfig{Timeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	probe := NewProbeFunc("database", func(ctx context.Context) CheckResult {
		<-ctx.Done()
		time.Sleep(5 * time.Millisecond)
		return Healthy("ignored")
	})

	result := r.Run(ctx, probe)
	if result.Status != StatusCritical {
		t.Errorf("Status = %v, want critical", result.Status)
	}
}

func TestRunner_StuckProbeHoldsOneGoroutine(t *testing.T) {
	r := NewRunner(RunnerConfig{Timeout: 5 * time.Millisecond, PoolSize: 2})

	release := make(chan struct{})
	var calls atomic.Int32
	stuck := NewProbeFunc("queue", func(context.Context) CheckResult {
		calls.Add(1)
		<-release
		return Healthy("drained")
	})
	probes := []Probe{stuck}

	before := runtime.NumGoroutine()
	for i := 0; i < 100; i++ {
		results := r.RunAll(context.Background(), probes)
		if results[0].Status != StatusCritical || !errors.Is(results[0].Err, ErrProbeTimeout) {
			t.Fatalf("tick %d: result = %+v, want critical timeout", i, results[0])
		}
		if results[0].Message != "queue: timeout" {
			t.Fatalf("tick %d: Message = %q", i, results[0].Message)
		}
	}
	after := runtime.NumGoroutine()

	if after-before > 5 {
		t.Errorf("goroutines grew from %d to %d over 100 ticks", before, after)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("probe started %d times while stuck, want 1", got)
	}

	close(release)

	deadline := time.Now().Add(2 * time.Second)
	for {
		result := r.Run(context.Background(), stuck)
		if result.Status == StatusHealthy {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("probe still reported stuck after release: %+v", result)
		}
		time.Sleep(time.Millisecond)
	}
}

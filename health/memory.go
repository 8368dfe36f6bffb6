package health

import (
	"context"
	"fmt"
	"runtime"
)

// Metric names emitted by RuntimeProbe.
const (
	MetricMemoryUsagePercent = "memory_usage_percent"
	MetricGoroutines         = "goroutines"
	MetricGCPauseMs          = "gc_pause_total_ms"
)

// RuntimeProbeConfig configures the application runtime probe.
type RuntimeProbeConfig struct {
	// Component is the reported component name.
	// Default: "app"
	Component string

	// WarningPercent is the memory usage percentage that yields Warning.
	// Value should be between 0 and 100. Default: 80
	WarningPercent float64

	// CriticalPercent is the memory usage percentage that yields Critical.
	// Value should be between 0 and 100. Default: 95
	CriticalPercent float64

	// MaxAlloc is the memory budget in bytes.
	// If zero, the memory obtained from the OS is used.
	MaxAlloc uint64

	// MetricsOnly reports Healthy regardless of usage and leaves
	// classification to configured thresholds on the emitted samples.
	MetricsOnly bool
}

// RuntimeProbe reports Go runtime health: memory usage against a budget and
// goroutine count.
type RuntimeProbe struct {
	config RuntimeProbeConfig
	read   func(*runtime.MemStats)
}

// NewRuntimeProbe creates a new runtime probe.
func NewRuntimeProbe(config RuntimeProbeConfig) *RuntimeProbe {
	if config.Component == "" {
		config.Component = "app"
	}
	if config.WarningPercent <= 0 || config.WarningPercent >= 100 {
		config.WarningPercent = 80
	}
	if config.CriticalPercent <= 0 || config.CriticalPercent >= 100 {
		config.CriticalPercent = 95
	}
	if config.CriticalPercent < config.WarningPercent {
		config.CriticalPercent = config.WarningPercent + 10
		if config.CriticalPercent > 100 {
			config.CriticalPercent = 99
		}
	}

	return &RuntimeProbe{config: config, read: runtime.ReadMemStats}
}

// Name returns the component name.
func (p *RuntimeProbe) Name() string {
	return p.config.Component
}

// Check reads runtime statistics and classifies memory usage.
func (p *RuntimeProbe) Check(ctx context.Context) CheckResult {
	select {
	case <-ctx.Done():
		return Critical(p.config.Component+": context cancelled", ctx.Err())
	default:
	}

	var stats runtime.MemStats
	p.read(&stats)

	maxAlloc := p.config.MaxAlloc
	if maxAlloc == 0 {
		maxAlloc = stats.Sys
	}

	goroutines := runtime.NumGoroutine()
	details := map[string]any{
		"alloc_bytes":   stats.Alloc,
		"heap_alloc":    stats.HeapAlloc,
		"heap_in_use":   stats.HeapInuse,
		"heap_objects":  stats.HeapObjects,
		"sys":           stats.Sys,
		"max_alloc":     maxAlloc,
		"num_gc":        stats.NumGC,
		"goroutines":    goroutines,
		"gc_pause_ns":   stats.PauseTotalNs,
		"stack_in_use":  stats.StackInuse,
		"heap_released": stats.HeapReleased,
	}

	if maxAlloc == 0 {
		return Healthy("memory stats unavailable").WithDetails(details)
	}

	usage := float64(stats.Alloc) / float64(maxAlloc) * 100
	details["usage_percent"] = usage

	var result CheckResult
	switch {
	case p.config.MetricsOnly:
		result = Healthy(fmt.Sprintf("memory usage: %.1f%%", usage))
	case usage >= p.config.CriticalPercent:
		result = Critical(fmt.Sprintf("memory usage critical: %.1f%%", usage), ErrThresholdExceeded)
	case usage >= p.config.WarningPercent:
		result = Warning(fmt.Sprintf("memory usage high: %.1f%%", usage))
	default:
		result = Healthy(fmt.Sprintf("memory usage normal: %.1f%%", usage))
	}

	result.Component = p.config.Component
	return result.
		WithDetails(details).
		WithMetric(MetricMemoryUsagePercent, usage).
		WithMetric(MetricGoroutines, float64(goroutines)).
		WithMetric(MetricGCPauseMs, float64(stats.PauseTotalNs)/1e6)
}

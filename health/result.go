package health

import (
	"fmt"
	"maps"
	"time"
)

// MetricSample is a single numeric observation for a component, such as
// disk_usage_percent=92.3. Samples are values and are never mutated.
type MetricSample struct {
	Component  string    `json:"component"`
	Name       string    `json:"name"`
	Value      float64   `json:"value"`
	MeasuredAt time.Time `json:"measured_at"`
}

// NewSample creates a metric sample measured now.
func NewSample(component, name string, value float64) MetricSample {
	return MetricSample{
		Component:  component,
		Name:       name,
		Value:      value,
		MeasuredAt: time.Now(),
	}
}

// String formats the sample as component/name=value.
func (m MetricSample) String() string {
	return fmt.Sprintf("%s/%s=%g", m.Component, m.Name, m.Value)
}

// CheckResult contains the outcome of one probe execution.
type CheckResult struct {
	// Component is the name of the probed dependency, e.g. "database".
	Component string `json:"component"`

	// Status is the health status. It is always set.
	Status Status `json:"status"`

	// Message provides additional context about the status.
	Message string `json:"message,omitempty"`

	// MeasuredAt is when the probe call completed.
	MeasuredAt time.Time `json:"measured_at"`

	// Latency is how long the probe call took.
	Latency time.Duration `json:"latency"`

	// Details contains probe-specific metadata, opaque to the engine.
	Details map[string]any `json:"details,omitempty"`

	// Metrics are samples emitted by the probe for threshold evaluation.
	Metrics []MetricSample `json:"metrics,omitempty"`

	// Err is the error if the probe failed.
	Err error `json:"-"`
}

// Healthy creates a healthy result.
func Healthy(message string) CheckResult {
	return CheckResult{
		Status:     StatusHealthy,
		Message:    message,
		MeasuredAt: time.Now(),
	}
}

// Warning creates a warning result.
func Warning(message string) CheckResult {
	return CheckResult{
		Status:     StatusWarning,
		Message:    message,
		MeasuredAt: time.Now(),
	}
}

// Critical creates a critical result.
func Critical(message string, err error) CheckResult {
	return CheckResult{
		Status:     StatusCritical,
		Message:    message,
		Err:        err,
		MeasuredAt: time.Now(),
	}
}

// LatencyMs returns the probe latency in milliseconds.
func (r CheckResult) LatencyMs() float64 {
	return float64(r.Latency) / float64(time.Millisecond)
}

// WithDetails adds details to a result.
func (r CheckResult) WithDetails(details map[string]any) CheckResult {
	r.Details = details
	return r
}

// WithMetric appends a metric sample named name for the result's component.
// The component is filled in by the runner when empty.
func (r CheckResult) WithMetric(name string, value float64) CheckResult {
	metrics := make([]MetricSample, len(r.Metrics), len(r.Metrics)+1)
	copy(metrics, r.Metrics)
	r.Metrics = append(metrics, MetricSample{
		Component:  r.Component,
		Name:       name,
		Value:      value,
		MeasuredAt: r.MeasuredAt,
	})
	return r
}

// clone returns a copy that shares no maps or slices with r.
func (r CheckResult) clone() CheckResult {
	if r.Details != nil {
		r.Details = maps.Clone(r.Details)
	}
	if r.Metrics != nil {
		metrics := make([]MetricSample, len(r.Metrics))
		copy(metrics, r.Metrics)
		r.Metrics = metrics
	}
	return r
}

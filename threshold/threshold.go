package threshold

import (
	"fmt"
	"math"

	"github.com/jonwraymond/healthwatch/health"
)

// Config is the threshold for one metric name.
type Config struct {
	Warning    float64    `yaml:"warning" json:"warning"`
	Critical   float64    `yaml:"critical" json:"critical"`
	Comparison Comparison `yaml:"comparison" json:"comparison"`
}

// Validate checks that the limits are finite and ordered for the comparison.
func (c Config) Validate() error {
	if !c.Comparison.Valid() {
		return fmt.Errorf("%w: comparison %d", ErrInvalidConfig, int(c.Comparison))
	}
	if !finite(c.Warning) || !finite(c.Critical) {
		return fmt.Errorf("%w: limits must be finite", ErrInvalidConfig)
	}
	switch c.Comparison {
	case GreaterThan:
		if c.Warning > c.Critical {
			return fmt.Errorf("%w: warning %v above critical %v", ErrInvalidConfig, c.Warning, c.Critical)
		}
	case LessThan:
		if c.Warning < c.Critical {
			return fmt.Errorf("%w: warning %v below critical %v", ErrInvalidConfig, c.Warning, c.Critical)
		}
	}
	return nil
}

// Classify returns the level for value and the limit it crossed.
// ok is false when the value is within limits.
func (c Config) Classify(value float64) (level health.Status, limit float64, ok bool) {
	switch c.Comparison {
	case GreaterThan:
		if value >= c.Critical {
			return health.StatusCritical, c.Critical, true
		}
		if value >= c.Warning {
			return health.StatusWarning, c.Warning, true
		}
	case LessThan:
		if value <= c.Critical {
			return health.StatusCritical, c.Critical, true
		}
		if value <= c.Warning {
			return health.StatusWarning, c.Warning, true
		}
	}
	return health.StatusHealthy, 0, false
}

// Set maps metric names to their thresholds.
type Set map[string]Config

// Validate returns the first invalid entry, naming its metric.
func (s Set) Validate() error {
	for name, cfg := range s {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("threshold %q: %w", name, err)
		}
	}
	return nil
}

// Breach is a sample that crossed a configured limit.
type Breach struct {
	Sample     health.MetricSample `json:"sample"`
	Level      health.Status       `json:"level"`
	Threshold  float64             `json:"threshold"`
	Comparison Comparison          `json:"comparison"`
}

// AlertType is the dedup type for this breach, e.g. "threshold_breach:disk_usage_percent".
func (b Breach) AlertType() string {
	return TypePrefix + b.Sample.Name
}

// Message describes the breach.
func (b Breach) Message() string {
	op := ">="
	if b.Comparison == LessThan {
		op = "<="
	}
	return fmt.Sprintf("%s %s %v %s %v (%s)",
		b.Sample.Component, b.Sample.Name, b.Sample.Value, op, b.Threshold, b.Level)
}

// TypePrefix prefixes every breach alert type.
const TypePrefix = "threshold_breach:"

// Skip records a sample that could not be evaluated.
type Skip struct {
	Sample health.MetricSample
	Err    error
}

// Evaluate returns a breach for every sample that crosses its configured
// limit, in sample order. Unconfigured metric names, malformed samples and
// invalid configs produce nothing.
func Evaluate(samples []health.MetricSample, configs Set) []Breach {
	breaches, _ := EvaluateWithSkips(samples, configs)
	return breaches
}

// EvaluateWithSkips is Evaluate that also reports the samples it had to skip
// so the caller can log them. Unconfigured names are not skips.
func EvaluateWithSkips(samples []health.MetricSample, configs Set) ([]Breach, []Skip) {
	var (
		breaches []Breach
		skips    []Skip
	)

	for _, sample := range samples {
		cfg, ok := configs[sample.Name]
		if !ok {
			continue
		}
		if err := cfg.Validate(); err != nil {
			skips = append(skips, Skip{Sample: sample, Err: err})
			continue
		}
		if !finite(sample.Value) {
			skips = append(skips, Skip{
				Sample: sample,
				Err:    fmt.Errorf("%w: %s=%v", ErrMalformedSample, sample.Name, sample.Value),
			})
			continue
		}

		level, limit, breached := cfg.Classify(sample.Value)
		if !breached {
			continue
		}
		breaches = append(breaches, Breach{
			Sample:     sample,
			Level:      level,
			Threshold:  limit,
			Comparison: cfg.Comparison,
		})
	}

	return breaches, skips
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

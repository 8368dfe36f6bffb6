package alert

import (
	"fmt"
	"strings"

	"github.com/jonwraymond/healthwatch/health"
)

// Severity classifies an alert. Larger is more severe.
type Severity int

const (
	// SeverityInfo is informational; no component is impaired.
	SeverityInfo Severity = iota
	// SeverityWarning indicates degraded operation.
	SeverityWarning
	// SeverityCritical indicates a component is down or past its limit.
	SeverityCritical
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Valid reports whether s is a defined severity.
func (s Severity) Valid() bool {
	return s >= SeverityInfo && s <= SeverityCritical
}

// Bump returns the next severity level, capped at Critical.
func (s Severity) Bump() Severity {
	if s >= SeverityCritical {
		return SeverityCritical
	}
	return s + 1
}

// ParseSeverity parses a severity name.
func ParseSeverity(v string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "info":
		return SeverityInfo, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "critical", "crit":
		return SeverityCritical, nil
	default:
		return SeverityInfo, fmt.Errorf("%w: %q", ErrInvalidSeverity, v)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// FromStatus maps a health status to a severity. Healthy has no severity.
func FromStatus(status health.Status) (Severity, bool) {
	switch status {
	case health.StatusWarning:
		return SeverityWarning, true
	case health.StatusCritical:
		return SeverityCritical, true
	default:
		return SeverityInfo, false
	}
}

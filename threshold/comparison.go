package threshold

import (
	"fmt"
	"strings"
)

// Comparison selects the direction in which a metric breaches.
type Comparison int

const (
	// GreaterThan breaches when the value reaches or exceeds the limit.
	GreaterThan Comparison = iota
	// LessThan breaches when the value reaches or falls below the limit.
	LessThan
)

// String returns the canonical short name.
func (c Comparison) String() string {
	switch c {
	case GreaterThan:
		return "gt"
	case LessThan:
		return "lt"
	default:
		return "unknown"
	}
}

// Valid reports whether c is a defined comparison.
func (c Comparison) Valid() bool {
	return c == GreaterThan || c == LessThan
}

// ParseComparison parses "gt", "lt", "greater_than", "less_than", ">" or "<".
func ParseComparison(v string) (Comparison, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "gt", "greater_than", "greaterthan", ">", ">=":
		return GreaterThan, nil
	case "lt", "less_than", "lessthan", "<", "<=":
		return LessThan, nil
	default:
		return GreaterThan, fmt.Errorf("%w: %q", ErrInvalidComparison, v)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Comparison) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Comparison) UnmarshalText(text []byte) error {
	parsed, err := ParseComparison(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

package health

import (
	"fmt"
	"strings"
)

// Status is the health of a component or of the whole system. A larger
// Status is always worse.
type Status int

const (
	StatusHealthy Status = iota
	StatusWarning
	StatusCritical
)

var statusNames = [...]string{
	StatusHealthy:  "healthy",
	StatusWarning:  "warning",
	StatusCritical: "critical",
}

func (s Status) String() string {
	if !s.Valid() {
		return "unknown"
	}
	return statusNames[s]
}

// Valid reports whether s is one of the defined statuses.
func (s Status) Valid() bool {
	return s >= StatusHealthy && s <= StatusCritical
}

// Worse returns the worse of s and other.
func (s Status) Worse(other Status) Status {
	return max(s, other)
}

// ParseStatus is the inverse of String. Case and surrounding space are
// ignored; anything else wraps ErrInvalidStatus and yields StatusCritical.
func ParseStatus(v string) (Status, error) {
	name := strings.ToLower(strings.TrimSpace(v))
	for s, n := range statusNames {
		if n == name {
			return Status(s), nil
		}
	}
	return StatusCritical, fmt.Errorf("%w: %q", ErrInvalidStatus, v)
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) (err error) {
	*s, err = ParseStatus(string(text))
	return err
}

package notify

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/jonwraymond/healthwatch/alert"
)

// Event is the wire form of a notification.
type Event struct {
	Event string      `json:"event"`
	Alert alert.Alert `json:"alert"`
	// SentAt is when the notification was produced.
	SentAt time.Time `json:"sent_at"`
}

// Event names.
const (
	EventFiring   = "firing"
	EventResolved = "resolved"
)

// NewEvent wraps a for delivery.
func NewEvent(a alert.Alert, now time.Time) Event {
	kind := EventFiring
	if !a.Open() {
		kind = EventResolved
	}
	return Event{Event: kind, Alert: a, SentAt: now}
}

// Subject returns a one-line summary such as
// "[CRITICAL] component_unhealthy on database".
func Subject(a alert.Alert) string {
	tag := strings.ToUpper(a.Severity.String())
	if !a.Open() {
		tag = "RESOLVED"
	}
	return fmt.Sprintf("[%s] %s on %s", tag, a.Type, a.Component)
}

// Body returns a plain-text description of a.
func Body(a alert.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", a.Message)
	fmt.Fprintf(&b, "Alert:       %s\n", a.ID)
	fmt.Fprintf(&b, "Component:   %s\n", a.Component)
	fmt.Fprintf(&b, "Type:        %s\n", a.Type)
	fmt.Fprintf(&b, "Severity:    %s\n", a.Severity)
	if a.Escalated {
		fmt.Fprintf(&b, "Escalated:   from %s\n", a.PeakSeverity)
	}
	fmt.Fprintf(&b, "Occurrences: %d\n", a.OccurrenceCount)
	fmt.Fprintf(&b, "First seen:  %s\n", a.FirstSeenAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Last seen:   %s\n", a.LastSeenAt.Format(time.RFC3339))
	if a.ResolvedAt != nil {
		fmt.Fprintf(&b, "Resolved:    %s\n", a.ResolvedAt.Format(time.RFC3339))
	}
	if len(a.Context) > 0 {
		b.WriteString("\nContext:\n")
		for _, k := range slices.Sorted(maps.Keys(a.Context)) {
			fmt.Fprintf(&b, "  %s: %v\n", k, a.Context[k])
		}
	}
	return b.String()
}

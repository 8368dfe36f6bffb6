package alert

import (
	"maps"
	"time"
)

// Alert types produced by the monitor.
const (
	TypeComponentUnhealthy = "component_unhealthy"
	TypeNoChecksConfigured = "no_checks_configured"
)

// ComponentSystem is the component used for alerts about the engine itself.
const ComponentSystem = "system"

// Key identifies one standing alert across repeated occurrences.
type Key struct {
	Type      string `json:"type"`
	Component string `json:"component"`
}

// String returns "type/component".
func (k Key) String() string {
	return k.Type + "/" + k.Component
}

// Alert is a standing condition, deduplicated by Key.
//
// Alerts are owned by the Repository. Code outside it only ever holds
// copies; mutation happens through Repository.UpdateAlert.
type Alert struct {
	ID              string         `json:"id"`
	Type            string         `json:"type"`
	Component       string         `json:"component"`
	Severity        Severity       `json:"severity"`
	Message         string         `json:"message,omitempty"`
	FirstSeenAt     time.Time      `json:"first_seen_at"`
	LastSeenAt      time.Time      `json:"last_seen_at"`
	OccurrenceCount int            `json:"occurrence_count"`
	LastNotifiedAt  *time.Time     `json:"last_notified_at,omitempty"`
	ResolvedAt      *time.Time     `json:"resolved_at,omitempty"`
	Context         map[string]any `json:"context,omitempty"`

	// PeakSeverity is the highest raw severity observed since FirstSeenAt.
	PeakSeverity Severity `json:"peak_severity"`
	// Escalated is set once persistence bumped Severity above PeakSeverity.
	Escalated bool `json:"escalated"`
	// NotifiedSeverity is the Severity carried by the last successful send.
	NotifiedSeverity Severity `json:"notified_severity"`
	NotifyCount      int      `json:"notify_count"`

	DeliveryFailures int        `json:"delivery_failures"`
	LastAttemptAt    *time.Time `json:"last_attempt_at,omitempty"`
	// LastError is the error of the last failed send, cleared on success.
	LastError string `json:"last_error,omitempty"`
}

// Key returns the dedup key of the alert.
func (a Alert) Key() Key {
	return Key{Type: a.Type, Component: a.Component}
}

// Open reports whether the alert has not been resolved.
func (a Alert) Open() bool {
	return a.ResolvedAt == nil
}

// Notified reports whether at least one notification was delivered.
func (a Alert) Notified() bool {
	return a.LastNotifiedAt != nil
}

// Clone returns a deep copy.
func (a Alert) Clone() Alert {
	a.LastNotifiedAt = cloneTime(a.LastNotifiedAt)
	a.ResolvedAt = cloneTime(a.ResolvedAt)
	a.LastAttemptAt = cloneTime(a.LastAttemptAt)
	a.Context = maps.Clone(a.Context)
	return a
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func timePtr(t time.Time) *time.Time {
	return &t
}

package alert

import (
	"fmt"
	"time"
)

// Policy controls notification frequency and escalation.
type Policy struct {
	// Cooldowns is the minimum time between notifications per severity.
	// Critical must be shorter than Warning, and Warning shorter than Info.
	Cooldowns map[Severity]time.Duration

	// EscalationThreshold bumps Severity one level once OccurrenceCount
	// reaches it. Zero disables escalation.
	EscalationThreshold int

	// RetryInterval is the minimum wait after a failed send before the next
	// attempt. Zero retries on the next tick.
	RetryInterval time.Duration

	// NotifyResolved sends one notification when a notified alert resolves.
	NotifyResolved bool
}

// DefaultPolicy returns cooldowns of 5m/15m/1h and escalation after 5
// occurrences.
func DefaultPolicy() Policy {
	return Policy{
		Cooldowns: map[Severity]time.Duration{
			SeverityCritical: 5 * time.Minute,
			SeverityWarning:  15 * time.Minute,
			SeverityInfo:     time.Hour,
		},
		EscalationThreshold: 5,
	}
}

// Validate checks durations and cooldown ordering.
func (p Policy) Validate() error {
	for sev, d := range p.Cooldowns {
		if !sev.Valid() {
			return fmt.Errorf("%w: cooldown for %w", ErrInvalidPolicy, ErrInvalidSeverity)
		}
		if d < 0 {
			return fmt.Errorf("%w: negative cooldown for %s", ErrInvalidPolicy, sev)
		}
	}
	if p.EscalationThreshold < 0 {
		return fmt.Errorf("%w: negative escalation threshold", ErrInvalidPolicy)
	}
	if p.RetryInterval < 0 {
		return fmt.Errorf("%w: negative retry interval", ErrInvalidPolicy)
	}

	crit, warn, info := p.Cooldown(SeverityCritical), p.Cooldown(SeverityWarning), p.Cooldown(SeverityInfo)
	if crit >= warn || warn >= info {
		return fmt.Errorf("%w: cooldowns must satisfy critical < warning < info, got %s, %s, %s",
			ErrInvalidPolicy, crit, warn, info)
	}
	return nil
}

// Cooldown returns the cooldown for a severity. Missing entries fall back to
// the default policy.
func (p Policy) Cooldown(sev Severity) time.Duration {
	if d, ok := p.Cooldowns[sev]; ok {
		return d
	}
	return DefaultPolicy().Cooldowns[sev]
}

// severity returns the effective severity of a after escalation.
func (p Policy) severity(a Alert) (Severity, bool) {
	if p.EscalationThreshold > 0 &&
		a.OccurrenceCount >= p.EscalationThreshold &&
		a.PeakSeverity < SeverityCritical {
		return a.PeakSeverity.Bump(), true
	}
	return a.PeakSeverity, a.Escalated
}

// Due reports whether a should be sent a notification at now.
func (p Policy) Due(a Alert, now time.Time) bool {
	if !a.Open() {
		return false
	}
	if a.LastError != "" && a.LastAttemptAt != nil && now.Sub(*a.LastAttemptAt) < p.RetryInterval {
		return false
	}
	if a.LastNotifiedAt == nil {
		return true
	}
	if a.Severity > a.NotifiedSeverity {
		return true
	}
	return now.Sub(*a.LastNotifiedAt) >= p.Cooldown(a.Severity)
}

// Package alert turns per-tick signals into deduplicated, rate-limited
// alerts.
//
// A Signal is a raw observation for one Key (type, component). The Engine
// keeps at most one open Alert per Key: repeated signals increment
// OccurrenceCount instead of creating new alerts, and an open alert whose
// signal stops appearing is resolved. A later reappearance opens a new alert.
//
// Notifications go through a Gateway and are gated by per-severity cooldowns
// in Policy. Persistent conditions escalate one severity level once
// OccurrenceCount reaches Policy.EscalationThreshold.
//
// Alerts are owned by a Repository (see package store); the Engine only
// mutates them through Repository.UpdateAlert.
package alert

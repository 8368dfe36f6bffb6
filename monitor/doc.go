// Package monitor drives the periodic monitoring tick.
//
// A Scheduler fires ticks on a fixed interval or cron schedule and keeps an
// Idle/Running state: a trigger that arrives while a tick is still running
// is skipped and logged. Each tick the Monitor
//
//  1. runs every probe on a bounded pool (health.Runner)
//  2. aggregates the results (health.Aggregate)
//  3. evaluates probe metrics and derived latency_ms samples against
//     thresholds (threshold.EvaluateWithSkips)
//  4. records status and samples in the store
//  5. hands unhealthy components and breaches to the alert engine
//
// A store failure drops the tick; the next tick proceeds normally.
//
// The query surface (GetLatestStatus, GetOpenAlerts, GetHistory,
// GetRecentlyResolved) only reads the store and never runs probes.
package monitor

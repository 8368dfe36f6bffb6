// Package store provides the bounded, time-windowed result store.
//
// MemoryStore keeps SystemStatus history, metric samples and alerts in
// memory. Entries older than the retention window are evicted lazily on
// write; the window is measured from the newest time the store has seen, so
// eviction follows the tick clock rather than the wall clock.
//
// MemoryStore implements alert.Repository and is the only owner of alert
// state. Readers always receive deep copies.
package store

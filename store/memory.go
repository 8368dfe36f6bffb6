package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jonwraymond/healthwatch/alert"
	"github.com/jonwraymond/healthwatch/health"
)

// Config configures a MemoryStore.
type Config struct {
	// Retention is how long statuses, samples and resolved alerts are kept.
	// Default: 24 hours
	Retention time.Duration

	// MaxStatuses caps the status history regardless of age. Zero means no cap.
	MaxStatuses int
}

// Stats reports the number of entries held.
type Stats struct {
	Statuses   int `json:"statuses"`
	Samples    int `json:"samples"`
	OpenAlerts int `json:"open_alerts"`
	Resolved   int `json:"resolved_alerts"`
}

// MemoryStore is an in-memory, retention-bounded store.
type MemoryStore struct {
	mu     sync.RWMutex
	config Config
	closed bool

	// watermark is the newest time observed on any write.
	watermark time.Time

	statuses []health.SystemStatus
	samples  []sampleBatch

	alerts   map[string]*alert.Alert
	open     map[alert.Key]string
	resolved []resolvedEntry
}

type sampleBatch struct {
	at      time.Time
	samples []health.MetricSample
}

type resolvedEntry struct {
	id string
	at time.Time
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore(config Config) *MemoryStore {
	if config.Retention <= 0 {
		config.Retention = 24 * time.Hour
	}
	if config.MaxStatuses < 0 {
		config.MaxStatuses = 0
	}

	return &MemoryStore{
		config: config,
		alerts: make(map[string]*alert.Alert),
		open:   make(map[alert.Key]string),
	}
}

// Config returns the store configuration.
func (s *MemoryStore) Config() Config {
	return s.config
}

// RecordStatus appends a status to the history. Statuses must arrive in
// ComputedAt order.
func (s *MemoryStore) RecordStatus(_ context.Context, status health.SystemStatus) error {
	if !status.Initialized() {
		return ErrUninitializedStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if n := len(s.statuses); n > 0 && status.ComputedAt.Before(s.statuses[n-1].ComputedAt) {
		return fmt.Errorf("%w: status at %s is older than %s",
			ErrStaleWrite, status.ComputedAt.Format(time.RFC3339Nano),
			s.statuses[n-1].ComputedAt.Format(time.RFC3339Nano))
	}

	s.statuses = append(s.statuses, status.Clone())
	if s.config.MaxStatuses > 0 && len(s.statuses) > s.config.MaxStatuses {
		drop := len(s.statuses) - s.config.MaxStatuses
		clear(s.statuses[:drop])
		s.statuses = s.statuses[drop:]
	}

	s.advance(status.ComputedAt)
	return nil
}

// RecordSamples stores the samples of one tick under at.
func (s *MemoryStore) RecordSamples(_ context.Context, at time.Time, samples []health.MetricSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if len(samples) > 0 {
		s.samples = append(s.samples, sampleBatch{at: at, samples: slices.Clone(samples)})
	}

	s.advance(at)
	return nil
}

// Latest returns the most recent status.
func (s *MemoryStore) Latest() (health.SystemStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.statuses) == 0 {
		return health.SystemStatus{}, false
	}
	return s.statuses[len(s.statuses)-1].Clone(), true
}

// History returns statuses computed at or after since, oldest first.
func (s *MemoryStore) History(since time.Time) []health.SystemStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, _ := slices.BinarySearchFunc(s.statuses, since, func(st health.SystemStatus, t time.Time) int {
		return st.ComputedAt.Compare(t)
	})

	out := make([]health.SystemStatus, 0, len(s.statuses)-i)
	for _, st := range s.statuses[i:] {
		out = append(out, st.Clone())
	}
	return out
}

// Samples returns samples recorded at or after since, oldest first.
func (s *MemoryStore) Samples(since time.Time) []health.MetricSample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []health.MetricSample
	for _, batch := range s.samples {
		if batch.at.Before(since) {
			continue
		}
		out = append(out, batch.samples...)
	}
	return out
}

// OpenAlerts returns every unresolved alert ordered by FirstSeenAt.
func (s *MemoryStore) OpenAlerts(_ context.Context) ([]alert.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]alert.Alert, 0, len(s.open))
	for _, id := range s.open {
		out = append(out, s.alerts[id].Clone())
	}
	sortAlerts(out)
	return out, nil
}

// RecentlyResolvedAlerts returns alerts resolved within the given window of
// the newest observed time, most recent first.
func (s *MemoryStore) RecentlyResolvedAlerts(within time.Duration) []alert.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := s.watermark.Add(-within)
	var out []alert.Alert
	for i := len(s.resolved) - 1; i >= 0; i-- {
		entry := s.resolved[i]
		if entry.at.Before(cutoff) {
			break
		}
		if a, ok := s.alerts[entry.id]; ok {
			out = append(out, a.Clone())
		}
	}
	return out
}

// Alert returns the alert with the given id.
func (s *MemoryStore) Alert(id string) (alert.Alert, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.alerts[id]
	if !ok {
		return alert.Alert{}, false
	}
	return a.Clone(), true
}

// CreateAlert stores a new alert. At most one open alert may exist per key.
func (s *MemoryStore) CreateAlert(_ context.Context, a alert.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if _, ok := s.alerts[a.ID]; ok {
		return fmt.Errorf("%w: id %s", ErrDuplicateAlert, a.ID)
	}
	if a.Open() {
		if id, ok := s.open[a.Key()]; ok {
			return fmt.Errorf("%w: %s already open as %s", ErrDuplicateAlert, a.Key(), id)
		}
	}

	stored := a.Clone()
	s.alerts[a.ID] = &stored
	if stored.Open() {
		s.open[stored.Key()] = stored.ID
	} else {
		s.resolved = append(s.resolved, resolvedEntry{id: stored.ID, at: *stored.ResolvedAt})
	}

	s.advance(a.LastSeenAt)
	return nil
}

// UpdateAlert applies fn to a copy of the stored alert and commits the copy
// if fn succeeds. The id and key may not change and resolved alerts are
// read-only.
func (s *MemoryStore) UpdateAlert(_ context.Context, id string, fn func(*alert.Alert) error) (alert.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return alert.Alert{}, ErrClosed
	}

	current, ok := s.alerts[id]
	if !ok {
		return alert.Alert{}, fmt.Errorf("%w: %s", ErrAlertNotFound, id)
	}
	if !current.Open() {
		return alert.Alert{}, fmt.Errorf("%w: %s", ErrAlertResolved, id)
	}

	next := current.Clone()
	if err := fn(&next); err != nil {
		return alert.Alert{}, err
	}
	if next.ID != current.ID || next.Key() != current.Key() {
		return alert.Alert{}, fmt.Errorf("%w: %s", ErrKeyChanged, id)
	}

	s.alerts[id] = &next
	if !next.Open() {
		delete(s.open, next.Key())
		s.resolved = append(s.resolved, resolvedEntry{id: id, at: *next.ResolvedAt})
		s.advance(*next.ResolvedAt)
	} else {
		s.advance(next.LastSeenAt)
	}

	return next.Clone(), nil
}

// Stats returns entry counts.
func (s *MemoryStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	samples := 0
	for _, batch := range s.samples {
		samples += len(batch.samples)
	}
	return Stats{
		Statuses:   len(s.statuses),
		Samples:    samples,
		OpenAlerts: len(s.open),
		Resolved:   len(s.resolved),
	}
}

// Close rejects further writes. Reads keep working. Close is idempotent.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// advance moves the watermark forward and evicts expired entries.
// Callers must hold the write lock.
func (s *MemoryStore) advance(t time.Time) {
	if t.After(s.watermark) {
		s.watermark = t
	}
	cutoff := s.watermark.Add(-s.config.Retention)

	n := 0
	for n < len(s.statuses) && s.statuses[n].ComputedAt.Before(cutoff) {
		n++
	}
	// Keep the latest status even past retention so Latest never goes empty.
	if n == len(s.statuses) && n > 0 {
		n--
	}
	if n > 0 {
		clear(s.statuses[:n])
		s.statuses = s.statuses[n:]
	}

	n = 0
	for n < len(s.samples) && s.samples[n].at.Before(cutoff) {
		n++
	}
	if n > 0 {
		clear(s.samples[:n])
		s.samples = s.samples[n:]
	}

	n = 0
	for n < len(s.resolved) && s.resolved[n].at.Before(cutoff) {
		delete(s.alerts, s.resolved[n].id)
		n++
	}
	if n > 0 {
		clear(s.resolved[:n])
		s.resolved = s.resolved[n:]
	}
}

func sortAlerts(alerts []alert.Alert) {
	slices.SortFunc(alerts, func(a, b alert.Alert) int {
		if c := a.FirstSeenAt.Compare(b.FirstSeenAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
}

var _ alert.Repository = (*MemoryStore)(nil)

package alert

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/healthwatch/observe"
)

// EngineConfig configures an Engine.
type EngineConfig struct {
	Policy  Policy
	Logger  observe.Logger
	Metrics observe.Metrics
}

// Report summarizes one Process call.
type Report struct {
	Created  int
	Updated  int
	Resolved int
	Notified int
	Failed   int

	// Open holds copies of every alert still open after the tick.
	Open []Alert
}

// Engine turns per-tick signals into standing alerts and decides when they
// are due for notification.
type Engine struct {
	repo    Repository
	gateway Gateway
	policy  Policy
	logger  observe.Logger
	metrics observe.Metrics
	newID   func() string

	mu sync.Mutex
}

// NewEngine creates an Engine. A nil gateway disables delivery; alerts are
// still tracked.
func NewEngine(repo Repository, gateway Gateway, cfg EngineConfig) (*Engine, error) {
	if repo == nil {
		return nil, ErrNilRepository
	}
	if cfg.Policy.Cooldowns == nil {
		cfg.Policy.Cooldowns = DefaultPolicy().Cooldowns
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.NopMetrics()
	}

	return &Engine{
		repo:    repo,
		gateway: gateway,
		policy:  cfg.Policy,
		logger:  cfg.Logger.With(observe.Field{Key: "component", Value: "alert"}),
		metrics: cfg.Metrics,
		newID:   uuid.NewString,
	}, nil
}

// Policy returns the engine policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Process applies one tick of signals:
//   - signals sharing a key are merged into one occurrence
//   - an open alert with a matching signal is updated, otherwise a new alert
//     is created
//   - an open alert without a signal is resolved
//   - every open alert that is due is sent to the gateway
//
// Repository failures on individual alerts do not stop the rest of the tick;
// they are joined into the returned error. Delivery failures are recorded on
// the alert and are not errors.
func (e *Engine) Process(ctx context.Context, now time.Time, signals []Signal) (Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var report Report

	open, err := e.repo.OpenAlerts(ctx)
	if err != nil {
		return report, fmt.Errorf("alert: load open alerts: %w", err)
	}

	byKey := make(map[Key]Alert, len(open))
	for _, a := range open {
		byKey[a.Key()] = a
	}

	var (
		errs   []error
		active = make([]Alert, 0, len(signals))
		seen   = make(map[Key]bool, len(signals))
	)

	for _, sig := range mergeSignals(signals) {
		seen[sig.Key] = true

		existing, ok := byKey[sig.Key]
		if !ok {
			a, err := e.create(ctx, now, sig)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			report.Created++
			active = append(active, a)
			continue
		}

		a, err := e.repo.UpdateAlert(ctx, existing.ID, func(a *Alert) error {
			e.recordOccurrence(a, now, sig)
			return nil
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("alert: update %s: %w", sig.Key, err))
			continue
		}
		report.Updated++
		active = append(active, a)
	}

	for _, a := range open {
		if seen[a.Key()] {
			continue
		}
		resolved, err := e.repo.UpdateAlert(ctx, a.ID, func(a *Alert) error {
			a.ResolvedAt = timePtr(now)
			return nil
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("alert: resolve %s: %w", a.Key(), err))
			continue
		}
		report.Resolved++
		e.logger.Info(ctx, "alert resolved", alertFields(resolved)...)
		if e.policy.NotifyResolved && resolved.Notified() {
			e.sendResolved(ctx, resolved)
		}
	}

	for i, a := range active {
		if e.gateway == nil || !e.policy.Due(a, now) {
			continue
		}
		updated, sent, err := e.notify(ctx, now, a)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		active[i] = updated
		if sent {
			report.Notified++
		} else {
			report.Failed++
		}
	}

	report.Open = active
	e.metrics.RecordOpenAlerts(ctx, len(active))

	return report, errors.Join(errs...)
}

func (e *Engine) create(ctx context.Context, now time.Time, sig Signal) (Alert, error) {
	a := Alert{
		ID:              e.newID(),
		Type:            sig.Key.Type,
		Component:       sig.Key.Component,
		Severity:        sig.Severity,
		PeakSeverity:    sig.Severity,
		Message:         sig.Message,
		FirstSeenAt:     now,
		LastSeenAt:      now,
		OccurrenceCount: 1,
		Context:         maps.Clone(sig.Context),
	}
	a.Severity, a.Escalated = e.policy.severity(a)

	if err := e.repo.CreateAlert(ctx, a); err != nil {
		return Alert{}, fmt.Errorf("alert: create %s: %w", sig.Key, err)
	}
	e.logger.Warn(ctx, "alert opened", alertFields(a)...)
	return a.Clone(), nil
}

// recordOccurrence folds a new occurrence into an open alert.
func (e *Engine) recordOccurrence(a *Alert, now time.Time, sig Signal) {
	a.OccurrenceCount++
	a.LastSeenAt = now
	if sig.Severity > a.PeakSeverity {
		a.PeakSeverity = sig.Severity
	}
	if sig.Message != "" {
		a.Message = sig.Message
	}
	if len(sig.Context) > 0 {
		if a.Context == nil {
			a.Context = make(map[string]any, len(sig.Context))
		}
		maps.Copy(a.Context, sig.Context)
	}
	a.Severity, a.Escalated = e.policy.severity(*a)
}

// notify sends a and records the outcome. sent is false when the gateway
// failed; err is set only when the outcome could not be recorded.
func (e *Engine) notify(ctx context.Context, now time.Time, a Alert) (Alert, bool, error) {
	sendErr := e.gateway.Send(ctx, a.Clone())

	updated, err := e.repo.UpdateAlert(ctx, a.ID, func(stored *Alert) error {
		stored.LastAttemptAt = timePtr(now)
		if sendErr != nil {
			stored.DeliveryFailures++
			stored.LastError = sendErr.Error()
			return nil
		}
		stored.LastNotifiedAt = timePtr(now)
		stored.NotifiedSeverity = stored.Severity
		stored.NotifyCount++
		stored.LastError = ""
		return nil
	})
	if err != nil {
		return a, false, fmt.Errorf("alert: record delivery %s: %w", a.Key(), err)
	}

	if sendErr != nil {
		e.metrics.RecordNotification(ctx, a.Severity.String(), "failed")
		e.logger.Error(ctx, "alert delivery failed", append(alertFields(updated),
			observe.Field{Key: "error", Value: fmt.Errorf("%w: %w", ErrDeliveryFailed, sendErr).Error()})...)
		return updated, false, nil
	}

	e.metrics.RecordNotification(ctx, a.Severity.String(), "sent")
	e.logger.Info(ctx, "alert notified", alertFields(updated)...)
	return updated, true, nil
}

func (e *Engine) sendResolved(ctx context.Context, a Alert) {
	if e.gateway == nil {
		return
	}
	if err := e.gateway.Send(ctx, a.Clone()); err != nil {
		e.metrics.RecordNotification(ctx, a.Severity.String(), "resolve_failed")
		e.logger.Warn(ctx, "resolution notice failed", append(alertFields(a),
			observe.Field{Key: "error", Value: err.Error()})...)
		return
	}
	e.metrics.RecordNotification(ctx, a.Severity.String(), "resolved")
}

func alertFields(a Alert) []observe.Field {
	return []observe.Field{
		{Key: "alert_id", Value: a.ID},
		{Key: "alert_type", Value: a.Type},
		{Key: "alert_component", Value: a.Component},
		{Key: "severity", Value: a.Severity.String()},
		{Key: "occurrences", Value: a.OccurrenceCount},
	}
}

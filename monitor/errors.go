package monitor

import "errors"

var (
	// ErrTickInProgress indicates a tick was requested while one was running.
	ErrTickInProgress = errors.New("monitor: tick in progress")

	// ErrAlreadyStarted indicates Start was called twice.
	ErrAlreadyStarted = errors.New("monitor: scheduler already started")

	// ErrStopped indicates the scheduler was stopped and cannot restart.
	ErrStopped = errors.New("monitor: scheduler stopped")

	// ErrInvalidSchedule indicates a bad interval or cron expression.
	ErrInvalidSchedule = errors.New("monitor: invalid schedule")

	// ErrNilStore indicates a Monitor was built without a store.
	ErrNilStore = errors.New("monitor: store is nil")

	// ErrNilEngine indicates a Monitor was built without an alert engine.
	ErrNilEngine = errors.New("monitor: alert engine is nil")

	// ErrTickDropped wraps the store error that discarded a tick.
	ErrTickDropped = errors.New("monitor: tick dropped")
)

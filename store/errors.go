package store

import "errors"

var (
	// ErrClosed indicates a write after Close.
	ErrClosed = errors.New("store: closed")

	// ErrStaleWrite indicates a status older than the latest recorded one.
	ErrStaleWrite = errors.New("store: stale write")

	// ErrUninitializedStatus indicates a status with no ComputedAt.
	ErrUninitializedStatus = errors.New("store: status has no computed time")

	// ErrAlertNotFound indicates an unknown alert id.
	ErrAlertNotFound = errors.New("store: alert not found")

	// ErrDuplicateAlert indicates an id already in use, or a second open
	// alert for the same key.
	ErrDuplicateAlert = errors.New("store: duplicate alert")

	// ErrAlertResolved indicates an update to an already resolved alert.
	ErrAlertResolved = errors.New("store: alert already resolved")

	// ErrKeyChanged indicates an update that altered an alert's id or key.
	ErrKeyChanged = errors.New("store: alert identity changed")
)

package alert

import "errors"

var (
	// ErrInvalidSeverity indicates a severity value outside the defined set.
	ErrInvalidSeverity = errors.New("alert: invalid severity")

	// ErrInvalidPolicy indicates a policy that violates cooldown ordering or
	// has negative durations.
	ErrInvalidPolicy = errors.New("alert: invalid policy")

	// ErrNilRepository indicates an Engine was built without a Repository.
	ErrNilRepository = errors.New("alert: repository is nil")

	// ErrDeliveryFailed wraps gateway errors recorded on an alert.
	ErrDeliveryFailed = errors.New("alert: notification delivery failed")
)

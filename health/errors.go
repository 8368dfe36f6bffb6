package health

import "errors"

var (
	// ErrProbeTimeout indicates a probe did not return within its timeout.
	ErrProbeTimeout = errors.New("health: probe timeout")

	// ErrProbeCancelled indicates the tick context was cancelled while a probe ran.
	ErrProbeCancelled = errors.New("health: probe cancelled")

	// ErrProbePanic indicates a probe panicked and was recovered.
	ErrProbePanic = errors.New("health: probe panicked")

	// ErrInvalidStatus indicates a status value outside the defined set.
	ErrInvalidStatus = errors.New("health: invalid status")

	// ErrThresholdExceeded indicates a probe measured a value past its limit.
	ErrThresholdExceeded = errors.New("health: threshold exceeded")
)

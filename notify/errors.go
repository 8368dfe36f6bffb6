package notify

import "errors"

var (
	// ErrCircuitOpen is returned when a channel's breaker is open.
	ErrCircuitOpen = errors.New("notify: circuit breaker is open")

	// ErrThrottled is returned when the send rate limit is exceeded.
	ErrThrottled = errors.New("notify: rate limit exceeded")

	// ErrUnexpectedStatus is returned when a webhook answers with a non-2xx code.
	ErrUnexpectedStatus = errors.New("notify: unexpected webhook status")

	// ErrAllChannelsFailed is returned by Multi when no channel delivered.
	ErrAllChannelsFailed = errors.New("notify: all channels failed")
)

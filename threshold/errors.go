package threshold

import "errors"

var (
	// ErrInvalidComparison indicates an unknown comparison name.
	ErrInvalidComparison = errors.New("threshold: invalid comparison")

	// ErrInvalidConfig indicates a threshold whose limits are unusable.
	ErrInvalidConfig = errors.New("threshold: invalid config")

	// ErrMalformedSample indicates a sample value that cannot be compared.
	ErrMalformedSample = errors.New("threshold: malformed sample")
)

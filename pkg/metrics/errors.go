package metrics

import "github.com/pkg/errors"

var (
	// ErrInvalidName is returned when a metric name or name segment is
	// empty or malformed.
	ErrInvalidName = errors.New("invalid metric name")

	// ErrNonFinite is returned when NaN or an infinity is offered to a
	// histogram.
	ErrNonFinite = errors.New("non-finite sample value")

	// ErrOutOfRange is returned when a float sample cannot be represented
	// as an int64.
	ErrOutOfRange = errors.New("sample value out of range")

	// ErrAlreadyStopped is returned when a Stopwatch is stopped twice.
	ErrAlreadyStopped = errors.New("stopwatch already stopped")

	// ErrInvalidConfig is returned by NewRegistryWithConfig and Init.
	ErrInvalidConfig = errors.New("invalid registry config")
)

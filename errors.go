package lqr

import "github.com/pkg/errors"

// Sentinel errors for the package's error taxonomy: invalid
// argument/state, user cancellation and out-of-range coordinates.
// Out-of-memory is not modeled separately -- a failing Go allocation panics
// rather than returning an error, as is idiomatic for this runtime.
var (
	// ErrInvalidArgument is returned when a caller supplies an argument
	// outside its documented domain (non-positive target size, an enl_step
	// outside (1,2], an unknown built-in energy function, ...).
	ErrInvalidArgument = errors.New("lqr: invalid argument")
	// ErrInvalidState is returned when an operation is attempted from a
	// Carver state that forbids it (e.g. attaching a carver that isn't in
	// the STD state, or resizing an attached carver directly).
	ErrInvalidState = errors.New("lqr: invalid carver state")
	// ErrCancelled is returned by any long-running operation that observes
	// the carver's state becoming CANCELLED mid-flight.
	ErrCancelled = errors.New("lqr: operation cancelled")
	// ErrOutOfRange is returned by BiasAddXY and RigidityMaskAddXY when the
	// given coordinate is outside the visible image.
	ErrOutOfRange = errors.New("lqr: index out of range")
)

func invalidArg(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}

func invalidState(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidState, format, args...)
}

func outOfRange(format string, args ...interface{}) error {
	return errors.Wrapf(ErrOutOfRange, format, args...)
}

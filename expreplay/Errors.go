package expreplay

import (
	"errors"
)

// ExpReplayError implements errors unique to an experience replay
// buffer.
type ExpReplayError struct {
	Op  string
	Err error
}

// Error satisifes the error interface
func (e *ExpReplayError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error so that errors.Is matches the
// sentinel errors of this package
func (e *ExpReplayError) Unwrap() error {
	return e.Err
}

// ErrInsufficientData is reported when a buffer is sampled before it
// holds as many transitions as the requested batch size. Callers should
// skip the update for that step.
var ErrInsufficientData = errors.New("insufficient data in buffer")

// ErrInvalidConfig is reported when a buffer is constructed with an
// invalid configuration, such as a batch size exceeding the capacity.
var ErrInvalidConfig = errors.New("invalid buffer configuration")

// ErrFeatureSize is reported when a transition does not match the state
// dimension of the buffer.
var ErrFeatureSize = errors.New("invalid feature size")

// IsInsufficientData returns whether or not an error reports that
// there are insufficient samples in the buffer to sample a batch.
func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

// IsInvalidConfig returns whether or not an error reports an invalid
// buffer configuration.
func IsInvalidConfig(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}

package expreplay

import "errors"

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

// Unwrap returns the underlying error
func (e *ExpReplayError) Unwrap() error {
	return e.Err
}

var errEmptyCache = errors.New("buffer empty")

var errInsufficientSamples = errors.New("fewer stored transitions than " +
	"batch size")

var errMismatch = errors.New("number of indices and priorities differ")

var errInvalidPriority = errors.New("priority must be finite")

// IsInsufficientSamples returns whether or not an error reports that
// there are insufficient samples in the buffer to sample from the
// buffer.
//
// A buffer has too few samples to sample if it holds fewer transitions
// than the requested batch size.
func IsInsufficientSamples(err error) bool {
	return errors.Is(err, errInsufficientSamples)
}

// IsEmptyBuffer returns whether or not an error reports that a
// replay buffer is empty.
func IsEmptyBuffer(err error) bool {
	return errors.Is(err, errEmptyCache)
}

// IsMismatch returns whether or not an error reports that a priority
// update received a different number of indices and priorities
func IsMismatch(err error) bool {
	return errors.Is(err, errMismatch)
}

package sumtree

import "errors"

// Error reports a failed SumTree operation
type Error struct {
	Op  string
	Err error
}

// Error satisfies the error interface
func (e *Error) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

var (
	// ErrCapacity is returned when constructing a tree with a
	// non-positive capacity
	ErrCapacity = errors.New("capacity must be positive")

	// ErrEmpty is returned when retrieving from a tree whose total
	// priority is zero
	ErrEmpty = errors.New("total priority is zero")

	// ErrIndexRange is returned when an index does not refer to a leaf
	// or slot of the tree
	ErrIndexRange = errors.New("index out of range")

	// ErrPriority is returned when a priority is negative, NaN or
	// infinite
	ErrPriority = errors.New("priority must be finite and non-negative")

	// ErrValueRange is returned when a cumulative value lies outside
	// [0, Total()]
	ErrValueRange = errors.New("value out of range")
)

package event

import "errors"

var (
	// ErrNotFound is returned when an event or transaction id does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrInvalidName is returned when an event name is empty.
	ErrInvalidName = errors.New("invalid event name")

	// ErrInvalidTransaction is returned when transaction fields fail validation.
	ErrInvalidTransaction = errors.New("invalid transaction")
)

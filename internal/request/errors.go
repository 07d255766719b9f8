package request

import "errors"

var (
	// ErrNotFound is returned when a request id does not resolve.
	ErrNotFound = errors.New("request not found")

	// ErrInvalidPayload is returned when a payload fails validation or its
	// shape does not match the request kind.
	ErrInvalidPayload = errors.New("invalid request payload")

	// ErrKindImmutable is returned when an edit attempts to change a
	// pending request's kind.
	ErrKindImmutable = errors.New("request kind cannot change")
)

package core

import "errors"

// Structured outcomes returned by core methods. The loop and the HTTP layer
// translate these into API result codes (see spec section 7); core methods
// never panic or return opaque errors for expected conditions.
var (
	ErrAlreadyQueued = errors.New("station already queued")
	ErrOutOfRange    = errors.New("id out of range")
	ErrDisabled      = errors.New("station disabled")
	ErrCapacity      = errors.New("store at capacity")
	ErrMalformed     = errors.New("malformed input")
)

package domain

import "errors"

// Typed failures returned by the booking engine. Callers are expected to
// surface the specific reason to the end user; only ErrBusy is retryable
// without user input.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidRange        = errors.New("invalid date range")
	ErrCapacityExceeded    = errors.New("capacity exceeded")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrResourceUnavailable = errors.New("resource unavailable")
	ErrBusy                = errors.New("resource busy")
	ErrUnknownCategory     = errors.New("unknown guest category")
	ErrPaymentRequired     = errors.New("payment proof required")
	ErrForbidden           = errors.New("actor not permitted")
)

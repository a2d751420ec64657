package timers

import "errors"

var (
	// ErrInvalidArgument is returned for nil routines and negative durations,
	// before anything is registered.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrResourceExhausted is returned when the live-routine limit is reached.
	ErrResourceExhausted = errors.New("routine limit reached")

	ErrStopped = errors.New("timers service stopped")
)

package activity

import "errors"

var (
	// ErrActivityNotRegistered is returned when a node names an activity id
	// no factory was registered for.
	ErrActivityNotRegistered = errors.New("activity not registered")

	// ErrAttemptsExhausted is returned when every allowed attempt failed.
	ErrAttemptsExhausted = errors.New("activity attempts exhausted")
)

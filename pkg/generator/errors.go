package generator

import "errors"

var (
	// ErrInvalidRunParams is returned before any record is created when the
	// request fails validation or the graph contains a cycle.
	ErrInvalidRunParams = errors.New("invalid run params")

	// ErrRecordCreation is returned when the execution record cannot be
	// created. The run aborts before any node executes.
	ErrRecordCreation = errors.New("failed to create execution record")
)

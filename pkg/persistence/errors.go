// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrExecutionNotFound indicates no execution record exists for the given
	// id within the given user's scope.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrUnsupportedPatchOp indicates a patch op kind other than add/replace.
	ErrUnsupportedPatchOp = errors.New("unsupported patch op")

	// ErrUnsupportedPatchPath indicates a patch path outside the record's
	// patchable surface.
	ErrUnsupportedPatchPath = errors.New("unsupported patch path")

	// ErrInvalidPatchValue indicates a patch value of the wrong shape for its path.
	ErrInvalidPatchValue = errors.New("invalid patch value")
)

// ExecutionError wraps execution-record errors with operation context.
type ExecutionError struct {
	Op          string // Operation being performed (e.g., "Create", "Patch", "Get")
	ExecutionID string // Execution ID if applicable
	Err         error  // Underlying error
}

func (e *ExecutionError) Error() string {
	if e.ExecutionID == "" {
		return fmt.Sprintf("%s operation failed: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("%s operation failed for execution %s: %v", e.Op, e.ExecutionID, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for execution errors.
func (e *ExecutionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewExecutionError creates a new execution error with context.
func NewExecutionError(op, executionID string, err error) *ExecutionError {
	return &ExecutionError{
		Op:          op,
		ExecutionID: executionID,
		Err:         err,
	}
}

// IsExecutionNotFound checks if an error indicates an execution was not found.
func IsExecutionNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}

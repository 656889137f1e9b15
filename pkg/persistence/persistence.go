// Package persistence provides the storage abstraction for execution records.
package persistence

import (
	"context"

	"github.com/igara/runner/pkg/models"
)

type Persistence interface {
	ExecutionRepository() ExecutionRepository
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

// ExecutionRepository stores execution records and mutates them through
// patch operations. All reads and writes are scoped by the initiating
// user's id; a record owned by another user behaves as if it did not exist.
type ExecutionRepository interface {
	// CreateExecution creates a new execution record and returns its id.
	CreateExecution(ctx context.Context, workflowID, datasetID string, status models.ExecutionStatus, userID string) (string, error)

	// PatchExecution applies the given patch operations to the record.
	PatchExecution(ctx context.Context, executionID string, ops []PatchOp, userID string) error

	// GetExecution retrieves a full execution record.
	GetExecution(ctx context.Context, executionID, userID string) (*models.ExecutionRecord, error)
}

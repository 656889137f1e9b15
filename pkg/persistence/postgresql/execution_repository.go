package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/igara/runner/pkg/models"
	"github.com/igara/runner/pkg/persistence"
)

// ExecutionRepository handles execution-record database operations. Patches
// are applied under a row lock so concurrent sibling patches serialize on the
// record instead of losing writes.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

func (er *ExecutionRepository) CreateExecution(ctx context.Context, workflowID, datasetID string, status models.ExecutionStatus, userID string) (string, error) {
	executionID := uuid.New().String()
	now := time.Now().UTC()

	query := `
		INSERT INTO executions (id, workflow_id, dataset_id, user_id, status, output, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, '{}', $6, $6)
	`

	_, err := er.db.ExecContext(ctx, query, executionID, workflowID, datasetID, userID, string(status), now)
	if err != nil {
		return "", persistence.NewExecutionError("Create", executionID, fmt.Errorf("failed to insert execution: %w", err))
	}

	return executionID, nil
}

func (er *ExecutionRepository) PatchExecution(ctx context.Context, executionID string, ops []persistence.PatchOp, userID string) error {
	transaction, err := er.db.BeginTx(ctx, nil)
	if err != nil {
		return persistence.NewExecutionError("Patch", executionID, fmt.Errorf("failed to begin transaction: %w", err))
	}

	defer func() {
		_ = transaction.Rollback()
	}()

	row := transaction.QueryRowContext(ctx, `
		SELECT id, workflow_id, dataset_id, user_id, status, output, created_at, updated_at
		FROM executions
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`, executionID, userID)

	record, err := scanExecution(row)
	if err != nil {
		return persistence.NewExecutionError("Patch", executionID, err)
	}

	err = persistence.ApplyPatches(record, ops)
	if err != nil {
		return persistence.NewExecutionError("Patch", executionID, err)
	}

	outputJSON, err := json.Marshal(record.Output)
	if err != nil {
		return persistence.NewExecutionError("Patch", executionID, fmt.Errorf("failed to marshal output: %w", err))
	}

	_, err = transaction.ExecContext(ctx, `
		UPDATE executions SET status = $1, output = $2, updated_at = $3 WHERE id = $4
	`, string(record.Status), outputJSON, time.Now().UTC(), executionID)
	if err != nil {
		return persistence.NewExecutionError("Patch", executionID, fmt.Errorf("failed to update execution: %w", err))
	}

	err = transaction.Commit()
	if err != nil {
		return persistence.NewExecutionError("Patch", executionID, fmt.Errorf("failed to commit: %w", err))
	}

	return nil
}

func (er *ExecutionRepository) GetExecution(ctx context.Context, executionID, userID string) (*models.ExecutionRecord, error) {
	row := er.db.QueryRowContext(ctx, `
		SELECT id, workflow_id, dataset_id, user_id, status, output, created_at, updated_at
		FROM executions
		WHERE id = $1 AND user_id = $2
	`, executionID, userID)

	record, err := scanExecution(row)
	if err != nil {
		return nil, persistence.NewExecutionError("Get", executionID, err)
	}

	return record, nil
}

func scanExecution(row *sql.Row) (*models.ExecutionRecord, error) {
	var (
		record     models.ExecutionRecord
		status     string
		outputJSON []byte
	)

	err := row.Scan(
		&record.ID,
		&record.WorkflowID,
		&record.DatasetID,
		&record.UserID,
		&status,
		&outputJSON,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrExecutionNotFound
		}

		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}

	record.Status = models.ExecutionStatus(status)

	err = json.Unmarshal(outputJSON, &record.Output)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal output: %w", err)
	}

	return &record, nil
}

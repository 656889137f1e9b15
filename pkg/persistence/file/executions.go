package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/igara/runner/pkg/models"
	"github.com/igara/runner/pkg/persistence"
)

// ExecutionRepository stores execution records as JSON files under
// <root>/executions. Patch application is a read-modify-write, so a single
// mutex serializes writers; sibling node patches arrive concurrently.
type ExecutionRepository struct {
	root string
	mu   sync.Mutex
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(root string) *ExecutionRepository {
	return &ExecutionRepository{root: root}
}

// validateExecutionID validates that the execution ID is safe for file operations.
func validateExecutionID(executionID string) error {
	if executionID == "" {
		return errors.New("execution ID cannot be empty")
	}

	// Check for path traversal attempts
	if strings.Contains(executionID, "..") || strings.Contains(executionID, "/") || strings.Contains(executionID, "\\") {
		return errors.New("execution ID contains invalid characters")
	}

	return nil
}

func (er *ExecutionRepository) CreateExecution(ctx context.Context, workflowID, datasetID string, status models.ExecutionStatus, userID string) (string, error) {
	er.mu.Lock()
	defer er.mu.Unlock()

	now := time.Now().UTC()
	record := &models.ExecutionRecord{
		ID:         uuid.New().String(),
		WorkflowID: workflowID,
		DatasetID:  datasetID,
		UserID:     userID,
		Status:     status,
		Output:     make(map[string]models.NodeState),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := er.write(record)
	if err != nil {
		return "", persistence.NewExecutionError("Create", record.ID, err)
	}

	return record.ID, nil
}

func (er *ExecutionRepository) PatchExecution(ctx context.Context, executionID string, ops []persistence.PatchOp, userID string) error {
	er.mu.Lock()
	defer er.mu.Unlock()

	record, err := er.read(executionID, userID)
	if err != nil {
		return persistence.NewExecutionError("Patch", executionID, err)
	}

	err = persistence.ApplyPatches(record, ops)
	if err != nil {
		return persistence.NewExecutionError("Patch", executionID, err)
	}

	record.UpdatedAt = time.Now().UTC()

	err = er.write(record)
	if err != nil {
		return persistence.NewExecutionError("Patch", executionID, err)
	}

	return nil
}

func (er *ExecutionRepository) GetExecution(ctx context.Context, executionID, userID string) (*models.ExecutionRecord, error) {
	er.mu.Lock()
	defer er.mu.Unlock()

	record, err := er.read(executionID, userID)
	if err != nil {
		return nil, persistence.NewExecutionError("Get", executionID, err)
	}

	return record, nil
}

// ExecutionIDs lists the ids of every stored execution record.
func (er *ExecutionRepository) ExecutionIDs() ([]string, error) {
	er.mu.Lock()
	defer er.mu.Unlock()

	entries, err := os.ReadDir(filepath.Join(er.root, "executions"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	ids := make([]string, 0, len(entries))

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}

	return ids, nil
}

func (er *ExecutionRepository) read(executionID, userID string) (*models.ExecutionRecord, error) {
	if err := validateExecutionID(executionID); err != nil {
		return nil, fmt.Errorf("invalid execution ID: %w", err)
	}

	filePath := filepath.Join(er.root, "executions", executionID+".json")

	data, err := os.ReadFile(filePath) // #nosec G304 -- filePath is validated and constructed safely
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrExecutionNotFound
		}

		return nil, fmt.Errorf("failed to read execution %s: %w", executionID, err)
	}

	var record models.ExecutionRecord

	err = json.Unmarshal(data, &record)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution %s: %w", executionID, err)
	}

	if record.UserID != userID {
		return nil, persistence.ErrExecutionNotFound
	}

	return &record, nil
}

func (er *ExecutionRepository) write(record *models.ExecutionRecord) error {
	executionsDir := filepath.Join(er.root, "executions")

	err := os.MkdirAll(executionsDir, 0750)
	if err != nil {
		return fmt.Errorf("failed to create executions directory: %w", err)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal execution %s: %w", record.ID, err)
	}

	filePath := filepath.Join(executionsDir, record.ID+".json")

	err = os.WriteFile(filePath, data, 0600)
	if err != nil {
		return fmt.Errorf("failed to write execution %s: %w", record.ID, err)
	}

	return nil
}

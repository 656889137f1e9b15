// Package redis provides Redis persistence for execution records.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	"github.com/igara/runner/pkg/models"
	"github.com/igara/runner/pkg/persistence"
)

const keyPrefix = "igara:executions:"

// patchRetries bounds optimistic retries when sibling patches collide on the
// same record key under WATCH.
const patchRetries = 10

// Persistence implements the persistence layer on top of Redis. Records are
// stored as JSON values; patches use optimistic concurrency via WATCH.
type Persistence struct {
	client redis.UniversalClient
}

// NewPersistence creates a Redis persistence layer from a redis:// URL.
func NewPersistence(url string) (*Persistence, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	return &Persistence{client: redis.NewClient(options)}, nil
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (p *Persistence) ExecutionRepository() persistence.ExecutionRepository {
	return &ExecutionRepository{client: p.client}
}

// ExecutionRepository stores execution records under igara:executions:<id>.
type ExecutionRepository struct {
	client redis.UniversalClient
}

func (er *ExecutionRepository) CreateExecution(ctx context.Context, workflowID, datasetID string, status models.ExecutionStatus, userID string) (string, error) {
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

	data, err := json.Marshal(record)
	if err != nil {
		return "", persistence.NewExecutionError("Create", record.ID, fmt.Errorf("failed to marshal execution: %w", err))
	}

	err = er.client.Set(ctx, keyPrefix+record.ID, data, 0).Err()
	if err != nil {
		return "", persistence.NewExecutionError("Create", record.ID, fmt.Errorf("failed to store execution: %w", err))
	}

	return record.ID, nil
}

func (er *ExecutionRepository) PatchExecution(ctx context.Context, executionID string, ops []persistence.PatchOp, userID string) error {
	key := keyPrefix + executionID

	patch := func(tx *redis.Tx) error {
		record, err := er.load(ctx, tx.Get(ctx, key), userID)
		if err != nil {
			return err
		}

		err = persistence.ApplyPatches(record, ops)
		if err != nil {
			return err
		}

		record.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal execution: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)

			return nil
		})

		return err
	}

	for range patchRetries {
		err := er.client.Watch(ctx, patch, key)
		if err == nil {
			return nil
		}

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}

		return persistence.NewExecutionError("Patch", executionID, err)
	}

	return persistence.NewExecutionError("Patch", executionID, errors.New("too many concurrent patch conflicts"))
}

func (er *ExecutionRepository) GetExecution(ctx context.Context, executionID, userID string) (*models.ExecutionRecord, error) {
	record, err := er.load(ctx, er.client.Get(ctx, keyPrefix+executionID), userID)
	if err != nil {
		return nil, persistence.NewExecutionError("Get", executionID, err)
	}

	return record, nil
}

func (er *ExecutionRepository) load(_ context.Context, result *redis.StringCmd, userID string) (*models.ExecutionRecord, error) {
	data, err := result.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.ErrExecutionNotFound
		}

		return nil, fmt.Errorf("failed to read execution: %w", err)
	}

	var record models.ExecutionRecord

	err = json.Unmarshal(data, &record)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution: %w", err)
	}

	if record.UserID != userID {
		return nil, persistence.ErrExecutionNotFound
	}

	return &record, nil
}

package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/igara/runner/pkg/models"
)

// LocalExecutor runs activities in-process through a registry. Each call is
// bounded by maxDuration overall and retried with exponential backoff up to
// maxAttempts total attempts.
type LocalExecutor struct {
	registry *Registry
	logger   *slog.Logger
}

func NewLocalExecutor(registry *Registry, logger *slog.Logger) *LocalExecutor {
	return &LocalExecutor{
		registry: registry,
		logger:   logger.With("module", "activity_executor"),
	}
}

func (e *LocalExecutor) Execute(ctx context.Context, activityID string, params models.ActivityParams, maxDuration time.Duration, maxAttempts uint) (map[string]any, error) {
	act, err := e.registry.Create(activityID, nil)
	if err != nil {
		return nil, err
	}

	if maxAttempts == 0 {
		maxAttempts = 1
	}

	runCtx, cancel := context.WithTimeout(ctx, maxDuration)
	defer cancel()

	var (
		result  map[string]any
		attempt uint
	)

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(maxAttempts-1)), runCtx)

	err = backoff.Retry(func() error {
		attempt++

		var runErr error

		result, runErr = act.Execute(runCtx, params)
		if runErr != nil {
			e.logger.Warn("Activity attempt failed",
				"activity_id", activityID,
				"attempt", attempt,
				"error", runErr)
		}

		return runErr
	}, policy)
	if err != nil {
		return nil, fmt.Errorf("%w: %s after %d attempt(s): %w", ErrAttemptsExhausted, activityID, attempt, err)
	}

	return result, nil
}

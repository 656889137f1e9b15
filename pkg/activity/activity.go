// Package activity defines the activity execution contract consumed by the
// run engine, and a local executor implementation backed by a registry.
package activity

import (
	"context"
	"time"

	"github.com/igara/runner/pkg/models"
)

// Activity is a single named operation a node can be bound to.
type Activity interface {
	// Execute runs the operation with its typed params and returns the
	// structured result recorded as the node's output.
	Execute(ctx context.Context, params models.ActivityParams) (map[string]any, error)
}

// Factory creates activity instances and provides metadata about the
// activity kind.
type Factory interface {
	// Create creates a new activity instance with the given configuration
	Create(config map[string]any) (Activity, error)

	// ID returns the unique identifier for this activity kind
	ID() string

	// Name returns the human-readable name for this activity kind
	Name() string

	// Description returns a description of what this activity does
	Description() string
}

// Executor is the activity-execution collaborator: it runs a named operation
// with a time bound and a bounded number of attempts, and returns the final
// outcome. The run engine does not observe individual attempts.
type Executor interface {
	Execute(ctx context.Context, activityID string, params models.ActivityParams, maxDuration time.Duration, maxAttempts uint) (map[string]any, error)
}

package models

import "time"

// NodeState is the recorded outcome of a single node: its lifecycle status
// and the activity output (or error payload) that produced it.
type NodeState struct {
	Status NodeStatus     `json:"status"`
	Output map[string]any `json:"output"`
}

// ExecutionRecord is the persisted document for one generator run. The run
// engine never holds the full document; it addresses it by id and user id
// through patch operations.
type ExecutionRecord struct {
	ID         string               `json:"id"`
	WorkflowID string               `json:"workflow_id"`
	DatasetID  string               `json:"dataset_id"`
	UserID     string               `json:"user_id"`
	Status     ExecutionStatus      `json:"status"`
	Output     map[string]NodeState `json:"output"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// RunParams wraps a DAG for execution together with the identifiers the run
// is scoped by.
type RunParams struct {
	DAG        DAG    `json:"dag"         validate:"required"`
	UserID     string `json:"user_id"     validate:"required"`
	DatasetID  string `json:"dataset_id"  validate:"required"`
	WorkflowID string `json:"workflow_id" validate:"required"`
}

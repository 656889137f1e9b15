package models

// NodeStatus defines the lifecycle states of a single node in a generator run.
type NodeStatus string

const (
	NodeStatusPending   NodeStatus = "PENDING"
	NodeStatusExecuting NodeStatus = "EXECUTING"
	NodeStatusSuccess   NodeStatus = "SUCCESS"
	NodeStatusFailed    NodeStatus = "FAILED"
	NodeStatusSkipped   NodeStatus = "SKIPPED"
)

// Terminal reports whether no further transition can happen for this status.
func (s NodeStatus) Terminal() bool {
	switch s {
	case NodeStatusSuccess, NodeStatusFailed, NodeStatusSkipped:
		return true
	case NodeStatusPending, NodeStatusExecuting:
		return false
	}

	return false
}

// ExecutionStatus defines the lifecycle states of an execution record.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "PENDING"
	ExecutionStatusExecuting ExecutionStatus = "EXECUTING"
	ExecutionStatusCompleted ExecutionStatus = "COMPLETED"
	ExecutionStatusFailed    ExecutionStatus = "FAILED"
)

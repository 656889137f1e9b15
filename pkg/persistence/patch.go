package persistence

import (
	"fmt"
	"strings"

	"github.com/igara/runner/pkg/models"
)

// PatchOpKind enumerates the supported patch operation kinds.
type PatchOpKind string

const (
	PatchOpAdd     PatchOpKind = "add"
	PatchOpReplace PatchOpKind = "replace"
)

// PatchOp is a single additive or replace instruction applied to a persisted
// execution record. Supported paths are /status, /output/<key> and
// /output/<key>/status.
type PatchOp struct {
	Op    PatchOpKind `json:"op"`
	Path  string      `json:"path"`
	Value any         `json:"value"`
}

// StatusPatch builds the op that moves the overall execution status.
func StatusPatch(status models.ExecutionStatus) PatchOp {
	return PatchOp{Op: PatchOpReplace, Path: "/status", Value: string(status)}
}

// NodeOutputPatch builds the op that sets a node's output payload.
func NodeOutputPatch(nodeKey string, output map[string]any) PatchOp {
	return PatchOp{Op: PatchOpAdd, Path: "/output/" + nodeKey, Value: output}
}

// NodeStatusPatch builds the op that sets a node's lifecycle status.
func NodeStatusPatch(nodeKey string, status models.NodeStatus) PatchOp {
	return PatchOp{Op: PatchOpAdd, Path: "/output/" + nodeKey + "/status", Value: string(status)}
}

// ApplyPatches applies ops to the record in order. Concurrent patches from
// sibling nodes target disjoint paths, so application order between them does
// not matter; two writers to the same node key are excluded by the
// one-result-per-node contract upstream.
func ApplyPatches(record *models.ExecutionRecord, ops []PatchOp) error {
	for _, op := range ops {
		err := applyPatch(record, op)
		if err != nil {
			return err
		}
	}

	return nil
}

func applyPatch(record *models.ExecutionRecord, op PatchOp) error {
	if op.Op != PatchOpAdd && op.Op != PatchOpReplace {
		return fmt.Errorf("%w: %q", ErrUnsupportedPatchOp, op.Op)
	}

	if record.Output == nil {
		record.Output = make(map[string]models.NodeState)
	}

	switch {
	case op.Path == "/status":
		status, ok := op.Value.(string)
		if !ok {
			return fmt.Errorf("%w: status value must be a string, got %T", ErrInvalidPatchValue, op.Value)
		}

		record.Status = models.ExecutionStatus(status)

	case strings.HasPrefix(op.Path, "/output/") && strings.HasSuffix(op.Path, "/status"):
		nodeKey := strings.TrimSuffix(strings.TrimPrefix(op.Path, "/output/"), "/status")
		if nodeKey == "" || strings.Contains(nodeKey, "/") {
			return fmt.Errorf("%w: %q", ErrUnsupportedPatchPath, op.Path)
		}

		status, ok := op.Value.(string)
		if !ok {
			return fmt.Errorf("%w: node status value must be a string, got %T", ErrInvalidPatchValue, op.Value)
		}

		state := record.Output[nodeKey]
		state.Status = models.NodeStatus(status)
		record.Output[nodeKey] = state

	case strings.HasPrefix(op.Path, "/output/"):
		nodeKey := strings.TrimPrefix(op.Path, "/output/")
		if nodeKey == "" || strings.Contains(nodeKey, "/") {
			return fmt.Errorf("%w: %q", ErrUnsupportedPatchPath, op.Path)
		}

		output, ok := op.Value.(map[string]any)
		if !ok && op.Value != nil {
			return fmt.Errorf("%w: node output value must be an object, got %T", ErrInvalidPatchValue, op.Value)
		}

		state := record.Output[nodeKey]
		state.Output = output
		record.Output[nodeKey] = state

	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedPatchPath, op.Path)
	}

	return nil
}

// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/igara/runner/pkg/models"
)

// CreateTestDAG builds a graph from node keys and from→to edge pairs. Every
// node gets a raw-params activity so tests can drive outcomes by node name.
func CreateTestDAG(keys []string, edges [][2]string) models.DAG {
	dag := models.DAG{Nodes: make(map[string]*models.Node)}

	for _, key := range keys {
		dag.Nodes[key] = CreateTestNode()
	}

	for _, pair := range edges {
		dag.Edges = append(dag.Edges, CreateTestEdge(pair[0], pair[1]))
	}

	return dag
}

// CreateTestNode creates a node with default values that can be overridden.
func CreateTestNode(overrides ...func(*models.Node)) *models.Node {
	node := &models.Node{
		ActivityID: "test-activity",
		Params:     models.RawParams{},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithActivity sets the node's activity id.
func WithActivity(activityID string) func(*models.Node) {
	return func(n *models.Node) {
		n.ActivityID = activityID
	}
}

// WithParams sets the node's params.
func WithParams(params models.ActivityParams) func(*models.Node) {
	return func(n *models.Node) {
		n.Params = params
	}
}

// CreateTestEdge builds a complete edge between two node keys.
func CreateTestEdge(from, to string) models.Edge {
	return models.Edge{From: &from, To: &to}
}

// CreateTestRunParams wraps a graph with default run identifiers.
func CreateTestRunParams(dag models.DAG) models.RunParams {
	return models.RunParams{
		DAG:        dag,
		UserID:     "user-test",
		DatasetID:  "dataset-test",
		WorkflowID: "workflow-test",
	}
}

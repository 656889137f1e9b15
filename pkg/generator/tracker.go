package generator

import (
	"maps"
	"sync"

	"github.com/igara/runner/pkg/models"
)

// tracker holds the mutable state of a single run: the terminal record of
// every node that was dispatched or skipped, the dispatch claims, and the
// one-way failure flag. Many node goroutines mutate it concurrently, so every
// access goes through the mutex.
type tracker struct {
	mu         sync.Mutex
	executed   map[string]models.NodeState
	dispatched map[string]struct{}
	failed     bool
}

func newTracker() *tracker {
	return &tracker{
		executed:   make(map[string]models.NodeState),
		dispatched: make(map[string]struct{}),
	}
}

// Claim marks the node as dispatched. It returns false if another goroutine
// already claimed it, which happens when two parents of the same child finish
// close together and both see the child as ready.
func (t *tracker) Claim(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.dispatched[key]; ok {
		return false
	}

	t.dispatched[key] = struct{}{}

	return true
}

// Record sets the node's terminal state. Called once per node per run.
func (t *tracker) Record(key string, status models.NodeStatus, output map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.executed[key] = models.NodeState{Status: status, Output: output}
}

// Observed reports whether any terminal result has been recorded for key.
func (t *tracker) Observed(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.executed[key]

	return ok
}

// AllObserved reports whether every key in deps has a terminal record. A
// failed or skipped dependency counts the same as a successful one.
func (t *tracker) AllObserved(deps map[string]struct{}) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for dep := range deps {
		if _, ok := t.executed[dep]; !ok {
			return false
		}
	}

	return true
}

// MarkFailed trips the run-wide failure flag. There is no reset.
func (t *tracker) MarkFailed() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.failed = true
}

func (t *tracker) Failed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.failed
}

// Snapshot returns a copy of the executed-node map.
func (t *tracker) Snapshot() map[string]models.NodeState {
	t.mu.Lock()
	defer t.mu.Unlock()

	return maps.Clone(t.executed)
}

// Recorded returns how many nodes have a terminal record.
func (t *tracker) Recorded() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.executed)
}

// FinalStatus derives the overall run status from the node outcomes. A single
// failure anywhere marks the whole run FAILED even when other branches
// succeeded; PENDING outranks COMPLETED so a run with unfinished nodes is
// never reported as done.
func (t *tracker) FinalStatus() models.ExecutionStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	hasPending := false

	for _, state := range t.executed {
		if state.Status == models.NodeStatusFailed {
			return models.ExecutionStatusFailed
		}

		if !state.Status.Terminal() {
			hasPending = true
		}
	}

	if hasPending {
		return models.ExecutionStatusPending
	}

	return models.ExecutionStatusCompleted
}

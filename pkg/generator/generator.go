// Package generator implements the dependency-aware run engine. It walks a
// generation graph from its roots, dispatches each node's activity once all of
// the node's dependencies have a terminal record, and mirrors every state
// change into the persistence layer as patch operations.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/igara/runner/pkg/activity"
	"github.com/igara/runner/pkg/eventbus"
	"github.com/igara/runner/pkg/events"
	"github.com/igara/runner/pkg/log"
	"github.com/igara/runner/pkg/models"
	"github.com/igara/runner/pkg/otelhelper"
	"github.com/igara/runner/pkg/persistence"
)

const (
	// activityTimeout bounds a single node dispatch end to end, across all
	// attempts inside the executor.
	activityTimeout = 900 * time.Second

	activityMaxAttempts = 3

	// patchTimeout bounds every individual persistence call.
	patchTimeout = 30 * time.Second

	// skipMessage is the output recorded for nodes skipped after a failure.
	skipMessage = "Skipped due to previous node failure"
)

// Generator executes generation runs. It is stateless across runs; all
// per-run state lives in the run struct.
type Generator struct {
	executor   activity.Executor
	repository persistence.ExecutionRepository
	publisher  eventbus.EventPublisher
	validate   *validator.Validate
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewGenerator creates a run engine. publisher may be nil, in which case
// lifecycle events are not emitted.
func NewGenerator(executor activity.Executor, repository persistence.ExecutionRepository, publisher eventbus.EventPublisher, logger *slog.Logger) *Generator {
	return &Generator{
		executor:   executor,
		repository: repository,
		publisher:  publisher,
		validate:   validator.New(),
		logger:     logger.With("module", "generator"),
		tracer:     otel.Tracer("github.com/igara/runner/pkg/generator"),
	}
}

// Run executes the graph and returns the terminal state of every node that
// was dispatched or skipped. Node execution failures are absorbed into node
// state; record creation and persistence failures surface as run errors.
func (g *Generator) Run(ctx context.Context, params models.RunParams) (map[string]models.NodeState, error) {
	err := g.validate.Struct(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRunParams, err)
	}

	err = params.DAG.CheckAcyclic()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRunParams, err)
	}

	ctx, span := g.tracer.Start(ctx, "generator.run", trace.WithAttributes(
		attribute.String("igara.workflow.id", params.WorkflowID),
		attribute.String("igara.dataset.id", params.DatasetID),
	))
	defer span.End()

	createCtx, cancel := context.WithTimeout(ctx, patchTimeout)
	executionID, err := g.repository.CreateExecution(createCtx, params.WorkflowID, params.DatasetID, models.ExecutionStatusPending, params.UserID)

	cancel()

	if err != nil {
		g.logger.Error("Failed to create execution record", "workflow_id", params.WorkflowID, "error", err)
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("%w: %w", ErrRecordCreation, err)
	}

	span.SetAttributes(attribute.String("igara.execution.id", executionID))

	r := &run{
		generator:    g,
		executionID:  executionID,
		params:       params,
		dependencies: params.DAG.Dependencies(),
		tracker:      newTracker(),
		logger:       log.WithExecution(g.logger, executionID, params.WorkflowID),
		startedAt:    time.Now(),
	}

	result, err := r.run(ctx)
	if err != nil {
		otelhelper.SetError(span, err)
	}

	return result, err
}

// run carries the state of a single in-flight execution.
type run struct {
	generator    *Generator
	executionID  string
	params       models.RunParams
	dependencies map[string]map[string]struct{}
	tracker      *tracker
	logger       *slog.Logger
	startedAt    time.Time
}

func (r *run) run(ctx context.Context) (map[string]models.NodeState, error) {
	roots := r.params.DAG.RootKeys()

	r.logger.Info("Starting generation run",
		"total_nodes", len(r.params.DAG.Nodes),
		"root_nodes", len(roots))

	for key := range roots {
		err := r.patchNode(ctx, key, models.NodeStatusPending, map[string]any{})
		if err != nil {
			return nil, err
		}
	}

	err := r.patchStatus(ctx, models.ExecutionStatusExecuting)
	if err != nil {
		return nil, err
	}

	r.publish(ctx, events.ExecutionStarted{
		BaseEvent:   events.NewBaseEvent(events.ExecutionStartedEvent, r.params.WorkflowID),
		ExecutionID: r.executionID,
		DatasetID:   r.params.DatasetID,
		RootNodes:   len(roots),
		TotalNodes:  len(r.params.DAG.Nodes),
	})

	rootKeys := make([]string, 0, len(roots))
	for key := range roots {
		rootKeys = append(rootKeys, key)
	}

	err = r.fanOut(ctx, rootKeys)
	if err != nil {
		return nil, err
	}

	finalStatus := r.tracker.FinalStatus()

	err = r.patchStatus(ctx, finalStatus)
	if err != nil {
		return nil, err
	}

	duration := time.Since(r.startedAt)

	if finalStatus == models.ExecutionStatusFailed {
		r.publish(ctx, events.ExecutionFailed{
			BaseEvent:   events.NewBaseEvent(events.ExecutionFailedEvent, r.params.WorkflowID),
			ExecutionID: r.executionID,
			DurationMs:  duration.Milliseconds(),
			Error:       "one or more nodes failed",
		})
	} else {
		r.publish(ctx, events.ExecutionCompleted{
			BaseEvent:     events.NewBaseEvent(events.ExecutionCompletedEvent, r.params.WorkflowID),
			ExecutionID:   r.executionID,
			Status:        finalStatus,
			DurationMs:    duration.Milliseconds(),
			NodesExecuted: r.tracker.Recorded(),
		})
	}

	r.logger.Info("Generation run finished", "status", finalStatus, "duration", duration)

	return r.tracker.Snapshot(), nil
}

// executeNode runs a single node and, on success, fans out to its ready
// children. Returns an error only for persistence failures; activity failures
// are recorded as node state.
func (r *run) executeNode(ctx context.Context, key string) error {
	if !r.tracker.Claim(key) {
		return nil
	}

	if r.tracker.Failed() {
		return r.skipNode(ctx, key)
	}

	node := r.params.DAG.Nodes[key]
	node.Params.SetNodeName(key)

	ctx, span := r.generator.tracer.Start(ctx, "generator.node", trace.WithAttributes(
		attribute.String("igara.node.key", key),
		attribute.String("igara.activity.id", node.ActivityID),
	))
	defer span.End()

	err := r.patchNode(ctx, key, models.NodeStatusExecuting, map[string]any{})
	if err != nil {
		return err
	}

	r.logger.Info("Dispatching node", "node", key, "activity_id", node.ActivityID)

	startedAt := time.Now()

	result, err := r.generator.executor.Execute(ctx, node.ActivityID, node.Params, activityTimeout, activityMaxAttempts)
	if err != nil {
		otelhelper.SetError(span, err, attribute.String("igara.node.key", key))

		return r.failNode(ctx, key, err, time.Since(startedAt))
	}

	r.tracker.Record(key, models.NodeStatusSuccess, result)

	err = r.patchNode(ctx, key, models.NodeStatusSuccess, result)
	if err != nil {
		return err
	}

	r.publish(ctx, events.NodeExecutionFinished{
		BaseEvent:   events.NewBaseEvent(events.NodeExecutionFinishedEvent, r.params.WorkflowID),
		ExecutionID: r.executionID,
		NodeID:      key,
		OutputData:  result,
		Duration:    time.Since(startedAt),
	})

	return r.processChildren(ctx, key)
}

func (r *run) skipNode(ctx context.Context, key string) error {
	output := map[string]any{"error": skipMessage}

	r.tracker.Record(key, models.NodeStatusSkipped, output)

	err := r.patchNode(ctx, key, models.NodeStatusSkipped, output)
	if err != nil {
		return err
	}

	r.logger.Info("Skipping node", "node", key)

	r.publish(ctx, events.NodeSkipped{
		BaseEvent:   events.NewBaseEvent(events.NodeSkippedEvent, r.params.WorkflowID),
		ExecutionID: r.executionID,
		NodeID:      key,
		Reason:      skipMessage,
	})

	return nil
}

func (r *run) failNode(ctx context.Context, key string, execErr error, duration time.Duration) error {
	r.logger.Error("Node execution failed", "node", key, "error", execErr)

	output := map[string]any{"error": execErr.Error()}

	r.tracker.Record(key, models.NodeStatusFailed, output)

	err := r.patchNode(ctx, key, models.NodeStatusFailed, output)
	if err != nil {
		return err
	}

	r.tracker.MarkFailed()

	r.publish(ctx, events.NodeExecutionFailed{
		BaseEvent:   events.NewBaseEvent(events.NodeExecutionFailedEvent, r.params.WorkflowID),
		ExecutionID: r.executionID,
		NodeID:      key,
		Error:       execErr.Error(),
		Duration:    duration,
	})

	// The failed node's direct children are still dispatched so they get a
	// SKIPPED record; deeper descendants are never reached and stay absent
	// from the result.
	return r.dispatchReadyChildren(ctx, key)
}

// processChildren dispatches every child of key whose full dependency set has
// a terminal record. A child with an unfinished dependency is left for the
// sibling that finishes last.
func (r *run) processChildren(ctx context.Context, key string) error {
	if r.tracker.Failed() {
		return nil
	}

	return r.dispatchReadyChildren(ctx, key)
}

func (r *run) dispatchReadyChildren(ctx context.Context, key string) error {
	var ready []string

	for child := range r.params.DAG.Children(key) {
		if r.tracker.AllObserved(r.dependencies[child]) {
			ready = append(ready, child)
		}
	}

	return r.fanOut(ctx, ready)
}

// fanOut runs executeNode for every key concurrently and waits for all of
// them. Persistence errors from the branches are joined and surfaced.
func (r *run) fanOut(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	group := newJoinGroup()

	for _, key := range keys {
		group.Go(func() error {
			return r.executeNode(ctx, key)
		})
	}

	return group.Wait()
}

func (r *run) patchNode(ctx context.Context, key string, status models.NodeStatus, output map[string]any) error {
	ops := []persistence.PatchOp{
		persistence.NodeOutputPatch(key, output),
		persistence.NodeStatusPatch(key, status),
	}

	patchCtx, cancel := context.WithTimeout(ctx, patchTimeout)
	defer cancel()

	return r.generator.repository.PatchExecution(patchCtx, r.executionID, ops, r.params.UserID)
}

func (r *run) patchStatus(ctx context.Context, status models.ExecutionStatus) error {
	ops := []persistence.PatchOp{persistence.StatusPatch(status)}

	patchCtx, cancel := context.WithTimeout(ctx, patchTimeout)
	defer cancel()

	return r.generator.repository.PatchExecution(patchCtx, r.executionID, ops, r.params.UserID)
}

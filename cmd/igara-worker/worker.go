package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/igara/runner/pkg/activity"
	"github.com/igara/runner/pkg/eventbus"
	"github.com/igara/runner/pkg/events"
	"github.com/igara/runner/pkg/generator"
	"github.com/igara/runner/pkg/persistence"
)

// Worker consumes run-requested events and executes each run to completion.
type Worker struct {
	id        string
	logger    *slog.Logger
	eventBus  eventbus.EventBus
	generator *generator.Generator
}

func NewWorker(
	id string,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	registry *activity.Registry,
	logger *slog.Logger,
) *Worker {
	executor := activity.NewLocalExecutor(registry, logger)

	return &Worker{
		id:        id,
		logger:    logger,
		eventBus:  eventBus,
		generator: generator.NewGenerator(executor, persistence.ExecutionRepository(), eventBus, logger),
	}
}

func (w *Worker) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker")

	err := w.eventBus.Handle(events.RunRequestedEvent, w.handleRunRequested)
	if err != nil {
		return err
	}

	err = w.eventBus.Subscribe(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	w.logger.InfoContext(ctx, "Shutting down worker...")

	return nil
}

func (w *Worker) handleRunRequested(ctx context.Context, event any) error {
	runEvent, ok := event.(*events.RunRequested)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for RunRequested")

		return nil
	}

	logger := w.logger.With(
		"workflow_id", runEvent.Params.WorkflowID,
		"dataset_id", runEvent.Params.DatasetID,
		"event_id", runEvent.ID,
	)
	logger.InfoContext(ctx, "Processing run request")

	result, err := w.generator.Run(ctx, runEvent.Params)
	if err != nil {
		logger.ErrorContext(ctx, "Run failed", "error", err)

		return err
	}

	logger.InfoContext(ctx, "Run finished", "nodes", len(result))

	return nil
}

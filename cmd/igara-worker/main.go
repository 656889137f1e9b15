package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/igara/runner/pkg/cmd"
	"github.com/igara/runner/pkg/log"
	"github.com/igara/runner/pkg/otelhelper"
)

func main() {
	command := &cli.Command{
		Name:                  "igara-worker",
		EnableShellCompletion: true,
		Usage:                 "Start workers to execute generation runs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringSliceFlag{
				Name:    "kafka-brokers",
				Usage:   "Kafka broker addresses",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:     "synthesizer-url",
				Usage:    "Base URL of the synthesizer service",
				Required: true,
				Sources:  cli.EnvVars("SYNTHESIZER_URL"),
			},
			&cli.StringFlag{
				Name:     "code-service-url",
				Usage:    "Base URL of the code execution service",
				Required: true,
				Sources:  cli.EnvVars("CODE_SERVICE_URL"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OTLP trace export",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("igara-worker").With("worker_id", workerID)

			logger.InfoContext(ctx, "Initializing Igara worker")

			if command.Bool("tracing") {
				_, err := otelhelper.NewTracer(ctx, "igara-worker")
				if err != nil {
					return err
				}
			}

			registry := cmd.NewActivityRegistry(
				logger,
				command.String("synthesizer-url"),
				command.String("code-service-url"),
			)

			eventBus, err := cmd.NewEventBus(
				command.String("event-bus"),
				"igara-worker",
				command.StringSlice("kafka-brokers"),
				logger,
			)
			if err != nil {
				return err
			}

			defer func() {
				err := eventBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			worker := NewWorker(workerID, persistence, eventBus, registry, logger)

			err = worker.Start(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start worker", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/igara/runner/pkg/cmd"
	"github.com/igara/runner/pkg/events"
	"github.com/igara/runner/pkg/log"
	"github.com/igara/runner/pkg/models"
)

func main() {
	command := &cli.Command{
		Name:                  "igara-dispatch",
		EnableShellCompletion: true,
		Usage:                 "Validate generation graphs and request runs",
		Commands: []*cli.Command{
			newValidateCommand(),
			newRunCommand(),
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate a graph document against the schema",
		ArgsUsage: "<graph.json>",
		Action: func(_ context.Context, command *cli.Command) error {
			document, err := readGraph(command)
			if err != nil {
				return err
			}

			dag, err := parseGraph(document)
			if err != nil {
				return err
			}

			fmt.Printf("Graph is valid: %d node(s), %d edge(s)\n", len(dag.Nodes), len(dag.Edges))

			return nil
		},
	}
}

func newRunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Publish a run request for a graph document",
		ArgsUsage: "<graph.json>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user-id",
				Required: true,
				Sources:  cli.EnvVars("IGARA_USER_ID"),
			},
			&cli.StringFlag{
				Name:     "dataset-id",
				Required: true,
				Sources:  cli.EnvVars("IGARA_DATASET_ID"),
			},
			&cli.StringFlag{
				Name:     "workflow-id",
				Required: true,
				Sources:  cli.EnvVars("IGARA_WORKFLOW_ID"),
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
				Name:    "log-level",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("igara-dispatch")

			document, err := readGraph(command)
			if err != nil {
				return err
			}

			dag, err := parseGraph(document)
			if err != nil {
				return err
			}

			eventBus, err := cmd.NewEventBus(
				command.String("event-bus"),
				"igara-dispatch",
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

			workflowID := command.String("workflow-id")

			event := events.RunRequested{
				BaseEvent: events.NewBaseEvent(events.RunRequestedEvent, workflowID),
				Params: models.RunParams{
					DAG:        *dag,
					UserID:     command.String("user-id"),
					DatasetID:  command.String("dataset-id"),
					WorkflowID: workflowID,
				},
			}

			err = eventBus.Publish(ctx, workflowID, event)
			if err != nil {
				return fmt.Errorf("failed to publish run request: %w", err)
			}

			logger.InfoContext(ctx, "Run requested",
				"workflow_id", workflowID,
				"nodes", len(dag.Nodes))

			return nil
		},
	}
}

func readGraph(command *cli.Command) ([]byte, error) {
	path := command.Args().First()
	if path == "" {
		return nil, fmt.Errorf("graph document path is required")
	}

	document, err := os.ReadFile(path) // #nosec G304 -- path is an operator-supplied argument
	if err != nil {
		return nil, fmt.Errorf("failed to read graph document: %w", err)
	}

	return document, nil
}

func parseGraph(document []byte) (*models.DAG, error) {
	err := models.ValidateDAGDocument(document)
	if err != nil {
		return nil, fmt.Errorf("graph document is invalid: %w", err)
	}

	var dag models.DAG

	err = json.Unmarshal(document, &dag)
	if err != nil {
		return nil, fmt.Errorf("failed to parse graph document: %w", err)
	}

	err = dag.CheckAcyclic()
	if err != nil {
		return nil, err
	}

	return &dag, nil
}

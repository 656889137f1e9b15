package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/igara/runner/pkg/models"
	"github.com/igara/runner/pkg/persistence"
	"github.com/igara/runner/pkg/persistence/postgresql"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"executions", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("runner_test"),
			postgres.WithUsername("runner"),
			postgres.WithPassword("runner"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = p.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return p, ctx
}

func TestExecutionRepository_Lifecycle(t *testing.T) {
	p, ctx := setupTestDB(t)
	repo := p.ExecutionRepository()

	executionID, err := repo.CreateExecution(ctx, "wf-1", "ds-1", models.ExecutionStatusPending, "user-1")
	require.NoError(t, err)

	err = repo.PatchExecution(ctx, executionID, []persistence.PatchOp{
		persistence.StatusPatch(models.ExecutionStatusExecuting),
		persistence.NodeOutputPatch("train", map[string]any{"rows": float64(42)}),
		persistence.NodeStatusPatch("train", models.NodeStatusSuccess),
	}, "user-1")
	require.NoError(t, err)

	record, err := repo.GetExecution(ctx, executionID, "user-1")
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusExecuting, record.Status)
	assert.Equal(t, models.NodeStatusSuccess, record.Output["train"].Status)
	assert.Equal(t, map[string]any{"rows": float64(42)}, record.Output["train"].Output)
}

func TestExecutionRepository_UserScoping(t *testing.T) {
	p, ctx := setupTestDB(t)
	repo := p.ExecutionRepository()

	executionID, err := repo.CreateExecution(ctx, "wf-1", "ds-1", models.ExecutionStatusPending, "owner")
	require.NoError(t, err)

	_, err = repo.GetExecution(ctx, executionID, "intruder")
	assert.True(t, persistence.IsExecutionNotFound(err))

	err = repo.PatchExecution(ctx, executionID, []persistence.PatchOp{
		persistence.StatusPatch(models.ExecutionStatusFailed),
	}, "intruder")
	assert.True(t, persistence.IsExecutionNotFound(err))
}

func TestExecutionRepository_PatchUnknownExecution(t *testing.T) {
	p, ctx := setupTestDB(t)
	repo := p.ExecutionRepository()

	err := repo.PatchExecution(ctx, "00000000-0000-0000-0000-000000000000", []persistence.PatchOp{
		persistence.StatusPatch(models.ExecutionStatusFailed),
	}, "user-1")

	assert.True(t, persistence.IsExecutionNotFound(err))
}

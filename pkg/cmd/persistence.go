// Package cmd wires shared infrastructure for the service binaries.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/igara/runner/pkg/persistence"
	"github.com/igara/runner/pkg/persistence/file"
	"github.com/igara/runner/pkg/persistence/postgresql"
	"github.com/igara/runner/pkg/persistence/redis"
)

// NewPersistence creates the persistence layer selected by the database URL
// scheme. Anything without a recognized scheme is treated as a file path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch parseProvider(databaseURL) {
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	case "redis", "rediss":
		return redis.NewPersistence(databaseURL)
	default:
		return file.NewPersistence(databaseURL), nil
	}
}

func parseProvider(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return scheme
}

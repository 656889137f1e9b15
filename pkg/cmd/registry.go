package cmd

import (
	"log/slog"

	"github.com/igara/runner/pkg/activities/ctgan"
	"github.com/igara/runner/pkg/activities/customcode"
	"github.com/igara/runner/pkg/activities/report"
	"github.com/igara/runner/pkg/activity"
)

// NewActivityRegistry creates a registry with every built-in activity.
func NewActivityRegistry(logger *slog.Logger, synthesizerURL, codeServiceURL string) *activity.Registry {
	registry := activity.NewRegistry(logger)

	registry.Register(ctgan.NewFactory(synthesizerURL, nil))
	registry.Register(customcode.NewFactory(codeServiceURL, nil))
	registry.Register(report.NewFactory())

	return registry
}

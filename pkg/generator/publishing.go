package generator

import (
	"context"

	"github.com/igara/runner/pkg/eventbus"
)

// publish emits a lifecycle event keyed by execution id. Publishing is
// best-effort: a bus failure is logged and never affects the run outcome.
func (r *run) publish(ctx context.Context, event eventbus.Event) {
	if r.generator.publisher == nil {
		return
	}

	err := r.generator.publisher.Publish(ctx, r.executionID, event)
	if err != nil {
		r.logger.Warn("Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

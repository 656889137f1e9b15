package activity

import (
	"fmt"
	"log/slog"
	"sort"
)

// Registry holds the activity factories known to this process.
type Registry struct {
	logger    *slog.Logger
	factories map[string]Factory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		factories: make(map[string]Factory),
	}
}

func (r *Registry) Register(factory Factory) {
	r.factories[factory.ID()] = factory
	r.logger.Debug("Registered activity", "activity_id", factory.ID())
}

func (r *Registry) Create(activityID string, config map[string]any) (Activity, error) {
	factory, ok := r.factories[activityID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrActivityNotRegistered, activityID)
	}

	return factory.Create(config)
}

// IDs returns the registered activity ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

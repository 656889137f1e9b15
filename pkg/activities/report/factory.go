package report

import (
	"github.com/igara/runner/pkg/activity"
	"github.com/igara/runner/pkg/models"
)

// Factory creates report activity instances.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(_ map[string]any) (activity.Activity, error) {
	return NewActivity(), nil
}

func (f *Factory) ID() string {
	return models.ActivityReport
}

func (f *Factory) Name() string {
	return "Quality Report"
}

func (f *Factory) Description() string {
	return "Assembles a quality report document for the generated dataset"
}

package customcode

import (
	"net/http"

	"github.com/igara/runner/pkg/activity"
	"github.com/igara/runner/pkg/models"
)

// Factory creates custom-code activity instances bound to the code-execution
// service.
type Factory struct {
	serviceURL string
	client     *http.Client
}

func NewFactory(serviceURL string, client *http.Client) *Factory {
	return &Factory{serviceURL: serviceURL, client: client}
}

// Create creates a new custom-code activity instance. A "service_url" config
// entry overrides the factory default.
func (f *Factory) Create(config map[string]any) (activity.Activity, error) {
	serviceURL := f.serviceURL
	if override, ok := config["service_url"].(string); ok && override != "" {
		serviceURL = override
	}

	return NewActivity(serviceURL, f.client), nil
}

func (f *Factory) ID() string {
	return models.ActivityCustomCode
}

func (f *Factory) Name() string {
	return "Custom Code"
}

func (f *Factory) Description() string {
	return "Runs a user-supplied python or sql snippet against the dataset tables"
}

package ctgan

import (
	"net/http"

	"github.com/igara/runner/pkg/activity"
	"github.com/igara/runner/pkg/models"
)

// Factory creates CTGAN activity instances bound to a synthesizer service.
type Factory struct {
	serviceURL string
	client     *http.Client
}

func NewFactory(serviceURL string, client *http.Client) *Factory {
	return &Factory{serviceURL: serviceURL, client: client}
}

// Create creates a new CTGAN activity instance. A "service_url" config entry
// overrides the factory default.
func (f *Factory) Create(config map[string]any) (activity.Activity, error) {
	serviceURL := f.serviceURL
	if override, ok := config["service_url"].(string); ok && override != "" {
		serviceURL = override
	}

	return NewActivity(serviceURL, f.client), nil
}

func (f *Factory) ID() string {
	return models.ActivityCtgan
}

func (f *Factory) Name() string {
	return "CTGAN Synthesizer"
}

func (f *Factory) Description() string {
	return "Trains a CTGAN model on the target table and samples synthetic rows"
}

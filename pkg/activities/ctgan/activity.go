// Package ctgan provides the CTGAN synthesizer training activity. It posts a
// train-and-sample job to the synthesizer service and returns the job result.
package ctgan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/igara/runner/pkg/models"
)

const (
	defaultTimeout = 15 * time.Minute

	trainSamplePath = "/v1/ctgan/train-sample"
)

// Activity calls the synthesizer service to train a CTGAN model on the target
// table and sample synthetic rows from it.
type Activity struct {
	serviceURL string
	client     *http.Client
}

func NewActivity(serviceURL string, client *http.Client) *Activity {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	return &Activity{
		serviceURL: serviceURL,
		client:     client,
	}
}

func (a *Activity) Execute(ctx context.Context, params models.ActivityParams) (map[string]any, error) {
	ctganParams, ok := params.(*models.CtganParams)
	if !ok {
		return nil, fmt.Errorf("expected ctgan params, got %T", params)
	}

	body, err := json.Marshal(ctganParams)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ctgan request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.serviceURL+trainSamplePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create ctgan request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ctgan request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read ctgan response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	result := map[string]any{}

	err = json.Unmarshal(respBody, &result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ctgan response: %w", err)
	}

	result["node_name"] = ctganParams.NodeName
	result["target_table"] = ctganParams.TargetTable

	return result, nil
}

// ServiceError carries the HTTP status returned by the synthesizer service.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("synthesizer service returned %d: %s", e.StatusCode, e.Message)
}

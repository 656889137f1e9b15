// Package customcode provides the user-supplied code activity. Snippets run
// in the sandboxed code-execution service, never inside this process.
package customcode

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

	executePath = "/v1/code/execute"
)

// Activity submits a code snippet to the code-execution service and returns
// the structured result of the run.
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
	codeParams, ok := params.(*models.CustomCodeParams)
	if !ok {
		return nil, fmt.Errorf("expected custom-code params, got %T", params)
	}

	body, err := json.Marshal(codeParams)
	if err != nil {
		return nil, fmt.Errorf("failed to encode code request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.serviceURL+executePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create code request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("code request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read code response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &ExecutionError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	result := map[string]any{}

	err = json.Unmarshal(respBody, &result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode code response: %w", err)
	}

	result["node_name"] = codeParams.NodeName

	return result, nil
}

// ExecutionError carries the HTTP status returned by the code-execution
// service. Compile errors and runtime failures in the snippet surface here.
type ExecutionError struct {
	StatusCode int
	Message    string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("code execution service returned %d: %s", e.StatusCode, e.Message)
}

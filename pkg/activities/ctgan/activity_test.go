package ctgan_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igara/runner/pkg/activities/ctgan"
	"github.com/igara/runner/pkg/models"
)

func TestActivity_Execute(t *testing.T) {
	var received models.CtganParams

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/ctgan/train-sample", r.URL.Path)

		err := json.NewDecoder(r.Body).Decode(&received)
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sampled_rows": 500, "model_id": "m-1"}`))
	}))
	defer server.Close()

	factory := ctgan.NewFactory(server.URL, server.Client())
	act, err := factory.Create(nil)
	require.NoError(t, err)

	params := &models.CtganParams{
		TargetTable: "customers",
		Epochs:      10,
		SampleRows:  500,
		NodeName:    "train_customers",
	}

	result, err := act.Execute(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, "customers", received.TargetTable)
	assert.Equal(t, 10, received.Epochs)
	assert.Equal(t, float64(500), result["sampled_rows"])
	assert.Equal(t, "m-1", result["model_id"])
	assert.Equal(t, "train_customers", result["node_name"])
}

func TestActivity_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "table not found", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	act := ctgan.NewActivity(server.URL, server.Client())

	_, err := act.Execute(context.Background(), &models.CtganParams{TargetTable: "missing"})
	require.Error(t, err)

	serviceErr := &ctgan.ServiceError{}
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, http.StatusUnprocessableEntity, serviceErr.StatusCode)
}

func TestActivity_RejectsForeignParams(t *testing.T) {
	act := ctgan.NewActivity("http://localhost", nil)

	_, err := act.Execute(context.Background(), &models.ReportParams{Title: "nope"})
	assert.Error(t, err)
}

func TestFactory_ServiceURLOverride(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	factory := ctgan.NewFactory("http://unreachable.invalid", server.Client())
	act, err := factory.Create(map[string]any{"service_url": server.URL})
	require.NoError(t, err)

	_, err = act.Execute(context.Background(), &models.CtganParams{TargetTable: "t"})
	assert.NoError(t, err)
}

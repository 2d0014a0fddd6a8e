package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/placeharvest/models"
)

func fakeAPI(t *testing.T) (*apiClient, *atomic.Int32) {
	t.Helper()
	var polls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/runs", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.Header.Get("X-API-Key"))
		var req models.RunRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.SearchURL == "bad" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: &models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: "nope"}})
			return
		}
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(models.RunResponse{ID: "run-1", Status: models.RunQueued})
	})
	mux.HandleFunc("GET /api/v1/runs/run-1", func(w http.ResponseWriter, r *http.Request) {
		st := models.RunStatusResponse{ID: "run-1", Status: models.RunProcessing, SearchURL: "https://www.google.com/maps/search/x"}
		if polls.Add(1) >= 2 {
			st.Status = models.RunCompleted
			st.Completed, st.Total, st.Failed = 2, 2, 1
			st.Records = []models.PlaceRecord{
				{URL: "https://x/place/a", Name: "Alpha", Rating: "4.5", Phone: "+1 555"},
				{URL: "https://x/place/b", Error: "timeout"},
			}
		}
		_ = json.NewEncoder(w).Encode(st)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &apiClient{baseURL: srv.URL, apiKey: "k", http: srv.Client(), poll: time.Millisecond}, &polls
}

func callTool(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestHarvestPlaces_WaitsForCompletion(t *testing.T) {
	c, polls := fakeAPI(t)

	res, err := handleHarvest(c)(context.Background(), callTool(map[string]any{
		"search_url": "https://www.google.com/maps/search/x",
		"max_items":  float64(2),
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	text := resultText(t, res)
	assert.Contains(t, text, "Run run-1: completed (2/2 places, 1 failed)")
	assert.Contains(t, text, "1. Alpha")
	assert.Contains(t, text, "Phone: +1 555")
	assert.Contains(t, text, "(failed) https://x/place/b")
	assert.GreaterOrEqual(t, polls.Load(), int32(2))
}

func TestHarvestPlaces_NoWait(t *testing.T) {
	c, polls := fakeAPI(t)

	res, err := handleHarvest(c)(context.Background(), callTool(map[string]any{
		"search_url": "https://www.google.com/maps/search/x",
		"wait":       false,
	}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "run-1")
	assert.Zero(t, polls.Load())
}

func TestHarvestPlaces_APIError(t *testing.T) {
	c, _ := fakeAPI(t)

	res, err := handleHarvest(c)(context.Background(), callTool(map[string]any{"search_url": "bad"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "[INVALID_INPUT] nope")
}

func TestHarvestPlaces_MissingURL(t *testing.T) {
	c, _ := fakeAPI(t)

	res, err := handleHarvest(c)(context.Background(), callTool(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestGetRun(t *testing.T) {
	c, _ := fakeAPI(t)

	res, err := handleGetRun(c)(context.Background(), callTool(map[string]any{"id": "run-1"}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "Run run-1: processing")
}

func TestNewServer(t *testing.T) {
	c, _ := fakeAPI(t)
	assert.NotNil(t, newServer(c))
}

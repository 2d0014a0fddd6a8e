// Command placeharvest-mcp exposes a running placeharvest API to MCP clients
// over stdio.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/use-agent/placeharvest/models"
)

func main() {
	apiURL := os.Getenv("PLACEHARVEST_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("PLACEHARVEST_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "PLACEHARVEST_API_KEY is required")
		os.Exit(1)
	}

	s := newServer(&apiClient{
		baseURL: strings.TrimRight(apiURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		poll:    2 * time.Second,
	})

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func newServer(c *apiClient) *server.MCPServer {
	s := server.NewMCPServer(
		"placeharvest",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	harvestTool := mcp.NewTool("harvest_places",
		mcp.WithDescription("Harvest business listings from a Google Maps search results URL. Scrolls the results, visits each place and returns name, address, category, rating, reviews, phone and website. Runs take several seconds per place."),
		mcp.WithString("search_url",
			mcp.Required(),
			mcp.Description("Google Maps search URL, e.g. https://www.google.com/maps/search/coffee+shops+manila"),
		),
		mcp.WithNumber("max_items",
			mcp.Description("Maximum number of places to visit (default: all found)"),
		),
		mcp.WithBoolean("wait",
			mcp.Description("Wait for the run to finish and return its places (default: true). When false, returns the run ID for get_run."),
		),
	)
	s.AddTool(harvestTool, handleHarvest(c))

	getRunTool := mcp.NewTool("get_run",
		mcp.WithDescription("Get the status and harvested places of a run started by harvest_places."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Run ID returned by harvest_places"),
		),
	)
	s.AddTool(getRunTool, handleGetRun(c))

	return s
}

// apiClient talks to the placeharvest HTTP API.
type apiClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	poll    time.Duration
}

func (c *apiClient) do(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var e models.ErrorResponse
		if json.Unmarshal(data, &e) == nil && e.Error != nil {
			return fmt.Errorf("[%s] %s", e.Error.Code, e.Error.Message)
		}
		var r models.RunResponse
		if json.Unmarshal(data, &r) == nil && r.Error != nil {
			return fmt.Errorf("[%s] %s", r.Error.Code, r.Error.Message)
		}
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// waitRun polls a run until it is no longer queued or processing.
func (c *apiClient) waitRun(ctx context.Context, id string) (*models.RunStatusResponse, error) {
	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()

	for {
		var st models.RunStatusResponse
		if err := c.do(ctx, http.MethodGet, "/api/v1/runs/"+id, nil, &st); err != nil {
			return nil, err
		}
		if st.Status != models.RunQueued && st.Status != models.RunProcessing {
			return &st, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func handleHarvest(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		searchURL, err := request.RequireString("search_url")
		if err != nil {
			return mcp.NewToolResultError("search_url is required"), nil
		}
		maxItems := int(request.GetFloat("max_items", 0))
		if maxItems < 0 {
			return mcp.NewToolResultError("max_items must be positive"), nil
		}

		var created models.RunResponse
		if err := c.do(ctx, http.MethodPost, "/api/v1/runs", models.RunRequest{
			SearchURL: searchURL,
			MaxItems:  maxItems,
		}, &created); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("starting run failed: %v", err)), nil
		}

		if !request.GetBool("wait", true) {
			return mcp.NewToolResultText(fmt.Sprintf("Run %s queued. Call get_run with this ID for results.", created.ID)), nil
		}

		st, err := c.waitRun(ctx, created.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("waiting for run %s failed: %v", created.ID, err)), nil
		}
		return mcp.NewToolResultText(formatRun(st)), nil
	}
}

func handleGetRun(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError("id is required"), nil
		}

		var st models.RunStatusResponse
		if err := c.do(ctx, http.MethodGet, "/api/v1/runs/"+id, nil, &st); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("fetching run failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatRun(&st)), nil
	}
}

// formatRun renders a run as plain text: a status header followed by one
// block per place.
func formatRun(st *models.RunStatusResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s: %s (%d/%d places, %d failed)\nSearch: %s\n",
		st.ID, st.Status, st.Completed, st.Total, st.Failed, st.SearchURL)
	if st.Error != nil {
		fmt.Fprintf(&b, "Error: [%s] %s\n", st.Error.Code, st.Error.Message)
	}

	for i, r := range st.Records {
		b.WriteString("\n")
		if r.Failed() {
			fmt.Fprintf(&b, "%d. (failed) %s\n   Error: %s\n", i+1, r.URL, r.Error)
			continue
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Name)
		for _, f := range []struct{ label, value string }{
			{"Category", r.Category},
			{"Rating", r.Rating},
			{"Reviews", r.ReviewCount},
			{"Address", r.Address},
			{"Phone", r.Phone},
			{"Website", r.Website},
			{"Hours", r.Hours},
			{"URL", r.URL},
		} {
			if f.value != "" {
				fmt.Fprintf(&b, "   %s: %s\n", f.label, f.value)
			}
		}
	}
	return b.String()
}

package models

// Run statuses reported by the API and the job queue.
const (
	RunQueued     = "queued"
	RunProcessing = "processing"
	RunCompleted  = "completed"
	RunFailed     = "failed"
)

// RunRequest is the payload for POST /api/v1/runs.
type RunRequest struct {
	// SearchURL is the listing page to harvest. Required.
	SearchURL string `json:"search_url" binding:"required,url"`

	// MaxItems caps how many harvested places are visited. 0 means all.
	MaxItems int `json:"max_items,omitempty" binding:"omitempty,min=1"`

	WebhookURL    string `json:"webhook_url,omitempty" binding:"omitempty,url"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// RunResponse is the immediate response for POST /api/v1/runs.
type RunResponse struct {
	ID     string       `json:"id"`
	Status string       `json:"status"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// RunStatusResponse is the response for GET /api/v1/runs/:id.
type RunStatusResponse struct {
	ID        string        `json:"id"`
	Status    string        `json:"status"`
	SearchURL string        `json:"search_url"`
	Completed int           `json:"completed"`
	Total     int           `json:"total"`
	Failed    int           `json:"failed"`
	Records   []PlaceRecord `json:"records,omitempty"`
	Error     *ErrorDetail  `json:"error,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status     string     `json:"status"` // "healthy" or "degraded"
	Uptime     string     `json:"uptime"`
	QueueStats QueueStats `json:"queue_stats"`
	Version    string     `json:"version"`
}

// QueueStats reports the state of the run queue.
type QueueStats struct {
	Capacity int  `json:"capacity"`
	Pending  int  `json:"pending"`
	Running  bool `json:"running"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error *ErrorDetail `json:"error"`
}

// RunListResponse is the response for GET /api/v1/runs.
type RunListResponse struct {
	Runs []RunStatusResponse `json:"runs"`
}

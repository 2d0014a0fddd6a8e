package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/placeharvest/export"
	"github.com/use-agent/placeharvest/harvest"
	"github.com/use-agent/placeharvest/jobs"
	"github.com/use-agent/placeharvest/models"
)

// PostRun returns a handler for POST /api/v1/runs.
//
// The run is queued and the response returns immediately with its ID; poll
// GET /api/v1/runs/:id for progress.
func PostRun(q *jobs.Queue) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RunRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.RunResponse{
				Status: models.RunFailed,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		if err := harvest.CheckSearchURL(req.SearchURL); err != nil {
			respondError(c, err)
			return
		}

		job, err := q.Submit(req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusAccepted, models.RunResponse{
			ID:     job.ID,
			Status: job.Status,
		})
	}
}

// GetRun returns a handler for GET /api/v1/runs/:id.
func GetRun(store *jobs.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, ok := lookup(c, store)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, job.StatusResponse(true))
	}
}

// ListRuns returns a handler for GET /api/v1/runs. Records are omitted.
func ListRuns(store *jobs.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := store.Snapshot()
		resp := models.RunListResponse{Runs: make([]models.RunStatusResponse, 0, len(snap))}
		for _, j := range snap {
			resp.Runs = append(resp.Runs, j.StatusResponse(false))
		}
		c.JSON(http.StatusOK, resp)
	}
}

// ExportRun returns a handler for GET /api/v1/runs/:id/export/:format.
//
// Formats: json (raw records), csv (raw, inferred header), clean (fixed
// columns, sorted by name). Only finished runs can be exported.
func ExportRun(store *jobs.Store) gin.HandlerFunc {
	writers := map[string]struct {
		contentType string
		ext         string
		write       func(io.Writer, []models.PlaceRecord) error
	}{
		"json":  {"application/json; charset=utf-8", ".json", export.WriteJSON},
		"csv":   {"text/csv; charset=utf-8", ".csv", export.WriteRawCSV},
		"clean": {"text/csv; charset=utf-8", "_clean.csv", export.WriteCleanCSV},
	}

	return func(c *gin.Context) {
		format := c.Param("format")
		w, ok := writers[format]
		if !ok {
			respondError(c, models.NewHarvestError(models.ErrCodeInvalidInput,
				fmt.Sprintf("unknown export format %q: use json, csv or clean", format), nil))
			return
		}

		job, ok := lookup(c, store)
		if !ok {
			return
		}
		if !job.Finished() {
			c.JSON(http.StatusConflict, models.ErrorResponse{Error: &models.ErrorDetail{
				Code:    models.ErrCodeInvalidInput,
				Message: "run has not finished yet",
			}})
			return
		}

		var buf bytes.Buffer
		if err := w.write(&buf, job.Records); err != nil {
			respondError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s%s"`, job.ID, w.ext))
		c.Data(http.StatusOK, w.contentType, buf.Bytes())
	}
}

func lookup(c *gin.Context, store *jobs.Store) (jobs.Job, bool) {
	job, ok := store.Get(c.Param("id"))
	if !ok {
		respondError(c, models.NewHarvestError(models.ErrCodeNotFound, "run not found", nil))
	}
	return job, ok
}

package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/placeharvest/jobs"
	"github.com/use-agent/placeharvest/models"
)

// Version is reported by the health endpoint.
var Version = "0.1.0"

// Health returns a handler for GET /api/v1/health.
//
// Reports queue occupancy and degrades status when the queue is over 80% full.
func Health(q *jobs.Queue, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := q.Stats()

		status := "healthy"
		if stats.Capacity > 0 && stats.Pending > int(float64(stats.Capacity)*0.8) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:     status,
			Uptime:     time.Since(startTime).Round(time.Second).String(),
			QueueStats: stats,
			Version:    Version,
		})
	}
}

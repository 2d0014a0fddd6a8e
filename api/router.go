package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/placeharvest/api/handler"
	"github.com/use-agent/placeharvest/api/middleware"
	"github.com/use-agent/placeharvest/config"
	"github.com/use-agent/placeharvest/jobs"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health stays outside auth so monitoring probes always work. ctx bounds the
// background cleanup of the rate limiter.
func NewRouter(ctx context.Context, q *jobs.Queue, store *jobs.Store, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())

	v1 := r.Group("/api/v1")

	v1.GET("/health", handler.Health(q, startTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(ctx, cfg.RateLimit))

	protected.POST("/runs", handler.PostRun(q))
	protected.GET("/runs", handler.ListRuns(store))
	protected.GET("/runs/:id", handler.GetRun(store))
	protected.GET("/runs/:id/export/:format", handler.ExportRun(store))

	return r
}

// requestLogger logs each request through slog instead of gin's text logger.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

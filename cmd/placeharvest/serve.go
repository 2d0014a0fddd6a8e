package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/use-agent/placeharvest/api"
	"github.com/use-agent/placeharvest/harvest"
	"github.com/use-agent/placeharvest/jobs"
	"github.com/use-agent/placeharvest/webhook"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the harvest pipeline over HTTP.",
		Long: `serve exposes the pipeline as a REST API. Submitted runs are queued and
executed one at a time; poll /api/v1/runs/:id or register a webhook.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cfg.Auth.Enabled && len(cfg.Auth.APIKeys) == 0 {
				slog.Warn("auth enabled but no API keys configured; API is open")
			}

			slog.Info("placeharvest starting",
				"host", cfg.Server.Host,
				"port", cfg.Server.Port,
				"mode", cfg.Server.Mode,
				"engine", cfg.Browser.Engine,
				"queue_size", cfg.Jobs.QueueSize,
			)

			opener, err := newOpener(cfg.Browser)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			runner := harvest.NewRunner(opener, cfg.Harvest)
			store := jobs.NewStore(cfg.Jobs.TTL)
			queue := jobs.NewQueue(store, runner.Run, cfg.Jobs.QueueSize)
			queue.OnDone = func(j jobs.Job) {
				if j.WebhookURL == "" {
					return
				}
				webhook.DeliverAsync(j.WebhookURL, j.WebhookSecret, webhook.NewRunEvent(j.StatusResponse(false), time.Now()))
			}

			workerDone := make(chan struct{})
			go func() {
				defer close(workerDone)
				queue.Start(ctx)
			}()
			go store.CleanupLoop(ctx, 5*time.Minute)

			router := api.NewRouter(ctx, queue, store, cfg, time.Now())
			addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
			srv := &http.Server{
				Addr:              addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				slog.Info("HTTP server listening", "addr", addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return fmt.Errorf("http server: %w", err)
			case <-ctx.Done():
				slog.Info("shutdown signal received")
			}

			// Give in-flight requests 5 seconds to complete.
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("HTTP server forced shutdown", "error", err)
			} else {
				slog.Info("HTTP server drained gracefully")
			}

			// The current run sees the cancelled context, keeps its partial
			// records and closes its browser.
			cancel()
			<-workerDone
			slog.Info("placeharvest stopped")
			return nil
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides config)")
	return cmd
}

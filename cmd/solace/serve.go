package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mirelabs/solace/internal/adapters/tracing"
	"github.com/mirelabs/solace/internal/api"
	"github.com/spf13/cobra"
)

// serveCmd starts the ops HTTP server
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the ops HTTP server",
		Long: `Start the Solace ops server.

Endpoints:
  GET  /health              liveness check
  GET  /metrics             Prometheus metrics
  GET  /api/v1/traces/stats aggregate trace statistics
  GET  /api/v1/prompts      registered prompt variants
  GET  /api/v1/abtest       active A/B test
  POST /api/v1/abtest       start an A/B test
  DEL  /api/v1/abtest       stop the A/B test`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func runServer(ctx context.Context) error {
	shutdownTracer, err := tracing.InitTracer("solace")
	if err != nil {
		slog.Warn("failed to initialize tracer", "error", err)
	} else {
		defer shutdownTracer(context.Background())
	}

	store, err := newTraceStore()
	if err != nil {
		return err
	}
	prompts, err := newPromptRegistry()
	if err != nil {
		return err
	}

	server := api.NewServer(cfg, store, prompts)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig.String())
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Stop(shutdownCtx)
}

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/stockscan/internal/api"
	"github.com/wonny/stockscan/internal/api/handlers"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP API server",
	Long: `Starts the REST API server.

Endpoints:
  GET  /health               - Health check
  POST /api/analyze/{code}   - Analyze one instrument
  GET  /api/calendar/status  - Trading calendar state
  GET  /api/signals/recent   - Recent persisted signals
  WS   /ws/progress          - Batch progress stream

Example:
  go run ./cmd/stockscan server --port 8085`,
	RunE: runServer,
}

var serverPort string

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().StringVar(&serverPort, "port", "", "override the configured port")
}

func runServer(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if serverPort != "" {
		app.cfg.Port = serverPort
	}

	hub := api.NewProgressHub(app.log)
	app.analyzer.OnProgress(hub.Broadcast)

	handler := handlers.NewAnalysisHandler(app.analyzer, app.calendar, app.repo, app.log)
	server := api.New(app.cfg, app.log, api.NewRouter(handler, hub, app.log))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		app.log.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpserver "github.com/seaforthlabs/roundtable/internal/http"
)

var serveHost string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the roundtable HTTP server",
	Long: `Start the HTTP API and serve research queries until interrupted.

Examples:
  # Serve on the configured port
  roundtable serve

  # Bind a specific host
  roundtable serve --host 0.0.0.0`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "localhost", "host to bind")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	app, err := buildApplication(cfg, logger)
	if err != nil {
		return err
	}
	defer app.close()

	server, err := httpserver.NewServer(app.service, app.events, logger.Underlying(), &httpserver.Config{
		Host: serveHost,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("init http server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "graceful shutdown failed", zap.Error(err))
		return err
	}
	return nil
}

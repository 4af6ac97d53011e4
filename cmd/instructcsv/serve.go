package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/instructcsv/internal/config"
	"github.com/JonMunkholm/instructcsv/internal/core"
	"github.com/JonMunkholm/instructcsv/internal/metrics"
	"github.com/JonMunkholm/instructcsv/internal/web"
	"github.com/spf13/cobra"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload form and conversion API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.Server.Host, "host", cfg.Server.Host, "interface to bind")
	cmd.Flags().IntVar(&cfg.Server.Port, "port", cfg.Server.Port, "port to listen on")
	return cmd
}

// runServe blocks until ctx is cancelled, then drains in-flight requests.
func runServe(ctx context.Context, cfg *config.Config) error {
	collector := metrics.New()
	recorder, closeRecorder := openRecorder(ctx, cfg)
	defer closeRecorder()

	converter, err := newConverter(cfg, recorder, collector, core.WithDiagnostics(io.Discard))
	if err != nil {
		return err
	}
	server := web.NewServer(converter, collector.Handler(), cfg)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("server stopped")
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/conductor/internal/config"
	"github.com/HendryAvila/conductor/internal/logging"
	"github.com/HendryAvila/conductor/internal/server"
	"github.com/HendryAvila/conductor/internal/transport"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve requests over stdin/stdout",
		Long: `Reads one JSON request per line from stdin and writes one JSON
response per line to stdout. Settings come from .conductor/config.yaml
and CONDUCTOR_* environment variables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := opts.projectRoot()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), root)
		},
	}
}

func runServe(parent context.Context, root string) error {
	settings, err := config.Load(root)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logs, err := logging.New(settings.LogLevel, settings.LogFile)
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer logs.Close()

	s, cleanup, err := server.New(settings, transport.NewLines(os.Stdin, os.Stdout), logs.Logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	if parent == nil {
		parent = context.Background()
	}
	// Graceful shutdown on interrupt, noticed between requests.
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if settings.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              settings.MetricsAddr,
			Handler:           metricsMux(s),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logs.Logger.Error("metrics.listen_failed", "addr", settings.MetricsAddr, "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logs.Logger.Info("metrics.listening", "addr", settings.MetricsAddr)
	}

	if err := s.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func metricsMux(s *server.Server) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.Metrics().Handler())
	return mux
}

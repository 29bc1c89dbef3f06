package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/room-scheduler/internal/config"
	"github.com/example/room-scheduler/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func (a *App) serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the booking API server",
		Long: `Run the HTTP API until interrupted.

Configuration comes from SCHEDULER_* variables, an optional .env file and the TOML
file named by SCHEDULER_CONFIG_FILE.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := a.configure(a.out)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = fmt.Sprintf(":%d", cfg.HTTPPort)
			}

			ctx := cmd.Context()
			srv, err := newServer(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := srv.Close(); cerr != nil {
					logger.Error("failed to close storage", "error", cerr)
				}
			}()

			listener, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", addr, err)
			}
			logger.Info("room scheduler API listening", "addr", listener.Addr().String(), "storage", cfg.Storage)
			return serve(ctx, listener, srv.handler, logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to :$SCHEDULER_HTTP_PORT)")
	return cmd
}

// configure loads configuration and builds a logger writing to w.
func (a *App) configure(w io.Writer) (config.Config, *slog.Logger, error) {
	cfg, err := a.loadConf()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load configuration: %w", err)
	}
	logger, err := logging.New(w, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

// serve runs handler on listener until ctx is cancelled, then drains connections.
func serve(ctx context.Context, listener net.Listener, handler http.Handler, logger *slog.Logger) error {
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return logging.ContextWithLogger(context.Background(), logger) },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server encountered error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("shutting down", "timeout", shutdownTimeout)
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

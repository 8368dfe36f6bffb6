package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/healthwatch/config"
	"github.com/jonwraymond/healthwatch/observe"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the monitor and serve its HTTP endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.configPath, root.envFile)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) (err error) {
	a, err := newApp(ctx, cfg, true)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		a.logger.Info(shutdownCtx, "healthwatch stopping")
		err = errors.Join(err, srv.Shutdown(shutdownCtx), a.close(shutdownCtx))
	}()

	if err := a.monitor.Start(ctx); err != nil {
		return fmt.Errorf("start monitor: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info(ctx, "http server listening", observe.Field{Key: "addr", Value: cfg.Server.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		a.logger.Info(context.Background(), "shutdown requested")
		return nil
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/agenda"
	httpAdapter "github.com/aretw0/agenda/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP chat server",
	Long:  `Serves POST /chat and the session endpoints over HTTP, with Prometheus metrics at /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		app, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(app)

		handler, err := httpAdapter.NewHandler(app.Assistant,
			httpAdapter.WithRateLimit(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst),
			httpAdapter.WithMetricsHandler(app.Metrics.Handler()),
			httpAdapter.WithCORSOrigins(cfg.Server.CORSOrigins...),
			httpAdapter.WithVersion(agenda.Version),
			httpAdapter.WithLogger(logger),
		)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting Agenda Server", "addr", srv.Addr, "store", cfg.Store.Driver, "calendar", cfg.Calendar.Driver)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil

		case <-ctx.Done():
			logger.Info("Start shutdown...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("Agenda Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	bindFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

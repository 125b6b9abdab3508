package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/aretw0/wayfinder/pkg/adapters/http"
	"github.com/aretw0/wayfinder/pkg/observability"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Serves the session API, its OpenAPI document, SSE render streams and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); cmd.Flags().Changed("addr") {
			cfg.HTTP.Addr = addr
		}

		b, err := openBackend(cfg)
		if err != nil {
			return err
		}
		defer b.close()

		var (
			metrics     *observability.Metrics
			handlerOpts = []httpAdapter.Option{httpAdapter.WithLogger(logger)}
		)
		if cfg.HTTP.Metrics {
			metrics, err = observability.NewMetrics(nil)
			if err != nil {
				return err
			}
			handlerOpts = append(handlerOpts, httpAdapter.WithMetrics(metrics.Handler()))
		}

		mgr, err := newManager(cmd.Context(), cfg, b, metrics)
		if err != nil {
			return err
		}
		defer mgr.Shutdown()

		handler, err := httpAdapter.NewHandler(mgr, handlerOpts...)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting Wayfinder server", "addr", srv.Addr, "store", cfg.Store.Backend)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		case sig := <-shutdown:
			logger.Info("Shutting down", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("Graceful shutdown did not complete", "error", err)
				return srv.Close()
			}
		}
		logger.Info("Wayfinder server stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on")
}

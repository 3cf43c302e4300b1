package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/parley/internal/cli"
	httpAdapter "github.com/aretw0/parley/pkg/adapters/http"
	"github.com/aretw0/parley/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Serves the routing file over a JSON API: one POST per intent, sessions kept in the configured store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		port, _ := cmd.Flags().GetString("port")
		withMetrics, _ := cmd.Flags().GetBool("metrics")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		p, err := cli.OpenPersistence(ctx, storeOptions(cmd), logger)
		if err != nil {
			return err
		}
		defer p.Close()

		engineOpts := engineOptions(cmd, p)
		var serverOpts []httpAdapter.Option
		serverOpts = append(serverOpts, httpAdapter.WithLogger(logger))

		if withMetrics {
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics, err := observability.NewMetrics(observability.WithRegistry(reg))
			if err != nil {
				return err
			}
			engineOpts.Hooks = metrics.Hooks()
			serverOpts = append(serverOpts,
				httpAdapter.WithMetrics(reg),
				httpAdapter.WithRequestObserver(metrics),
			)
		}

		engine, _, err := cli.NewEngine(engineOpts, logger)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              ":" + port,
			Handler:           httpAdapter.NewHandler(engine, serverOpts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting parley server", "addr", srv.Addr, "routes", engineOpts.RoutesPath, "entry", engine.Entry())
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil

		case <-ctx.Done():
			logger.Info("start shutdown", "signal", ctx.Signal())

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("parley server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().Bool("metrics", true, "Expose Prometheus metrics on /metrics")
}

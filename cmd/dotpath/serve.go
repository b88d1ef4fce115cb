package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/klyr/dotpath/internal/api"
	"github.com/klyr/dotpath/internal/config"
	"github.com/klyr/dotpath/internal/logging"
	"github.com/klyr/dotpath/internal/observability"
)

func newServeCmd() *cobra.Command {
	var configPath string
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve path operations over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := loadConfig(cmd, configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if listen != "" {
				cfg.Server.Listen = listen
			}
			return runServer(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	cmd.Flags().StringVar(&listen, "listen", "", "Override server.listen")

	return cmd
}

func runServer(ctx context.Context, cfg *config.Config) error {
	srv, err := api.New(cfg)
	if err != nil {
		return err
	}

	sink, closeSinks, err := openSinks(cfg.ResolvePath(cfg.Logging.EvalLog), cfg.ResolvePath(cfg.Store.Path))
	defer func() { _ = closeSinks() }()
	if err != nil {
		return err
	}
	srv.SetSink(sink)

	metricsSrv := startMetricsServer(cfg, srv)
	defer func() {
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(context.Background())
		}
	}()

	httpSrv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log := logging.Diagnostics().With("component", "server")

	serverErr := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Server.Listen, "tls", cfg.Server.TLS.Enabled, "routes", len(cfg.Routes))
		if cfg.Server.TLS.Enabled {
			serverErr <- httpSrv.ListenAndServeTLS(cfg.ResolvePath(cfg.Server.TLS.CertFile), cfg.ResolvePath(cfg.Server.TLS.KeyFile))
			return
		}
		serverErr <- httpSrv.ListenAndServe()
	}()

	if ctx == nil {
		ctx = context.Background()
	}
	signalCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-signalCtx.Done():
		log.Info("shutting down")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func startMetricsServer(cfg *config.Config, srv *api.Server) *http.Server {
	if !cfg.Metrics.Enabled {
		return nil
	}

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	srv.SetMetrics(metrics)

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))

	metricsSrv := &http.Server{Addr: cfg.Metrics.Listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Diagnostics().Error("metrics server failed", "component", "metrics", "err", err)
		}
	}()
	return metricsSrv
}

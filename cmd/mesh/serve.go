package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	config "github.com/saihaj/graphql-mesh/internal/config"
	eventbus "github.com/saihaj/graphql-mesh/internal/eventbus"
	logging "github.com/saihaj/graphql-mesh/internal/logging"
	metrics "github.com/saihaj/graphql-mesh/internal/metrics"
	otel "github.com/saihaj/graphql-mesh/internal/otel"
	server "github.com/saihaj/graphql-mesh/internal/server"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the GraphQL gateway",
		Example: `  mesh serve -c mesh.yaml
  MESH_SERVER_ADDR=:8080 mesh serve --pretty`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath(cmd))
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Server.Addr = addr
			}
			if pretty, _ := cmd.Flags().GetBool("pretty"); pretty {
				cfg.Server.Pretty = true
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().String("addr", "", "listen address, overrides server.addr")
	cmd.Flags().Bool("pretty", false, "pretty-print JSON responses")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	eventbus.Use(eventbus.New())
	defer logging.Attach(logger)()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New()
	if err := m.Register(reg); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	defer m.Attach()()

	shutdownTracing, err := otel.Setup(cfg.Otel.Endpoint, cfg.Otel.Service)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	gw, err := newGateway(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = gw.Close() }()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Mux(gw.handler, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("GraphQL server listening",
		zap.String("addr", cfg.Server.Addr),
		zap.Int("operations", gw.registry.Len()))

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

package main

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"

	config "github.com/saihaj/graphql-mesh/internal/config"
	executor "github.com/saihaj/graphql-mesh/internal/executor"
	httprt "github.com/saihaj/graphql-mesh/internal/httprt"
	httptp "github.com/saihaj/graphql-mesh/internal/httptp"
	introspection "github.com/saihaj/graphql-mesh/internal/introspection"
	opreg "github.com/saihaj/graphql-mesh/internal/opreg"
	pubsub "github.com/saihaj/graphql-mesh/internal/pubsub"
	schema "github.com/saihaj/graphql-mesh/internal/schema"
	server "github.com/saihaj/graphql-mesh/internal/server"
)

// bus is a pubsub that can be shut down.
type bus interface {
	pubsub.PubSub
	Close() error
}

// gateway is everything serve wires from one configuration.
type gateway struct {
	schema    *schema.Schema
	registry  *opreg.Registry
	transport *httptp.Transport
	pubsub    bus
	runtime   *httprt.Runtime
	handler   *server.Handler
}

// loadRegistry builds the schema and binds the configured operations.
func loadRegistry(cfg *config.Config, logger *zap.Logger) (*schema.Schema, *opreg.Registry, error) {
	name, sdl, err := cfg.SchemaSource()
	if err != nil {
		return nil, nil, err
	}
	sch, err := schema.BuildFromNamedSDL(name, sdl)
	if err != nil {
		return nil, nil, fmt.Errorf("build schema: %w", err)
	}
	reg, err := opreg.Build(sch, cfg.Registry(), opreg.WithLogger(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("bind operations: %w", err)
	}
	return sch, reg, nil
}

func newGateway(cfg *config.Config, logger *zap.Logger) (*gateway, error) {
	sch, reg, err := loadRegistry(cfg, logger)
	if err != nil {
		return nil, err
	}

	tpOpts := []httptp.Option{
		httptp.WithTimeout(cfg.Transport.Timeout),
		httptp.WithLogger(logger.Named("transport")),
		httptp.WithUserAgent(cfg.Transport.UserAgent),
	}
	if cfg.Transport.MaxIdleConnsPerHost > 0 {
		tpOpts = append(tpOpts, httptp.WithMaxIdleConnsPerHost(cfg.Transport.MaxIdleConnsPerHost))
	}
	if o := cfg.Transport.OAuth2; o != nil {
		tpOpts = append(tpOpts, httptp.WithOAuth2(&clientcredentials.Config{
			ClientID:     o.ClientID,
			ClientSecret: o.ClientSecret,
			TokenURL:     o.TokenURL,
			Scopes:       o.Scopes,
		}))
	}
	transport := httptp.New(tpOpts...)

	var ps bus
	if url := cfg.PubSub.NATS.URL; url != "" {
		n, err := pubsub.DialNATS(url, pubsub.WithNATSLogger(logger.Named("nats")))
		if err != nil {
			_ = transport.Close()
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		ps = n
	} else {
		ps = pubsub.NewMemory()
	}

	rt := httprt.NewRuntime(reg, sch,
		httprt.WithLogger(logger.Named("runtime")),
		httprt.WithFetcher(transport),
		httprt.WithPubSub(ps),
		httprt.WithMaxConcurrency(cfg.Transport.MaxConcurrency),
		httprt.WithMaxUploadBytes(cfg.Transport.MaxUploadBytes),
	)

	var runtime executor.Runtime = rt
	served := sch
	if cfg.Server.Introspection {
		w, err := introspection.Wrap(rt, sch)
		if err != nil {
			return nil, err
		}
		runtime, served = w.Runtime, w.Schema
	}

	sopts := []server.Option{
		server.WithTimeout(cfg.Server.Timeout),
		server.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
		server.WithLogger(logger.Named("server")),
		server.WithGraphiQL(cfg.Server.Introspection),
	}
	if len(cfg.Server.ForwardHeaders) > 0 {
		sopts = append(sopts, server.WithForwardHeaders(cfg.Server.ForwardHeaders...))
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		sopts = append(sopts, server.WithCORS(cfg.Server.CORSOrigins...))
	}
	if cfg.Server.Pretty {
		sopts = append(sopts, server.WithPretty())
	}
	h, err := server.New(runtime, served, sopts...)
	if err != nil {
		_ = transport.Close()
		_ = ps.Close()
		return nil, fmt.Errorf("server init: %w", err)
	}

	return &gateway{
		schema:    sch,
		registry:  reg,
		transport: transport,
		pubsub:    ps,
		runtime:   rt,
		handler:   h,
	}, nil
}

func (g *gateway) Close() error {
	err := g.pubsub.Close()
	if cerr := g.transport.Close(); err == nil {
		err = cerr
	}
	return err
}

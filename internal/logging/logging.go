// Package logging builds the zap logger and logs eventbus lifecycle events.
package logging

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	eventbus "github.com/saihaj/graphql-mesh/internal/eventbus"
	events "github.com/saihaj/graphql-mesh/internal/events"
	reqid "github.com/saihaj/graphql-mesh/internal/reqid"
)

// New builds a logger at level. Development loggers write human-readable
// console output; production loggers write JSON.
func New(level string, development bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// Attach logs served HTTP requests, GraphQL operations and upstream fetches
// through logger. The returned function stops logging.
func Attach(logger *zap.Logger) (detach func()) {
	unsubs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
			if e.Request == nil {
				return
			}
			logger.Info("request",
				requestID(ctx),
				zap.String("method", e.Request.Method),
				zap.String("path", e.Request.URL.Path),
				zap.Int("status", e.Status),
				zap.Duration("duration", e.Duration))
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.GraphQLFinish) {
			if len(e.Errors) == 0 {
				logger.Debug("operation",
					requestID(ctx),
					zap.String("name", e.OperationName),
					zap.String("type", e.OperationType),
					zap.String("transport", e.Transport),
					zap.Duration("duration", e.Duration))
				return
			}
			logger.Warn("operation failed",
				requestID(ctx),
				zap.String("name", e.OperationName),
				zap.String("type", e.OperationType),
				zap.String("transport", e.Transport),
				zap.Errors("errors", e.Errors),
				zap.Duration("duration", e.Duration))
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.FetchFinish) {
			fields := []zap.Field{
				requestID(ctx),
				zap.String("method", e.Method),
				zap.String("url", e.URL),
				zap.Int("status", e.Status),
				zap.Duration("duration", e.Duration),
			}
			if e.Err != nil {
				logger.Warn("upstream fetch failed", append(fields, zap.Error(e.Err))...)
				return
			}
			logger.Debug("upstream fetch", fields...)
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func requestID(ctx context.Context) zap.Field {
	id, _ := reqid.FromContext(ctx)
	return zap.String("request_id", id)
}

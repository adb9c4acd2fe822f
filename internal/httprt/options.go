package httprt

import (
	"go.uber.org/zap"

	"github.com/saihaj/graphql-mesh/internal/pubsub"
)

// Options configures the runtime.
//
// Defaults:
// - Logger:         zap.NewNop()
// - Fetcher:        none; requests fail unless the context carries one
// - PubSub:         none; subscriptions fail unless the context carries one
// - MaxConcurrency: 0 (unbounded fan-out per execution depth)
// - MaxUploadBytes: 0 (uploads are read without bound)
// - UnionResolver:  schema-driven (NewUnionInputResolver)
// - Env:            process environment captured at NewRuntime
type Options struct {
	Logger         *zap.Logger
	Fetcher        Fetcher
	PubSub         pubsub.PubSub
	MaxConcurrency int
	MaxUploadBytes int64
	UnionResolver  UnionInputResolver
	Env            map[string]string
}

// Option mutates Options.
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{Logger: zap.NewNop()}
}

func WithLogger(l *zap.Logger) Option               { return func(o *Options) { o.Logger = l } }
func WithFetcher(f Fetcher) Option                  { return func(o *Options) { o.Fetcher = f } }
func WithPubSub(ps pubsub.PubSub) Option            { return func(o *Options) { o.PubSub = ps } }
func WithMaxConcurrency(n int) Option               { return func(o *Options) { o.MaxConcurrency = n } }
func WithMaxUploadBytes(n int64) Option             { return func(o *Options) { o.MaxUploadBytes = n } }
func WithUnionResolver(r UnionInputResolver) Option { return func(o *Options) { o.UnionResolver = r } }

// WithEnv replaces the environment exposed to templates as "env".
func WithEnv(env map[string]string) Option { return func(o *Options) { o.Env = env } }

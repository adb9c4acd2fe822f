package httptp

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"
)

// Options configures the HTTP transport behavior.
//
// Defaults:
// - Timeout:             10s (used only if incoming context has no deadline)
// - MaxIdleConnsPerHost: 64
// - Client:              built from the options above
// - OAuth2:              none
// - Logger:              zap.NewNop()
//
// All options are safe to leave zero-valued to use defaults.
type Options struct {
	Client *http.Client

	Timeout             time.Duration
	MaxIdleConnsPerHost int

	// OAuth2 attaches client-credentials bearer tokens to every request.
	OAuth2 *clientcredentials.Config

	UserAgent string
	Logger    *zap.Logger
}

// Option mutates Options.
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Timeout:             10 * time.Second,
		MaxIdleConnsPerHost: 64,
		Logger:              zap.NewNop(),
	}
}

func WithHTTPClient(c *http.Client) Option            { return func(o *Options) { o.Client = c } }
func WithTimeout(d time.Duration) Option              { return func(o *Options) { o.Timeout = d } }
func WithMaxIdleConnsPerHost(n int) Option            { return func(o *Options) { o.MaxIdleConnsPerHost = n } }
func WithOAuth2(cfg *clientcredentials.Config) Option { return func(o *Options) { o.OAuth2 = cfg } }
func WithUserAgent(ua string) Option                  { return func(o *Options) { o.UserAgent = ua } }
func WithLogger(l *zap.Logger) Option                 { return func(o *Options) { o.Logger = l } }

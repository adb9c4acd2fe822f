// Package pubsub provides the event bus capability used by event-backed
// subscription fields.
package pubsub

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed bus.
var ErrClosed = errors.New("pubsub: closed")

// PubSub delivers payloads published on a topic to every iterator open on
// that topic.
type PubSub interface {
	// AsyncIterator returns a channel of payloads published on topic. The
	// channel is closed when ctx is done or the bus is closed.
	AsyncIterator(ctx context.Context, topic string) (<-chan any, error)
	Publish(ctx context.Context, topic string, payload any) error
}

type contextKey struct{}

// NewContext returns a context carrying ps. It takes precedence over the
// bus a runtime was configured with.
func NewContext(ctx context.Context, ps PubSub) context.Context {
	return context.WithValue(ctx, contextKey{}, ps)
}

// FromContext returns the bus attached with NewContext, or nil.
func FromContext(ctx context.Context) PubSub {
	ps, _ := ctx.Value(contextKey{}).(PubSub)
	return ps
}

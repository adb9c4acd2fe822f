package pubsub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	eventbus "github.com/saihaj/graphql-mesh/internal/eventbus"
	events "github.com/saihaj/graphql-mesh/internal/events"
)

// NATS is a PubSub backed by a NATS connection. Topics map to subjects and
// payloads travel as JSON; messages that are not JSON arrive as strings.
type NATS struct {
	conn   *nats.Conn
	logger *zap.Logger
	buffer int

	mu     sync.Mutex
	closed bool
}

// NATSOption configures a NATS bus.
type NATSOption func(*NATS)

// WithNATSLogger sets the logger for message decoding diagnostics.
func WithNATSLogger(l *zap.Logger) NATSOption {
	return func(n *NATS) {
		if l != nil {
			n.logger = l
		}
	}
}

// WithNATSBuffer sets the per-subscription channel buffer.
func WithNATSBuffer(size int) NATSOption {
	return func(n *NATS) {
		if size > 0 {
			n.buffer = size
		}
	}
}

// DialNATS connects to url.
func DialNATS(url string, opts ...NATSOption) (*NATS, error) {
	conn, err := nats.Connect(url,
		nats.Name("graphql-mesh"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("pubsub: connect %s: %w", url, err)
	}
	return NewNATS(conn, opts...), nil
}

// NewNATS wraps an established connection. Close drains it.
func NewNATS(conn *nats.Conn, opts ...NATSOption) *NATS {
	n := &NATS{conn: conn, logger: zap.NewNop(), buffer: 64}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

var _ PubSub = (*NATS)(nil)

func (n *NATS) AsyncIterator(ctx context.Context, topic string) (<-chan any, error) {
	if n.isClosed() {
		return nil, ErrClosed
	}
	msgs := make(chan *nats.Msg, n.buffer)
	sub, err := n.conn.ChanSubscribe(topic, msgs)
	if err != nil {
		return nil, fmt.Errorf("pubsub: subscribe %s: %w", topic, err)
	}

	start := time.Now()
	eventbus.Publish(ctx, events.SubscriptionStart{Topic: topic})

	out := make(chan any)
	go func() {
		defer close(out)
		defer func() {
			_ = sub.Unsubscribe()
			eventbus.Publish(context.WithoutCancel(ctx), events.SubscriptionEnd{Topic: topic, Duration: time.Since(start)})
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-msgs:
				payload, err := decodePayload(msg.Data)
				if err != nil {
					n.logger.Debug("message is not JSON, forwarding as text", zap.String("topic", topic), zap.Error(err))
					payload = string(msg.Data)
				}
				select {
				case out <- payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (n *NATS) Publish(ctx context.Context, topic string, payload any) error {
	if n.isClosed() {
		return ErrClosed
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("pubsub: encode payload for %s: %w", topic, err)
	}
	if err := n.conn.Publish(topic, data); err != nil {
		return fmt.Errorf("pubsub: publish %s: %w", topic, err)
	}
	eventbus.Publish(ctx, events.SubscriptionEvent{Topic: topic})
	return nil
}

// Close drains the connection.
func (n *NATS) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return ErrClosed
	}
	n.closed = true
	return n.conn.Drain()
}

func (n *NATS) isClosed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.closed
}

func decodePayload(data []byte) (any, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

package pubsub

import (
	"context"
	"sync"
	"time"

	eventbus "github.com/saihaj/graphql-mesh/internal/eventbus"
	events "github.com/saihaj/graphql-mesh/internal/events"
)

// Memory is an in-process PubSub. Publish blocks until every current
// subscriber of the topic has taken the payload or gone away.
type Memory struct {
	mu     sync.Mutex
	subs   map[string]map[*subscriber]struct{}
	closed bool
	done   chan struct{}
	buffer int
}

type subscriber struct {
	ch   chan any
	done <-chan struct{}
}

// MemoryOption configures a Memory bus.
type MemoryOption func(*Memory)

// WithBuffer sets the per-subscriber channel buffer.
func WithBuffer(n int) MemoryOption {
	return func(m *Memory) {
		if n >= 0 {
			m.buffer = n
		}
	}
}

// NewMemory returns an empty in-process bus.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{subs: make(map[string]map[*subscriber]struct{}), done: make(chan struct{}), buffer: 16}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var _ PubSub = (*Memory)(nil)

func (m *Memory) AsyncIterator(ctx context.Context, topic string) (<-chan any, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	in := &subscriber{ch: make(chan any, m.buffer), done: ctx.Done()}
	if m.subs[topic] == nil {
		m.subs[topic] = make(map[*subscriber]struct{})
	}
	m.subs[topic][in] = struct{}{}
	m.mu.Unlock()

	start := time.Now()
	eventbus.Publish(ctx, events.SubscriptionStart{Topic: topic})

	out := make(chan any)
	go func() {
		defer close(out)
		defer func() {
			m.remove(topic, in)
			eventbus.Publish(context.WithoutCancel(ctx), events.SubscriptionEnd{Topic: topic, Duration: time.Since(start)})
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.done:
				return
			case v := <-in.ch:
				select {
				case out <- v:
				case <-ctx.Done():
					return
				case <-m.done:
					return
				}
			}
		}
	}()
	return out, nil
}

func (m *Memory) Publish(ctx context.Context, topic string, payload any) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	targets := make([]*subscriber, 0, len(m.subs[topic]))
	for s := range m.subs[topic] {
		targets = append(targets, s)
	}
	m.mu.Unlock()

	for _, s := range targets {
		select {
		case s.ch <- payload:
		case <-s.done:
		case <-m.done:
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	eventbus.Publish(ctx, events.SubscriptionEvent{Topic: topic, Subscribers: len(targets)})
	return nil
}

// Close ends every open iterator. Further calls return ErrClosed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.closed = true
	close(m.done)
	return nil
}

func (m *Memory) remove(topic string, s *subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs[topic], s)
	if len(m.subs[topic]) == 0 {
		delete(m.subs, topic)
	}
}

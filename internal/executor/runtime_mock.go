package executor

import (
	"context"
	"fmt"
	"sync"
)

// MockResolver resolves one field invocation for MockRuntime.
type MockResolver func(ctx context.Context, source any, args map[string]any) (any, error)

// MockSubscriber produces the source stream of one subscription field.
type MockSubscriber func(ctx context.Context, args map[string]any) (<-chan any, error)

// Kinds of recorded calls.
const (
	CallKindSync      = "sync"
	CallKindAsync     = "async"
	CallKindSubscribe = "subscribe"
)

// Call records one field invocation. Async calls of the same
// BatchResolveAsync share a Batch number starting at 1; sync calls have 0.
type Call struct {
	Kind       string
	ObjectType string
	Field      string
	Source     any
	Args       map[string]any
	Batch      int
}

// NewMockValueResolver always returns val.
func NewMockValueResolver(val any) MockResolver {
	return func(context.Context, any, map[string]any) (any, error) { return val, nil }
}

// NewMockErrorResolver always fails with err.
func NewMockErrorResolver(err error) MockResolver {
	return func(context.Context, any, map[string]any) (any, error) { return nil, err }
}

// NewMockEventSubscriber emits events in order, then closes the stream.
func NewMockEventSubscriber(events ...any) MockSubscriber {
	return func(ctx context.Context, _ map[string]any) (<-chan any, error) {
		ch := make(chan any)
		go func() {
			defer close(ch)
			for _, ev := range events {
				select {
				case ch <- ev:
				case <-ctx.Done():
					return
				}
			}
		}()
		return ch, nil
	}
}

// MockRuntime is a Runtime and SubscriptionRuntime backed by resolvers
// keyed "Type.field". Fields without a resolver read the same-named key of
// a map source, so plain objects need no resolvers. Every invocation is
// recorded.
type MockRuntime struct {
	mu            sync.Mutex
	resolvers     map[string]MockResolver
	subscriptions map[string]MockSubscriber
	typeOf        func(value any) (string, error)
	serialize     func(typeName string, value any) (any, error)
	calls         []Call
	batches       int
}

func NewMockRuntime(resolvers map[string]MockResolver) *MockRuntime {
	m := &MockRuntime{
		resolvers:     make(map[string]MockResolver, len(resolvers)),
		subscriptions: make(map[string]MockSubscriber),
	}
	for k, r := range resolvers {
		m.resolvers[k] = r
	}
	return m
}

func (m *MockRuntime) SetResolver(objectType, field string, r MockResolver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolvers[objectType+"."+field] = r
}

func (m *MockRuntime) SetSubscription(objectType, field string, sub MockSubscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions[objectType+"."+field] = sub
}

// SetTypeResolver replaces the default ResolveType, which reads __typename.
func (m *MockRuntime) SetTypeResolver(f func(value any) (string, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typeOf = f
}

// SetSerializer replaces the default SerializeLeafValue, which returns the
// value unchanged.
func (m *MockRuntime) SetSerializer(f func(typeName string, value any) (any, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.serialize = f
}

func (m *MockRuntime) resolve(ctx context.Context, call Call) (any, error) {
	m.mu.Lock()
	r := m.resolvers[call.ObjectType+"."+call.Field]
	m.calls = append(m.calls, call)
	m.mu.Unlock()
	if r != nil {
		return r(ctx, call.Source, call.Args)
	}
	if obj, ok := call.Source.(map[string]any); ok {
		return obj[call.Field], nil
	}
	return nil, nil
}

func (m *MockRuntime) ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error) {
	return m.resolve(ctx, Call{Kind: CallKindSync, ObjectType: objectType, Field: field, Source: source, Args: args})
}

func (m *MockRuntime) BatchResolveAsync(ctx context.Context, tasks []AsyncResolveTask) []AsyncResolveResult {
	m.mu.Lock()
	m.batches++
	batch := m.batches
	m.mu.Unlock()

	results := make([]AsyncResolveResult, len(tasks))
	for i, t := range tasks {
		v, err := m.resolve(ctx, Call{Kind: CallKindAsync, ObjectType: t.ObjectType, Field: t.Field, Source: t.Source, Args: t.Args, Batch: batch})
		results[i] = AsyncResolveResult{Value: v, Error: err}
	}
	return results
}

func (m *MockRuntime) Subscribe(ctx context.Context, objectType string, field string, args map[string]any) (<-chan any, error) {
	m.mu.Lock()
	sub := m.subscriptions[objectType+"."+field]
	m.calls = append(m.calls, Call{Kind: CallKindSubscribe, ObjectType: objectType, Field: field, Args: args})
	m.mu.Unlock()
	if sub == nil {
		return nil, fmt.Errorf("no subscription for %s.%s", objectType, field)
	}
	return sub(ctx, args)
}

func (m *MockRuntime) ResolveType(_ context.Context, _ string, value any) (string, error) {
	m.mu.Lock()
	f := m.typeOf
	m.mu.Unlock()
	if f != nil {
		return f(value)
	}
	if obj, ok := value.(map[string]any); ok {
		if name, ok := obj["__typename"].(string); ok {
			return name, nil
		}
	}
	return "", fmt.Errorf("cannot resolve type of %T", value)
}

func (m *MockRuntime) SerializeLeafValue(_ context.Context, typeName string, value any) (any, error) {
	m.mu.Lock()
	f := m.serialize
	m.mu.Unlock()
	if f != nil {
		return f(typeName, value)
	}
	return value, nil
}

// GetCalls returns the recorded calls in order.
func (m *MockRuntime) GetCalls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// Reset forgets recorded calls; resolvers stay.
func (m *MockRuntime) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.batches = 0
}

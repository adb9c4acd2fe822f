// Package eventbus is a typed in-process dispatcher. Components publish
// lifecycle events and observers such as tracing and metrics subscribe to
// the types they care about. Dispatch is synchronous.
package eventbus

import (
	"context"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"
)

// Handler processes events of type T.
type Handler[T any] func(context.Context, T)

type handler struct {
	fn func(context.Context, any)
}

// Bus routes events by their static type. The zero value is not usable;
// call New.
type Bus struct {
	mu sync.RWMutex
	// Slices are replaced, never mutated, so emit can iterate a snapshot
	// without holding the lock.
	byType map[reflect.Type][]*handler
}

func New() *Bus { return &Bus{byType: make(map[reflect.Type][]*handler)} }

func (b *Bus) add(t reflect.Type, fn func(context.Context, any)) func() {
	h := &handler{fn: fn}
	b.mu.Lock()
	b.byType[t] = append(slices.Clip(b.byType[t]), h)
	b.mu.Unlock()

	return sync.OnceFunc(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		rest := slices.DeleteFunc(slices.Clone(b.byType[t]), func(x *handler) bool { return x == h })
		if len(rest) == 0 {
			delete(b.byType, t)
			return
		}
		b.byType[t] = rest
	})
}

// emit calls the handlers registered for t in subscription order.
func (b *Bus) emit(ctx context.Context, t reflect.Type, e any) {
	b.mu.RLock()
	hs := b.byType[t]
	b.mu.RUnlock()
	for _, h := range hs {
		h.fn(ctx, e)
	}
}

var global atomic.Pointer[Bus]

// Use installs b as the process bus. nil turns publishing off.
func Use(b *Bus) { global.Store(b) }

// Subscribe registers h on the process bus and returns a function removing
// it again. Without a bus nothing is registered.
func Subscribe[T any](h Handler[T]) (unsubscribe func()) {
	b := global.Load()
	if b == nil {
		return func() {}
	}
	return b.add(reflect.TypeFor[T](), func(ctx context.Context, v any) { h(ctx, v.(T)) })
}

// Publish dispatches e on the process bus, if any.
func Publish[T any](ctx context.Context, e T) {
	if b := global.Load(); b != nil {
		b.emit(ctx, reflect.TypeFor[T](), e)
	}
}

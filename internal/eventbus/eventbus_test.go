package eventbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type ping struct{ n int }
type pong struct{}

func TestPublishSubscribe(t *testing.T) {
	Use(New())
	defer Use(nil)

	var a, b []int
	unA := Subscribe(func(_ context.Context, e ping) { a = append(a, e.n) })
	unB := Subscribe(func(_ context.Context, e ping) { b = append(b, e.n) })
	pongs := 0
	defer Subscribe(func(context.Context, pong) { pongs++ })()

	Publish(context.Background(), ping{1})
	unA()
	unA()
	Publish(context.Background(), ping{2})
	Publish(context.Background(), pong{})
	unB()
	Publish(context.Background(), ping{3})

	require.Equal(t, []int{1}, a)
	require.Equal(t, []int{1, 2}, b)
	require.Equal(t, 1, pongs)
}

func TestDisabledBus(t *testing.T) {
	Use(nil)
	called := false
	unsubscribe := Subscribe(func(context.Context, ping) { called = true })
	Publish(context.Background(), ping{1})
	unsubscribe()
	require.False(t, called)
}

func TestUnsubscribeDuringDispatch(t *testing.T) {
	Use(New())
	defer Use(nil)

	var calls []string
	var unFirst func()
	unFirst = Subscribe(func(context.Context, ping) {
		calls = append(calls, "first")
		unFirst()
	})
	defer Subscribe(func(context.Context, ping) { calls = append(calls, "second") })()

	Publish(context.Background(), ping{1})
	Publish(context.Background(), ping{2})
	require.Equal(t, []string{"first", "second", "second"}, calls)
}

package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func receive(t *testing.T, ch <-chan any) any {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for payload")
	}
	return nil
}

func requireClosed(t *testing.T, ch <-chan any) {
	t.Helper()
	select {
	case _, ok := <-ch:
		require.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed")
	}
}

func TestMemoryDeliversToTopicSubscribers(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := m.AsyncIterator(ctx, "user.7.updated")
	require.NoError(t, err)
	b, err := m.AsyncIterator(ctx, "user.7.updated")
	require.NoError(t, err)
	other, err := m.AsyncIterator(ctx, "user.8.updated")
	require.NoError(t, err)

	require.NoError(t, m.Publish(ctx, "user.7.updated", map[string]any{"id": "7"}))
	require.Equal(t, map[string]any{"id": "7"}, receive(t, a))
	require.Equal(t, map[string]any{"id": "7"}, receive(t, b))

	select {
	case v := <-other:
		t.Fatalf("unexpected payload %v", v)
	default:
	}

	cancel()
	requireClosed(t, a)
	requireClosed(t, b)
	requireClosed(t, other)
}

func TestMemoryPublishWithoutSubscribers(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Publish(context.Background(), "nobody", 1))
}

func TestMemoryClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewMemory()
	ch, err := m.AsyncIterator(context.Background(), "t")
	require.NoError(t, err)

	require.NoError(t, m.Close())
	requireClosed(t, ch)

	require.ErrorIs(t, m.Close(), ErrClosed)
	_, err = m.AsyncIterator(context.Background(), "t")
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, m.Publish(context.Background(), "t", 1), ErrClosed)
}

func TestMemoryUnsubscribesOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewMemory(WithBuffer(0))
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := m.AsyncIterator(ctx, "t")
	require.NoError(t, err)
	cancel()
	requireClosed(t, ch)

	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return len(m.subs) == 0
	}, time.Second, 10*time.Millisecond)

	// a publish after the subscriber left must not block
	require.NoError(t, m.Publish(context.Background(), "t", 1))
}

func TestContext(t *testing.T) {
	require.Nil(t, FromContext(context.Background()))
	m := NewMemory()
	require.Same(t, m, FromContext(NewContext(context.Background(), m)))
}

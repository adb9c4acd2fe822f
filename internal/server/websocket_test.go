package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	executor "github.com/saihaj/graphql-mesh/internal/executor"
	interpolate "github.com/saihaj/graphql-mesh/internal/interpolate"
)

func dialWS(t *testing.T, h *Handler) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	d := websocket.Dialer{Subprotocols: []string{Subprotocol}}
	conn, resp, err := d.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/graphql", nil)
	require.NoError(t, err)
	require.Equal(t, Subprotocol, resp.Header.Get("Sec-Websocket-Protocol"))
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
}

func next(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func requireClosedWith(t *testing.T, conn *websocket.Conn, code int) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	var ce *websocket.CloseError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, code, ce.Code)
}

func tickRuntime(events ...any) *executor.MockRuntime {
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.hello": executor.NewMockValueResolver("world"),
	})
	rt.SetResolver("Subscription", "tick", func(ctx context.Context, src any, args map[string]any) (any, error) {
		return src, nil
	})
	rt.SetSubscription("Subscription", "tick", executor.NewMockEventSubscriber(events...))
	return rt
}

func TestWebSocketSubscription(t *testing.T) {
	conn := dialWS(t, newTestHandler(t, tickRuntime(1, 2)))
	send(t, conn, `{"type":"connection_init"}`)
	require.Equal(t, msgConnectionAck, next(t, conn).Type)

	send(t, conn, `{"type":"ping"}`)
	require.Equal(t, msgPong, next(t, conn).Type)

	send(t, conn, `{"id":"s1","type":"subscribe","payload":{"query":"subscription { tick }"}}`)
	for _, want := range []string{`{"data":{"tick":1}}`, `{"data":{"tick":2}}`} {
		msg := next(t, conn)
		require.Equal(t, msgNext, msg.Type)
		require.Equal(t, "s1", msg.ID)
		require.JSONEq(t, want, string(msg.Payload))
	}
	msg := next(t, conn)
	require.Equal(t, msgComplete, msg.Type)
	require.Equal(t, "s1", msg.ID)
}

func TestWebSocketQuery(t *testing.T) {
	conn := dialWS(t, newTestHandler(t, tickRuntime()))
	send(t, conn, `{"type":"connection_init"}`)
	next(t, conn)

	send(t, conn, `{"id":"q","type":"subscribe","payload":{"query":"{ hello }"}}`)
	msg := next(t, conn)
	require.Equal(t, msgNext, msg.Type)
	require.JSONEq(t, `{"data":{"hello":"world"}}`, string(msg.Payload))
	require.Equal(t, msgComplete, next(t, conn).Type)
}

func TestWebSocketValidationError(t *testing.T) {
	conn := dialWS(t, newTestHandler(t, tickRuntime()))
	send(t, conn, `{"type":"connection_init"}`)
	next(t, conn)

	send(t, conn, `{"id":"bad","type":"subscribe","payload":{"query":"subscription { nope }"}}`)
	msg := next(t, conn)
	require.Equal(t, msgError, msg.Type)
	var errs []map[string]any
	require.NoError(t, json.Unmarshal(msg.Payload, &errs))
	require.Len(t, errs, 1)
	require.Contains(t, errs[0]["message"], "nope")
}

func TestWebSocketConnectionParams(t *testing.T) {
	rt := tickRuntime()
	got := make(chan map[string]any, 1)
	rt.SetResolver("Query", "hello", func(ctx context.Context, src any, args map[string]any) (any, error) {
		got <- interpolate.ContextValues(ctx)
		return "world", nil
	})
	conn := dialWS(t, newTestHandler(t, rt))
	send(t, conn, `{"type":"connection_init","payload":{"token":"abc"}}`)
	next(t, conn)
	send(t, conn, `{"id":"q","type":"subscribe","payload":{"query":"{ hello }"}}`)
	next(t, conn)

	values := <-got
	require.Equal(t, map[string]any{"token": "abc"}, values["connectionParams"])
}

func TestWebSocketProtocolViolations(t *testing.T) {
	t.Run("subscribe before init", func(t *testing.T) {
		conn := dialWS(t, newTestHandler(t, tickRuntime()))
		send(t, conn, `{"id":"1","type":"subscribe","payload":{"query":"{ hello }"}}`)
		requireClosedWith(t, conn, closeUnauthorized)
	})
	t.Run("double init", func(t *testing.T) {
		conn := dialWS(t, newTestHandler(t, tickRuntime()))
		send(t, conn, `{"type":"connection_init"}`)
		next(t, conn)
		send(t, conn, `{"type":"connection_init"}`)
		requireClosedWith(t, conn, closeTooManyInits)
	})
	t.Run("unknown type", func(t *testing.T) {
		conn := dialWS(t, newTestHandler(t, tickRuntime()))
		send(t, conn, `{"type":"bogus"}`)
		requireClosedWith(t, conn, closeInvalidMessage)
	})
	t.Run("init timeout", func(t *testing.T) {
		conn := dialWS(t, newTestHandler(t, tickRuntime(), WithInitTimeout(50*time.Millisecond)))
		requireClosedWith(t, conn, closeInitTimeout)
	})
}

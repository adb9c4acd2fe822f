package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	eventbus "github.com/saihaj/graphql-mesh/internal/eventbus"
	events "github.com/saihaj/graphql-mesh/internal/events"
	interpolate "github.com/saihaj/graphql-mesh/internal/interpolate"
	language "github.com/saihaj/graphql-mesh/internal/language"
	reqid "github.com/saihaj/graphql-mesh/internal/reqid"
)

// Subprotocol is the WebSocket subprotocol spoken on upgraded connections.
const Subprotocol = "graphql-transport-ws"

// graphql-transport-ws message types.
const (
	msgConnectionInit = "connection_init"
	msgConnectionAck  = "connection_ack"
	msgPing           = "ping"
	msgPong           = "pong"
	msgSubscribe      = "subscribe"
	msgNext           = "next"
	msgError          = "error"
	msgComplete       = "complete"
)

// graphql-transport-ws close codes.
const (
	closeInvalidMessage   = 4400
	closeUnauthorized     = 4401
	closeInitTimeout      = 4408
	closeSubscriberExists = 4409
	closeTooManyInits     = 4429
)

type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type wsSession struct {
	h    *Handler
	conn *websocket.Conn
	log  *zap.Logger

	writeMu sync.Mutex

	mu   sync.Mutex
	subs map[string]context.CancelFunc
	wg   sync.WaitGroup
}

func (h *Handler) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{Subprotocols: []string{Subprotocol}}
	if len(h.opt.CORS.AllowedOrigins) > 0 {
		upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || originAllowed(h.opt.CORS, origin)
		}
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied.
		return
	}
	if conn.Subprotocol() != Subprotocol {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseProtocolError, "unsupported subprotocol"),
			time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}

	ctx, rid := reqid.WithID(context.WithoutCancel(r.Context()), r.Header.Get(reqid.Header))
	ctx = h.withForwardedHeaders(ctx, r.Header)
	s := &wsSession{
		h:    h,
		conn: conn,
		log:  h.opt.Logger.With(zap.String("request_id", rid)),
		subs: make(map[string]context.CancelFunc),
	}
	s.run(ctx)
}

func (s *wsSession) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		s.wg.Wait()
		_ = s.conn.Close()
	}()

	acked := false
	if s.h.opt.InitTimeout > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.h.opt.InitTimeout))
	}
	for {
		var msg wsMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if !acked && isTimeout(err) {
				s.close(closeInitTimeout, "Connection initialisation timeout")
			} else if _, ok := err.(*json.SyntaxError); ok {
				s.close(closeInvalidMessage, "Invalid message received")
			}
			return
		}

		switch msg.Type {
		case msgConnectionInit:
			if acked {
				s.close(closeTooManyInits, "Too many initialisation requests")
				return
			}
			var params map[string]any
			if len(msg.Payload) > 0 {
				_ = json.Unmarshal(msg.Payload, &params)
			}
			if params != nil {
				ctx = interpolate.WithContextValues(ctx, map[string]any{"connectionParams": params})
			}
			acked = true
			_ = s.conn.SetReadDeadline(time.Time{})
			s.write(wsMessage{Type: msgConnectionAck})
		case msgPing:
			s.write(wsMessage{Type: msgPong, Payload: msg.Payload})
		case msgPong:
		case msgSubscribe:
			if !acked {
				s.close(closeUnauthorized, "Unauthorized")
				return
			}
			var req GraphQLRequest
			if msg.ID == "" || json.Unmarshal(msg.Payload, &req) != nil {
				s.close(closeInvalidMessage, "Invalid message received")
				return
			}
			subCtx, subCancel := context.WithCancel(ctx)
			s.mu.Lock()
			if _, dup := s.subs[msg.ID]; dup {
				s.mu.Unlock()
				subCancel()
				s.close(closeSubscriberExists, "Subscriber for "+msg.ID+" already exists")
				return
			}
			s.subs[msg.ID] = subCancel
			s.mu.Unlock()

			s.wg.Add(1)
			go func(id string) {
				defer s.wg.Done()
				s.operate(subCtx, id, req)
			}(msg.ID)
		case msgComplete:
			s.finish(msg.ID)
		default:
			s.close(closeInvalidMessage, "Invalid message received")
			return
		}
	}
}

// operate runs one operation and streams its results. Queries and
// mutations produce a single next message.
func (s *wsSession) operate(ctx context.Context, id string, req GraphQLRequest) {
	defer s.finish(id)
	// Operations multiplexed on one connection need distinct IDs for span
	// bookkeeping.
	if rid, ok := reqid.FromContext(ctx); ok {
		ctx, _ = reqid.WithID(ctx, rid+"/"+id)
	}

	doc, errs := s.h.docs.get(req.Query)
	if len(errs) > 0 {
		s.writePayload(id, msgError, fromLanguageErrors(errs))
		return
	}
	if req.Variables == nil {
		req.Variables = map[string]any{}
	}
	op := doc.Operations.ForName(req.OperationName)
	if op == nil && req.OperationName == "" && len(doc.Operations) == 1 {
		op = doc.Operations[0]
	}
	if op == nil || op.Operation != language.Subscription {
		res := s.h.executeOne(ctx, req)
		if ctx.Err() == nil {
			s.writePayload(id, msgNext, res)
			s.write(wsMessage{ID: id, Type: msgComplete})
		}
		return
	}

	start := time.Now()
	eventbus.Publish(ctx, events.GraphQLStart{Transport: events.TransportWebSocket, Query: req.Query, OperationName: req.OperationName, OperationType: string(op.Operation)})
	var failures []error
	defer func() {
		eventbus.Publish(ctx, events.GraphQLFinish{
			Transport:     events.TransportWebSocket,
			Query:         req.Query,
			OperationName: req.OperationName,
			OperationType: string(op.Operation),
			Errors:        failures,
			Duration:      time.Since(start),
		})
	}()

	stream, immediate := s.h.exec.Subscribe(ctx, doc, req.OperationName, req.Variables)
	if immediate != nil {
		failures = resultErrors(immediate)
		s.writePayload(id, msgError, toSpecResult(immediate).Errors)
		return
	}
	s.log.Debug("subscription started", zap.String("id", id))
	for res := range stream {
		failures = append(failures, resultErrors(res)...)
		s.writePayload(id, msgNext, toSpecResult(res))
	}
	if ctx.Err() == nil {
		s.write(wsMessage{ID: id, Type: msgComplete})
	}
	s.log.Debug("subscription ended", zap.String("id", id))
}

// finish cancels and forgets the operation id.
func (s *wsSession) finish(id string) {
	s.mu.Lock()
	cancel, ok := s.subs[id]
	delete(s.subs, id)
	s.mu.Unlock()
	if ok {
		cancel()
	}
}

func (s *wsSession) writePayload(id, typ string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn("encode websocket payload", zap.Error(err))
		return
	}
	s.write(wsMessage{ID: id, Type: typ, Payload: raw})
}

func (s *wsSession) write(msg wsMessage) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(msg); err != nil {
		s.log.Debug("websocket write", zap.Error(err))
	}
}

func (s *wsSession) close(code int, reason string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
}

func isTimeout(err error) bool {
	te, ok := err.(interface{ Timeout() bool })
	return ok && te.Timeout()
}

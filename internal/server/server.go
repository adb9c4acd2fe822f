package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	eventbus "github.com/saihaj/graphql-mesh/internal/eventbus"
	events "github.com/saihaj/graphql-mesh/internal/events"
	executor "github.com/saihaj/graphql-mesh/internal/executor"
	interpolate "github.com/saihaj/graphql-mesh/internal/interpolate"
	language "github.com/saihaj/graphql-mesh/internal/language"
	reqid "github.com/saihaj/graphql-mesh/internal/reqid"
	schema "github.com/saihaj/graphql-mesh/internal/schema"
)

// Handler is an http.Handler that serves a GraphQL endpoint.
// It parses requests, runs the executor and writes GraphQL-over-HTTP responses.
// WebSocket upgrades are served with the graphql-transport-ws protocol.
type Handler struct {
	exec *executor.Executor
	docs *documentCache
	opt  Options
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout. WebSocket connections are not subject to it.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body, multipart uploads
	// included. 0 means unlimited.
	MaxBodyBytes int64

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions

	// ForwardHeaders lists HTTP headers exposed to operation templates as
	// {context.headers.<lower-case-name>}. Default is none.
	ForwardHeaders []string

	// GraphiQL enables the in-browser IDE when true.
	GraphiQL bool

	// DocumentCacheSize bounds the number of parsed and validated query
	// documents kept in memory.
	DocumentCacheSize int

	// InitTimeout is how long a WebSocket client may wait before sending
	// connection_init.
	InitTimeout time.Duration

	Logger *zap.Logger
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}
func WithForwardHeaders(headers ...string) Option {
	return func(o *Options) { o.ForwardHeaders = headers }
}
func WithDocumentCacheSize(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.DocumentCacheSize = n
		}
	}
}
func WithInitTimeout(d time.Duration) Option { return func(o *Options) { o.InitTimeout = d } }
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

func WithGraphiQL(enable bool) Option { return func(o *Options) { o.GraphiQL = enable } }

// New creates a new GraphQL HTTP handler using the given runtime and schema.
func New(runtime executor.Runtime, sch *schema.Schema, opts ...Option) (*Handler, error) {
	op := Options{
		Timeout:           10 * time.Second,
		GraphiQL:          true,
		DocumentCacheSize: 1024,
		InitTimeout:       10 * time.Second,
		Logger:            zap.NewNop(),
	}
	for _, f := range opts {
		f(&op)
	}
	docs, err := newDocumentCache(sch, op.DocumentCacheSize)
	if err != nil {
		return nil, err
	}
	return &Handler{exec: executor.NewExecutor(runtime, sch), docs: docs, opt: op}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		h.serveWebSocket(w, r)
		return
	}

	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	ctx, rid := reqid.WithID(ctx, r.Header.Get(reqid.Header))
	w.Header().Set(reqid.Header, rid)
	status := http.StatusOK
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: status, Duration: time.Since(start)})
	}()

	if r.Method == http.MethodOptions {
		if len(h.opt.CORS.AllowedOrigins) > 0 {
			setCORSHeaders(w, r, h.opt.CORS)
		}
		status = http.StatusNoContent
		w.WriteHeader(status)
		return
	}

	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		status = http.StatusMethodNotAllowed
		writeJSON(w, status, messageResult("method not allowed"), h.opt.Pretty)
		return
	}

	if r.Method == http.MethodGet && h.opt.GraphiQL && acceptsHTML(r.Header.Get("Accept")) && r.URL.Query().Get("query") == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(graphiqlPage)
		return
	}

	ctx = h.withForwardedHeaders(ctx, r.Header)

	req, batch, bad := parseRequest(w, r, h.opt.MaxBodyBytes)
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}
	if bad != nil {
		status = bad.status
		writeJSON(w, status, messageResult(bad.message), h.opt.Pretty)
		return
	}

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(w, r, h.opt.CORS)
	}

	if batch != nil {
		out := make([]any, len(batch))
		for i := range batch {
			out[i] = h.executeOne(ctx, batch[i])
		}
		writeJSON(w, status, out, h.opt.Pretty)
		return
	}

	res := h.executeOne(ctx, req)
	writeJSON(w, status, res, h.opt.Pretty)
}

// withForwardedHeaders exposes the configured request headers to operation
// templates. Repeated headers are joined with ", ".
func (h *Handler) withForwardedHeaders(ctx context.Context, header http.Header) context.Context {
	if len(h.opt.ForwardHeaders) == 0 {
		return ctx
	}
	forwarded := make(map[string]any, len(h.opt.ForwardHeaders))
	for _, name := range h.opt.ForwardHeaders {
		if v := header.Values(name); len(v) > 0 {
			forwarded[strings.ToLower(name)] = strings.Join(v, ", ")
		}
	}
	return interpolate.WithContextValues(ctx, map[string]any{"headers": forwarded})
}

func (h *Handler) executeOne(ctx context.Context, req GraphQLRequest) any {
	doc, errs := h.docs.get(req.Query)
	if len(errs) > 0 {
		return specResult{Errors: fromLanguageErrors(errs)}
	}

	opDef := doc.Operations.ForName(req.OperationName)
	if opDef == nil && req.OperationName == "" && len(doc.Operations) == 1 {
		opDef = doc.Operations[0]
	}
	opType := ""
	if opDef != nil {
		opType = string(opDef.Operation)
	}
	if opDef != nil && opDef.Operation == language.Subscription {
		return messageResult("subscriptions are only served over WebSocket")
	}

	start := time.Now()
	eventbus.Publish(ctx, events.GraphQLStart{Transport: events.TransportHTTP, Query: req.Query, OperationName: req.OperationName, OperationType: opType})
	result := h.exec.ExecuteRequest(ctx, doc, req.OperationName, req.Variables, nil)
	eventbus.Publish(ctx, events.GraphQLFinish{
		Transport:     events.TransportHTTP,
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: opType,
		Errors:        resultErrors(result),
		Duration:      time.Since(start),
	})
	if len(result.Errors) > 0 {
		return toSpecResult(result)
	}
	return result
}

func resultErrors(res *executor.ExecutionResult) []error {
	errs := make([]error, len(res.Errors))
	for i := range res.Errors {
		errs[i] = res.Errors[i]
	}
	return errs
}

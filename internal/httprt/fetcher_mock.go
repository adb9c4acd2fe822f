package httprt

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
)

// MockHandler produces the response for one recorded request.
type MockHandler func(req *Request) (*Response, error)

// MockFetcher implements Fetcher by delegating to a handler while
// recording every request for inspection. Safe for concurrent use.
type MockFetcher struct {
	mu       sync.Mutex
	handler  MockHandler
	requests []*Request
}

// NewMockFetcher returns a fetcher answering with handler. A nil handler
// answers 200 with an empty JSON object.
func NewMockFetcher(handler MockHandler) *MockFetcher {
	if handler == nil {
		handler = func(*Request) (*Response, error) { return NewMockResponse(http.StatusOK, "{}"), nil }
	}
	return &MockFetcher{handler: handler}
}

// NewStaticMockFetcher answers every request with the same status and body.
func NewStaticMockFetcher(status int, body string) *MockFetcher {
	return NewMockFetcher(func(*Request) (*Response, error) { return NewMockResponse(status, body), nil })
}

func (m *MockFetcher) Fetch(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cp := &Request{Method: req.Method, URL: req.URL, Header: req.Header.Clone()}
	if req.Body != nil {
		cp.Body = append([]byte(nil), req.Body...)
	}
	m.mu.Lock()
	m.requests = append(m.requests, cp)
	m.mu.Unlock()
	return m.handler(cp)
}

// Requests returns a snapshot of the recorded requests.
func (m *MockFetcher) Requests() []*Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// NewMockResponse builds a response with the standard status text.
func NewMockResponse(status int, body string) *Response {
	return &Response{
		Status:     status,
		StatusText: http.StatusText(status),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

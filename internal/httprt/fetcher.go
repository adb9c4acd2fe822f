package httprt

import (
	"context"
	"io"
	"net/http"
)

// Request is a fully built upstream request. Body is nil when the request
// carries no payload.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is an upstream response. The runtime reads Body to completion
// through Text.
type Response struct {
	Status     int
	StatusText string
	Header     http.Header
	Body       io.ReadCloser
}

// Text reads and closes the body.
func (r *Response) Text() (string, error) {
	if r.Body == nil {
		return "", nil
	}
	defer r.Body.Close()
	b, err := io.ReadAll(r.Body)
	return string(b), err
}

// Fetcher sends upstream requests. Implementations must be safe for
// concurrent use: the runtime issues the requests of one execution depth in
// parallel. Timeouts and cancellation are the fetcher's responsibility.
//
// Provided implementations:
//   - internal/httptp.Transport: net/http client with compression and auth
//   - MockFetcher: test double recording requests
type Fetcher interface {
	Fetch(ctx context.Context, req *Request) (*Response, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, req *Request) (*Response, error)

func (f FetcherFunc) Fetch(ctx context.Context, req *Request) (*Response, error) { return f(ctx, req) }

type fetcherKey struct{}

// NewFetcherContext returns a context whose fetcher overrides the runtime
// default for requests made on its behalf.
func NewFetcherContext(ctx context.Context, f Fetcher) context.Context {
	return context.WithValue(ctx, fetcherKey{}, f)
}

// FetcherFromContext returns the fetcher attached with NewFetcherContext, or nil.
func FetcherFromContext(ctx context.Context) Fetcher {
	f, _ := ctx.Value(fetcherKey{}).(Fetcher)
	return f
}

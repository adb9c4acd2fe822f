package httptp

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	eventbus "github.com/saihaj/graphql-mesh/internal/eventbus"
	events "github.com/saihaj/graphql-mesh/internal/events"
	"github.com/saihaj/graphql-mesh/internal/httprt"
)

const (
	acceptEncodingHeader  = "Accept-Encoding"
	contentEncodingHeader = "Content-Encoding"

	encodingGzip    = "gzip"
	encodingDeflate = "deflate"
	encodingBrotli  = "br"
)

// Transport is the net/http fetch capability. It negotiates compressed
// responses, applies a default deadline and publishes FetchStart and
// FetchFinish events around each request.
type Transport struct {
	opts   *Options
	client *http.Client
	closed atomic.Bool
}

func New(opts ...Option) *Transport {
	o := defaultOptions()
	for _, f := range opts {
		f(o)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	client := o.Client
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: o.MaxIdleConnsPerHost,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	if o.OAuth2 != nil {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, client)
		client = oauth2.NewClient(ctx, o.OAuth2.TokenSource(ctx))
	}
	return &Transport{opts: o, client: client}
}

// Ensure we satisfy httprt.Fetcher
var _ httprt.Fetcher = (*Transport)(nil)

// Fetch sends req. The response body must be closed by the caller; closing
// it also releases the default deadline.
func (t *Transport) Fetch(ctx context.Context, req *httprt.Request) (*httprt.Response, error) {
	if t.closed.Load() {
		return nil, ErrClosed
	}

	cancel := context.CancelFunc(func() {})
	if _, ok := ctx.Deadline(); !ok && t.opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, t.opts.Timeout)
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	hreq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		cancel()
		return nil, err
	}
	if req.Header != nil {
		hreq.Header = req.Header.Clone()
	}
	if hreq.Header.Get(acceptEncodingHeader) == "" {
		hreq.Header.Set(acceptEncodingHeader, encodingGzip+", "+encodingDeflate+", "+encodingBrotli)
	}
	if t.opts.UserAgent != "" && hreq.Header.Get("User-Agent") == "" {
		hreq.Header.Set("User-Agent", t.opts.UserAgent)
	}

	id := uuid.NewString()
	start := time.Now()
	eventbus.Publish(ctx, events.FetchStart{ID: id, Method: req.Method, URL: req.URL})
	resp, err := t.client.Do(hreq)
	if err != nil {
		cancel()
		eventbus.Publish(ctx, events.FetchFinish{ID: id, Method: req.Method, URL: req.URL, Err: err, Duration: time.Since(start)})
		return nil, err
	}
	decoded, err := decodeBody(resp)
	if err != nil {
		resp.Body.Close()
		cancel()
		eventbus.Publish(ctx, events.FetchFinish{ID: id, Method: req.Method, URL: req.URL, Status: resp.StatusCode, Err: err, Duration: time.Since(start)})
		return nil, err
	}
	eventbus.Publish(ctx, events.FetchFinish{ID: id, Method: req.Method, URL: req.URL, Status: resp.StatusCode, Duration: time.Since(start)})
	t.opts.Logger.Debug("upstream response",
		zap.String("id", id),
		zap.String("method", req.Method),
		zap.String("url", req.URL),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	return &httprt.Response{
		Status:     resp.StatusCode,
		StatusText: statusText(resp),
		Header:     resp.Header,
		Body:       &responseBody{ReadCloser: decoded, raw: resp.Body, cancel: cancel},
	}, nil
}

func (t *Transport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	t.client.CloseIdleConnections()
	return nil
}

// ---------------- internals ----------------

// decodeBody undoes the response's Content-Encoding. Closing the returned
// reader does not close resp.Body. Responses that carry no body keep it
// undecoded, whatever encoding their headers announce.
func decodeBody(resp *http.Response) (io.ReadCloser, error) {
	if bodyless(resp) {
		resp.Header.Del(contentEncodingHeader)
		return io.NopCloser(resp.Body), nil
	}
	var r io.ReadCloser
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get(contentEncodingHeader))) {
	case encodingGzip:
		gz, err := gzip.NewReader(resp.Body)
		switch {
		case errors.Is(err, io.EOF):
			r = io.NopCloser(http.NoBody)
		case err != nil:
			return nil, err
		default:
			r = gz
		}
	case encodingDeflate:
		r = flate.NewReader(resp.Body)
	case encodingBrotli:
		r = io.NopCloser(brotli.NewReader(resp.Body))
	default:
		return io.NopCloser(resp.Body), nil
	}
	resp.Header.Del(contentEncodingHeader)
	resp.Header.Del("Content-Length")
	return r, nil
}

func bodyless(resp *http.Response) bool {
	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusNotModified:
		return true
	}
	return resp.Request != nil && resp.Request.Method == http.MethodHead
}

type responseBody struct {
	io.ReadCloser
	raw    io.ReadCloser
	cancel context.CancelFunc
}

func (b *responseBody) Close() error {
	_ = b.ReadCloser.Close()
	err := b.raw.Close()
	b.cancel()
	return err
}

// statusText returns the reason phrase the server sent, falling back to
// the standard text for the code.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		return http.StatusText(resp.StatusCode)
	}
	return text
}

package httprt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/saihaj/graphql-mesh/internal/interpolate"
	"github.com/saihaj/graphql-mesh/internal/opreg"
	schema "github.com/saihaj/graphql-mesh/internal/schema"
)

// execute runs one HTTP-backed field invocation end to end. Every failure
// is returned as *Error.
func (r *Runtime) execute(ctx context.Context, op *opreg.HTTPOperation, source any, args map[string]any) (any, error) {
	logger := r.opts.Logger.Named(op.Name())
	logger.Debug("resolving", zap.Any("args", args))

	req, err := r.buildRequest(op, r.sources(ctx, op.GetBinding(), source, args), args)
	if err != nil {
		return nil, err
	}
	fail := func(message string, ext map[string]any) error {
		ext["url"] = req.URL
		ext["method"] = req.Method
		return &Error{Message: message, Details: ext}
	}

	fetcher := FetcherFromContext(ctx)
	if fetcher == nil {
		fetcher = r.opts.Fetcher
	}
	if fetcher == nil {
		return nil, fail(msgNoFetch, map[string]any{})
	}

	logger.Debug("fetching", zap.String("method", req.Method), zap.String("url", req.URL), zap.Int("bodyBytes", len(req.Body)))
	resp, err := fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, fail(msgRequestFailed, map[string]any{"cause": err.Error()})
	}
	text, err := resp.Text()
	if err != nil {
		return nil, fail(msgRequestFailed, map[string]any{"cause": err.Error()})
	}
	logger.Debug("received", zap.Int("status", resp.Status), zap.Int("bytes", len(text)))

	data, err := decodeJSON(text)
	if err != nil {
		if r.namedKind(op.ReturnType) == schema.TypeKindScalar {
			logger.Debug("response is not JSON, returning text for scalar field")
			return text, nil
		}
		return nil, fail(msgUnexpectedResponse, map[string]any{"responseText": text, "cause": err.Error()})
	}

	if resp.Status < 200 || resp.Status > 299 {
		// Union fields receive error bodies as data so a member type can
		// describe them.
		if r.namedKind(op.ReturnType) != schema.TypeKindUnion {
			ext := map[string]any{"status": resp.Status, "responseJson": data}
			if resp.StatusText != "" {
				ext["statusText"] = resp.StatusText
			}
			return nil, fail(fmt.Sprintf("HTTP Error: %d", resp.Status), ext)
		}
	}

	shaped := Reconcile(op.ReturnType, data)
	if _, wasList := data.([]any); wasList != schema.IsList(op.ReturnType) {
		logger.Debug("normalized response cardinality", zap.Bool("listReturnType", schema.IsList(op.ReturnType)))
	}
	return AttachResponseMetadata(shaped, ResponseMetadata{
		URL:        req.URL,
		Method:     req.Method,
		Status:     resp.Status,
		StatusText: resp.StatusText,
	}), nil
}

// decodeJSON parses exactly one JSON value, keeping numbers as json.Number.
func decodeJSON(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("unexpected end of JSON input")
		}
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("invalid character after top-level value")
	}
	return v, nil
}

func (r *Runtime) namedKind(ref *schema.TypeRef) schema.TypeKind {
	if ref == nil {
		return ""
	}
	if t := r.schema.Types[ref.GetNamedType()]; t != nil {
		return t.Kind
	}
	return ""
}

// sources is the interpolation bag of one invocation.
func (r *Runtime) sources(ctx context.Context, b *opreg.Binding, source any, args map[string]any) interpolate.Sources {
	info := map[string]any{
		"fieldName":  b.Field,
		"parentType": b.ObjectType,
	}
	if b.ReturnType != nil {
		info["returnType"] = b.ReturnType.GetNamedType()
	}
	return interpolate.Sources{
		Root:    source,
		Args:    args,
		Context: interpolate.ContextValues(ctx),
		Info:    info,
		Env:     r.opts.Env,
	}
}

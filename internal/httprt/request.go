package httprt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/saihaj/graphql-mesh/internal/interpolate"
	"github.com/saihaj/graphql-mesh/internal/opreg"
)

type encoding int

const (
	encodeQuery encoding = iota
	encodeBody
	encodeUnknown
)

func encodingFor(method string) encoding {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodConnect, http.MethodOptions, http.MethodTrace:
		return encodeQuery
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return encodeBody
	}
	return encodeUnknown
}

const formContentType = "application/x-www-form-urlencoded"

// buildRequest resolves one invocation of op into a request. The result is
// not modified after it is returned.
func (r *Runtime) buildRequest(op *opreg.HTTPOperation, src interpolate.Sources, args map[string]any) (*Request, error) {
	method := op.Method
	url := joinURL(interpolate.Render(op.BaseURL, src), interpolate.Render(op.Path, src))

	header := make(http.Header, len(op.Headers))
	for name, tmpl := range op.Headers {
		header.Set(name, interpolate.Render(tmpl, src))
	}

	enc := encodingFor(method)
	if enc == encodeUnknown {
		return nil, &Error{
			Message: "Unknown HTTP Method: " + method,
			Details: map[string]any{"url": url, "method": method},
		}
	}

	req := &Request{Method: method, Header: header}
	if op.Binary {
		if input := args["input"]; input != nil {
			upload, ok := asUpload(input)
			if !ok {
				return nil, &Error{
					Message: fmt.Sprintf("Expected a file upload for %s, got %T", op.Name(), input),
					Details: map[string]any{"url": url, "method": method},
				}
			}
			body, mime, err := readUpload(upload, r.opts.MaxUploadBytes)
			if err != nil {
				return nil, &Error{
					Message: "Upload failed",
					Details: map[string]any{"url": url, "method": method, "cause": err.Error()},
				}
			}
			req.Body = body
			if header.Get("Content-Type") == "" && mime != "" {
				header.Set("Content-Type", mime)
			}
		}
		req.URL = cleanQuery(url)
		return req, nil
	}

	input := args["input"]
	if len(op.RequestBaseBody) > 0 {
		var err error
		if input, err = applyBaseBody(input, op.RequestBaseBody, src); err != nil {
			return nil, &Error{
				Message: "Invalid request body",
				Details: map[string]any{"url": url, "method": method, "cause": err.Error()},
			}
		}
	}
	input = r.union.ResolveInput(CleanObject(input), op.InputType)

	if input != nil {
		switch enc {
		case encodeQuery:
			if q := StringifyQuery(input); q != "" {
				if strings.Contains(url, "?") {
					url += "&" + q
				} else {
					url += "?" + q
				}
			}
		case encodeBody:
			if strings.HasPrefix(header.Get("Content-Type"), formContentType) {
				req.Body = []byte(StringifyQuery(input))
				break
			}
			body, err := encodeJSON(input)
			if err != nil {
				return nil, &Error{
					Message: "Invalid request body",
					Details: map[string]any{"url": url, "method": method, "cause": err.Error()},
				}
			}
			req.Body = body
			if header.Get("Content-Type") == "" {
				header.Set("Content-Type", "application/json")
			}
		}
	}
	req.URL = cleanQuery(url)
	return req, nil
}

// applyBaseBody fills defaults into a copy of input. Keys are dotted paths.
// A default only lands where the path holds no value; string defaults are
// interpolated first. Inputs that are neither nil nor objects are returned
// as is.
func applyBaseBody(input any, base map[string]any, src interpolate.Sources) (any, error) {
	doc := "{}"
	switch input.(type) {
	case nil:
	case map[string]any:
		raw, err := json.Marshal(input)
		if err != nil {
			return nil, err
		}
		doc = string(raw)
	default:
		return input, nil
	}
	for _, path := range sortedKeys(base) {
		if res := gjson.Get(doc, path); res.Exists() && res.Type != gjson.Null {
			continue
		}
		value := base[path]
		if s, ok := value.(string); ok {
			value = interpolate.Render(s, src)
		}
		var err error
		if doc, err = sjson.Set(doc, path, value); err != nil {
			return nil, fmt.Errorf("set %q: %w", path, err)
		}
	}
	dec := json.NewDecoder(strings.NewReader(doc))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// joinURL joins a base URL and a path with exactly one separator between
// them and collapses repeated slashes outside the scheme.
func joinURL(base, path string) string {
	var joined string
	switch {
	case base == "":
		joined = path
	case path == "":
		joined = base
	case strings.HasPrefix(path, "?"):
		joined = strings.TrimRight(base, "/") + path
	default:
		joined = strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
	}
	return collapseSlashes(joined)
}

func collapseSlashes(u string) string {
	head, query, hasQuery := strings.Cut(u, "?")
	scheme := ""
	if i := strings.Index(head, "://"); i >= 0 {
		scheme, head = head[:i+3], head[i+3:]
	}
	for strings.Contains(head, "//") {
		head = strings.ReplaceAll(head, "//", "/")
	}
	out := scheme + head
	if hasQuery {
		out += "?" + query
	}
	return out
}

// cleanQuery re-encodes the query component without empty parameters, such
// as those left by placeholders that resolved to nothing. A query that
// encodes to nothing is dropped with its "?".
func cleanQuery(u string) string {
	path, query, ok := strings.Cut(u, "?")
	if !ok {
		return u
	}
	if query == "" {
		return path
	}
	q := StringifyQuery(CleanObject(dropEmpty(ParseQuery(query))))
	if q == "" {
		return path
	}
	return path + "?" + q
}

// dropEmpty replaces empty strings with nil so CleanObject removes them.
func dropEmpty(v any) any {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
	case map[string]any:
		for k, e := range t {
			t[k] = dropEmpty(e)
		}
	case []any:
		for i, e := range t {
			t[i] = dropEmpty(e)
		}
	}
	return v
}

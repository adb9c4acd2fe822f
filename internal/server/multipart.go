package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	httprt "github.com/saihaj/graphql-mesh/internal/httprt"
)

// multipartMemory is the part of a multipart body kept in memory; the rest
// spills to temporary files removed after the request.
const multipartMemory = 32 << 20

// parseMultipart decodes a GraphQL multipart request: an "operations" field
// holding one request or a batch, a "map" field assigning file parts to
// variable paths, and the file parts themselves. Files become
// *httprt.Upload values in the variables.
func parseMultipart(w http.ResponseWriter, r *http.Request, maxBody int64) (GraphQLRequest, []GraphQLRequest, *badRequest) {
	if maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if isTooLarge(err) {
			return GraphQLRequest{}, nil, errTooLarge
		}
		return GraphQLRequest{}, nil, invalid("invalid multipart body")
	}
	form := r.MultipartForm

	rawOps := form.Value["operations"]
	if len(rawOps) == 0 {
		return GraphQLRequest{}, nil, invalid("missing 'operations' field")
	}
	var ops any
	if err := json.Unmarshal([]byte(rawOps[0]), &ops); err != nil {
		return GraphQLRequest{}, nil, invalid("invalid 'operations' JSON")
	}

	mapping := map[string][]string{}
	if raw := form.Value["map"]; len(raw) > 0 {
		if err := json.Unmarshal([]byte(raw[0]), &mapping); err != nil {
			return GraphQLRequest{}, nil, invalid("invalid 'map' JSON")
		}
	}
	keys := make([]string, 0, len(mapping))
	for k := range mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		files := form.File[key]
		if len(files) == 0 {
			return GraphQLRequest{}, nil, invalid("missing file part %q", key)
		}
		fh := files[0]
		for _, path := range mapping[key] {
			f, err := fh.Open()
			if err != nil {
				return GraphQLRequest{}, nil, invalid("failed to open file part %q", key)
			}
			up := &httprt.Upload{File: f, Filename: fh.Filename, MimeType: fh.Header.Get("Content-Type")}
			if err := setPath(ops, strings.Split(path, "."), up); err != nil {
				_ = f.Close()
				return GraphQLRequest{}, nil, invalid("invalid map path %q: %v", path, err)
			}
		}
	}

	switch v := ops.(type) {
	case map[string]any:
		req, err := requestFromMap(v)
		if err != nil {
			return GraphQLRequest{}, nil, err
		}
		return req, nil, nil
	case []any:
		if len(v) == 0 {
			return GraphQLRequest{}, nil, invalid("empty batch")
		}
		batch := make([]GraphQLRequest, len(v))
		for i, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return GraphQLRequest{}, nil, invalid("invalid 'operations' JSON")
			}
			req, err := requestFromMap(m)
			if err != nil {
				return GraphQLRequest{}, nil, err
			}
			batch[i] = req
		}
		return GraphQLRequest{}, batch, nil
	}
	return GraphQLRequest{}, nil, invalid("invalid 'operations' JSON")
}

func requestFromMap(m map[string]any) (GraphQLRequest, *badRequest) {
	var req GraphQLRequest
	req.Query, _ = m["query"].(string)
	req.OperationName, _ = m["operationName"].(string)
	req.Variables, _ = m["variables"].(map[string]any)
	req.Extensions, _ = m["extensions"].(map[string]any)
	return checked(req)
}

// setPath replaces the value at the dotted path below root. List elements
// are addressed by index.
func setPath(root any, path []string, v any) error {
	if len(path) == 0 {
		return fmt.Errorf("empty path")
	}
	cur := root
	for i, seg := range path {
		last := i == len(path)-1
		switch c := cur.(type) {
		case map[string]any:
			if last {
				c[seg] = v
				return nil
			}
			next, ok := c[seg]
			if !ok {
				return fmt.Errorf("no value at %q", seg)
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(c) {
				return fmt.Errorf("index %q out of range", seg)
			}
			if last {
				c[idx] = v
				return nil
			}
			cur = c[idx]
		default:
			return fmt.Errorf("cannot descend into %q", seg)
		}
	}
	return nil
}

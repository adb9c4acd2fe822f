package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
)

// GraphQLRequest is one operation of a request body.
type GraphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

// badRequest rejects a request before any operation runs.
type badRequest struct {
	status  int
	message string
}

func invalid(format string, args ...any) *badRequest {
	return &badRequest{status: http.StatusBadRequest, message: fmt.Sprintf(format, args...)}
}

var errTooLarge = &badRequest{status: http.StatusRequestEntityTooLarge, message: "body too large"}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

// parseRequest reads a GET query string or a POST body. A POST body holding
// a JSON array is a batch and comes back as the second result.
func parseRequest(w http.ResponseWriter, r *http.Request, maxBody int64) (GraphQLRequest, []GraphQLRequest, *badRequest) {
	if r.Method == http.MethodGet {
		req, bad := fromQueryString(r.URL.Query())
		return req, nil, bad
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		return parseMultipart(w, r, maxBody)
	case "", "application/json", "application/graphql":
	default:
		return GraphQLRequest{}, nil, invalid("unsupported Content-Type %q", mediaType)
	}

	if maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		if isTooLarge(err) {
			return GraphQLRequest{}, nil, errTooLarge
		}
		return GraphQLRequest{}, nil, invalid("failed to read body")
	}
	if mediaType == "application/graphql" {
		req, bad := checked(GraphQLRequest{Query: string(body)})
		return req, nil, bad
	}

	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var batch []GraphQLRequest
		if err := json.Unmarshal(body, &batch); err != nil {
			return GraphQLRequest{}, nil, invalid("invalid JSON")
		}
		if len(batch) == 0 {
			return GraphQLRequest{}, nil, invalid("empty batch")
		}
		return GraphQLRequest{}, batch, nil
	}
	var req GraphQLRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return GraphQLRequest{}, nil, invalid("invalid JSON")
	}
	req, bad := checked(req)
	return req, nil, bad
}

func fromQueryString(q url.Values) (GraphQLRequest, *badRequest) {
	req := GraphQLRequest{Query: q.Get("query"), OperationName: q.Get("operationName")}
	for param, dst := range map[string]*map[string]any{"variables": &req.Variables, "extensions": &req.Extensions} {
		if raw := q.Get(param); raw != "" {
			if err := json.Unmarshal([]byte(raw), dst); err != nil {
				return GraphQLRequest{}, invalid("invalid '%s' JSON", param)
			}
		}
	}
	return checked(req)
}

func checked(req GraphQLRequest) (GraphQLRequest, *badRequest) {
	if req.Query == "" {
		return GraphQLRequest{}, invalid("missing 'query'")
	}
	if req.Variables == nil {
		req.Variables = map[string]any{}
	}
	return req, nil
}

package server

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"

	executor "github.com/saihaj/graphql-mesh/internal/executor"
	language "github.com/saihaj/graphql-mesh/internal/language"
)

// specResult is the wire form of a response. It differs from
// executor.ExecutionResult by carrying locations and JSON-friendly paths.
type specResult struct {
	Data   any         `json:"data"`
	Errors []specError `json:"errors,omitempty"`
}

type specError struct {
	Message    string         `json:"message"`
	Locations  []specLocation `json:"locations,omitempty"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

type specLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// messageResult is a response with a single located-nowhere error.
func messageResult(message string) specResult {
	return specResult{Errors: []specError{{Message: message}}}
}

// fromLanguageErrors converts parse and validation errors.
func fromLanguageErrors(list language.ErrorList) []specError {
	out := make([]specError, 0, len(list))
	for _, e := range list {
		se := specError{Message: e.Message, Extensions: e.Extensions}
		for _, loc := range e.Locations {
			se.Locations = append(se.Locations, specLocation{Line: loc.Line, Column: loc.Column})
		}
		out = append(out, se)
	}
	return out
}

// toSpecResult keeps partial data next to the errors.
func toSpecResult(res *executor.ExecutionResult) specResult {
	out := specResult{Data: res.Data}
	for _, e := range res.Errors {
		se := specError{Message: e.Message, Extensions: e.Extensions}
		for _, loc := range e.Locations {
			se.Locations = append(se.Locations, specLocation{Line: loc.Line, Column: loc.Column})
		}
		for _, seg := range e.Path {
			switch seg.(type) {
			case string, int:
				se.Path = append(se.Path, seg)
			default:
				b, _ := json.Marshal(seg)
				se.Path = append(se.Path, string(b))
			}
		}
		out.Errors = append(out.Errors, se)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

func originAllowed(opts CORSOptions, origin string) bool {
	return slices.Contains(opts.AllowedOrigins, "*") || slices.Contains(opts.AllowedOrigins, origin)
}

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" || !originAllowed(opts, origin) {
		return
	}
	if slices.Contains(opts.AllowedOrigins, "*") {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	}
}

// acceptsHTML reports whether a browser-style Accept header asks for HTML.
func acceptsHTML(accept string) bool {
	for _, part := range strings.Split(accept, ",") {
		mediaType, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		if mediaType == "text/html" || mediaType == "*/*" {
			return true
		}
	}
	return false
}

package executor

import (
	"errors"

	language "github.com/saihaj/graphql-mesh/internal/language"
)

// Location is a line and column in the query document, both 1-based.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// GraphQLError is one entry of a response's errors list.
type GraphQLError struct {
	Message    string         `json:"message"`
	Locations  []Location     `json:"locations,omitempty"`
	Path       Path           `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e GraphQLError) Error() string {
	return e.Message
}

// ExecutionResult is the outcome of one operation. Data is nil when the
// operation could not start or a non-null root field failed.
type ExecutionResult struct {
	Data   any            `json:"data"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

// ExtendedError is implemented by runtime errors that carry structured
// details. The executor copies Extensions into the located GraphQLError.
type ExtendedError interface {
	error
	Extensions() map[string]any
}

// NewFieldError converts err into a GraphQLError located at path.
func NewFieldError(err error, path Path) GraphQLError {
	ge := GraphQLError{Message: err.Error(), Path: path}
	var ext ExtendedError
	if errors.As(err, &ext) {
		ge.Message = ext.Error()
		if m := ext.Extensions(); len(m) > 0 {
			ge.Extensions = make(map[string]any, len(m))
			for k, v := range m {
				ge.Extensions[k] = v
			}
		}
	}
	return ge
}

func requestError(message string) *ExecutionResult {
	return &ExecutionResult{Errors: []GraphQLError{{Message: message}}}
}

func locationsOf(nodes []*language.Field) []Location {
	var out []Location
	for _, n := range nodes {
		if n.Position != nil {
			out = append(out, Location{Line: n.Position.Line, Column: n.Position.Column})
		}
	}
	return out
}

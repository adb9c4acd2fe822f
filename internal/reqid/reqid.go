// Package reqid carries a per-request identifier through contexts.
package reqid

import (
	"context"

	"github.com/google/uuid"
)

// Header is the HTTP header an inbound request ID is read from and echoed to.
const Header = "X-Request-Id"

// maxLen bounds IDs accepted from clients.
const maxLen = 128

// key is the context key for the request ID.
type key struct{}

// NewContext returns a copy of parent with a new random request ID stored.
// It also returns the generated ID.
func NewContext(parent context.Context) (context.Context, string) {
	return WithID(parent, "")
}

// WithID stores id in parent. An empty or oversized id is replaced by a
// generated one.
func WithID(parent context.Context, id string) (context.Context, string) {
	if id == "" || len(id) > maxLen {
		id = uuid.NewString()
	}
	return context.WithValue(parent, key{}, id), id
}

// FromContext extracts the request ID from ctx.
// It returns the ID and whether it was present.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(key{}).(string)
	return id, ok
}

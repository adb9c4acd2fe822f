package httprt

import schema "github.com/saihaj/graphql-mesh/internal/schema"

// ResponseKey is the field under which response metadata is attached.
const ResponseKey = "__response"

// ResponseMetadata describes the upstream exchange that produced a value.
type ResponseMetadata struct {
	URL        string
	Method     string
	Status     int
	StatusText string
}

// Map renders the metadata as the object exposed under ResponseKey.
func (m ResponseMetadata) Map() map[string]any {
	return map[string]any{
		"url":        m.URL,
		"method":     m.Method,
		"status":     m.Status,
		"statusText": m.StatusText,
	}
}

// Reconcile corrects the cardinality of a decoded response against the
// declared return type. A list type wraps any non-array value, nil
// included. A non-list type takes the first element of a list (nil when
// empty).
func Reconcile(returnType *schema.TypeRef, v any) any {
	items, isArray := v.([]any)
	isList := schema.IsList(returnType)
	switch {
	case isList && !isArray:
		return []any{v}
	case !isList && isArray:
		if len(items) == 0 {
			return nil
		}
		return items[0]
	}
	return v
}

// AttachResponseMetadata returns v with meta added under ResponseKey: to
// each element of a list, or to v itself. Objects are copied, never
// modified. Non-object values are returned unchanged.
func AttachResponseMetadata(v any, meta ResponseMetadata) any {
	if items, ok := v.([]any); ok {
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = attachOne(item, meta)
		}
		return out
	}
	return attachOne(v, meta)
}

func attachOne(v any, meta ResponseMetadata) any {
	obj, ok := v.(map[string]any)
	if !ok {
		return v
	}
	out := make(map[string]any, len(obj)+1)
	for k, e := range obj {
		out[k] = e
	}
	out[ResponseKey] = meta.Map()
	return out
}

package interpolate

import (
	"context"
	"net/http"
	"reflect"
	"strconv"
	"strings"
)

// Source names accepted as the first placeholder segment.
const (
	SourceRoot    = "root"
	SourceArgs    = "args"
	SourceContext = "context"
	SourceInfo    = "info"
	SourceEnv     = "env"
)

// Sources is the read-only bag of values one invocation exposes to templates.
type Sources struct {
	Root    any
	Args    map[string]any
	Context map[string]any
	Info    map[string]any
	Env     map[string]string
}

// Lookuper lets a value resolve path segments itself.
type Lookuper interface {
	Lookup(key string) (any, bool)
}

// Lookup resolves a dotted path such as "args.input.id". It reports false
// when the source is unknown or any segment is missing.
func (s Sources) Lookup(path string) (any, bool) {
	source, rest, _ := strings.Cut(path, ".")
	var v any
	switch source {
	case SourceRoot:
		v = s.Root
	case SourceArgs:
		v = s.Args
	case SourceContext:
		v = s.Context
	case SourceInfo:
		v = s.Info
	case SourceEnv:
		v = s.Env
	default:
		return nil, false
	}
	if rest == "" {
		return v, !isNil(v)
	}
	for _, key := range strings.Split(rest, ".") {
		next, ok := step(v, key)
		if !ok {
			return nil, false
		}
		v = next
	}
	return v, true
}

func step(v any, key string) (any, bool) {
	switch m := v.(type) {
	case nil:
		return nil, false
	case map[string]any:
		x, ok := m[key]
		return x, ok
	case map[string]string:
		x, ok := m[key]
		return x, ok
	case http.Header:
		if vs := m.Values(key); len(vs) > 0 {
			return vs[0], true
		}
		return nil, false
	case map[string][]string:
		if vs := m[key]; len(vs) > 0 {
			return vs[0], true
		}
		return nil, false
	case []any:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(m) {
			return nil, false
		}
		return m[i], true
	case Lookuper:
		return m.Lookup(key)
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		x := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !x.IsValid() {
			return nil, false
		}
		return x.Interface(), true
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= rv.Len() {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	case reflect.Struct:
		f := rv.FieldByNameFunc(func(name string) bool { return strings.EqualFold(name, key) })
		if !f.IsValid() || !f.CanInterface() {
			return nil, false
		}
		return f.Interface(), true
	}
	return nil, false
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

type contextKey struct{}

// WithContextValues returns a child context whose "context" source includes
// values. Keys already attached by a parent are overridden.
func WithContextValues(ctx context.Context, values map[string]any) context.Context {
	merged := make(map[string]any, len(values))
	for k, v := range ContextValues(ctx) {
		merged[k] = v
	}
	for k, v := range values {
		merged[k] = v
	}
	return context.WithValue(ctx, contextKey{}, merged)
}

// ContextValues returns the values attached with WithContextValues, or nil.
func ContextValues(ctx context.Context) map[string]any {
	m, _ := ctx.Value(contextKey{}).(map[string]any)
	return m
}

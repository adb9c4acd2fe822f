package introspection

import (
	"context"
	"fmt"
	"sort"
	"strings"

	executor "github.com/saihaj/graphql-mesh/internal/executor"
	schema "github.com/saihaj/graphql-mesh/internal/schema"
)

// Wrapped is a runtime answering introspection fields together with the
// schema extended to serve them.
type Wrapped struct {
	Runtime executor.Runtime
	Schema  *schema.Schema
}

// Wrap serves __schema, __type and the meta types over sch and forwards
// every other field to base. The returned runtime also implements
// executor.SubscriptionRuntime.
func Wrap(base executor.Runtime, sch *schema.Schema) (*Wrapped, error) {
	extended, err := extend(sch)
	if err != nil {
		return nil, err
	}
	return &Wrapped{
		Runtime: &runtime{base: base, source: sch},
		Schema:  extended,
	}, nil
}

type runtime struct {
	base executor.Runtime
	// source is the unextended schema, so __schema never lists meta types.
	source *schema.Schema
}

func (r *runtime) ResolveSync(ctx context.Context, objectType, field string, source any, args map[string]any) (any, error) {
	if objectType == r.source.QueryType {
		switch field {
		case "__schema":
			return r.source, nil
		case "__type":
			name, _ := args["name"].(string)
			if t := r.source.Types[name]; t != nil {
				return named(t), nil
			}
			return nil, nil
		}
	}
	if fields, ok := resolvers[objectType]; ok {
		fn, ok := fields[field]
		if !ok {
			return nil, fmt.Errorf("introspection field %s.%s is not supported", objectType, field)
		}
		return fn(r, source, args), nil
	}
	return r.base.ResolveSync(ctx, objectType, field, source, args)
}

func (r *runtime) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	return r.base.BatchResolveAsync(ctx, tasks)
}

func (r *runtime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	return r.base.ResolveType(ctx, abstractType, value)
}

// Subscribe forwards to the wrapped runtime when it serves subscriptions.
func (r *runtime) Subscribe(ctx context.Context, objectType, field string, args map[string]any) (<-chan any, error) {
	sr, ok := r.base.(executor.SubscriptionRuntime)
	if !ok {
		return nil, fmt.Errorf("subscriptions are not supported by this runtime")
	}
	return sr.Subscribe(ctx, objectType, field, args)
}

// SerializeLeafValue passes meta enums through untouched.
func (r *runtime) SerializeLeafValue(ctx context.Context, typ string, value any) (any, error) {
	if strings.HasPrefix(typ, "__") {
		return value, nil
	}
	return r.base.SerializeLeafValue(ctx, typ, value)
}

// typeView is the source of a __Type. Named types carry their definition;
// LIST and NON_NULL wrappers carry the wrapped reference.
type typeView struct {
	kind string
	def  *schema.Type
	of   *schema.TypeRef
}

func named(def *schema.Type) *typeView {
	return &typeView{kind: string(def.Kind), def: def}
}

func (r *runtime) view(ref *schema.TypeRef) any {
	if ref == nil {
		return nil
	}
	switch ref.Kind {
	case schema.TypeRefKindList, schema.TypeRefKindNonNull:
		return &typeView{kind: string(ref.Kind), of: ref.OfType}
	}
	if def := r.source.Types[ref.Named]; def != nil {
		return named(def)
	}
	return nil
}

func (r *runtime) views(names []string) []*typeView {
	out := make([]*typeView, 0, len(names))
	for _, name := range names {
		if def := r.source.Types[name]; def != nil {
			out = append(out, named(def))
		}
	}
	return out
}

// implementations lists the object types implementing iface, by name.
func (r *runtime) implementations(iface string) []string {
	var out []string
	for name, t := range r.source.Types {
		if t.Kind != schema.TypeKindObject {
			continue
		}
		for _, i := range t.Interfaces {
			if i == iface {
				out = append(out, name)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

type resolver func(r *runtime, source any, args map[string]any) any

// on adapts a resolver for one source type. Other sources resolve to null.
func on[T any](fn func(r *runtime, src T, args map[string]any) any) resolver {
	return func(r *runtime, source any, args map[string]any) any {
		src, ok := source.(T)
		if !ok {
			return nil
		}
		return fn(r, src, args)
	}
}

var resolvers = map[string]map[string]resolver{
	"__Schema": {
		"description": on(func(_ *runtime, s *schema.Schema, _ map[string]any) any { return optional(s.Description) }),
		"types": on(func(_ *runtime, s *schema.Schema, _ map[string]any) any {
			out := make([]*typeView, 0, len(s.Types))
			for _, t := range s.Types {
				out = append(out, named(t))
			}
			sort.Slice(out, func(i, j int) bool { return out[i].def.Name < out[j].def.Name })
			return out
		}),
		"queryType":        on(func(r *runtime, s *schema.Schema, _ map[string]any) any { return root(s.GetQueryType()) }),
		"mutationType":     on(func(r *runtime, s *schema.Schema, _ map[string]any) any { return root(s.GetMutationType()) }),
		"subscriptionType": on(func(r *runtime, s *schema.Schema, _ map[string]any) any { return root(s.GetSubscriptionType()) }),
		"directives": on(func(_ *runtime, s *schema.Schema, _ map[string]any) any {
			out := make([]*schema.Directive, 0, len(s.Directives))
			for _, d := range s.Directives {
				out = append(out, d)
			}
			sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
			return out
		}),
	},
	"__Type": {
		"kind": on(func(_ *runtime, v *typeView, _ map[string]any) any { return v.kind }),
		"name": on(func(_ *runtime, v *typeView, _ map[string]any) any {
			if v.def == nil {
				return nil
			}
			return v.def.Name
		}),
		"description": on(func(_ *runtime, v *typeView, _ map[string]any) any {
			if v.def == nil {
				return nil
			}
			return optional(v.def.Description)
		}),
		"ofType": on(func(r *runtime, v *typeView, _ map[string]any) any { return r.view(v.of) }),
		"fields": on(func(_ *runtime, v *typeView, args map[string]any) any {
			if !v.is(schema.TypeKindObject, schema.TypeKindInterface) {
				return nil
			}
			return visible(v.def.Fields, args, func(f *schema.Field) bool { return f.IsDeprecated })
		}),
		"interfaces": on(func(r *runtime, v *typeView, _ map[string]any) any {
			if !v.is(schema.TypeKindObject, schema.TypeKindInterface) {
				return nil
			}
			return r.views(v.def.Interfaces)
		}),
		"possibleTypes": on(func(r *runtime, v *typeView, _ map[string]any) any {
			switch {
			case v.is(schema.TypeKindUnion):
				return r.views(v.def.PossibleTypes)
			case v.is(schema.TypeKindInterface):
				return r.views(r.implementations(v.def.Name))
			}
			return nil
		}),
		"enumValues": on(func(_ *runtime, v *typeView, args map[string]any) any {
			if !v.is(schema.TypeKindEnum) {
				return nil
			}
			return visible(v.def.EnumValues, args, func(e *schema.EnumValue) bool { return e.IsDeprecated })
		}),
		"inputFields": on(func(_ *runtime, v *typeView, args map[string]any) any {
			if !v.is(schema.TypeKindInputObject) {
				return nil
			}
			return visible(v.def.InputFields, args, func(in *schema.InputValue) bool { return in.IsDeprecated })
		}),
		"specifiedByURL": on(func(_ *runtime, v *typeView, _ map[string]any) any {
			if v.def == nil || v.def.SpecifiedByURL == nil {
				return nil
			}
			return *v.def.SpecifiedByURL
		}),
		"isOneOf": on(func(_ *runtime, v *typeView, _ map[string]any) any {
			if !v.is(schema.TypeKindInputObject) {
				return nil
			}
			return v.def.OneOf
		}),
	},
	"__Field": {
		"name":        on(func(_ *runtime, f *schema.Field, _ map[string]any) any { return f.Name }),
		"description": on(func(_ *runtime, f *schema.Field, _ map[string]any) any { return optional(f.Description) }),
		"args": on(func(_ *runtime, f *schema.Field, args map[string]any) any {
			return visible(f.Arguments, args, func(in *schema.InputValue) bool { return in.IsDeprecated })
		}),
		"type":         on(func(r *runtime, f *schema.Field, _ map[string]any) any { return r.view(f.Type) }),
		"isDeprecated": on(func(_ *runtime, f *schema.Field, _ map[string]any) any { return f.IsDeprecated }),
		"deprecationReason": on(func(_ *runtime, f *schema.Field, _ map[string]any) any {
			return reason(f.IsDeprecated, f.DeprecationReason)
		}),
	},
	"__InputValue": {
		"name":        on(func(_ *runtime, in *schema.InputValue, _ map[string]any) any { return in.Name }),
		"description": on(func(_ *runtime, in *schema.InputValue, _ map[string]any) any { return optional(in.Description) }),
		"type":        on(func(r *runtime, in *schema.InputValue, _ map[string]any) any { return r.view(in.Type) }),
		"defaultValue": on(func(r *runtime, in *schema.InputValue, _ map[string]any) any {
			if in.DefaultValue == nil {
				return nil
			}
			return r.source.RenderLiteral(in.Type, in.DefaultValue)
		}),
		"isDeprecated": on(func(_ *runtime, in *schema.InputValue, _ map[string]any) any { return in.IsDeprecated }),
		"deprecationReason": on(func(_ *runtime, in *schema.InputValue, _ map[string]any) any {
			return reason(in.IsDeprecated, in.DeprecationReason)
		}),
	},
	"__EnumValue": {
		"name":         on(func(_ *runtime, e *schema.EnumValue, _ map[string]any) any { return e.Name }),
		"description":  on(func(_ *runtime, e *schema.EnumValue, _ map[string]any) any { return optional(e.Description) }),
		"isDeprecated": on(func(_ *runtime, e *schema.EnumValue, _ map[string]any) any { return e.IsDeprecated }),
		"deprecationReason": on(func(_ *runtime, e *schema.EnumValue, _ map[string]any) any {
			return reason(e.IsDeprecated, e.DeprecationReason)
		}),
	},
	"__Directive": {
		"name":         on(func(_ *runtime, d *schema.Directive, _ map[string]any) any { return d.Name }),
		"description":  on(func(_ *runtime, d *schema.Directive, _ map[string]any) any { return optional(d.Description) }),
		"isRepeatable": on(func(_ *runtime, d *schema.Directive, _ map[string]any) any { return d.IsRepeatable }),
		"locations": on(func(_ *runtime, d *schema.Directive, _ map[string]any) any {
			return append([]string{}, d.Locations...)
		}),
		"args": on(func(_ *runtime, d *schema.Directive, args map[string]any) any {
			return visible(d.Arguments, args, func(in *schema.InputValue) bool { return in.IsDeprecated })
		}),
	},
}

func (v *typeView) is(kinds ...schema.TypeKind) bool {
	if v.def == nil {
		return false
	}
	for _, k := range kinds {
		if v.def.Kind == k {
			return true
		}
	}
	return false
}

func root(t *schema.Type) any {
	if t == nil {
		return nil
	}
	return named(t)
}

// visible drops deprecated entries unless includeDeprecated is true. The
// result is never nil, so an empty list is not mistaken for null.
func visible[T any](items []T, args map[string]any, deprecated func(T) bool) []T {
	include, _ := args["includeDeprecated"].(bool)
	out := make([]T, 0, len(items))
	for _, it := range items {
		if include || !deprecated(it) {
			out = append(out, it)
		}
	}
	return out
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func reason(deprecated bool, why string) any {
	if !deprecated {
		return nil
	}
	return why
}

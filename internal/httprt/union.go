package httprt

import schema "github.com/saihaj/graphql-mesh/internal/schema"

// UnionInputResolver reshapes a cleaned input payload against the declared
// type of the field's "input" argument before it is encoded.
type UnionInputResolver interface {
	ResolveInput(value any, typ *schema.TypeRef) any
}

// UnionInputResolverFunc adapts a function to UnionInputResolver.
type UnionInputResolverFunc func(value any, typ *schema.TypeRef) any

func (f UnionInputResolverFunc) ResolveInput(value any, typ *schema.TypeRef) any {
	return f(value, typ)
}

// NewUnionInputResolver returns the schema-driven resolver. A @oneOf input
// object collapses to the value of its first present member, resolved
// against that member's type. Other input objects are resolved field by
// field. The input value is never modified.
func NewUnionInputResolver(sch *schema.Schema) UnionInputResolver {
	return &schemaUnionResolver{schema: sch}
}

type schemaUnionResolver struct {
	schema *schema.Schema
}

func (r *schemaUnionResolver) ResolveInput(value any, typ *schema.TypeRef) any {
	if value == nil || typ == nil {
		return value
	}
	switch typ.Kind {
	case schema.TypeRefKindNonNull:
		return r.ResolveInput(value, typ.OfType)
	case schema.TypeRefKindList:
		items, ok := value.([]any)
		if !ok {
			items = []any{value}
		}
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = r.ResolveInput(item, typ.OfType)
		}
		return out
	}

	t := r.schema.Types[typ.Named]
	if t == nil || t.Kind != schema.TypeKindInputObject {
		return value
	}
	if items, ok := value.([]any); ok {
		if len(items) == 0 {
			return nil
		}
		value = items[0]
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return value
	}
	if t.OneOf {
		for _, f := range t.InputFields {
			if v, ok := obj[f.Name]; ok && v != nil {
				return r.ResolveInput(v, f.Type)
			}
		}
	}
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		if f := t.GetInputField(k); f != nil {
			out[k] = r.ResolveInput(v, f.Type)
			continue
		}
		out[k] = v
	}
	return out
}

package executor

import (
	"fmt"
	"reflect"
	"slices"

	schema "github.com/saihaj/graphql-mesh/internal/schema"
)

// slot is a position in the response tree: a field of an object or an item
// of a list. A null raised at a non-null slot moves up to the nearest
// nullable ancestor, which is then cleared and marked nulled so work queued
// beneath it is dropped.
type slot struct {
	parent   *slot
	nullable bool
	nulled   bool
	write    func(any)
}

func (s *slot) dead() bool {
	for p := s; p != nil; p = p.parent {
		if p.nulled {
			return true
		}
	}
	return false
}

// null clears the nearest nullable slot at or above s. The root slot is
// always nullable.
func (x *execution) null(s *slot) {
	for p := s; p != nil; p = p.parent {
		if p.nullable {
			p.write(nil)
			p.nulled = true
			return
		}
	}
}

// fail records err as a field error and nulls the field.
func (x *execution) fail(s *slot, f *fieldInfo, path Path, err error) {
	ge := NewFieldError(err, path)
	ge.Locations = locationsOf(f.nodes)
	x.errors = append(x.errors, ge)
	x.null(s)
}

func (x *execution) errorf(s *slot, f *fieldInfo, path Path, format string, args ...any) {
	x.errors = append(x.errors, GraphQLError{
		Message:   fmt.Sprintf(format, args...),
		Locations: locationsOf(f.nodes),
		Path:      path,
	})
	x.null(s)
}

// complete writes the completed form of v into s.
func (x *execution) complete(s *slot, f *fieldInfo, typ *schema.TypeRef, v any, path Path) {
	if schema.IsNonNull(typ) {
		if isNullish(v) {
			x.errorf(s, f, path, "Cannot return null for non-nullable field %s.%s.", f.parent.Name, f.def.Name)
			return
		}
		typ = schema.Unwrap(typ)
	}
	if isNullish(v) {
		s.write(nil)
		return
	}
	if schema.IsList(typ) {
		x.completeList(s, f, typ, v, path)
		return
	}

	name := schema.GetNamedType(typ)
	t := x.schema.Types[name]
	if t == nil {
		x.errorf(s, f, path, "Unknown type %q.", name)
		return
	}
	switch t.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		out, err := x.runtime.SerializeLeafValue(x.ctx, name, v)
		if err != nil {
			x.fail(s, f, path, err)
			return
		}
		s.write(out)
	case schema.TypeKindObject:
		x.completeObject(s, f, t, v, path)
	case schema.TypeKindInterface, schema.TypeKindUnion:
		concrete, err := x.runtime.ResolveType(x.ctx, name, v)
		if err != nil {
			x.fail(s, f, path, err)
			return
		}
		ot := x.schema.Types[concrete]
		if ot == nil || ot.Kind != schema.TypeKindObject || !x.possible(t, ot) {
			x.errorf(s, f, path, "Abstract type %q must resolve to an Object type at runtime for field %s.%s. Got: %q.",
				name, f.parent.Name, f.def.Name, concrete)
			return
		}
		x.completeObject(s, f, ot, v, path)
	default:
		x.errorf(s, f, path, "Cannot complete value of unexpected type %q.", name)
	}
}

func (x *execution) completeList(s *slot, f *fieldInfo, typ *schema.TypeRef, v any, path Path) {
	items, ok := v.([]any)
	if !ok {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			x.errorf(s, f, path, "Expected Iterable, but did not find one for field %s.%s.", f.parent.Name, f.def.Name)
			return
		}
		items = make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
	}

	inner := schema.Unwrap(typ)
	out := make([]any, len(items))
	s.write(out)
	for i, item := range items {
		at := &slot{parent: s, nullable: !schema.IsNonNull(inner), write: func(v any) { out[i] = v }}
		x.complete(at, f, inner, item, appendPath(path, i))
		if s.dead() {
			return
		}
	}
}

func (x *execution) completeObject(s *slot, f *fieldInfo, t *schema.Type, v any, path Path) {
	out := make(map[string]any)
	s.write(out)
	x.executeFields(s, t, v, mergeSelections(f.nodes), path, out)
}

// possible reports whether object is a member of the abstract type.
func (x *execution) possible(abstract, object *schema.Type) bool {
	if abstract.Kind == schema.TypeKindUnion {
		return slices.Contains(abstract.PossibleTypes, object.Name)
	}
	return slices.Contains(object.Interfaces, abstract.Name) || slices.Contains(abstract.PossibleTypes, object.Name)
}

// isNullish reports nil and typed nils.
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

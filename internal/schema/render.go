package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Render prints s as SDL. Types and directives are sorted by name; built-in
// scalars, built-in directives and "__" names are left out.
func Render(s *Schema) string {
	if s == nil {
		return ""
	}
	w := &sdlWriter{s: s}
	w.schemaBlock()

	for _, name := range sortedKeys(s.Types) {
		if isBuiltinScalar(name) || strings.HasPrefix(name, "__") {
			continue
		}
		w.definition(s.Types[name])
	}
	for _, name := range sortedKeys(s.Directives) {
		if isBuiltinDirective(name) {
			continue
		}
		w.directive(s.Directives[name])
	}
	return strings.TrimRight(w.String(), "\n") + "\n"
}

type sdlWriter struct {
	strings.Builder
	s *Schema
}

func (w *sdlWriter) printf(format string, args ...any) { fmt.Fprintf(w, format, args...) }

// schemaBlock is written only when a root type has an unconventional name.
func (w *sdlWriter) schemaBlock() {
	roots := [][2]string{
		{"query", w.s.QueryType},
		{"mutation", w.s.MutationType},
		{"subscription", w.s.SubscriptionType},
	}
	conventional := true
	for _, r := range roots {
		if r[1] != "" && r[1] != strings.ToUpper(r[0][:1])+r[0][1:] {
			conventional = false
		}
	}
	if conventional {
		return
	}
	w.WriteString("schema {\n")
	for _, r := range roots {
		if r[1] != "" {
			w.printf("  %s: %s\n", r[0], r[1])
		}
	}
	w.WriteString("}\n\n")
}

func (w *sdlWriter) definition(t *Type) {
	w.description(t.Description)
	switch t.Kind {
	case TypeKindScalar:
		w.printf("scalar %s", t.Name)
		if t.SpecifiedByURL != nil {
			w.printf(" @specifiedBy(url: %s)", strconv.Quote(*t.SpecifiedByURL))
		}
		w.WriteString("\n\n")
	case TypeKindUnion:
		w.printf("union %s = %s\n\n", t.Name, strings.Join(t.PossibleTypes, " | "))
	case TypeKindEnum:
		w.printf("enum %s {\n", t.Name)
		for _, v := range t.EnumValues {
			w.description(v.Description)
			w.printf("  %s%s\n", v.Name, deprecatedSuffix(v.IsDeprecated, v.DeprecationReason))
		}
		w.WriteString("}\n\n")
	case TypeKindInputObject:
		w.printf("input %s", t.Name)
		if t.OneOf {
			w.WriteString(" @oneOf")
		}
		w.WriteString(" {\n")
		for _, in := range t.InputFields {
			w.description(in.Description)
			w.printf("  %s\n", w.inputValue(in))
		}
		w.WriteString("}\n\n")
	case TypeKindObject, TypeKindInterface:
		keyword := "type"
		if t.Kind == TypeKindInterface {
			keyword = "interface"
		}
		w.printf("%s %s", keyword, t.Name)
		if len(t.Interfaces) > 0 {
			w.printf(" implements %s", strings.Join(t.Interfaces, " & "))
		}
		w.WriteString(" {\n")
		for _, f := range t.Fields {
			if strings.HasPrefix(f.Name, "__") {
				continue
			}
			w.description(f.Description)
			w.printf("  %s%s: %s%s\n", f.Name, w.arguments(f.Arguments), f.Type,
				deprecatedSuffix(f.IsDeprecated, f.DeprecationReason))
		}
		w.WriteString("}\n\n")
	}
}

func (w *sdlWriter) directive(d *Directive) {
	w.description(d.Description)
	w.printf("directive @%s%s", d.Name, w.arguments(d.Arguments))
	if d.IsRepeatable {
		w.WriteString(" repeatable")
	}
	w.printf(" on %s\n\n", strings.Join(d.Locations, " | "))
}

func (w *sdlWriter) arguments(args []*InputValue) string {
	if len(args) == 0 {
		return ""
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = w.inputValue(a)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (w *sdlWriter) inputValue(in *InputValue) string {
	out := in.Name + ": " + in.Type.String()
	if in.DefaultValue != nil {
		out += " = " + w.s.RenderLiteral(in.Type, in.DefaultValue)
	}
	return out + deprecatedSuffix(in.IsDeprecated, in.DeprecationReason)
}

// description writes a block string. Only a literal triple quote needs
// escaping inside one.
func (w *sdlWriter) description(desc string) {
	if desc == "" {
		return
	}
	w.printf("\"\"\"\n%s\n\"\"\"\n", strings.ReplaceAll(desc, `"""`, `\"""`))
}

func deprecatedSuffix(deprecated bool, reason string) string {
	switch {
	case !deprecated:
		return ""
	case reason == "":
		return " @deprecated"
	}
	return " @deprecated(reason: " + strconv.Quote(reason) + ")"
}

// RenderLiteral renders v as a literal of type ref. Strings bound to enum
// types are written bare; input object fields follow their declared types.
// A nil ref renders v without type information.
func (s *Schema) RenderLiteral(ref *TypeRef, v any) string {
	if v == nil {
		return "null"
	}
	if ref.IsNonNull() {
		ref = ref.OfType
	}
	if ref.IsList() {
		if items, ok := v.([]any); ok {
			parts := make([]string, len(items))
			for i, item := range items {
				parts[i] = s.RenderLiteral(ref.OfType, item)
			}
			return "[" + strings.Join(parts, ", ") + "]"
		}
		// Input coercion accepts a single item for a list.
		return s.RenderLiteral(ref.OfType, v)
	}

	var named *Type
	if s != nil && ref != nil {
		named = s.Types[ref.Named]
	}
	switch val := v.(type) {
	case string:
		if named != nil && named.Kind == TypeKindEnum {
			return val
		}
	case map[string]any:
		parts := make([]string, 0, len(val))
		for _, k := range sortedKeys(val) {
			var field *TypeRef
			if named != nil {
				if in := named.GetInputField(k); in != nil {
					field = in.Type
				}
			}
			parts = append(parts, k+": "+s.RenderLiteral(field, val[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = s.RenderLiteral(nil, item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return RenderValue(v)
}

// RenderValue renders a scalar Go value as a literal. Composite values are
// rendered without type information; see RenderLiteral.
func RenderValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case []any, map[string]any:
		var s *Schema
		return s.RenderLiteral(nil, v)
	}
	return fmt.Sprint(value)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

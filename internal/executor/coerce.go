package executor

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	language "github.com/saihaj/graphql-mesh/internal/language"
	schema "github.com/saihaj/graphql-mesh/internal/schema"
)

// coerceVariables applies declared defaults and coerces the provided values.
// Variables that are neither provided nor defaulted stay absent.
func (e *Executor) coerceVariables(op *language.OperationDefinition, raw map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(op.VariableDefinitions))
	for _, def := range op.VariableDefinitions {
		ref := schema.BuildTypeRef(def.Type)
		v, ok := raw[def.Variable]
		if !ok {
			switch {
			case def.DefaultValue != nil:
				v = valueFromAST(def.DefaultValue, nil)
			case def.Type.NonNull:
				return nil, fmt.Errorf("Variable \"$%s\" of required type \"%s\" was not provided.", def.Variable, def.Type)
			default:
				continue
			}
		}
		c, err := e.coerceInput(v, ref)
		if err != nil {
			return nil, fmt.Errorf("Variable \"$%s\" got invalid value: %v.", def.Variable, err)
		}
		out[def.Variable] = c
	}
	return out, nil
}

// coerceArguments resolves the arguments of one field selection against
// its definition and the operation variables.
func (e *Executor) coerceArguments(def *schema.Field, node *language.Field, vars map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(def.Arguments))
	for _, arg := range def.Arguments {
		var (
			v       any
			present bool
		)
		if a := node.Arguments.ForName(arg.Name); a != nil {
			if a.Value.Kind == language.Variable {
				v, present = vars[a.Value.Raw]
			} else {
				v, present = valueFromAST(a.Value, vars), true
			}
		}
		if !present {
			if arg.DefaultValue != nil {
				out[arg.Name] = arg.DefaultValue
				continue
			}
			if schema.IsNonNull(arg.Type) {
				return nil, fmt.Errorf("Argument %q of required type %q was not provided.", arg.Name, arg.Type.String())
			}
			continue
		}
		c, err := e.coerceInput(v, arg.Type)
		if err != nil {
			return nil, fmt.Errorf("Argument %q has invalid value: %v.", arg.Name, err)
		}
		out[arg.Name] = c
	}
	return out, nil
}

// valueFromAST converts a literal. Variables are looked up in vars at any
// depth; object fields bound to absent variables are omitted.
func valueFromAST(v *language.Value, vars map[string]any) any {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case language.Variable:
		return vars[v.Raw]
	case language.IntValue:
		if n, err := strconv.Atoi(v.Raw); err == nil {
			return n
		}
		f, _ := strconv.ParseFloat(v.Raw, 64)
		return f
	case language.FloatValue:
		f, _ := strconv.ParseFloat(v.Raw, 64)
		return f
	case language.BooleanValue:
		return v.Raw == "true"
	case language.NullValue:
		return nil
	case language.ListValue:
		out := make([]any, len(v.Children))
		for i, c := range v.Children {
			out[i] = valueFromAST(c.Value, vars)
		}
		return out
	case language.ObjectValue:
		out := make(map[string]any, len(v.Children))
		for _, c := range v.Children {
			if c.Value.Kind == language.Variable {
				if _, ok := vars[c.Value.Raw]; !ok {
					continue
				}
			}
			out[c.Name] = valueFromAST(c.Value, vars)
		}
		return out
	}
	// String, block string and enum literals.
	return v.Raw
}

// coerceInput coerces an input value to ref. Built-in scalars are checked,
// enums must name a declared value, input objects get their defaults and
// reject unknown fields. Custom scalars pass through unchanged.
func (e *Executor) coerceInput(v any, ref *schema.TypeRef) (any, error) {
	if schema.IsNonNull(ref) {
		if v == nil {
			return nil, fmt.Errorf("expected non-null value of type %s", ref.String())
		}
		return e.coerceInput(v, schema.Unwrap(ref))
	}
	if v == nil {
		return nil, nil
	}
	if schema.IsList(ref) {
		inner := schema.Unwrap(ref)
		items, ok := v.([]any)
		if !ok {
			c, err := e.coerceInput(v, inner)
			if err != nil {
				return nil, err
			}
			return []any{c}, nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			c, err := e.coerceInput(item, inner)
			if err != nil {
				return nil, fmt.Errorf("at index %d: %w", i, err)
			}
			out[i] = c
		}
		return out, nil
	}

	name := schema.GetNamedType(ref)
	switch name {
	case "Int":
		return coerceInt(v)
	case "Float":
		return coerceFloat(v)
	case "String":
		if s, ok := v.(string); ok {
			return s, nil
		}
		return nil, fmt.Errorf("String cannot represent a non string value: %v", v)
	case "Boolean":
		if b, ok := v.(bool); ok {
			return b, nil
		}
		return nil, fmt.Errorf("Boolean cannot represent a non boolean value: %v", v)
	case "ID":
		return coerceID(v)
	}

	t := e.schema.Types[name]
	if t == nil {
		return v, nil
	}
	switch t.Kind {
	case schema.TypeKindEnum:
		s, ok := v.(string)
		if ok {
			for _, ev := range t.EnumValues {
				if ev.Name == s {
					return s, nil
				}
			}
		}
		return nil, fmt.Errorf("value %v does not exist in %q enum", v, t.Name)
	case schema.TypeKindInputObject:
		return e.coerceInputObject(t, v)
	}
	return v, nil
}

func (e *Executor) coerceInputObject(t *schema.Type, v any) (any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected type %q to be an object", t.Name)
	}
	for k := range obj {
		if t.GetInputField(k) == nil {
			return nil, fmt.Errorf("field %q is not defined by type %q", k, t.Name)
		}
	}
	out := make(map[string]any, len(obj))
	for _, f := range t.InputFields {
		raw, ok := obj[f.Name]
		if !ok {
			if f.DefaultValue != nil {
				out[f.Name] = f.DefaultValue
			} else if schema.IsNonNull(f.Type) {
				return nil, fmt.Errorf("field %q of required type %q was not provided", t.Name+"."+f.Name, f.Type.String())
			}
			continue
		}
		c, err := e.coerceInput(raw, f.Type)
		if err != nil {
			return nil, fmt.Errorf("in field %q: %w", f.Name, err)
		}
		out[f.Name] = c
	}
	return out, nil
}

func coerceInt(v any) (any, error) {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int32:
		return int(n), nil
	case int64:
		f = float64(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("Int cannot represent non-integer value: %s", n)
		}
		f = parsed
	default:
		return nil, fmt.Errorf("Int cannot represent non-integer value: %v", v)
	}
	if f != math.Trunc(f) {
		return nil, fmt.Errorf("Int cannot represent non-integer value: %v", v)
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %v", v)
	}
	return int(f), nil
}

func coerceFloat(v any) (any, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f, nil
		}
	}
	return nil, fmt.Errorf("Float cannot represent non numeric value: %v", v)
}

func coerceID(v any) (any, error) {
	switch n := v.(type) {
	case string:
		return n, nil
	case int:
		return strconv.Itoa(n), nil
	case int32:
		return strconv.FormatInt(int64(n), 10), nil
	case int64:
		return strconv.FormatInt(n, 10), nil
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return strconv.FormatFloat(n, 'f', -1, 64), nil
		}
	case json.Number:
		if _, err := n.Int64(); err == nil {
			return n.String(), nil
		}
	}
	return nil, fmt.Errorf("ID cannot represent value: %v", v)
}

package httprt

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"

	schema "github.com/saihaj/graphql-mesh/internal/schema"
)

// SerializeLeafValue coerces decoded upstream values to the declared scalar
// or enum. Numeric strings are accepted for Int and Float. Custom scalars
// pass through with json.Number converted to int64 or float64.
func (r *Runtime) SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error) {
	value = deref(value)
	if value == nil {
		return nil, nil
	}
	switch scalarOrEnumTypeName {
	case "Int":
		return serializeInt(value)
	case "Float":
		return serializeFloat(value)
	case "String":
		return serializeString("String", value)
	case "ID":
		return serializeString("ID", value)
	case "Boolean":
		switch v := value.(type) {
		case bool:
			return v, nil
		case json.Number:
			f, err := v.Float64()
			if err != nil {
				return nil, err
			}
			return f != 0, nil
		}
		return nil, fmt.Errorf("Boolean cannot represent a non boolean value: %v", value)
	}
	if t := r.schema.Types[scalarOrEnumTypeName]; t != nil && t.Kind == schema.TypeKindEnum {
		name := fmt.Sprint(value)
		for _, ev := range t.EnumValues {
			if ev.Name == name {
				return name, nil
			}
		}
		return nil, fmt.Errorf("Enum %q cannot represent value: %v", scalarOrEnumTypeName, value)
	}
	return normalizeNumbers(value), nil
}

func serializeInt(value any) (any, error) {
	var f float64
	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return checkInt32(n, value)
		}
		parsed, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("Int cannot represent non-integer value: %v", value)
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("Int cannot represent non-integer value: %q", v)
		}
		f = parsed
	case bool:
		if v {
			return int32(1), nil
		}
		return int32(0), nil
	case int:
		return checkInt32(int64(v), value)
	case int32:
		return v, nil
	case int64:
		return checkInt32(v, value)
	case float32:
		f = float64(v)
	case float64:
		f = v
	default:
		return nil, fmt.Errorf("Int cannot represent non-integer value: %v", value)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("Int cannot represent non-integer value: %v", value)
	}
	return checkInt32(int64(f), value)
}

func checkInt32(n int64, original any) (any, error) {
	if n > math.MaxInt32 || n < math.MinInt32 {
		return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %v", original)
	}
	return int32(n), nil
}

func serializeFloat(value any) (any, error) {
	switch v := value.(type) {
	case json.Number:
		return v.Float64()
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("Float cannot represent non numeric value: %q", v)
		}
		return f, nil
	case bool:
		if v {
			return float64(1), nil
		}
		return float64(0), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	}
	return nil, fmt.Errorf("Float cannot represent non numeric value: %v", value)
}

func serializeString(typeName string, value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		if typeName == "ID" {
			break
		}
		return strconv.FormatBool(v), nil
	case int, int32, int64:
		return fmt.Sprint(v), nil
	case float32, float64:
		return strconv.FormatFloat(reflect.ValueOf(v).Float(), 'f', -1, 64), nil
	case []byte:
		return base64.StdEncoding.EncodeToString(v), nil
	}
	return nil, fmt.Errorf("%s cannot represent value: %v", typeName, value)
}

// normalizeNumbers converts json.Number at any depth. Maps and lists are
// copied.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalizeNumbers(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeNumbers(e)
		}
		return out
	}
	return v
}

func deref(v any) any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}

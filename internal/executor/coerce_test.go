package executor

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	schema "github.com/saihaj/graphql-mesh/internal/schema"
)

func TestCoerceInput(t *testing.T) {
	exec := NewExecutor(NewMockRuntime(nil), testSchema(t))
	named := schema.NamedType

	cases := []struct {
		name string
		in   any
		typ  *schema.TypeRef
		want any
		err  string
	}{
		{name: "int from whole float", in: 3.0, typ: named("Int"), want: 3},
		{name: "int from json number", in: json.Number("7"), typ: named("Int"), want: 7},
		{name: "int rejects fraction", in: 3.5, typ: named("Int"), err: "non-integer"},
		{name: "int rejects out of range", in: 1 << 40, typ: named("Int"), err: "32-bit"},
		{name: "int rejects string", in: "3", typ: named("Int"), err: "non-integer"},
		{name: "float from int", in: 2, typ: named("Float"), want: 2.0},
		{name: "string", in: "x", typ: named("String"), want: "x"},
		{name: "string rejects number", in: 1, typ: named("String"), err: "non string"},
		{name: "boolean", in: true, typ: named("Boolean"), want: true},
		{name: "id from int", in: 42, typ: named("ID"), want: "42"},
		{name: "id from large json number", in: json.Number("12345678901"), typ: named("ID"), want: "12345678901"},
		{name: "id rejects bool", in: false, typ: named("ID"), err: "ID cannot represent"},
		{name: "enum", in: "ADMIN", typ: named("Role"), want: "ADMIN"},
		{name: "enum rejects unknown", in: "ROOT", typ: named("Role"), err: `does not exist in "Role" enum`},
		{name: "custom scalar passes through", in: map[string]any{"any": []any{1}}, typ: named("JSON"), want: map[string]any{"any": []any{1}}},
		{name: "null", in: nil, typ: named("String"), want: nil},
		{name: "non-null rejects null", in: nil, typ: schema.NonNullType(named("String")), err: "non-null"},
		{name: "single value becomes list", in: 5, typ: schema.ListType(named("Int")), want: []any{5}},
		{name: "list items", in: []any{"1", 2}, typ: schema.ListType(named("ID")), want: []any{"1", "2"}},
		{name: "list item error", in: []any{1, nil}, typ: schema.ListType(schema.NonNullType(named("Int"))), err: "at index 1"},
		{
			name: "input object defaults",
			in:   map[string]any{"name": "Ada"},
			typ:  named("UserFilter"),
			want: map[string]any{"name": "Ada", "role": "MEMBER"},
		},
		{
			name: "input object explicit null beats default",
			in:   map[string]any{"role": nil},
			typ:  named("UserFilter"),
			want: map[string]any{"role": nil},
		},
		{
			name: "input object nested coercion",
			in:   map[string]any{"ids": []any{1, "2"}, "role": "ADMIN"},
			typ:  named("UserFilter"),
			want: map[string]any{"ids": []any{"1", "2"}, "role": "ADMIN"},
		},
		{name: "input object unknown field", in: map[string]any{"nick": "x"}, typ: named("UserFilter"), err: `field "nick" is not defined`},
		{name: "input object not an object", in: "x", typ: named("UserFilter"), err: "to be an object"},
		{name: "input object field error", in: map[string]any{"role": "ROOT"}, typ: named("UserFilter"), err: `in field "role"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := exec.coerceInput(tc.in, tc.typ)
			if tc.err != "" {
				require.ErrorContains(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func captureArgs(into *map[string]any, value any) MockResolver {
	return func(_ context.Context, _ any, args map[string]any) (any, error) {
		*into = args
		return value, nil
	}
}

func TestVariablesAreCoerced(t *testing.T) {
	var args map[string]any
	rt := NewMockRuntime(map[string]MockResolver{"Query.user": captureArgs(&args, people["1"])})
	res := NewExecutor(rt, testSchema(t)).ExecuteRequest(context.Background(),
		parse(t, `query($id: ID!) { user(id: $id) { name } }`), "", map[string]any{"id": json.Number("1")}, nil)

	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{"id": "1"}, args)
}

func TestVariableDefaults(t *testing.T) {
	var args map[string]any
	rt := NewMockRuntime(map[string]MockResolver{"Query.user": captureArgs(&args, nil)})
	NewExecutor(rt, testSchema(t)).ExecuteRequest(context.Background(),
		parse(t, `query($id: ID = 2) { user(id: $id) { name } }`), "", nil, nil)

	require.Equal(t, map[string]any{"id": "2"}, args)
}

func TestNestedVariablesInLiterals(t *testing.T) {
	var args map[string]any
	rt := NewMockRuntime(map[string]MockResolver{"Query.users": captureArgs(&args, []any{})})
	exec := NewExecutor(rt, testSchema(t))
	doc := parse(t, `query($name: String, $id: ID!) { users(filter: {name: $name, ids: [$id, "9"]}) { id } }`)

	res := exec.ExecuteRequest(context.Background(), doc, "", map[string]any{"id": 3}, nil)
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{"filter": map[string]any{"role": "MEMBER", "ids": []any{"3", "9"}}}, args,
		"an absent variable leaves its field unset")

	exec.ExecuteRequest(context.Background(), doc, "", map[string]any{"id": 3, "name": nil}, nil)
	require.Equal(t, map[string]any{"filter": map[string]any{"role": "MEMBER", "name": nil, "ids": []any{"3", "9"}}}, args)
}

func TestUnsetOptionalArgumentStaysAbsent(t *testing.T) {
	var args map[string]any
	rt := NewMockRuntime(map[string]MockResolver{"Query.users": captureArgs(&args, []any{})})
	NewExecutor(rt, testSchema(t)).ExecuteRequest(context.Background(),
		parse(t, `query($f: UserFilter) { users(filter: $f) { id } }`), "", nil, nil)

	require.Empty(t, args)
}

func TestArgumentErrorsAreFieldErrors(t *testing.T) {
	rt := NewMockRuntime(map[string]MockResolver{"Query.user": userByID})
	res := NewExecutor(rt, testSchema(t)).ExecuteRequest(context.Background(), parse(t, `{
  bad: user(id: 1.5) { name }
  missing: user { name }
  ok: user(id: 2) { name }
}`), "", nil, nil)

	require.Equal(t, map[string]any{"bad": nil, "missing": nil, "ok": map[string]any{"name": "Grace"}}, res.Data)
	require.Len(t, res.Errors, 2)
	require.Equal(t, `Argument "id" has invalid value: ID cannot represent value: 1.5.`, res.Errors[0].Message)
	require.Equal(t, Path{"bad"}, res.Errors[0].Path)
	require.Equal(t, `Argument "id" of required type "ID!" was not provided.`, res.Errors[1].Message)
	require.Equal(t, []string{"1:Query.user"}, asyncCalls(rt))
}

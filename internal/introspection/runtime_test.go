package introspection

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	executor "github.com/saihaj/graphql-mesh/internal/executor"
	language "github.com/saihaj/graphql-mesh/internal/language"
	schema "github.com/saihaj/graphql-mesh/internal/schema"
)

const testSDL = `
"""Upstream users API"""
schema { query: Query subscription: Subscription }

interface Node { id: ID! }

"""A person"""
type User implements Node {
  id: ID!
  name: String
  login: String @deprecated(reason: "use name")
}

type Robot implements Node { id: ID! }

union Actor = User | Robot

enum Role { ADMIN MEMBER @deprecated }

input Lookup @oneOf { byId: ID byName: String }

scalar Date @specifiedBy(url: "https://example.com/date")

type Query {
  user(id: ID!, limit: Int = 10): User
  actors(role: Role): [Actor!]!
  find(by: Lookup): Node
  today: Date
}

type Subscription { userCreated: User }
`

func run(t *testing.T, query string) map[string]any {
	t.Helper()
	sch, err := schema.BuildFromSDL(testSDL)
	require.NoError(t, err)
	w, err := Wrap(executor.NewMockRuntime(nil), sch)
	require.NoError(t, err)

	doc, err := language.ParseQuery(query)
	require.NoError(t, err)
	res := executor.NewExecutor(w.Runtime, w.Schema).ExecuteRequest(context.Background(), doc, "", nil, nil)
	require.Empty(t, res.Errors)
	return res.Data.(map[string]any)
}

func TestSchemaRoots(t *testing.T) {
	data := run(t, `{ __schema { description queryType { name } mutationType { name } subscriptionType { name } } }`)
	want := map[string]any{
		"__schema": map[string]any{
			"description":      "Upstream users API",
			"queryType":        map[string]any{"name": "Query"},
			"mutationType":     nil,
			"subscriptionType": map[string]any{"name": "Subscription"},
		},
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaTypesExcludeMetaTypes(t *testing.T) {
	data := run(t, `{ __schema { types { name } directives { name } } }`)
	s := data["__schema"].(map[string]any)

	var names []string
	for _, t := range s["types"].([]any) {
		names = append(names, t.(map[string]any)["name"].(string))
	}
	require.Contains(t, names, "User")
	require.Contains(t, names, "String")
	require.IsIncreasing(t, names)
	for _, n := range names {
		require.NotContains(t, n, "__")
	}
	require.Contains(t, s["directives"], map[string]any{"name": "include"})
}

func TestTypeWrappers(t *testing.T) {
	data := run(t, `{ __type(name: "Query") { fields { name type { kind name ofType { kind name ofType { kind name ofType { name } } } } } } }`)
	fields := data["__type"].(map[string]any)["fields"].([]any)
	actors := fields[1].(map[string]any)
	require.Equal(t, "actors", actors["name"])

	want := map[string]any{
		"kind": "NON_NULL",
		"name": nil,
		"ofType": map[string]any{
			"kind": "LIST",
			"name": nil,
			"ofType": map[string]any{
				"kind":   "NON_NULL",
				"name":   nil,
				"ofType": map[string]any{"name": "Actor"},
			},
		},
	}
	if diff := cmp.Diff(want, actors["type"]); diff != "" {
		t.Fatalf("type mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldArgsKeepDeclarationOrder(t *testing.T) {
	data := run(t, `{ __type(name: "Query") { fields { name args { name defaultValue } } } }`)
	user := data["__type"].(map[string]any)["fields"].([]any)[0]
	want := map[string]any{
		"name": "user",
		"args": []any{
			map[string]any{"name": "id", "defaultValue": nil},
			map[string]any{"name": "limit", "defaultValue": "10"},
		},
	}
	if diff := cmp.Diff(want, user); diff != "" {
		t.Fatalf("field mismatch (-want +got):\n%s", diff)
	}
}

func TestDeprecatedEntries(t *testing.T) {
	data := run(t, `{
  user: __type(name: "User") {
    description
    hidden: fields { name }
    all: fields(includeDeprecated: true) { name isDeprecated deprecationReason }
  }
  role: __type(name: "Role") {
    enumValues { name }
    all: enumValues(includeDeprecated: true) { name isDeprecated }
  }
}`)
	want := map[string]any{
		"user": map[string]any{
			"description": "A person",
			"hidden":      []any{map[string]any{"name": "id"}, map[string]any{"name": "name"}},
			"all": []any{
				map[string]any{"name": "id", "isDeprecated": false, "deprecationReason": nil},
				map[string]any{"name": "name", "isDeprecated": false, "deprecationReason": nil},
				map[string]any{"name": "login", "isDeprecated": true, "deprecationReason": "use name"},
			},
		},
		"role": map[string]any{
			"enumValues": []any{map[string]any{"name": "ADMIN"}},
			"all": []any{
				map[string]any{"name": "ADMIN", "isDeprecated": false},
				map[string]any{"name": "MEMBER", "isDeprecated": true},
			},
		},
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestAbstractAndInputTypes(t *testing.T) {
	data := run(t, `{
  node: __type(name: "Node") { kind possibleTypes { name } fields { name } }
  actor: __type(name: "Actor") { kind possibleTypes { name } fields { name } }
  user: __type(name: "User") { interfaces { name } isOneOf }
  lookup: __type(name: "Lookup") { kind isOneOf inputFields { name type { name } } }
  date: __type(name: "Date") { kind specifiedByURL }
  missing: __type(name: "Nope") { name }
}`)
	want := map[string]any{
		"node": map[string]any{
			"kind":          "INTERFACE",
			"possibleTypes": []any{map[string]any{"name": "Robot"}, map[string]any{"name": "User"}},
			"fields":        []any{map[string]any{"name": "id"}},
		},
		"actor": map[string]any{
			"kind":          "UNION",
			"possibleTypes": []any{map[string]any{"name": "User"}, map[string]any{"name": "Robot"}},
			"fields":        nil,
		},
		"user": map[string]any{
			"interfaces": []any{map[string]any{"name": "Node"}},
			"isOneOf":    nil,
		},
		"lookup": map[string]any{
			"kind":    "INPUT_OBJECT",
			"isOneOf": true,
			"inputFields": []any{
				map[string]any{"name": "byId", "type": map[string]any{"name": "ID"}},
				map[string]any{"name": "byName", "type": map[string]any{"name": "String"}},
			},
		},
		"date":    map[string]any{"kind": "SCALAR", "specifiedByURL": "https://example.com/date"},
		"missing": nil,
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestDirectiveIntrospection(t *testing.T) {
	data := run(t, `{ __schema { directives { name isRepeatable locations args { name type { kind ofType { name } } } } } }`)
	var skip map[string]any
	for _, d := range data["__schema"].(map[string]any)["directives"].([]any) {
		if d.(map[string]any)["name"] == "skip" {
			skip = d.(map[string]any)
		}
	}
	want := map[string]any{
		"name":         "skip",
		"isRepeatable": false,
		"locations":    []any{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
		"args": []any{
			map[string]any{"name": "if", "type": map[string]any{"kind": "NON_NULL", "ofType": map[string]any{"name": "Boolean"}}},
		},
	}
	if diff := cmp.Diff(want, skip); diff != "" {
		t.Fatalf("directive mismatch (-want +got):\n%s", diff)
	}
}

func TestTypenameWithoutWrapper(t *testing.T) {
	sch, err := schema.BuildFromSDL(testSDL)
	require.NoError(t, err)
	doc, err := language.ParseQuery("{ __typename }")
	require.NoError(t, err)

	res := executor.NewExecutor(executor.NewMockRuntime(nil), sch).ExecuteRequest(context.Background(), doc, "", nil, nil)
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{"__typename": "Query"}, res.Data)
}

func TestOtherFieldsReachBase(t *testing.T) {
	sch, err := schema.BuildFromSDL(testSDL)
	require.NoError(t, err)
	base := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.today": executor.NewMockValueResolver("2026-10-19"),
	})
	w, err := Wrap(base, sch)
	require.NoError(t, err)

	doc, err := language.ParseQuery(`{ today __type(name: "Date") { name } }`)
	require.NoError(t, err)
	res := executor.NewExecutor(w.Runtime, w.Schema).ExecuteRequest(context.Background(), doc, "", nil, nil)
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{"today": "2026-10-19", "__type": map[string]any{"name": "Date"}}, res.Data)
}

type subscribingRuntime struct{ executor.Runtime }

func (subscribingRuntime) Subscribe(ctx context.Context, objectType, field string, args map[string]any) (<-chan any, error) {
	ch := make(chan any, 1)
	ch <- objectType + "." + field
	close(ch)
	return ch, nil
}

func TestSubscribeDelegates(t *testing.T) {
	sch, err := schema.BuildFromSDL(testSDL)
	require.NoError(t, err)

	w, err := Wrap(subscribingRuntime{executor.NewMockRuntime(nil)}, sch)
	require.NoError(t, err)
	ch, err := w.Runtime.(executor.SubscriptionRuntime).Subscribe(context.Background(), "Subscription", "userCreated", nil)
	require.NoError(t, err)
	require.Equal(t, "Subscription.userCreated", <-ch)

	w, err = Wrap(plainRuntime{executor.NewMockRuntime(nil)}, sch)
	require.NoError(t, err)
	_, err = w.Runtime.(executor.SubscriptionRuntime).Subscribe(context.Background(), "Subscription", "userCreated", nil)
	require.Error(t, err)
}

// plainRuntime hides any Subscribe method of the embedded runtime.
type plainRuntime struct{ executor.Runtime }

package opreg

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	schema "github.com/saihaj/graphql-mesh/internal/schema"
)

const testSDL = `
type User { id: ID! name: String }
union SearchResult = User | NotFound
type NotFound { message: String }
input CreateUser { name: String! }

type Query {
  "Fetch one user"
  user: User
  users: [User]
  search: SearchResult
  version: String
}

type Mutation {
  createUser(input: CreateUser): User
  upload(input: Upload): String
}

type Subscription {
  userUpdated: User
}

scalar Upload
`

func mustSchema(t *testing.T) *schema.Schema {
	t.Helper()
	sch, err := schema.BuildFromSDL(testSDL)
	require.NoError(t, err)
	return sch
}

func TestBuildBindsOperations(t *testing.T) {
	sch := mustSchema(t)
	reg, err := Build(sch, Config{
		BaseURL:          "https://api.example.com/{env.VERSION}",
		OperationHeaders: map[string]string{"authorization": "Bearer {env.TOKEN}", "x-tenant": "{context.tenant}"},
		Operations: []Descriptor{
			{Type: "Query", Field: "user", Path: "/users/{args.id}", Headers: map[string]string{"X-Tenant": "fixed"}},
			{Type: "query", Field: "users", Path: "/users", Method: "get"},
			{Type: "Mutation", Field: "createUser", Path: "/users", RequestBaseBody: map[string]any{"source": "{args.origin}", "flags": map[string]any{"deep": "{args.meta.trace}"}, "n": 1}},
			{Type: "Subscription", Field: "userUpdated", PubSubTopic: "user.{args.userId}.updated", ArgTypeMap: map[string]string{"userId": "Int!"}},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 4, reg.Len())

	op, ok := reg.Lookup("Query", "user")
	require.True(t, ok)
	want := &HTTPOperation{
		Binding: Binding{ObjectType: "Query", Field: "user", ReturnType: schema.NamedType("User")},
		Method:  "GET",
		BaseURL: "https://api.example.com/{env.VERSION}",
		Path:    "/users/{args.id}",
		Headers: map[string]string{"Authorization": "Bearer {env.TOKEN}", "X-Tenant": "fixed"},
	}
	if diff := cmp.Diff(want, op); diff != "" {
		t.Fatalf("operation mismatch (-want +got):\n%s", diff)
	}

	users, _ := reg.Lookup("Query", "users")
	require.Equal(t, "GET", users.(*HTTPOperation).Method)

	create, _ := reg.Lookup("Mutation", "createUser")
	require.Equal(t, "POST", create.(*HTTPOperation).Method)
	require.Equal(t, schema.NamedType("CreateUser"), create.GetBinding().InputType)

	sub, _ := reg.Lookup("Subscription", "userUpdated")
	require.Equal(t, &EventOperation{
		Binding: Binding{ObjectType: "Subscription", Field: "userUpdated", ReturnType: schema.NamedType("User")},
		Topic:   "user.{args.userId}.updated",
	}, sub)

	_, ok = reg.Lookup("Query", "version")
	require.False(t, ok)
	_, ok = reg.Lookup("Nope", "user")
	require.False(t, ok)

	names := []string{}
	for _, op := range reg.Operations() {
		names = append(names, op.GetBinding().Name())
	}
	require.Equal(t, []string{"Query.user", "Query.users", "Mutation.createUser", "Subscription.userUpdated"}, names)
}

func TestBuildDerivesArguments(t *testing.T) {
	sch := mustSchema(t)
	_, err := Build(sch, Config{
		Operations: []Descriptor{
			{Type: "Query", Field: "user", Path: "/users/{args.id}/{args.id}?expand={args.filter.expand}", ArgTypeMap: map[string]string{"expand": "[String!]"}},
			{Type: "Mutation", Field: "createUser", Path: "/users/{context.tenant}", RequestBaseBody: map[string]any{"source": "{args.origin}", "meta": map[string]any{"trace": "{args.meta.trace}"}}},
			{Type: "Subscription", Field: "userUpdated", PubSubTopic: "user.{args.userId}.updated", ArgTypeMap: map[string]string{"userId": "Int!"}},
		},
	})
	require.NoError(t, err)

	user := sch.Types["Query"].GetField("user")
	require.Equal(t, []string{"id", "expand"}, argNames(user))
	require.Equal(t, schema.NamedType("ID"), user.GetArgument("id").Type)
	require.Equal(t, schema.ListType(schema.NonNullType(schema.NamedType("String"))), user.GetArgument("expand").Type)

	create := sch.Types["Mutation"].GetField("createUser")
	require.Equal(t, []string{"input", "trace", "origin"}, argNames(create))
	require.Equal(t, schema.NamedType("CreateUser"), create.GetArgument("input").Type)
	require.Equal(t, schema.NamedType("ID"), create.GetArgument("origin").Type)
	require.Equal(t, schema.NamedType("JSON"), create.GetArgument("trace").Type)
	require.NotNil(t, sch.Types["JSON"])
	require.Equal(t, schema.TypeKindScalar, sch.Types["JSON"].Kind)

	upd := sch.Types["Subscription"].GetField("userUpdated")
	require.Equal(t, schema.NonNullType(schema.NamedType("Int")), upd.GetArgument("userId").Type)

	// the extended schema still renders and parses
	_, err = schema.BuildFromSDL(schema.Render(sch))
	require.NoError(t, err)
}

func TestBuildKeepsDeclaredArguments(t *testing.T) {
	sch, err := schema.BuildFromSDL(`type Query { user(id: Int!): String }`)
	require.NoError(t, err)
	_, err = Build(sch, Config{Operations: []Descriptor{{Type: "Query", Field: "user", Path: "/u/{args.id}"}}})
	require.NoError(t, err)
	require.Equal(t, schema.NonNullType(schema.NamedType("Int")), sch.Types["Query"].GetField("user").GetArgument("id").Type)
	require.Nil(t, sch.Types["JSON"])
}

func TestBuildAsyncAndDescriptions(t *testing.T) {
	sch := mustSchema(t)
	_, err := Build(sch, Config{
		Operations: []Descriptor{
			{Type: "Query", Field: "user", Path: "/u"},
			{Type: "Query", Field: "users", Path: "/u", Description: "All users"},
			{Type: "Subscription", Field: "userUpdated", PubSubTopic: "user.updated"},
		},
	})
	require.NoError(t, err)

	q := sch.Types["Query"]
	require.True(t, q.GetField("user").Async)
	require.Equal(t, "Fetch one user", q.GetField("user").Description)
	require.Equal(t, "All users", q.GetField("users").Description)
	require.False(t, q.GetField("version").Async)

	upd := sch.Types["Subscription"].GetField("userUpdated")
	require.False(t, upd.Async)
	require.Equal(t, "PubSub Topic: user.updated", upd.Description)
}

func TestBuildDebugDescription(t *testing.T) {
	sch := mustSchema(t)
	_, err := Build(sch, Config{
		BaseURL: "https://api.example.com",
		Debug:   true,
		Operations: []Descriptor{
			{Type: "Query", Field: "user", Path: "/users/{args.id}"},
			{Type: "Mutation", Field: "createUser", Path: "/users", Description: "Create"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "Original Description: (none)\nMethod: GET\nbaseUrl: https://api.example.com\nPath: /users/{args.id}",
		sch.Types["Query"].GetField("user").Description)
	require.Equal(t, "Original Description: Create\nMethod: POST\nbaseUrl: https://api.example.com\nPath: /users",
		sch.Types["Mutation"].GetField("createUser").Description)
}

func TestBuildViolations(t *testing.T) {
	sch, err := schema.BuildFromSDL(`
type Query { user: String other: String }
type Mutation { m: String }
`)
	require.NoError(t, err)

	_, err = Build(sch, Config{
		Operations: []Descriptor{
			{Type: "Query", Field: "missing", Path: "/x"},
			{Type: "Subscription", Field: "s", PubSubTopic: "t"},
			{Type: "Query", Field: "user", Path: "/x", PubSubTopic: "t"},
			{Type: "Query", Field: "user"},
			{Type: "Query", Field: "user", PubSubTopic: "t"},
			{Type: "Query", Field: "user", Path: "/{args.a}", ArgTypeMap: map[string]string{"a": "[Int"}},
			{Type: "Query", Field: "other", Path: "/{args.a}", ArgTypeMap: map[string]string{"a": "Missing"}},
			{Type: "Mutation", Field: "m", Path: "/m"},
			{Type: "mutation", Field: "m", Path: "/m"},
		},
	})
	require.Error(t, err)

	var verr ValidationError
	require.True(t, errors.As(err, &verr))
	got := make([]string, 0, len(verr))
	for _, v := range verr {
		got = append(got, v.Message)
	}
	want := []string{
		`Field "missing" not found on type "Query"`,
		`Root type "Subscription" is not defined in the schema`,
		"Exactly one of path and pubsubTopic must be set",
		"Exactly one of path and pubsubTopic must be set",
		"pubsubTopic is only allowed on Subscription fields",
		`Invalid type "[Int" for argument "a": invalid type expression "[Int"`,
		`Unknown type "Missing" for argument "a"`,
		"Field is bound more than once",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("violations mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 8, verr[len(verr)-1].Index)
	require.Contains(t, err.Error(), `- Field "missing" not found on type "Query" (operations[0] Query.missing)`)
}

func TestBuildPathOnSubscriptionRejected(t *testing.T) {
	sch := mustSchema(t)
	_, err := Build(sch, Config{Operations: []Descriptor{{Type: "Subscription", Field: "userUpdated", Path: "/x"}}})
	require.ErrorContains(t, err, "Subscription fields must be bound with pubsubTopic")
}

func TestBuildFromSDL(t *testing.T) {
	sch, reg, err := BuildFromSDL(`type Query { ping: String }`, Config{
		Operations: []Descriptor{{Type: "Query", Field: "ping", Path: "/ping"}},
	})
	require.NoError(t, err)
	require.True(t, sch.GetQueryType().GetField("ping").Async)
	_, ok := reg.Lookup("Query", "ping")
	require.True(t, ok)

	_, _, err = BuildFromSDL(`type Query { ping: Nope }`, Config{})
	require.Error(t, err)
}

func TestNilRegistryLookup(t *testing.T) {
	var reg *Registry
	_, ok := reg.Lookup("Query", "x")
	require.False(t, ok)
}

func argNames(f *schema.Field) []string {
	out := []string{}
	for _, a := range f.Arguments {
		out = append(out, a.Name)
	}
	return out
}

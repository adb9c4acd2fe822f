package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const testSDL = `
"""A user of the upstream API"""
type User {
  id: ID!
  name: String
  tags: [String!]
  status: Status @deprecated(reason: "use state")
}

enum Status { ACTIVE INACTIVE }

input UserFilter {
  name: String
  limit: Int = 10
}

input SearchBy @oneOf {
  byName: String
  byEmail: String
}

union SearchResult = User | NotFound

type NotFound { message: String }

scalar JSON

type Query {
  user(id: ID!): User
  users(filter: UserFilter): [User]
  search(input: SearchBy): SearchResult
}

type Mutation {
  createUser(input: JSON): User
}
`

func TestBuildFromSDL(t *testing.T) {
	sch, err := BuildFromSDL(testSDL)
	require.NoError(t, err)

	require.Equal(t, "Query", sch.QueryType)
	require.Equal(t, "Mutation", sch.MutationType)
	require.Empty(t, sch.SubscriptionType)

	user := sch.Types["User"]
	require.NotNil(t, user)
	require.Equal(t, TypeKindObject, user.Kind)
	require.Equal(t, "A user of the upstream API", user.Description)
	require.Equal(t, []string{"id", "name", "tags", "status"}, fieldNames(user))
	require.True(t, user.GetField("status").IsDeprecated)
	require.Equal(t, "use state", user.GetField("status").DeprecationReason)

	tags := user.GetField("tags").Type
	require.True(t, IsList(tags))
	require.True(t, IsNonNull(Unwrap(tags)))
	require.Equal(t, "String", GetNamedType(tags))

	filter := sch.Types["UserFilter"]
	require.Equal(t, TypeKindInputObject, filter.Kind)
	require.False(t, filter.OneOf)
	require.EqualValues(t, 10, filter.GetInputField("limit").DefaultValue)

	require.True(t, sch.Types["SearchBy"].OneOf)
	require.Equal(t, []string{"User", "NotFound"}, sch.Types["SearchResult"].PossibleTypes)

	// Built-ins are shared across schemas
	b, err := builtins()
	require.NoError(t, err)
	require.Same(t, b.Types["String"], sch.Types["String"])
	require.Same(t, b.Directives["include"], sch.Directives["include"])
	require.Equal(t, []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"}, sch.Directives["skip"].Locations)
	require.NotNil(t, sch.Directives["deprecated"])
	for name := range sch.Types {
		require.NotContains(t, name, "__")
	}
}

func TestBuildFromSDLInvalid(t *testing.T) {
	_, err := BuildFromSDL(`type Query { user: Missing }`)
	require.Error(t, err)
}

func TestRenderRoundTrip(t *testing.T) {
	sch, err := BuildFromSDL(testSDL)
	require.NoError(t, err)

	sdl := Render(sch)
	again, err := BuildFromSDL(sdl)
	require.NoError(t, err, sdl)

	if diff := cmp.Diff(Render(sch), Render(again)); diff != "" {
		t.Fatalf("render not stable (-first +second):\n%s", diff)
	}
}

func TestRenderCustomRootNames(t *testing.T) {
	sch, err := BuildFromSDL(`
schema { query: Root }
type Root { ping: String }
`)
	require.NoError(t, err)
	require.Equal(t, "Root", sch.QueryType)

	sdl := Render(sch)
	require.Contains(t, sdl, "schema {\n  query: Root\n}")

	again, err := BuildFromSDL(sdl)
	require.NoError(t, err)
	require.Equal(t, "Root", again.QueryType)
}

func TestRenderDescriptionWithQuotes(t *testing.T) {
	sch := NewSchema("").SetQueryType("Query")
	require.NoError(t, addBuiltins(sch))
	sch.AddType(NewType("Query", TypeKindObject, "").
		AddField(NewField("ping", `says "pong" and """ends"""`, NamedType("String"))))

	again, err := BuildFromSDL(Render(sch))
	require.NoError(t, err)
	require.Equal(t, `says "pong" and """ends"""`, again.GetQueryType().GetField("ping").Description)
}

func TestRootType(t *testing.T) {
	sch, err := BuildFromSDL(testSDL)
	require.NoError(t, err)

	require.Equal(t, "Query", sch.RootType("query").Name)
	require.Equal(t, "Query", sch.RootType("Query").Name)
	require.Equal(t, "Mutation", sch.RootType("MUTATION").Name)
	require.Nil(t, sch.RootType("subscription"))
	require.Nil(t, sch.RootType("User"))
	require.Nil(t, sch.RootType(""))
}

func TestParseTypeRef(t *testing.T) {
	cases := map[string]*TypeRef{
		"ID":       NamedType("ID"),
		"ID!":      NonNullType(NamedType("ID")),
		"[ID]":     ListType(NamedType("ID")),
		"[ID!]!":   NonNullType(ListType(NonNullType(NamedType("ID")))),
		" JSON ":   NamedType("JSON"),
		"[[Int]]!": NonNullType(ListType(ListType(NamedType("Int")))),
	}
	for expr, want := range cases {
		got, err := ParseTypeRef(expr)
		require.NoError(t, err, expr)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("%q mismatch (-want +got):\n%s", expr, diff)
		}
	}

	for _, bad := range []string{"", "!", "ID!!", "[ID", "I-D"} {
		_, err := ParseTypeRef(bad)
		require.Error(t, err, bad)
	}
}

func fieldNames(t *Type) []string {
	out := make([]string, 0, len(t.Fields))
	for _, f := range t.Fields {
		out = append(out, f.Name)
	}
	return out
}

func TestRenderTypedDefaults(t *testing.T) {
	sch, err := BuildFromSDL(`
enum Role { ADMIN MEMBER }
input Filter { role: Role = MEMBER roles: [Role!] = [ADMIN] name: String = "x" }
type Query { users(filter: Filter = {role: ADMIN, name: "y"}, role: Role = ADMIN): [String] }
`)
	require.NoError(t, err)

	sdl := Render(sch)
	require.Contains(t, sdl, "role: Role = MEMBER")
	require.Contains(t, sdl, "roles: [Role!] = [ADMIN]")
	require.Contains(t, sdl, `name: String = "x"`)
	require.Contains(t, sdl, `users(filter: Filter = {name: "y", role: ADMIN}, role: Role = ADMIN): [String]`)

	_, err = BuildFromSDL(sdl)
	require.NoError(t, err, sdl)
}

package httprt

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	schema "github.com/saihaj/graphql-mesh/internal/schema"
)

const unionSDL = `
input ContactBy @oneOf {
  byEmail: String
  byAddress: Address
}
input Address { street: String, city: String }
input Search {
  contact: ContactBy
  contacts: [ContactBy!]
  address: Address
  limit: Int
}
type Query { ping: String }
`

func TestUnionInputResolver(t *testing.T) {
	sch, err := schema.BuildFromSDL(unionSDL)
	require.NoError(t, err)
	r := NewUnionInputResolver(sch)

	cases := []struct {
		name string
		in   any
		typ  *schema.TypeRef
		want any
	}{
		{
			name: "oneOf collapses to its member",
			in:   map[string]any{"byEmail": "ada@example.com"},
			typ:  schema.NamedType("ContactBy"),
			want: "ada@example.com",
		},
		{
			name: "oneOf member resolved recursively",
			in:   map[string]any{"byAddress": []any{map[string]any{"city": "London"}}},
			typ:  schema.NonNullType(schema.NamedType("ContactBy")),
			want: map[string]any{"city": "London"},
		},
		{
			name: "first declared member wins",
			in:   map[string]any{"byAddress": map[string]any{"city": "x"}, "byEmail": "e"},
			typ:  schema.NamedType("ContactBy"),
			want: "e",
		},
		{
			name: "nested fields and lists",
			in: map[string]any{
				"contact":  map[string]any{"byEmail": "a"},
				"contacts": map[string]any{"byEmail": "b"},
				"limit":    5,
				"extra":    "kept",
			},
			typ: schema.NamedType("Search"),
			want: map[string]any{
				"contact":  "a",
				"contacts": []any{"b"},
				"limit":    5,
				"extra":    "kept",
			},
		},
		{
			name: "scalars pass through",
			in:   "x",
			typ:  schema.NamedType("String"),
			want: "x",
		},
		{
			name: "nil type",
			in:   map[string]any{"a": 1},
			want: map[string]any{"a": 1},
		},
		{
			name: "nil value",
			typ:  schema.NamedType("Search"),
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if diff := cmp.Diff(c.want, r.ResolveInput(c.in, c.typ)); diff != "" {
				t.Fatalf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnionInputResolverDoesNotModifyInput(t *testing.T) {
	sch, err := schema.BuildFromSDL(unionSDL)
	require.NoError(t, err)

	in := map[string]any{"contact": map[string]any{"byEmail": "a"}}
	_ = NewUnionInputResolver(sch).ResolveInput(in, schema.NamedType("Search"))
	require.Equal(t, map[string]any{"contact": map[string]any{"byEmail": "a"}}, in)
}

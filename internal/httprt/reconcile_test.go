package httprt

import (
	"testing"

	"github.com/stretchr/testify/require"

	schema "github.com/saihaj/graphql-mesh/internal/schema"
)

func TestReconcile(t *testing.T) {
	list := schema.ListType(schema.NamedType("User"))
	nonNullList := schema.NonNullType(schema.ListType(schema.NamedType("User")))
	single := schema.NamedType("User")

	a := map[string]any{"id": "a"}
	b := map[string]any{"id": "b"}

	cases := []struct {
		name string
		typ  *schema.TypeRef
		in   any
		want any
	}{
		{"list wraps single", list, a, []any{a}},
		{"non-null list wraps single", nonNullList, a, []any{a}},
		{"list keeps list", list, []any{a, b}, []any{a, b}},
		{"single takes first", single, []any{a, b}, a},
		{"single of empty list", single, []any{}, nil},
		{"single keeps single", single, a, a},
		{"list wraps scalar", schema.ListType(schema.NamedType("String")), "x", []any{"x"}},
		{"list wraps nil", list, nil, []any{nil}},
		{"single keeps nil", single, nil, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, Reconcile(c.typ, c.in))
		})
	}
}

func TestAttachResponseMetadata(t *testing.T) {
	meta := ResponseMetadata{URL: "http://api.test/users/1", Method: "GET", Status: 200, StatusText: "OK"}
	v := map[string]any{"id": "1", "name": "Ada"}

	got := AttachResponseMetadata(v, meta).(map[string]any)

	require.NotContains(t, v, ResponseKey, "input must not be modified")
	require.Len(t, v, 2)
	for k, e := range v {
		require.Equal(t, e, got[k])
	}
	require.Equal(t, map[string]any{
		"url":        "http://api.test/users/1",
		"method":     "GET",
		"status":     200,
		"statusText": "OK",
	}, got[ResponseKey])

	got["name"] = "changed"
	require.Equal(t, "Ada", v["name"], "result must be a new object")
}

func TestAttachResponseMetadataPerElement(t *testing.T) {
	meta := ResponseMetadata{URL: "u", Method: "GET", Status: 200}
	in := []any{map[string]any{"id": "1"}, map[string]any{"id": "2"}, "scalar", nil}

	got := AttachResponseMetadata(in, meta).([]any)

	require.Len(t, got, 4)
	for _, i := range []int{0, 1} {
		require.Contains(t, got[i], ResponseKey)
		require.NotContains(t, in[i], ResponseKey)
	}
	require.Equal(t, "scalar", got[2])
	require.Nil(t, got[3])
}

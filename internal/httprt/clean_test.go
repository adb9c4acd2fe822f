package httprt

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestCleanObject(t *testing.T) {
	in := map[string]any{
		"name":  "ada",
		"email": nil,
		"address": map[string]any{
			"city": nil,
			"zip":  "1000",
		},
		"tags":  []any{"a", nil, "b", nil},
		"empty": "",
		"nested": []any{
			map[string]any{"x": nil, "y": 1},
		},
	}
	want := map[string]any{
		"name":    "ada",
		"address": map[string]any{"zip": "1000"},
		"tags":    []any{"a", nil, "b"},
		"empty":   "",
		"nested":  []any{map[string]any{"y": 1}},
	}

	got := CleanObject(in)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("clean mismatch (-want +got):\n%s", diff)
	}
	require.Contains(t, in, "email", "input must not be modified")
	require.Len(t, in["tags"], 4)

	require.Equal(t, got, CleanObject(got), "cleaning is idempotent")
}

func TestCleanObjectScalars(t *testing.T) {
	require.Nil(t, CleanObject(nil))
	require.Equal(t, "x", CleanObject("x"))
	require.Equal(t, 3, CleanObject(3))
	require.Equal(t, map[string]any{}, CleanObject(map[string]any{"a": nil}))
	require.Equal(t, []any{}, CleanObject([]any{nil, nil}))
}

func TestCleanObjectKeepsListPositions(t *testing.T) {
	got := CleanObject(map[string]any{"ids": []any{1, nil, 3}})
	require.Equal(t, map[string]any{"ids": []any{1, nil, 3}}, got)
	require.Equal(t, "ids%5B0%5D=1&ids%5B2%5D=3", StringifyQuery(got))
}

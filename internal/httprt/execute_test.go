package httprt

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/saihaj/graphql-mesh/internal/executor"
	language "github.com/saihaj/graphql-mesh/internal/language"
)

func TestExecuteThroughExecutor(t *testing.T) {
	f := NewMockFetcher(func(req *Request) (*Response, error) {
		if strings.HasSuffix(req.URL, "/404") {
			return NewMockResponse(http.StatusNotFound, `{"error":"not found"}`), nil
		}
		return NewMockResponse(http.StatusOK, `{"id":42,"name":"Ada","age":"36"}`), nil
	})
	rt, sch := newTestRuntime(t, WithFetcher(f))
	exec := executor.NewExecutor(rt, sch)

	doc, err := language.ParseQuery(`{
  user(id: 42) { id name age }
  missing: user(id: 404) { id }
}`)
	require.NoError(t, err)

	res := exec.ExecuteRequest(testContext(), doc, "", nil, nil)

	want := map[string]any{
		"user":    map[string]any{"id": "42", "name": "Ada", "age": int32(36)},
		"missing": nil,
	}
	if diff := cmp.Diff(want, res.Data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, res.Errors, 1)
	require.Equal(t, "HTTP Error: 404", res.Errors[0].Message)
	require.Equal(t, 404, res.Errors[0].Extensions["status"])
	require.Equal(t, "http://api.test/v1/users/404", res.Errors[0].Extensions["url"])
	require.Len(t, f.Requests(), 2)
}

func TestDecodeJSON(t *testing.T) {
	v, err := decodeJSON(` {"n": 1.50} `)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"n": json.Number("1.50")}, v)

	for _, bad := range []string{"", "{", "[] []", "nope"} {
		_, err := decodeJSON(bad)
		require.Error(t, err, bad)
	}
}

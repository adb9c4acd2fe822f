package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMutationRootFieldsRunInOrder(t *testing.T) {
	rt := NewMockRuntime(map[string]MockResolver{
		"Mutation.rename": func(_ context.Context, _ any, args map[string]any) (any, error) {
			return map[string]any{"id": args["id"], "name": args["name"]}, nil
		},
		"Mutation.touch": NewMockValueResolver(1),
		"User.friend":    NewMockValueResolver(people["2"]),
	})
	res := NewExecutor(rt, testSchema(t)).ExecuteRequest(context.Background(), parse(t, `mutation {
  first: rename(id: "1", name: "Ada L.") { name friend { name } }
  touch(id: "1")
  second: rename(id: "2", name: "G. Hopper") { name }
}`), "", nil, nil)

	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{
		"first":  map[string]any{"name": "Ada L.", "friend": map[string]any{"name": "Grace"}},
		"touch":  1,
		"second": map[string]any{"name": "G. Hopper"},
	}, res.Data)
	require.Equal(t, []string{
		"1:Mutation.rename",
		"2:User.friend",
		"3:Mutation.touch",
		"4:Mutation.rename",
	}, asyncCalls(rt), "each root field finishes before the next starts")
}

func TestMutationFailureDoesNotStopLaterFields(t *testing.T) {
	rt := NewMockRuntime(map[string]MockResolver{
		"Mutation.rename": NewMockErrorResolver(&extError{msg: "HTTP Error: 409", ext: map[string]any{"status": 409}}),
		"Mutation.touch":  NewMockValueResolver(2),
	})
	res := NewExecutor(rt, testSchema(t)).ExecuteRequest(context.Background(), parse(t, `mutation {
  rename(id: "1", name: "x") { name }
  touch(id: "1")
}`), "", nil, nil)

	require.Equal(t, map[string]any{"rename": nil, "touch": 2}, res.Data)
	require.Len(t, res.Errors, 1)
	require.Equal(t, 409, res.Errors[0].Extensions["status"])
}

package executor

import (
	"context"
	"fmt"

	language "github.com/saihaj/graphql-mesh/internal/language"
)

// Subscribe starts a subscription operation. It returns either a stream of
// results, one per source event, or a result holding the errors that kept
// the subscription from starting.
//
// Each source event becomes the initial value of a regular execution of the
// operation, so the root field resolves through ResolveSync with the event
// as its source. The stream closes when ctx is done or the source ends.
func (e *Executor) Subscribe(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
) (<-chan *ExecutionResult, *ExecutionResult) {
	req, failed := e.prepare(document, operationName, variableValues)
	if failed != nil {
		return nil, failed
	}
	if req.op.Operation != language.Subscription {
		return nil, requestError(fmt.Sprintf("Operation is a %s, not a subscription.", req.op.Operation))
	}
	sr, ok := e.runtime.(SubscriptionRuntime)
	if !ok {
		return nil, requestError("Subscriptions are not supported by this runtime.")
	}

	x := &execution{Executor: e, ctx: ctx, req: req}
	groups := x.collectFields(req.root, req.op.SelectionSet)
	if len(groups) != 1 {
		return nil, requestError("Subscription operations must select exactly one root field.")
	}
	g := groups[0]
	path := Path{g.key}
	def := req.root.GetField(g.nodes[0].Name)
	if def == nil {
		return nil, &ExecutionResult{Errors: []GraphQLError{{
			Message:   fmt.Sprintf("Cannot query field %q on type %q.", g.nodes[0].Name, req.root.Name),
			Locations: locationsOf(g.nodes),
			Path:      path,
		}}}
	}
	args, err := e.coerceArguments(def, g.nodes[0], req.vars)
	if err != nil {
		return nil, fieldFailure(err, path, g.nodes)
	}
	source, err := sr.Subscribe(ctx, req.root.Name, def.Name, args)
	if err != nil {
		return nil, fieldFailure(err, path, g.nodes)
	}
	return e.stream(ctx, req, source), nil
}

func fieldFailure(err error, path Path, nodes []*language.Field) *ExecutionResult {
	ge := NewFieldError(err, path)
	ge.Locations = locationsOf(nodes)
	return &ExecutionResult{Errors: []GraphQLError{ge}}
}

func (e *Executor) stream(ctx context.Context, req *request, source <-chan any) <-chan *ExecutionResult {
	out := make(chan *ExecutionResult)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-source:
				if !ok {
					return
				}
				select {
				case out <- e.execute(ctx, req, event):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

package executor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	language "github.com/saihaj/graphql-mesh/internal/language"
	schema "github.com/saihaj/graphql-mesh/internal/schema"
)

// Path locates a value in the response: field keys and list indices.
type Path []any

func (p Path) String() string {
	var b strings.Builder
	for i, elem := range p {
		switch v := elem.(type) {
		case int:
			b.WriteString("[" + strconv.Itoa(v) + "]")
		default:
			if i > 0 {
				b.WriteByte('.')
			}
			fmt.Fprint(&b, v)
		}
	}
	return b.String()
}

func appendPath(p Path, elem any) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, elem)
}

// Executor runs operations against a schema, delegating field resolution
// to a Runtime. It holds no per-operation state and is safe for
// concurrent use.
type Executor struct {
	runtime Runtime
	schema  *schema.Schema
}

func NewExecutor(runtime Runtime, sch *schema.Schema) *Executor {
	return &Executor{runtime: runtime, schema: sch}
}

// ExecuteRequest runs a query or mutation. Field errors are collected next
// to partial data; request errors (unknown operation, bad variables) come
// back with nil data.
func (e *Executor) ExecuteRequest(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	initialValue any,
) *ExecutionResult {
	req, failed := e.prepare(document, operationName, variableValues)
	if failed != nil {
		return failed
	}
	return e.execute(ctx, req, initialValue)
}

// execution is the state of one operation run.
type execution struct {
	*Executor
	ctx context.Context
	req *request

	data    any
	errors  []GraphQLError
	pending []*pendingField
}

// pendingField is an async field waiting for the next runtime batch.
type pendingField struct {
	slot   *slot
	field  *fieldInfo
	source any
	args   map[string]any
}

// fieldInfo describes one field of one object being executed.
type fieldInfo struct {
	parent *schema.Type
	def    *schema.Field
	nodes  []*language.Field
	path   Path
}

func (e *Executor) execute(ctx context.Context, req *request, initialValue any) *ExecutionResult {
	x := &execution{Executor: e, ctx: ctx, req: req}
	data := make(map[string]any)
	x.data = data
	root := &slot{nullable: true, write: func(v any) { x.data = v }}

	groups := x.collectFields(req.root, req.op.SelectionSet)
	if req.op.Operation == language.Mutation {
		// Root mutation fields run one after another, each to completion.
		for _, g := range groups {
			x.executeField(root, req.root, initialValue, g, nil, data)
			x.drain()
		}
	} else {
		for _, g := range groups {
			x.executeField(root, req.root, initialValue, g, nil, data)
		}
		x.drain()
	}
	return &ExecutionResult{Data: x.data, Errors: x.errors}
}

// executeFields executes the selections of one object into out.
func (x *execution) executeFields(parent *slot, objectType *schema.Type, source any, set language.SelectionSet, path Path, out map[string]any) {
	for _, g := range x.collectFields(objectType, set) {
		x.executeField(parent, objectType, source, g, path, out)
	}
}

func (x *execution) executeField(parent *slot, objectType *schema.Type, source any, g *fieldGroup, path Path, out map[string]any) {
	node := g.nodes[0]
	path = appendPath(path, g.key)
	if node.Name == "__typename" {
		out[g.key] = objectType.Name
		return
	}

	key := g.key
	s := &slot{parent: parent, nullable: true, write: func(v any) { out[key] = v }}
	def := objectType.GetField(node.Name)
	if def == nil {
		x.errors = append(x.errors, GraphQLError{
			Message:   fmt.Sprintf("Cannot query field %q on type %q.", node.Name, objectType.Name),
			Locations: locationsOf(g.nodes),
			Path:      path,
		})
		return
	}
	s.nullable = !schema.IsNonNull(def.Type)
	f := &fieldInfo{parent: objectType, def: def, nodes: g.nodes, path: path}
	out[key] = nil

	args, err := x.coerceArguments(def, node, x.req.vars)
	if err != nil {
		x.fail(s, f, path, err)
		return
	}
	if def.Async {
		x.pending = append(x.pending, &pendingField{slot: s, field: f, source: source, args: args})
		return
	}
	v, err := x.runtime.ResolveSync(x.ctx, objectType.Name, def.Name, source, args)
	if err != nil {
		x.fail(s, f, path, err)
		return
	}
	x.complete(s, f, def.Type, v, path)
}

// drain resolves pending async fields one depth at a time: every field
// queued while completing a batch waits for the next one, so the runtime
// sees exactly one batch per depth.
func (x *execution) drain() {
	for len(x.pending) > 0 {
		batch := make([]*pendingField, 0, len(x.pending))
		for _, p := range x.pending {
			if !p.slot.dead() {
				batch = append(batch, p)
			}
		}
		x.pending = nil
		if len(batch) == 0 {
			return
		}

		tasks := make([]AsyncResolveTask, len(batch))
		for i, p := range batch {
			tasks[i] = AsyncResolveTask{
				ObjectType: p.field.parent.Name,
				Field:      p.field.def.Name,
				Source:     p.source,
				Args:       p.args,
			}
		}
		results := x.runtime.BatchResolveAsync(x.ctx, tasks)

		for i, p := range batch {
			// An earlier result of this batch may have nulled an ancestor.
			if p.slot.dead() {
				continue
			}
			if i >= len(results) {
				x.fail(p.slot, p.field, p.field.path, errors.New("runtime returned no result for this field"))
				continue
			}
			if results[i].Error != nil {
				x.fail(p.slot, p.field, p.field.path, results[i].Error)
				continue
			}
			x.complete(p.slot, p.field, p.field.def.Type, results[i].Value, p.field.path)
		}
	}
}

package httprt

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/saihaj/graphql-mesh/internal/executor"
	"github.com/saihaj/graphql-mesh/internal/interpolate"
	"github.com/saihaj/graphql-mesh/internal/opreg"
	"github.com/saihaj/graphql-mesh/internal/pubsub"
	schema "github.com/saihaj/graphql-mesh/internal/schema"
)

// Registry is the operation table the runtime dispatches on.
// *opreg.Registry implements it.
type Registry interface {
	Lookup(objectType, field string) (opreg.Operation, bool)
}

// Runtime implements executor.Runtime and executor.SubscriptionRuntime for
// fields bound to HTTP requests and pubsub topics.
//
//   - HTTP fields are async. Each task becomes one upstream request; the
//     decoded body, reshaped to the field's cardinality, is the raw value.
//   - Event fields are sync and resolve to the event payload unchanged.
//   - Any other object field is read from the parent JSON object.
//   - Invocations share nothing but the registry and the options, so any
//     number may run concurrently.
type Runtime struct {
	reg    Registry
	schema *schema.Schema
	opts   *Options
	union  UnionInputResolver
}

var (
	_ executor.Runtime             = (*Runtime)(nil)
	_ executor.SubscriptionRuntime = (*Runtime)(nil)
)

func NewRuntime(reg Registry, sch *schema.Schema, opts ...Option) *Runtime {
	o := defaultOptions()
	for _, f := range opts {
		f(o)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Env == nil {
		o.Env = environ()
	}
	union := o.UnionResolver
	if union == nil {
		union = NewUnionInputResolver(sch)
	}
	return &Runtime{reg: reg, schema: sch, opts: o, union: union}
}

// ResolveSync resolves event fields and plain properties of upstream
// objects. It only performs I/O when an HTTP field was left sync.
func (r *Runtime) ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error) {
	if op, ok := r.reg.Lookup(objectType, field); ok {
		switch op := op.(type) {
		case *opreg.EventOperation:
			return source, nil
		case *opreg.HTTPOperation:
			return r.execute(ctx, op, source, args)
		}
	}
	if obj, ok := source.(map[string]any); ok {
		return obj[field], nil
	}
	return nil, nil
}

// BatchResolveAsync issues the requests of one execution depth. Tasks are
// grouped by (objectType, field) and fanned out with an errgroup bounded by
// MaxConcurrency. Results land in their task's slot; one failure never
// affects another task.
func (r *Runtime) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	results := make([]executor.AsyncResolveResult, len(tasks))
	if len(tasks) == 0 {
		return results
	}
	type groupKey struct {
		objectType string
		field      string
	}
	var order []groupKey
	groups := map[groupKey][]int{}
	for i, t := range tasks {
		k := groupKey{t.ObjectType, t.Field}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}

	var g errgroup.Group
	if r.opts.MaxConcurrency > 0 {
		g.SetLimit(r.opts.MaxConcurrency)
	}
	for _, k := range order {
		op, ok := r.reg.Lookup(k.objectType, k.field)
		httpOp, isHTTP := op.(*opreg.HTTPOperation)
		for _, i := range groups[k] {
			if !ok || !isHTTP {
				results[i] = executor.AsyncResolveResult{Error: fmt.Errorf("no HTTP operation bound to %s.%s", k.objectType, k.field)}
				continue
			}
			task := tasks[i]
			g.Go(func() error {
				v, err := r.execute(ctx, httpOp, task.Source, task.Args)
				results[i] = executor.AsyncResolveResult{Value: v, Error: err}
				return nil
			})
		}
	}
	_ = g.Wait()
	return results
}

// Subscribe opens the event stream of a pubsub-bound field. The bus on the
// context wins over the configured one.
func (r *Runtime) Subscribe(ctx context.Context, objectType string, field string, args map[string]any) (<-chan any, error) {
	op, ok := r.reg.Lookup(objectType, field)
	event, isEvent := op.(*opreg.EventOperation)
	if !ok || !isEvent {
		return nil, fmt.Errorf("no pubsub topic bound to %s.%s", objectType, field)
	}
	ps := pubsub.FromContext(ctx)
	if ps == nil {
		ps = r.opts.PubSub
	}
	topic := interpolate.Render(event.Topic, r.sources(ctx, op.GetBinding(), nil, args))
	if ps == nil {
		return nil, &Error{Message: msgNoPubSub, Details: map[string]any{"topic": topic}}
	}
	r.opts.Logger.Named(op.GetBinding().Name()).Debug("subscribing", zap.String("topic", topic))
	return ps.AsyncIterator(ctx, topic)
}

// ResolveType picks the concrete type of an upstream object: its
// __typename when that names a possible type, otherwise the possible type
// declaring the most of the object's keys. Ties go to the first declared.
func (r *Runtime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	t := r.schema.Types[abstractType]
	if t == nil {
		return "", fmt.Errorf("unknown abstract type %s", abstractType)
	}
	possible := r.possibleTypes(t)
	if len(possible) == 0 {
		return "", fmt.Errorf("abstract type %s has no possible types", abstractType)
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return possible[0], nil
	}
	if name, ok := obj["__typename"].(string); ok {
		for _, p := range possible {
			if p == name {
				return p, nil
			}
		}
	}
	best, bestScore := possible[0], -1
	for _, p := range possible {
		pt := r.schema.Types[p]
		if pt == nil {
			continue
		}
		score := 0
		for k := range obj {
			if pt.GetField(k) != nil {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = p, score
		}
	}
	return best, nil
}

func (r *Runtime) possibleTypes(t *schema.Type) []string {
	if len(t.PossibleTypes) > 0 || t.Kind == schema.TypeKindUnion {
		return t.PossibleTypes
	}
	var out []string
	for name, candidate := range r.schema.Types {
		if candidate.Kind != schema.TypeKindObject {
			continue
		}
		for _, iface := range candidate.Interfaces {
			if iface == t.Name {
				out = append(out, name)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

func environ() map[string]string {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

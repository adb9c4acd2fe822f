package executor

import "context"

// Runtime resolves fields for the Executor.
//
// Fields marked Async in the schema are never passed to ResolveSync. They
// are collected per depth and handed to BatchResolveAsync in one call, which
// must return one result per task in task order. A failed task affects only
// its own field. Errors implementing ExtendedError keep their extensions in
// the response.
//
// Implementations must be safe for concurrent use and must not modify
// source or args.
type Runtime interface {
	// ResolveSync resolves a field without batching. Returning (nil, nil)
	// produces null.
	ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error)

	// BatchResolveAsync resolves the async fields of one depth.
	BatchResolveAsync(ctx context.Context, tasks []AsyncResolveTask) []AsyncResolveResult

	// ResolveType names the object type of a value of an interface or union.
	ResolveType(ctx context.Context, abstractType string, value any) (string, error)

	// SerializeLeafValue converts a scalar or enum value to its JSON-ready
	// form.
	SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error)
}

// AsyncResolveTask is one async field invocation.
type AsyncResolveTask struct {
	ObjectType string
	Field      string
	// Source is the parent value, or the operation's initial value for root
	// fields.
	Source any
	// Args are coerced against the field's argument definitions.
	Args map[string]any
}

// AsyncResolveResult is the outcome of the task at the same index.
type AsyncResolveResult struct {
	Value any
	Error error
}

// SubscriptionRuntime is implemented by runtimes that serve subscription
// root fields. The returned channel must close when ctx is done or the
// source ends.
type SubscriptionRuntime interface {
	Subscribe(ctx context.Context, objectType string, field string, args map[string]any) (<-chan any, error)
}

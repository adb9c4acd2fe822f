// Package executor executes GraphQL operations against a schema whose
// fields are resolved by a Runtime.
//
// # Depths and batches
//
// Execution proceeds breadth first. Sync fields (schema.Field.Async false)
// are resolved and completed immediately, so descending through them never
// adds a depth. Async fields are queued; once the current depth has been
// expanded, the queue is handed to Runtime.BatchResolveAsync in a single
// call and the results are completed, which queues the async fields of the
// next depth. An operation whose deepest chain crosses d async fields thus
// makes d batch calls.
//
// Root mutation fields are the exception: each one is executed and drained
// before the next starts, so mutations reach upstreams in document order.
//
// # Nulls and errors
//
// Every field and list item owns a slot in the response tree. A resolver
// error, a failed leaf serialization or a null for a Non-Null type records
// a located error and clears the nearest nullable slot above it; a failure
// that reaches a Non-Null root field clears data itself. Async work queued
// below a cleared slot is dropped before the next batch.
//
// Variables and arguments are coerced before resolution: built-in scalars
// are checked, enum values must exist, input objects receive their defaults
// and reject unknown fields. Custom scalars such as JSON or Upload are
// passed through as received.
//
// # Subscriptions
//
// Executor.Subscribe coerces the single root field's arguments once and asks
// a SubscriptionRuntime for the source stream. Each event is then executed
// as a regular operation with the event as initial value.
package executor

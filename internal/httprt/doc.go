// Package httprt executes GraphQL fields bound to upstream HTTP requests
// and pubsub topics.
//
// # HTTP fields
//
// One invocation of an HTTP-backed field runs these steps:
//
//  1. Render the base URL and path templates and join them.
//  2. Render the merged operation headers.
//  3. Build the payload. Binary operations read the Upload passed as
//     "input". Other operations fill requestBaseBody defaults into
//     "input", reshape it against the input type, then drop nil values.
//  4. Encode it: query string for GET, HEAD, CONNECT, OPTIONS and TRACE;
//     form or JSON body for POST, PUT, PATCH and DELETE.
//  5. Re-encode the query component without empty parameters.
//  6. Fetch through the context's Fetcher or the configured one.
//  7. Decode the body as JSON. Scalar fields accept non-JSON text.
//  8. Fail on non-2xx unless the field returns a union.
//  9. Reconcile list cardinality with the return type.
//  10. Attach "__response" metadata to each object.
//
// Every failure is an *Error carrying url and method extensions, which the
// executor forwards to the GraphQL error.
//
// # Event fields
//
// Subscription fields bound to a topic are streamed from a pubsub.PubSub.
// The topic template is rendered against the field arguments. Each payload
// becomes the value of the field as is.
package httprt

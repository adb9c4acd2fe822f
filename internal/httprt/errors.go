package httprt

// Messages surfaced to GraphQL clients.
const (
	msgNoFetch            = "You should have fetch defined in either the config or the context!"
	msgNoPubSub           = "You should have PubSub defined in either the config or the context!"
	msgUnexpectedResponse = "Unexpected response"
	msgRequestFailed      = "Request failed"
)

// Error is the structured failure of one field invocation. The executor
// copies Details into the GraphQL error extensions; url and method are
// always set for HTTP fields.
type Error struct {
	Message string
	Details map[string]any
}

func (e *Error) Error() string { return e.Message }

// Extensions implements executor.ExtendedError.
func (e *Error) Extensions() map[string]any { return e.Details }

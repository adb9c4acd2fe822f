package opreg

import schema "github.com/saihaj/graphql-mesh/internal/schema"

// Operation is a resolved binding. It is either *HTTPOperation or
// *EventOperation.
type Operation interface {
	GetBinding() *Binding
	operation()
}

// Binding is the part shared by both operation kinds.
type Binding struct {
	ObjectType string
	Field      string

	// ReturnType is the field's declared output type.
	ReturnType *schema.TypeRef
	// InputType is the declared type of the field's "input" argument, or nil.
	InputType *schema.TypeRef
}

// Name returns "ObjectType.field".
func (b *Binding) Name() string { return b.ObjectType + "." + b.Field }

// HTTPOperation is a field resolved by one upstream HTTP request.
type HTTPOperation struct {
	Binding
	Method  string
	BaseURL string
	Path    string
	// Headers holds the global operation headers merged with the
	// operation's own, keyed by canonical header name.
	Headers         map[string]string
	RequestBaseBody map[string]any
	Binary          bool
}

// EventOperation is a subscription field fed by a pubsub topic.
type EventOperation struct {
	Binding
	Topic string
}

func (o *HTTPOperation) GetBinding() *Binding  { return &o.Binding }
func (o *EventOperation) GetBinding() *Binding { return &o.Binding }

func (*HTTPOperation) operation()  {}
func (*EventOperation) operation() {}

// Package schema is the executable schema model: named types, fields and
// their type references. Schemas are built from SDL, extended by operation
// bindings (which mark fields async) and rendered back to SDL.
package schema

// Schema holds every named type plus the names of the root types. An empty
// root name means the schema has no such operation.
type Schema struct {
	Description      string
	QueryType        string
	MutationType     string
	SubscriptionType string
	Types            map[string]*Type
	Directives       map[string]*Directive
}

func (s *Schema) GetQueryType() *Type        { return s.Types[s.QueryType] }
func (s *Schema) GetMutationType() *Type     { return s.Types[s.MutationType] }
func (s *Schema) GetSubscriptionType() *Type { return s.Types[s.SubscriptionType] }

type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindInterface   TypeKind = "INTERFACE"
	TypeKindUnion       TypeKind = "UNION"
	TypeKindEnum        TypeKind = "ENUM"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
)

// Type is a named type. Which members are populated depends on Kind:
// Fields and Interfaces for objects and interfaces, PossibleTypes for
// unions, EnumValues for enums, InputFields and OneOf for input objects.
type Type struct {
	Name           string
	Kind           TypeKind
	Description    string
	Fields         []*Field
	Interfaces     []string
	PossibleTypes  []string
	EnumValues     []*EnumValue
	InputFields    []*InputValue
	OneOf          bool
	SpecifiedByURL *string
}

// Field is an output field. Async fields are resolved in batches, one batch
// per depth of the response tree.
type Field struct {
	Name              string
	Description       string
	Arguments         []*InputValue
	Type              *TypeRef
	Async             bool
	IsDeprecated      bool
	DeprecationReason string
}

// InputValue is a field argument, an input object field or a directive
// argument. DefaultValue holds the decoded literal, or nil for none.
type InputValue struct {
	Name              string
	Description       string
	Type              *TypeRef
	DefaultValue      any
	IsDeprecated      bool
	DeprecationReason string
}

type EnumValue struct {
	Name              string
	Description       string
	IsDeprecated      bool
	DeprecationReason string
}

type Directive struct {
	Name         string
	Description  string
	Arguments    []*InputValue
	Locations    []string
	IsRepeatable bool
}

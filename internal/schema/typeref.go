package schema

type TypeRefKind string

const (
	TypeRefKindNamed   TypeRefKind = "NAMED"
	TypeRefKindList    TypeRefKind = "LIST"
	TypeRefKindNonNull TypeRefKind = "NON_NULL"
)

// TypeRef is a possibly wrapped reference to a named type. Wrappers set
// OfType; named references set Named.
type TypeRef struct {
	Kind   TypeRefKind
	Named  string
	OfType *TypeRef
}

func NamedType(name string) *TypeRef   { return &TypeRef{Kind: TypeRefKindNamed, Named: name} }
func ListType(of *TypeRef) *TypeRef    { return &TypeRef{Kind: TypeRefKindList, OfType: of} }
func NonNullType(of *TypeRef) *TypeRef { return &TypeRef{Kind: TypeRefKindNonNull, OfType: of} }

func (t *TypeRef) IsNonNull() bool { return t != nil && t.Kind == TypeRefKindNonNull }

// IsList reports a list, optionally behind one non-null wrapper.
func (t *TypeRef) IsList() bool {
	if t == nil {
		return false
	}
	if t.IsNonNull() {
		t = t.OfType
	}
	return t != nil && t.Kind == TypeRefKindList
}

// Unwrap strips one wrapper. Named references are returned as they are.
func (t *TypeRef) Unwrap() *TypeRef {
	if t == nil || t.Kind == TypeRefKindNamed {
		return t
	}
	return t.OfType
}

// GetNamedType is the name at the bottom of the wrappers.
func (t *TypeRef) GetNamedType() string {
	for t != nil && t.Kind != TypeRefKindNamed {
		t = t.OfType
	}
	if t == nil {
		return ""
	}
	return t.Named
}

// String renders the reference in SDL notation, e.g. "[ID!]!".
func (t *TypeRef) String() string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case TypeRefKindNonNull:
		return t.OfType.String() + "!"
	case TypeRefKindList:
		return "[" + t.OfType.String() + "]"
	}
	return t.Named
}

// Function forms of the methods above, all nil-safe.

func IsNonNull(t *TypeRef) bool      { return t.IsNonNull() }
func IsList(t *TypeRef) bool         { return t.IsList() }
func Unwrap(t *TypeRef) *TypeRef     { return t.Unwrap() }
func GetNamedType(t *TypeRef) string { return t.GetNamedType() }

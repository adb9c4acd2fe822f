package opreg

// Registry is the immutable table of operation bindings produced by Build.
type Registry struct {
	ops   []Operation
	index map[string]Operation
}

// Lookup returns the operation bound to objectType.field.
func (r *Registry) Lookup(objectType, field string) (Operation, bool) {
	if r == nil {
		return nil, false
	}
	op, ok := r.index[objectType+"."+field]
	return op, ok
}

// Operations returns the bindings in declaration order.
func (r *Registry) Operations() []Operation {
	out := make([]Operation, len(r.ops))
	copy(out, r.ops)
	return out
}

// Len returns the number of bindings.
func (r *Registry) Len() int { return len(r.ops) }

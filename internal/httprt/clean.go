package httprt

// CleanObject returns a copy of v without nil map entries at any depth.
// Lists keep their positions: a nil element stays in its slot and only
// trailing nils are trimmed. Values other than maps and lists are returned
// as is. Cleaning is idempotent.
func CleanObject(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			if e == nil {
				continue
			}
			out[k] = CleanObject(e)
		}
		return out
	case []any:
		n := len(t)
		for n > 0 && t[n-1] == nil {
			n--
		}
		out := make([]any, n)
		for i, e := range t[:n] {
			out[i] = CleanObject(e)
		}
		return out
	}
	return v
}

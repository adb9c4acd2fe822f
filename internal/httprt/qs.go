package httprt

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/saihaj/graphql-mesh/internal/interpolate"
)

// Nested query strings use bracket notation: {"a": {"b": [1, 2]}} encodes
// as a[b][0]=1&a[b][1]=2 (brackets percent-encoded on the wire). Nil list
// elements are skipped and the following elements keep their index.

// maxQueryIndex is the largest numeric segment parsed as a list index.
// Larger indices stay object keys so a[1000000]=x cannot allocate.
const maxQueryIndex = 20

// StringifyQuery encodes a map or list as a query string. Keys are sorted.
// Scalars at the top level encode to the empty string.
func StringifyQuery(v any) string {
	var pairs []string
	switch t := v.(type) {
	case map[string]any:
		for _, k := range sortedKeys(t) {
			pairs = appendQuery(pairs, k, t[k])
		}
	case []any:
		for i, e := range t {
			if e != nil {
				pairs = appendQuery(pairs, strconv.Itoa(i), e)
			}
		}
	}
	return strings.Join(pairs, "&")
}

func appendQuery(pairs []string, prefix string, v any) []string {
	switch t := v.(type) {
	case nil:
		return append(pairs, escapeQuery(prefix)+"=")
	case map[string]any:
		for _, k := range sortedKeys(t) {
			pairs = appendQuery(pairs, prefix+"["+k+"]", t[k])
		}
		return pairs
	case map[string]string:
		for _, k := range sortedKeys(t) {
			pairs = appendQuery(pairs, prefix+"["+k+"]", t[k])
		}
		return pairs
	case []any:
		for i, e := range t {
			if e != nil {
				pairs = appendQuery(pairs, prefix+"["+strconv.Itoa(i)+"]", e)
			}
		}
		return pairs
	case []string:
		for i, e := range t {
			pairs = appendQuery(pairs, prefix+"["+strconv.Itoa(i)+"]", e)
		}
		return pairs
	}
	return append(pairs, escapeQuery(prefix)+"="+escapeQuery(interpolate.Stringify(v)))
}

// escapeQuery percent-encodes everything except RFC 3986 unreserved
// characters.
func escapeQuery(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' ||
			c == '-' || c == '.' || c == '_' || c == '~' {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&15])
	}
	return b.String()
}

// ParseQuery decodes a query string written in bracket notation. Repeated
// plain keys combine into a list, "a[]" appends and small numeric segments
// build lists. Values are strings.
func ParseQuery(raw string) map[string]any {
	root := map[string]any{}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key := unescapeQuery(k)
		if key == "" {
			continue
		}
		insertQuery(root, splitQueryKey(key), unescapeQuery(v))
	}
	for k, e := range root {
		root[k] = finalizeQuery(e)
	}
	return root
}

func unescapeQuery(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return s
}

// splitQueryKey splits "a[b][]" into ["a", "b", ""].
func splitQueryKey(key string) []string {
	open := strings.IndexByte(key, '[')
	if open <= 0 {
		return []string{key}
	}
	segments := []string{key[:open]}
	rest := key[open:]
	for strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			break
		}
		segments = append(segments, rest[1:end])
		rest = rest[end+1:]
	}
	if rest != "" {
		segments = append(segments, rest)
	}
	return segments
}

func insertQuery(node map[string]any, segments []string, value string) {
	key := segments[0]
	if key == "" {
		key = strconv.Itoa(len(node))
	}
	if len(segments) == 1 {
		switch existing := node[key].(type) {
		case nil:
			node[key] = value
		case string:
			node[key] = []any{existing, value}
		case []any:
			node[key] = append(existing, value)
		}
		return
	}
	child, ok := node[key].(map[string]any)
	if !ok {
		if _, taken := node[key]; taken {
			return
		}
		child = map[string]any{}
		node[key] = child
	}
	insertQuery(child, segments[1:], value)
}

// finalizeQuery turns maps keyed only by small indices into lists. Each
// element lands at its index; missing indices stay nil.
func finalizeQuery(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	indexed := len(m) > 0
	for k, e := range m {
		m[k] = finalizeQuery(e)
		if n, err := strconv.Atoi(k); err != nil || n < 0 || n > maxQueryIndex || strconv.Itoa(n) != k {
			indexed = false
		}
	}
	if !indexed {
		return m
	}
	idx := make([]int, 0, len(m))
	for k := range m {
		n, _ := strconv.Atoi(k)
		idx = append(idx, n)
	}
	sort.Ints(idx)
	out := make([]any, idx[len(idx)-1]+1)
	for _, n := range idx {
		out[n] = m[strconv.Itoa(n)]
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

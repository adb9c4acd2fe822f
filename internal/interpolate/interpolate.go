// Package interpolate renders string templates such as "/users/{args.id}"
// against the values available to one field invocation.
//
// A placeholder is a dotted path between braces. The first segment names a
// source (root, args, context, info or env) and the rest walks into that
// value. A placeholder that cannot be resolved renders as the empty string.
// Braces that do not enclose a plain dotted path, as in a JSON literal, are
// kept verbatim.
package interpolate

import (
	"encoding/json"
	"strconv"
	"strings"
)

type part struct {
	literal string
	path    string
}

// Template is a parsed template. The zero value renders as "".
type Template struct {
	parts []part
}

// Parse splits a template into literal text and placeholders.
func Parse(template string) Template {
	var t Template
	var lit strings.Builder
	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			lit.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[open+1:], '}')
		if end < 0 {
			lit.WriteString(rest)
			break
		}
		inner := strings.TrimSpace(rest[open+1 : open+1+end])
		if !isPath(inner) {
			// keep the brace and rescan after it so nested "{{a.b}}" still resolves
			lit.WriteString(rest[:open+1])
			rest = rest[open+1:]
			continue
		}
		lit.WriteString(rest[:open])
		if lit.Len() > 0 {
			t.parts = append(t.parts, part{literal: lit.String()})
			lit.Reset()
		}
		t.parts = append(t.parts, part{path: inner})
		rest = rest[open+1+end+1:]
	}
	if lit.Len() > 0 {
		t.parts = append(t.parts, part{literal: lit.String()})
	}
	return t
}

// Execute renders the template against src.
func (t Template) Execute(src Sources) string {
	if len(t.parts) == 1 && t.parts[0].path == "" {
		return t.parts[0].literal
	}
	var b strings.Builder
	for _, p := range t.parts {
		if p.path == "" {
			b.WriteString(p.literal)
			continue
		}
		if v, ok := src.Lookup(p.path); ok {
			b.WriteString(Stringify(v))
		}
	}
	return b.String()
}

// Placeholders returns the placeholder paths of t in order of appearance.
func (t Template) Placeholders() []string {
	var out []string
	for _, p := range t.parts {
		if p.path != "" {
			out = append(out, p.path)
		}
	}
	return out
}

// HasPlaceholders reports whether rendering t depends on any source.
func (t Template) HasPlaceholders() bool {
	for _, p := range t.parts {
		if p.path != "" {
			return true
		}
	}
	return false
}

// Render parses and executes template in one step.
func Render(template string, src Sources) string {
	if !strings.Contains(template, "{") {
		return template
	}
	return Parse(template).Execute(src)
}

// Placeholders returns the distinct placeholder paths referenced by the
// templates, in order of first appearance.
func Placeholders(templates ...string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tpl := range templates {
		for _, p := range Parse(tpl).Placeholders() {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// Stringify renders a looked-up value the way it is substituted into a
// template. Objects and lists render as compact JSON.
func Stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []byte:
		return string(v)
	case interface{ String() string }:
		return v.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func isPath(s string) bool {
	if s == "" || s[0] == '.' || s[len(s)-1] == '.' {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '_', c == '-', c == '$':
		case c == '.':
			if s[i-1] == '.' {
				return false
			}
		default:
			return false
		}
	}
	return true
}

package schema

import (
	"fmt"
	"sync"

	language "github.com/saihaj/graphql-mesh/internal/language"
)

var (
	builtinScalars    = []string{"String", "Int", "Float", "Boolean", "ID"}
	builtinDirectives = []string{"include", "skip", "deprecated", "specifiedBy", "oneOf"}
)

// builtins converts the standard scalars and directives of the parser
// prelude once. Every built schema shares the resulting values.
var builtins = sync.OnceValues(func() (*Schema, error) {
	prelude, err := language.LoadSchema("prelude.graphql", "type Query { _: Boolean }")
	if err != nil {
		return nil, fmt.Errorf("parser prelude: %w", err)
	}
	s := NewSchema("")
	for _, name := range builtinScalars {
		def := prelude.Types[name]
		if def == nil {
			return nil, fmt.Errorf("parser prelude lacks scalar %s", name)
		}
		t, err := BuildDefinition(def)
		if err != nil {
			return nil, err
		}
		s.AddType(t)
	}
	for _, name := range builtinDirectives {
		def := prelude.Directives[name]
		if def == nil {
			continue
		}
		d, err := buildDirective(def)
		if err != nil {
			return nil, err
		}
		s.AddDirective(d)
	}
	return s, nil
})

func addBuiltins(s *Schema) error {
	b, err := builtins()
	if err != nil {
		return err
	}
	for _, t := range b.Types {
		s.AddType(t)
	}
	for _, d := range b.Directives {
		s.AddDirective(d)
	}
	return nil
}

func isBuiltinScalar(name string) bool {
	for _, n := range builtinScalars {
		if n == name {
			return true
		}
	}
	return false
}

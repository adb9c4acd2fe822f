package introspection

import (
	"fmt"
	"strings"
	"sync"

	language "github.com/saihaj/graphql-mesh/internal/language"
	schema "github.com/saihaj/graphql-mesh/internal/schema"
)

// metaTypes converts the "__" types of the parser prelude once per process.
var metaTypes = sync.OnceValues(func() (map[string]*schema.Type, error) {
	prelude, err := language.LoadSchema("introspection.graphql", "type Query { _: Boolean }")
	if err != nil {
		return nil, err
	}
	out := make(map[string]*schema.Type)
	for name, def := range prelude.Types {
		if !strings.HasPrefix(name, "__") {
			continue
		}
		t, err := schema.BuildDefinition(def)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[name] = t
	}
	// Older preludes predate these.
	if t := out["__Type"]; t != nil {
		for _, f := range [][2]string{{"specifiedByURL", "String"}, {"isOneOf", "Boolean"}} {
			if t.GetField(f[0]) == nil {
				t.AddField(schema.NewField(f[0], "", schema.NamedType(f[1])))
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("parser prelude has no introspection types")
	}
	return out, nil
})

// extend returns a copy of sch serving the meta types and the __schema and
// __type root fields. Types of sch are shared, except the query root.
func extend(sch *schema.Schema) (*schema.Schema, error) {
	meta, err := metaTypes()
	if err != nil {
		return nil, fmt.Errorf("introspection types: %w", err)
	}
	out := schema.NewSchema(sch.Description).
		SetQueryType(sch.QueryType).
		SetMutationType(sch.MutationType).
		SetSubscriptionType(sch.SubscriptionType)
	out.Directives = sch.Directives
	for _, t := range sch.Types {
		out.AddType(t)
	}
	for _, t := range meta {
		out.AddType(t)
	}

	query := sch.GetQueryType()
	if query == nil {
		return out, nil
	}
	root := *query
	root.Fields = append(append([]*schema.Field(nil), query.Fields...),
		schema.NewField("__schema", "Access the current type schema of this server.",
			schema.NonNullType(schema.NamedType("__Schema"))),
		schema.NewField("__type", "Request the type information of a single type.",
			schema.NamedType("__Type")).
			AddArgument(schema.NewInputValue("name", "", schema.NonNullType(schema.NamedType("String")))),
	)
	out.AddType(&root)
	return out, nil
}

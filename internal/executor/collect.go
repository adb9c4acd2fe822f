package executor

import (
	"slices"

	language "github.com/saihaj/graphql-mesh/internal/language"
	schema "github.com/saihaj/graphql-mesh/internal/schema"
)

// fieldGroup is every selection of one response key on one object.
type fieldGroup struct {
	key   string
	nodes []*language.Field
}

// collectFields groups the selections of set that apply to objectType by
// response key, in document order. Fragments are expanded once each.
func (x *execution) collectFields(objectType *schema.Type, set language.SelectionSet) []*fieldGroup {
	var groups []*fieldGroup
	byKey := make(map[string]*fieldGroup)
	visited := make(map[string]bool)

	var walk func(language.SelectionSet)
	walk = func(set language.SelectionSet) {
		for _, sel := range set {
			switch sel := sel.(type) {
			case *language.Field:
				if !x.included(sel.Directives) {
					continue
				}
				key := sel.Alias
				if key == "" {
					key = sel.Name
				}
				if g, ok := byKey[key]; ok {
					g.nodes = append(g.nodes, sel)
					continue
				}
				g := &fieldGroup{key: key, nodes: []*language.Field{sel}}
				byKey[key] = g
				groups = append(groups, g)
			case *language.InlineFragment:
				if x.included(sel.Directives) && x.applies(sel.TypeCondition, objectType) {
					walk(sel.SelectionSet)
				}
			case *language.FragmentSpread:
				if !x.included(sel.Directives) || visited[sel.Name] {
					continue
				}
				visited[sel.Name] = true
				frag := x.req.doc.Fragments.ForName(sel.Name)
				if frag != nil && x.included(frag.Directives) && x.applies(frag.TypeCondition, objectType) {
					walk(frag.SelectionSet)
				}
			}
		}
	}
	walk(set)
	return groups
}

// included evaluates @skip and @include.
func (x *execution) included(dirs language.DirectiveList) bool {
	if d := dirs.ForName("skip"); d != nil && x.directiveIf(d) {
		return false
	}
	if d := dirs.ForName("include"); d != nil && !x.directiveIf(d) {
		return false
	}
	return true
}

func (x *execution) directiveIf(d *language.Directive) bool {
	arg := d.Arguments.ForName("if")
	if arg == nil {
		return false
	}
	b, _ := valueFromAST(arg.Value, x.req.vars).(bool)
	return b
}

// applies reports whether a fragment with type condition cond selects on
// objectType: the names match, objectType implements cond, or cond is a
// union containing objectType.
func (x *execution) applies(cond string, objectType *schema.Type) bool {
	if cond == "" || cond == objectType.Name {
		return true
	}
	if slices.Contains(objectType.Interfaces, cond) {
		return true
	}
	if t := x.schema.Types[cond]; t != nil && t.Kind == schema.TypeKindUnion {
		return slices.Contains(t.PossibleTypes, objectType.Name)
	}
	return false
}

func mergeSelections(nodes []*language.Field) language.SelectionSet {
	if len(nodes) == 1 {
		return nodes[0].SelectionSet
	}
	var merged language.SelectionSet
	for _, n := range nodes {
		merged = append(merged, n.SelectionSet...)
	}
	return merged
}

package opreg

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/saihaj/graphql-mesh/internal/interpolate"
	schema "github.com/saihaj/graphql-mesh/internal/schema"
)

const jsonScalarDescription = "The `JSON` scalar type represents JSON values as specified by [ECMA-404](http://www.ecma-international.org/publications/files/ECMA-ST/ECMA-404.pdf)."

// Option configures Build.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the logger used for build diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Build binds every descriptor in cfg to its root field in sch and returns
// the resulting registry. sch is modified in place: arguments derived from
// placeholders are added, descriptions are set and HTTP-backed fields are
// marked async. All violations are reported together as a ValidationError.
func Build(sch *schema.Schema, cfg Config, opts ...Option) (*Registry, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger.Debug("attaching execution logic to the schema", zap.Int("operations", len(cfg.Operations)))

	reg := &Registry{index: make(map[string]Operation, len(cfg.Operations))}
	var violations ValidationError

	globalTemplates := make([]string, 0, len(cfg.OperationHeaders)+1)
	for _, k := range sortedKeys(cfg.OperationHeaders) {
		globalTemplates = append(globalTemplates, cfg.OperationHeaders[k])
	}
	globalTemplates = append(globalTemplates, cfg.BaseURL)

	for i, d := range cfg.Operations {
		root := sch.RootType(d.Type)
		if root == nil {
			violations = append(violations, violationUnknownRootType(i, d.Type))
			continue
		}
		name := root.Name + "." + d.Field
		field := root.GetField(d.Field)
		if field == nil {
			violations = append(violations, violationUnknownField(i, root.Name, d.Field))
			continue
		}
		if (d.Path == "") == (d.PubSubTopic == "") {
			violations = append(violations, violationTarget(i, name))
			continue
		}
		isSubscription := root.Name == sch.SubscriptionType
		if d.PubSubTopic != "" && !isSubscription {
			violations = append(violations, violationTopicOutsideSubscription(i, name))
			continue
		}
		if d.Path != "" && isSubscription {
			violations = append(violations, violationPathOnSubscription(i, name))
			continue
		}
		if _, dup := reg.index[name]; dup {
			violations = append(violations, violationDuplicate(i, name))
			continue
		}

		templates := append([]string(nil), globalTemplates...)
		var op Operation
		if d.PubSubTopic != "" {
			templates = append(templates, d.PubSubTopic)
			desc := d.Description
			if desc == "" {
				desc = "PubSub Topic: " + d.PubSubTopic
			}
			field.Description = desc
			field.SetAsync(false)
			op = &EventOperation{Topic: d.PubSubTopic}
		} else {
			method := strings.ToUpper(d.Method)
			if method == "" {
				method = defaultMethod(sch, root.Name)
			}
			headers := mergeHeaders(cfg.OperationHeaders, d.Headers)
			for _, k := range sortedKeys(d.Headers) {
				templates = append(templates, d.Headers[k])
			}
			templates = append(templates, d.Path)
			templates = append(templates, bodyTemplates(d.RequestBaseBody)...)

			switch {
			case cfg.Debug:
				field.Description = debugDescription(d, method, cfg.BaseURL)
			case d.Description != "":
				field.Description = d.Description
			}
			field.SetAsync(true)
			op = &HTTPOperation{
				Method:          method,
				BaseURL:         cfg.BaseURL,
				Path:            d.Path,
				Headers:         headers,
				RequestBaseBody: d.RequestBaseBody,
				Binary:          d.Binary,
			}
		}

		if vs := deriveArguments(sch, field, i, name, templates, d.ArgTypeMap); len(vs) > 0 {
			violations = append(violations, vs...)
			continue
		}

		b := op.GetBinding()
		b.ObjectType = root.Name
		b.Field = field.Name
		b.ReturnType = field.Type
		if in := field.GetArgument("input"); in != nil {
			b.InputType = in.Type
		}
		reg.ops = append(reg.ops, op)
		reg.index[name] = op
		o.logger.Debug("bound operation", zap.String("field", name), zap.String("kind", kindOf(op)))
	}

	if len(violations) > 0 {
		return nil, violations
	}
	return reg, nil
}

// BuildFromSDL parses sdl and binds cfg to it.
func BuildFromSDL(sdl string, cfg Config, opts ...Option) (*schema.Schema, *Registry, error) {
	sch, err := schema.BuildFromSDL(sdl)
	if err != nil {
		return nil, nil, err
	}
	reg, err := Build(sch, cfg, opts...)
	if err != nil {
		return nil, nil, err
	}
	return sch, reg, nil
}

// deriveArguments registers an argument for every distinct args placeholder.
// Arguments already declared on the field are left alone.
func deriveArguments(sch *schema.Schema, field *schema.Field, i int, name string, templates []string, argTypeMap map[string]string) []*Violation {
	var violations []*Violation
	for _, p := range interpolate.Placeholders(templates...) {
		segments := strings.Split(p, ".")
		if segments[0] != interpolate.SourceArgs || len(segments) < 2 {
			continue
		}
		argName := segments[len(segments)-1]
		if field.GetArgument(argName) != nil {
			continue
		}
		expr := "ID"
		if len(segments) > 2 {
			expr = "JSON"
		}
		if t, ok := argTypeMap[argName]; ok {
			expr = t
		}
		ref, err := schema.ParseTypeRef(expr)
		if err != nil {
			violations = append(violations, violationArgType(i, name, argName, expr, err))
			continue
		}
		named := schema.GetNamedType(ref)
		if sch.Types[named] == nil {
			if named != "JSON" {
				violations = append(violations, violationUnknownArgType(i, name, argName, named))
				continue
			}
			sch.AddType(schema.NewType("JSON", schema.TypeKindScalar, jsonScalarDescription))
		}
		field.AddArgument(schema.NewInputValue(argName, "", ref))
	}
	return violations
}

func defaultMethod(sch *schema.Schema, rootName string) string {
	if rootName == sch.MutationType {
		return http.MethodPost
	}
	return http.MethodGet
}

func mergeHeaders(global, own map[string]string) map[string]string {
	out := make(map[string]string, len(global)+len(own))
	for k, v := range global {
		out[http.CanonicalHeaderKey(k)] = v
	}
	for k, v := range own {
		out[http.CanonicalHeaderKey(k)] = v
	}
	return out
}

// bodyTemplates collects the string leaves of a request base body.
func bodyTemplates(v any) []string {
	switch v := v.(type) {
	case string:
		return []string{v}
	case map[string]any:
		var out []string
		for _, k := range sortedKeys(v) {
			out = append(out, bodyTemplates(v[k])...)
		}
		return out
	case []any:
		var out []string
		for _, e := range v {
			out = append(out, bodyTemplates(e)...)
		}
		return out
	}
	return nil
}

func debugDescription(d Descriptor, method, baseURL string) string {
	orig := d.Description
	if orig == "" {
		orig = "(none)"
	}
	return fmt.Sprintf("Original Description: %s\nMethod: %s\nbaseUrl: %s\nPath: %s", orig, method, baseURL, d.Path)
}

func kindOf(op Operation) string {
	if _, ok := op.(*EventOperation); ok {
		return "event"
	}
	return "http"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

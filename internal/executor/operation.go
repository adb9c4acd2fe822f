package executor

import (
	"errors"
	"fmt"

	language "github.com/saihaj/graphql-mesh/internal/language"
	schema "github.com/saihaj/graphql-mesh/internal/schema"
)

// request is one operation chosen from a document, with its variables
// coerced and its root type resolved.
type request struct {
	doc  *language.QueryDocument
	op   *language.OperationDefinition
	root *schema.Type
	vars map[string]any
}

// prepare selects the operation and coerces variables. A non-nil result
// means the operation cannot run and holds the reason.
func (e *Executor) prepare(doc *language.QueryDocument, operationName string, variables map[string]any) (*request, *ExecutionResult) {
	op, err := selectOperation(doc, operationName)
	if err != nil {
		return nil, requestError(err.Error())
	}
	root := e.schema.RootType(string(op.Operation))
	if root == nil {
		return nil, requestError(fmt.Sprintf("Schema is not configured to execute %s operation.", op.Operation))
	}
	vars, err := e.coerceVariables(op, variables)
	if err != nil {
		return nil, requestError(err.Error())
	}
	return &request{doc: doc, op: op, root: root, vars: vars}, nil
}

func selectOperation(doc *language.QueryDocument, name string) (*language.OperationDefinition, error) {
	if name == "" {
		switch len(doc.Operations) {
		case 0:
			return nil, errors.New("Must provide an operation.")
		case 1:
			return doc.Operations[0], nil
		}
		return nil, errors.New("Must provide operation name if query contains multiple operations.")
	}
	if op := doc.Operations.ForName(name); op != nil {
		return op, nil
	}
	return nil, fmt.Errorf("Unknown operation named %q.", name)
}

package opreg

import "fmt"

// Violation is one problem found while binding descriptors to the schema.
type Violation struct {
	Message   string `json:"message"`
	Operation string `json:"operation,omitempty"`
	Index     int    `json:"index"`
}

// ValidationError lists every violation found by Build.
type ValidationError []*Violation

func (e ValidationError) Error() string {
	msg := "violations found:\n"
	for _, v := range e {
		line := "- " + v.Message
		if v.Operation != "" {
			line += fmt.Sprintf(" (operations[%d] %s)", v.Index, v.Operation)
		}
		msg += line + "\n"
	}
	return msg
}

func violationUnknownRootType(i int, typ string) *Violation {
	return &Violation{Index: i, Operation: typ, Message: fmt.Sprintf("Root type %q is not defined in the schema", typ)}
}

func violationUnknownField(i int, typ, field string) *Violation {
	return &Violation{Index: i, Operation: typ + "." + field, Message: fmt.Sprintf("Field %q not found on type %q", field, typ)}
}

func violationTarget(i int, name string) *Violation {
	return &Violation{Index: i, Operation: name, Message: "Exactly one of path and pubsubTopic must be set"}
}

func violationTopicOutsideSubscription(i int, name string) *Violation {
	return &Violation{Index: i, Operation: name, Message: "pubsubTopic is only allowed on Subscription fields"}
}

func violationPathOnSubscription(i int, name string) *Violation {
	return &Violation{Index: i, Operation: name, Message: "Subscription fields must be bound with pubsubTopic"}
}

func violationDuplicate(i int, name string) *Violation {
	return &Violation{Index: i, Operation: name, Message: "Field is bound more than once"}
}

func violationArgType(i int, name, arg, expr string, err error) *Violation {
	return &Violation{Index: i, Operation: name, Message: fmt.Sprintf("Invalid type %q for argument %q: %v", expr, arg, err)}
}

func violationUnknownArgType(i int, name, arg, typ string) *Violation {
	return &Violation{Index: i, Operation: name, Message: fmt.Sprintf("Unknown type %q for argument %q", typ, arg)}
}

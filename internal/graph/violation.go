package graph

import (
	"fmt"
)

type Violation struct {
	Message string `json:"message"`
	Node    NodeID `json:"nodeId,omitempty"`
	Pin     PinID  `json:"pinId,omitempty"`
}

type ValidationError []*Violation

func (e ValidationError) Error() string {
	msg := "violations found:\n"
	for _, v := range e {
		line := "- " + v.Message
		if v.Node != "" {
			line += fmt.Sprintf(" (node %s", v.Node)
			if v.Pin != "" {
				line += fmt.Sprintf(" pin %s", v.Pin)
			}
			line += ")"
		}
		msg += line + "\n"
	}
	return msg
}

// NOTE: Keep messages stable, tests match on them.

func violationAt(p *Pin, format string, args ...any) *Violation {
	v := &Violation{Message: fmt.Sprintf(format, args...)}
	if p != nil {
		v.Node, v.Pin = p.Node, p.ID
	}
	return v
}

func violationUnknownKind(k Kind) *Violation {
	return &Violation{Message: fmt.Sprintf("Unknown node kind %q", k.String())}
}

func violationUnknownVariable(id VariableID) *Violation {
	return &Violation{Message: fmt.Sprintf("Variable %q not found", id)}
}

func violationForeignPin(p *Pin) *Violation {
	return violationAt(p, "Pin %q does not belong to a node of this graph", p.Name)
}

func violationMissingPin() *Violation {
	return &Violation{Message: "Connection endpoint is missing"}
}

func violationSameDirection(p *Pin) *Violation {
	return violationAt(p, "Cannot connect two %s pins", p.Direction)
}

func violationKindMismatch(from, to *Pin) *Violation {
	return violationAt(to, "Cannot connect %s pin to %s pin", from.Kind, to.Kind)
}

func violationTypeMismatch(from, to *Pin) *Violation {
	return violationAt(to, "Cannot connect %s output to %s input", from.Type, to.Type)
}

func violationDefault(p *Pin, err error) *Violation {
	return violationAt(p, "Invalid value for pin %q: %v", p.Name, err)
}

func violationDefaultOnOutput(p *Pin) *Violation {
	return violationAt(p, "Pin %q is not a data input", p.Name)
}

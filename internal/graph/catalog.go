package graph

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/hanpama/blueprint/internal/value"
)

// Pin names the engine looks up by name.
const (
	PinInString   = "In String"
	PinCondition  = "Condition"
	PinTrue       = "True"
	PinFalse      = "False"
	PinA          = "A"
	PinB          = "B"
	PinReturn     = "Return Value"
	PinFirstIndex = "First Index"
	PinLastIndex  = "Last Index"
	PinLoopBody   = "Loop Body"
	PinIndex      = "Index"
	PinCompleted  = "Completed"
)

// PinSpec describes one pin of a node template.
type PinSpec struct {
	Name    string
	Kind    PinKind
	Type    DataType
	Default cty.Value
}

// Template is the shape a node gets when added to a graph.
type Template struct {
	Name    string
	Inputs  []PinSpec
	Outputs []PinSpec
}

func execPin(name string) PinSpec { return PinSpec{Name: name, Kind: Execution, Type: Any} }

func dataPin(name string, t DataType, def cty.Value) PinSpec {
	return PinSpec{Name: name, Kind: Data, Type: t, Default: def}
}

var templates = map[Op]Template{
	OpBegin: {
		Name:    "Event BeginPlay",
		Outputs: []PinSpec{execPin("")},
	},
	OpPrint: {
		Name: "Print String",
		Inputs: []PinSpec{
			execPin(""),
			dataPin(PinInString, Any, cty.StringVal("Hello")),
		},
		Outputs: []PinSpec{execPin("")},
	},
	OpBranch: {
		Name: "Branch",
		Inputs: []PinSpec{
			execPin(""),
			dataPin(PinCondition, Boolean, value.Null),
		},
		Outputs: []PinSpec{execPin(PinTrue), execPin(PinFalse)},
	},
	OpForLoop: {
		Name: "For Loop",
		Inputs: []PinSpec{
			execPin(""),
			dataPin(PinFirstIndex, Integer, cty.NumberIntVal(0)),
			dataPin(PinLastIndex, Integer, cty.NumberIntVal(0)),
		},
		Outputs: []PinSpec{
			execPin(PinLoopBody),
			dataPin(PinIndex, Integer, cty.NumberIntVal(0)),
			execPin(PinCompleted),
		},
	},
	OpLiteralString:  literal("String Literal", String, cty.StringVal("My String")),
	OpLiteralInteger: literal("Integer Literal", Integer, cty.NumberIntVal(123)),
	OpLiteralBoolean: literal("Boolean Literal", Boolean, cty.True),
	OpLiteralFloat:   literal("Float Literal", Float, cty.NumberFloatVal(0)),
	OpAddInt:         binary("Add (Integer)", Integer, Integer, cty.NumberIntVal(0)),
	OpSubtractInt:    binary("Subtract (Integer)", Integer, Integer, cty.NumberIntVal(0)),
	OpMultiplyInt:    binary("Multiply (Integer)", Integer, Integer, cty.NumberIntVal(0)),
	OpAddFloat:       binary("Add (Float)", Float, Float, cty.NumberFloatVal(0)),
	OpLessInt:        binary("Less (Integer)", Integer, Boolean, cty.NumberIntVal(0)),
	OpComment:        {Name: "Comment"},
}

func literal(name string, t DataType, def cty.Value) Template {
	return Template{
		Name:    name,
		Inputs:  []PinSpec{dataPin("", t, def)},
		Outputs: []PinSpec{dataPin("", t, value.Null)},
	}
}

func binary(name string, operand, result DataType, def cty.Value) Template {
	return Template{
		Name:    name,
		Inputs:  []PinSpec{dataPin(PinA, operand, def), dataPin(PinB, operand, def)},
		Outputs: []PinSpec{dataPin(PinReturn, result, value.Null)},
	}
}

// TemplateFor returns the template of a catalog kind. Variable kinds derive
// their template from the variable they reference, so v must be non-nil for
// them. The second result is false for kinds without a template.
func TemplateFor(k Kind, v *Variable) (Template, bool) {
	switch k.Op {
	case OpGetVariable:
		if v == nil {
			return Template{}, false
		}
		return Template{
			Name:    "Get " + v.Name,
			Outputs: []PinSpec{dataPin(v.Name, v.Type, value.Null)},
		}, true
	case OpSetVariable:
		if v == nil {
			return Template{}, false
		}
		return Template{
			Name:    "Set " + v.Name,
			Inputs:  []PinSpec{execPin(""), dataPin(v.Name, v.Type, value.Null)},
			Outputs: []PinSpec{execPin("")},
		}, true
	}
	t, ok := templates[k.Op]
	return t, ok
}

// Package graph is the static model the editor produces: nodes with typed
// pins, wires between them, and the variables a run starts from.
package graph

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/hanpama/blueprint/internal/value"
)

type (
	NodeID       string
	PinID        string
	ConnectionID string
	VariableID   string
)

// Direction tells whether a pin receives or produces.
type Direction string

const (
	Input  Direction = "INPUT"
	Output Direction = "OUTPUT"
)

// PinKind separates control flow pins from value pins.
type PinKind string

const (
	Execution PinKind = "EXECUTION"
	Data      PinKind = "DATA"
)

// DataType is the declared type of a DATA pin or a variable.
type DataType string

const (
	Boolean DataType = "BOOLEAN"
	Integer DataType = "INTEGER"
	Float   DataType = "FLOAT"
	String  DataType = "STRING"
	Any     DataType = "ANY"
)

// Accepts reports whether a wire carrying other may feed a pin of type t.
// Any is a wildcard on either side.
func (t DataType) Accepts(other DataType) bool {
	return t == Any || other == Any || t == other
}

// CtyType maps the declared type onto the cty type system.
func (t DataType) CtyType() cty.Type {
	switch t {
	case Boolean:
		return cty.Bool
	case Integer, Float:
		return cty.Number
	case String:
		return cty.String
	default:
		return cty.DynamicPseudoType
	}
}

// Conform converts v to the declared type. Integer drops any fraction,
// truncating toward zero.
func (t DataType) Conform(v cty.Value) (cty.Value, error) {
	out, err := value.Conform(v, t.CtyType())
	if err != nil || t != Integer || out.IsNull() {
		return out, err
	}
	i, err := value.Whole(out)
	if err != nil {
		return cty.NilVal, err
	}
	return value.IntVal(i), nil
}

// PinRef addresses one pin of one node.
type PinRef struct {
	Node NodeID `json:"nodeId"`
	Pin  PinID  `json:"pinId"`
}

func (r PinRef) String() string { return string(r.Node) + "-" + string(r.Pin) }

type Pin struct {
	ID        PinID
	Node      NodeID
	Name      string
	Direction Direction
	Kind      PinKind
	Type      DataType
	// Default is used when an input has no incoming connection. Outputs of
	// nodes without a computation rule return it as a constant.
	Default cty.Value
}

// Ref returns the address of p.
func (p *Pin) Ref() PinRef { return PinRef{Node: p.Node, Pin: p.ID} }

type Node struct {
	ID      NodeID
	Name    string
	Kind    Kind
	Inputs  []*Pin
	Outputs []*Pin
}

// Pin finds a pin of n by id among inputs and outputs.
func (n *Node) Pin(id PinID) *Pin {
	for _, p := range n.Inputs {
		if p.ID == id {
			return p
		}
	}
	for _, p := range n.Outputs {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Input finds an input pin by display name.
func (n *Node) Input(name string) *Pin { return byName(n.Inputs, name) }

// Output finds an output pin by display name.
func (n *Node) Output(name string) *Pin { return byName(n.Outputs, name) }

// ExecOutput returns the first EXECUTION output, nil if the node has none.
func (n *Node) ExecOutput() *Pin { return firstOfKind(n.Outputs, Execution) }

// ExecInput returns the first EXECUTION input, nil if the node has none.
func (n *Node) ExecInput() *Pin { return firstOfKind(n.Inputs, Execution) }

// DataInput returns the first DATA input, nil if the node has none.
func (n *Node) DataInput() *Pin { return firstOfKind(n.Inputs, Data) }

func byName(pins []*Pin, name string) *Pin {
	for _, p := range pins {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func firstOfKind(pins []*Pin, kind PinKind) *Pin {
	for _, p := range pins {
		if p.Kind == kind {
			return p
		}
	}
	return nil
}

// Connection is a wire from an OUTPUT pin to an INPUT pin of the same kind.
type Connection struct {
	ID   ConnectionID
	From PinRef
	To   PinRef
}

type Variable struct {
	ID    VariableID
	Name  string
	Type  DataType
	Value cty.Value
}

// Graph is what the editor hands to the engine. Slices keep authoring order.
type Graph struct {
	Nodes       []*Node
	Connections []*Connection
	Variables   []*Variable
}

// Node finds a node by id.
func (g *Graph) Node(id NodeID) *Node {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// Variable finds a variable by id.
func (g *Graph) Variable(id VariableID) *Variable {
	for _, v := range g.Variables {
		if v.ID == id {
			return v
		}
	}
	return nil
}

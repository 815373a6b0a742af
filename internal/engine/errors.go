package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hanpama/blueprint/internal/graph"
)

var (
	// ErrGraphIntegrity matches every GraphIntegrityError.
	ErrGraphIntegrity  = errors.New("graph integrity")
	ErrUnknownNode     = errors.New("node not found")
	ErrUnknownPin      = errors.New("pin not found")
	ErrUnknownVariable = errors.New("variable not found")

	ErrDataCycle = errors.New("data cycle")
	ErrStepLimit = errors.New("step limit exceeded")
)

// GraphIntegrityError reports a node, pin or variable that a run needed but
// could not find. Err is one of ErrUnknownNode, ErrUnknownPin or
// ErrUnknownVariable.
type GraphIntegrityError struct {
	Err      error
	Node     graph.NodeID
	Pin      graph.PinID
	Variable graph.VariableID
}

func (e *GraphIntegrityError) Error() string {
	switch e.Err {
	case ErrUnknownNode:
		return fmt.Sprintf("Node %s not found", e.Node)
	case ErrUnknownPin:
		return fmt.Sprintf("Pin %s on node %s not found", e.Pin, e.Node)
	case ErrUnknownVariable:
		return fmt.Sprintf("Variable with ID %s not found.", e.Variable)
	}
	return fmt.Sprintf("%v: node %s", e.Err, e.Node)
}

func (e *GraphIntegrityError) Unwrap() []error { return []error{ErrGraphIntegrity, e.Err} }

func unknownNode(id graph.NodeID) error {
	return &GraphIntegrityError{Err: ErrUnknownNode, Node: id}
}

func unknownPin(node graph.NodeID, pin graph.PinID) error {
	return &GraphIntegrityError{Err: ErrUnknownPin, Node: node, Pin: pin}
}

func unknownVariable(node graph.NodeID, id graph.VariableID) error {
	return &GraphIntegrityError{Err: ErrUnknownVariable, Node: node, Variable: id}
}

// DataCycleError reports a data wire loop. Path lists the pins from the first
// visit of the repeated pin to its second visit.
type DataCycleError struct {
	Path []graph.PinRef
}

func (e *DataCycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, r := range e.Path {
		parts[i] = r.String()
	}
	return "data cycle: " + strings.Join(parts, " -> ")
}

func (e *DataCycleError) Unwrap() error { return ErrDataCycle }

// ValueError reports a value that a node could not use, such as a boolean
// fed to an integer addition.
type ValueError struct {
	Node graph.NodeID
	Pin  string
	Err  error
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("node %s pin %q: %v", e.Node, e.Pin, e.Err)
}

func (e *ValueError) Unwrap() error { return e.Err }

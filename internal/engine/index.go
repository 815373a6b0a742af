package engine

import (
	"github.com/hanpama/blueprint/internal/graph"
)

// Index is the lookup structure a run is built on. It is computed once from
// the node and connection lists and never changes afterwards. A malformed
// graph produces empty lookups, not errors.
type Index struct {
	nodes    map[graph.NodeID]*graph.Node
	pins     map[graph.PinRef]*graph.Pin
	owners   map[graph.PinID]graph.NodeID
	outgoing map[graph.PinRef][]*graph.Connection
	incoming map[graph.PinRef]*graph.Connection
	entry    *graph.Node
}

func NewIndex(g *graph.Graph) *Index {
	ix := &Index{
		nodes:    make(map[graph.NodeID]*graph.Node, len(g.Nodes)),
		pins:     make(map[graph.PinRef]*graph.Pin),
		owners:   make(map[graph.PinID]graph.NodeID),
		outgoing: make(map[graph.PinRef][]*graph.Connection),
		incoming: make(map[graph.PinRef]*graph.Connection),
	}
	for _, n := range g.Nodes {
		if n == nil {
			continue
		}
		ix.nodes[n.ID] = n
		for _, pins := range [][]*graph.Pin{n.Inputs, n.Outputs} {
			for _, p := range pins {
				ix.pins[graph.PinRef{Node: n.ID, Pin: p.ID}] = p
				ix.owners[p.ID] = n.ID
			}
		}
		if ix.entry == nil && n.Kind.Op == graph.OpBegin {
			ix.entry = n
		}
	}
	for _, c := range g.Connections {
		if c == nil {
			continue
		}
		ix.outgoing[c.From] = append(ix.outgoing[c.From], c)
		// Later wires win, as in the editor.
		ix.incoming[c.To] = c
	}
	return ix
}

// Node returns the node with id, nil if absent.
func (ix *Index) Node(id graph.NodeID) *graph.Node { return ix.nodes[id] }

// Pin returns the pin at ref, nil if absent.
func (ix *Index) Pin(ref graph.PinRef) *graph.Pin { return ix.pins[ref] }

// Owner returns the node a pin belongs to.
func (ix *Index) Owner(pin graph.PinID) (*graph.Node, bool) {
	id, ok := ix.owners[pin]
	if !ok {
		return nil, false
	}
	return ix.nodes[id], true
}

// Outgoing lists the connections leaving an output pin in authoring order.
func (ix *Index) Outgoing(from graph.PinRef) []*graph.Connection { return ix.outgoing[from] }

// Incoming returns the connection arriving at an input pin, nil if none.
func (ix *Index) Incoming(to graph.PinRef) *graph.Connection { return ix.incoming[to] }

// Entry returns the first Begin node, nil when the graph has none.
func (ix *Index) Entry() *graph.Node { return ix.entry }

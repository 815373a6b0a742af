package engine

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/hanpama/blueprint/internal/graph"
	"github.com/hanpama/blueprint/internal/value"
)

// Store holds the variables of one run. It is built from a copy of the
// authoring-time variables, so writes never reach the graph or another run.
type Store struct {
	order []graph.VariableID
	vars  map[graph.VariableID]*graph.Variable
}

func NewStore(vars []*graph.Variable) *Store {
	s := &Store{vars: make(map[graph.VariableID]*graph.Variable, len(vars))}
	for _, v := range vars {
		if v == nil {
			continue
		}
		cp := *v
		cp.Value = value.OrNull(cp.Value)
		if _, dup := s.vars[cp.ID]; !dup {
			s.order = append(s.order, cp.ID)
		}
		s.vars[cp.ID] = &cp
	}
	return s
}

// Get returns the current value of a variable.
func (s *Store) Get(id graph.VariableID) (cty.Value, bool) {
	v, ok := s.vars[id]
	if !ok {
		return cty.NilVal, false
	}
	return v.Value, true
}

// Variable returns a copy of a variable with its current value.
func (s *Store) Variable(id graph.VariableID) (graph.Variable, bool) {
	v, ok := s.vars[id]
	if !ok {
		return graph.Variable{}, false
	}
	return *v, true
}

// Set overwrites a variable with val converted to its declared type and
// returns the previous value.
func (s *Store) Set(id graph.VariableID, val cty.Value) (old cty.Value, err error) {
	v, ok := s.vars[id]
	if !ok {
		return cty.NilVal, ErrUnknownVariable
	}
	conformed, err := v.Type.Conform(val)
	if err != nil {
		return cty.NilVal, err
	}
	old, v.Value = v.Value, conformed
	return old, nil
}

// Variables returns a copy of every variable in declaration order.
func (s *Store) Variables() []graph.Variable {
	out := make([]graph.Variable, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.vars[id])
	}
	return out
}

// Loops tracks the iteration index of every loop node currently running its
// body. Contexts are keyed by loop node, so nested and distinct loops never
// see each other's index.
type Loops struct {
	index map[graph.NodeID]int64
}

func NewLoops() *Loops { return &Loops{index: make(map[graph.NodeID]int64)} }

// Index returns the active index of a loop node.
func (l *Loops) Index(node graph.NodeID) (int64, bool) {
	i, ok := l.index[node]
	return i, ok
}

func (l *Loops) set(node graph.NodeID, i int64) { l.index[node] = i }

// restore puts back the context a loop node had before it started.
func (l *Loops) restore(node graph.NodeID, prev int64, had bool) {
	if had {
		l.index[node] = prev
		return
	}
	delete(l.index, node)
}

package engine

import (
	"context"
	"math/big"

	"github.com/zclconf/go-cty/cty"

	"github.com/hanpama/blueprint/internal/graph"
	"github.com/hanpama/blueprint/internal/value"
)

// Evaluator resolves the value of DATA pins. It reads variables and loop
// contexts but never writes them, and it caches nothing: every call derives
// the value from the current state.
type Evaluator struct {
	index *Index
	vars  *Store
	loops *Loops

	// pins on the current evaluation path, for cycle detection
	path   []graph.PinRef
	active map[graph.PinRef]int
}

func NewEvaluator(ix *Index, vars *Store, loops *Loops) *Evaluator {
	if loops == nil {
		loops = NewLoops()
	}
	return &Evaluator{
		index:  ix,
		vars:   vars,
		loops:  loops,
		active: make(map[graph.PinRef]int),
	}
}

// Evaluate returns the value flowing through a pin. An input follows its
// incoming wire or falls back to its default; an output is computed by its
// node.
func (e *Evaluator) Evaluate(ctx context.Context, node graph.NodeID, pin graph.PinID) (cty.Value, error) {
	if err := ctx.Err(); err != nil {
		return cty.NilVal, err
	}
	n := e.index.Node(node)
	if n == nil {
		return cty.NilVal, unknownNode(node)
	}
	ref := graph.PinRef{Node: node, Pin: pin}
	p := e.index.Pin(ref)
	if p == nil {
		return cty.NilVal, unknownPin(node, pin)
	}

	if at, busy := e.active[ref]; busy {
		cycle := append(append([]graph.PinRef(nil), e.path[at:]...), ref)
		return cty.NilVal, &DataCycleError{Path: cycle}
	}
	e.active[ref] = len(e.path)
	e.path = append(e.path, ref)
	defer func() {
		e.path = e.path[:len(e.path)-1]
		delete(e.active, ref)
	}()

	if p.Direction == graph.Input {
		if conn := e.index.Incoming(ref); conn != nil {
			return e.Evaluate(ctx, conn.From.Node, conn.From.Pin)
		}
		return value.OrNull(p.Default), nil
	}
	return e.compute(ctx, n, p)
}

func (e *Evaluator) compute(ctx context.Context, n *graph.Node, out *graph.Pin) (cty.Value, error) {
	switch k := n.Kind; {
	case k.IsLiteral():
		if len(n.Inputs) == 0 {
			return value.OrNull(out.Default), nil
		}
		return e.Evaluate(ctx, n.ID, n.Inputs[0].ID)

	case k.Op == graph.OpAddInt, k.Op == graph.OpSubtractInt, k.Op == graph.OpMultiplyInt, k.Op == graph.OpLessInt:
		a, b, err := e.intOperands(ctx, n)
		if err != nil {
			return cty.NilVal, err
		}
		// Whole-number math is exact; results never wrap at the int64 edge.
		switch k.Op {
		case graph.OpAddInt:
			return value.IntVal(new(big.Int).Add(a, b)), nil
		case graph.OpSubtractInt:
			return value.IntVal(new(big.Int).Sub(a, b)), nil
		case graph.OpMultiplyInt:
			return value.IntVal(new(big.Int).Mul(a, b)), nil
		default:
			return cty.BoolVal(a.Cmp(b) < 0), nil
		}

	case k.Op == graph.OpAddFloat:
		a, err := operand(e, ctx, n, graph.PinA, value.Float)
		if err != nil {
			return cty.NilVal, err
		}
		b, err := operand(e, ctx, n, graph.PinB, value.Float)
		if err != nil {
			return cty.NilVal, err
		}
		return cty.NumberFloatVal(a + b), nil

	case k.Op == graph.OpGetVariable:
		v, ok := e.vars.Get(k.Variable)
		if !ok {
			return cty.NilVal, unknownVariable(n.ID, k.Variable)
		}
		return v, nil

	case k.Op == graph.OpForLoop && out.Name == graph.PinIndex:
		i, ok := e.loops.Index(n.ID)
		if !ok {
			return cty.NumberIntVal(0), nil
		}
		return cty.NumberIntVal(i), nil
	}
	return value.OrNull(out.Default), nil
}

func (e *Evaluator) intOperands(ctx context.Context, n *graph.Node) (*big.Int, *big.Int, error) {
	a, err := operand(e, ctx, n, graph.PinA, value.Whole)
	if err != nil {
		return nil, nil, err
	}
	b, err := operand(e, ctx, n, graph.PinB, value.Whole)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

// operand evaluates a named input of n and coerces it with conv.
func operand[T any](e *Evaluator, ctx context.Context, n *graph.Node, name string, conv func(cty.Value) (T, error)) (T, error) {
	var zero T
	p := n.Input(name)
	if p == nil {
		return zero, unknownPin(n.ID, graph.PinID(name))
	}
	v, err := e.Evaluate(ctx, n.ID, p.ID)
	if err != nil {
		return zero, err
	}
	out, err := conv(v)
	if err != nil {
		return zero, &ValueError{Node: n.ID, Pin: name, Err: err}
	}
	return out, nil
}

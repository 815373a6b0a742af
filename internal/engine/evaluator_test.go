package engine

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/hanpama/blueprint/internal/graph"
	"github.com/hanpama/blueprint/internal/value"
)

func newEvaluator(g *graph.Graph) *Evaluator {
	return NewEvaluator(NewIndex(g), NewStore(g.Variables), NewLoops())
}

func evalPin(t *testing.T, e *Evaluator, p *graph.Pin) cty.Value {
	t.Helper()
	v, err := e.Evaluate(context.Background(), p.Node, p.ID)
	require.NoError(t, err)
	return v
}

func TestEvaluate_UnconnectedInputReturnsDefault(t *testing.T) {
	b := newBuilder()
	p := b.AddNode(graph.Print())
	loop := b.AddNode(graph.ForLoop())
	b.SetDefault(loop.Input(graph.PinLastIndex), cty.NumberIntVal(9))
	branch := b.AddNode(graph.Branch())
	e := newEvaluator(build(t, b))

	assert.True(t, evalPin(t, e, p.DataInput()).RawEquals(cty.StringVal("Hello")))
	assert.True(t, evalPin(t, e, loop.Input(graph.PinLastIndex)).RawEquals(cty.NumberIntVal(9)))
	assert.True(t, evalPin(t, e, branch.Input(graph.PinCondition)).IsNull())
}

func TestEvaluate_InputFollowsWire(t *testing.T) {
	b := newBuilder()
	lit := b.AddNode(graph.LiteralString())
	b.SetDefault(lit.Inputs[0], cty.StringVal("wired"))
	p := b.AddNode(graph.Print())
	b.Connect(lit.Outputs[0], p.DataInput())
	e := newEvaluator(build(t, b))

	assert.Equal(t, "wired", evalPin(t, e, p.DataInput()).AsString())
}

func TestEvaluate_LiteralPassesThroughItsInput(t *testing.T) {
	b := newBuilder()
	inner := b.AddNode(graph.LiteralInteger())
	b.SetDefault(inner.Inputs[0], cty.NumberIntVal(7))
	outer := b.AddNode(graph.LiteralInteger())
	plain := b.AddNode(graph.LiteralBoolean())
	b.Connect(inner.Outputs[0], outer.Inputs[0])
	e := newEvaluator(build(t, b))

	assert.True(t, evalPin(t, e, outer.Outputs[0]).RawEquals(cty.NumberIntVal(7)))
	assert.True(t, evalPin(t, e, plain.Outputs[0]).RawEquals(cty.True))
}

func TestEvaluate_Arithmetic(t *testing.T) {
	tests := []struct {
		name string
		kind graph.Kind
		a, b cty.Value
		want string
	}{
		{"add", graph.AddInt(), cty.NumberIntVal(2), cty.NumberIntVal(3), "5"},
		{"subtract", graph.SubtractInt(), cty.NumberIntVal(2), cty.NumberIntVal(5), "-3"},
		{"multiply", graph.MultiplyInt(), cty.NumberIntVal(4), cty.NumberIntVal(-6), "-24"},
		{"less true", graph.LessInt(), cty.NumberIntVal(1), cty.NumberIntVal(2), "true"},
		{"less false", graph.LessInt(), cty.NumberIntVal(2), cty.NumberIntVal(2), "false"},
		{"add float", graph.AddFloat(), cty.NumberFloatVal(0.5), cty.NumberFloatVal(0.25), "0.75"},
		{"int truncates", graph.AddInt(), cty.NumberFloatVal(2.9), cty.NumberFloatVal(-1.9), "1"},
		{"add past int64", graph.AddInt(), cty.NumberIntVal(math.MaxInt64), cty.NumberIntVal(1), "9223372036854775808"},
		{"subtract past int64", graph.SubtractInt(), cty.NumberIntVal(math.MinInt64), cty.NumberIntVal(1), "-9223372036854775809"},
		{"multiply past int64", graph.MultiplyInt(), cty.NumberIntVal(math.MaxInt64), cty.NumberIntVal(2), "18446744073709551614"},
		{"less beyond int64", graph.LessInt(), cty.NumberIntVal(math.MaxInt64), cty.NumberFloatVal(1e30), "true"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := newBuilder()
			n := b.AddNode(tc.kind)
			b.SetDefault(n.Input(graph.PinA), tc.a)
			b.SetDefault(n.Input(graph.PinB), tc.b)
			e := newEvaluator(build(t, b))

			got := evalPin(t, e, n.Output(graph.PinReturn))
			assert.Equal(t, tc.want, value.String(got))
		})
	}
}

func TestEvaluate_IntegerOpsTruncateWiredFractions(t *testing.T) {
	b := newBuilder()
	v := b.AddVariable("Ratio", graph.Any, cty.NumberFloatVal(-2.9))
	get := b.AddNode(graph.GetVariable(v.ID))
	mul := b.AddNode(graph.MultiplyInt())
	b.SetDefault(mul.Input(graph.PinB), cty.NumberIntVal(3))
	b.Connect(get.Outputs[0], mul.Input(graph.PinA))
	e := newEvaluator(build(t, b))

	assert.Equal(t, "-6", value.String(evalPin(t, e, mul.Output(graph.PinReturn))))
}

func TestEvaluate_NumericStringsCoerce(t *testing.T) {
	b := newBuilder()
	v := b.AddVariable("Text", graph.Any, cty.StringVal("40"))
	get := b.AddNode(graph.GetVariable(v.ID))
	add := b.AddNode(graph.AddInt())
	b.SetDefault(add.Input(graph.PinB), cty.NumberIntVal(2))
	b.Connect(get.Outputs[0], add.Input(graph.PinA))
	e := newEvaluator(build(t, b))

	assert.Equal(t, "42", value.String(evalPin(t, e, add.Output(graph.PinReturn))))
}

func TestEvaluate_NonNumericOperandIsValueError(t *testing.T) {
	b := newBuilder()
	v := b.AddVariable("Flag", graph.Any, cty.True)
	get := b.AddNode(graph.GetVariable(v.ID))
	add := b.AddNode(graph.AddInt())
	b.Connect(get.Outputs[0], add.Input(graph.PinB))
	e := newEvaluator(build(t, b))

	_, err := e.Evaluate(context.Background(), add.ID, add.Output(graph.PinReturn).ID)
	var verr *ValueError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, graph.PinB, verr.Pin)
	assert.ErrorIs(t, err, value.ErrNotNumber)
}

func TestEvaluate_GetVariable(t *testing.T) {
	b := newBuilder()
	v := b.AddVariable("Score", graph.Integer, cty.NumberIntVal(10))
	get := b.AddNode(graph.GetVariable(v.ID))
	g := build(t, b)
	store := NewStore(g.Variables)
	e := NewEvaluator(NewIndex(g), store, nil)

	assert.Equal(t, "10", value.String(evalPin(t, e, get.Outputs[0])))

	_, err := store.Set(v.ID, cty.NumberIntVal(11))
	require.NoError(t, err)
	assert.Equal(t, "11", value.String(evalPin(t, e, get.Outputs[0])), "no caching between calls")
}

func TestEvaluate_DeletedVariableIsIntegrityError(t *testing.T) {
	b := newBuilder()
	v := b.AddVariable("Gone", graph.String, cty.StringVal("x"))
	get := b.AddNode(graph.GetVariable(v.ID))
	b.RemoveVariable(v.ID)
	e := newEvaluator(build(t, b))

	_, err := e.Evaluate(context.Background(), get.ID, get.Outputs[0].ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGraphIntegrity)
	assert.ErrorIs(t, err, ErrUnknownVariable)
	assert.Equal(t, "Variable with ID "+string(v.ID)+" not found.", err.Error())
}

func TestEvaluate_UnknownNodeAndPin(t *testing.T) {
	b := newBuilder()
	p := b.AddNode(graph.Print())
	e := newEvaluator(build(t, b))

	_, err := e.Evaluate(context.Background(), "ghost", "pin")
	assert.ErrorIs(t, err, ErrUnknownNode)
	assert.EqualError(t, err, "Node ghost not found")

	_, err = e.Evaluate(context.Background(), p.ID, "nope")
	assert.ErrorIs(t, err, ErrUnknownPin)
	assert.ErrorIs(t, err, ErrGraphIntegrity)
}

func TestEvaluate_LoopIndexOutsideLoopIsZero(t *testing.T) {
	b := newBuilder()
	loop := b.AddNode(graph.ForLoop())
	g := build(t, b)
	loops := NewLoops()
	e := NewEvaluator(NewIndex(g), NewStore(g.Variables), loops)

	assert.Equal(t, "0", value.String(evalPin(t, e, loop.Output(graph.PinIndex))))

	loops.set(loop.ID, 4)
	assert.Equal(t, "4", value.String(evalPin(t, e, loop.Output(graph.PinIndex))))
	loops.restore(loop.ID, 0, false)
	assert.Equal(t, "0", value.String(evalPin(t, e, loop.Output(graph.PinIndex))))
}

func TestEvaluate_OtherOutputsReturnStoredDefault(t *testing.T) {
	b := newBuilder()
	pb := b.AddNode(graph.Print())
	g := build(t, b)
	p := g.Node(pb.ID)
	p.Outputs[0].Default = cty.StringVal("constant")
	e := newEvaluator(g)

	assert.Equal(t, "constant", evalPin(t, e, p.Outputs[0]).AsString())
}

func TestEvaluate_DataCycle(t *testing.T) {
	b := newBuilder()
	add := b.AddNode(graph.AddInt())
	b.Connect(add.Output(graph.PinReturn), add.Input(graph.PinA))
	e := newEvaluator(build(t, b))

	_, err := e.Evaluate(context.Background(), add.ID, add.Output(graph.PinReturn).ID)
	var cerr *DataCycleError
	require.True(t, errors.As(err, &cerr))
	assert.ErrorIs(t, err, ErrDataCycle)
	require.Len(t, cerr.Path, 3)
	assert.Equal(t, cerr.Path[0], cerr.Path[2])

	// The failed evaluation leaves no residue behind.
	assert.Empty(t, e.active)
	assert.Empty(t, e.path)
}

func TestEvaluate_SharedSourceIsNotACycle(t *testing.T) {
	b := newBuilder()
	lit := b.AddNode(graph.LiteralInteger())
	add := b.AddNode(graph.AddInt())
	b.Connect(lit.Outputs[0], add.Input(graph.PinA))
	b.Connect(lit.Outputs[0], add.Input(graph.PinB))
	e := newEvaluator(build(t, b))

	assert.Equal(t, "246", value.String(evalPin(t, e, add.Output(graph.PinReturn))))
}

func TestEvaluate_CanceledContext(t *testing.T) {
	b := newBuilder()
	p := b.AddNode(graph.Print())
	e := newEvaluator(build(t, b))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Evaluate(ctx, p.ID, p.DataInput().ID)
	assert.ErrorIs(t, err, context.Canceled)
}

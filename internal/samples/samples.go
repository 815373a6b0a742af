// Package samples holds the demo graphs the CLI can run.
package samples

import (
	"errors"
	"fmt"
	"slices"

	"github.com/zclconf/go-cty/cty"

	"github.com/hanpama/blueprint/internal/graph"
)

// ErrUnknownSample is returned by Build for a name not in the catalog.
var ErrUnknownSample = errors.New("unknown sample")

type sample struct {
	about string
	build func(b *graph.Builder)
}

var catalog = map[string]sample{
	"hello":            {"prints a greeting", hello},
	"sum-loop":         {"adds 1..3 into a variable and prints 6", sumLoop},
	"branch-false":     {"takes the False side of a branch", branchFalse},
	"begin-only":       {"a Begin node with nothing attached", beginOnly},
	"no-begin":         {"a graph without a Begin node", noBegin},
	"fan-out":          {"one output wired to three prints", fanOut},
	"nested-loops":     {"a 3x3 multiplication table", nestedLoops},
	"compare":          {"branches on Index < 3 inside a loop", compare},
	"missing-variable": {"writes a variable that was deleted", missingVariable},
}

// Names lists the samples in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Describe returns a one-line summary of a sample.
func Describe(name string) string { return catalog[name].about }

// Build assembles a sample graph with the given builder options.
func Build(name string, opts ...graph.BuilderOption) (*graph.Graph, error) {
	s, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSample, name)
	}
	b := graph.NewBuilder(opts...)
	s.build(b)
	g, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", name, err)
	}
	return g, nil
}

func printString(b *graph.Builder, msg string) *graph.Node {
	n := b.AddNode(graph.Print())
	b.SetDefault(n.Input(graph.PinInString), cty.StringVal(msg))
	return n
}

func loop(b *graph.Builder, first, last int64) *graph.Node {
	n := b.AddNode(graph.ForLoop())
	b.SetDefault(n.Input(graph.PinFirstIndex), cty.NumberIntVal(first))
	b.SetDefault(n.Input(graph.PinLastIndex), cty.NumberIntVal(last))
	return n
}

func hello(b *graph.Builder) {
	begin := b.AddNode(graph.Begin())
	p := printString(b, "Hello, blueprint!")
	b.Connect(begin.ExecOutput(), p.ExecInput())
}

func sumLoop(b *graph.Builder) {
	x := b.AddVariable("X", graph.Any, cty.NumberIntVal(0))
	begin := b.AddNode(graph.Begin())
	reset := b.AddNode(graph.SetVariable(x.ID))
	b.SetDefault(reset.DataInput(), cty.NumberIntVal(0))
	l := loop(b, 1, 3)
	acc := b.AddNode(graph.SetVariable(x.ID))
	add := b.AddNode(graph.AddInt())
	get := b.AddNode(graph.GetVariable(x.ID))
	p := b.AddNode(graph.Print())

	b.Connect(begin.ExecOutput(), reset.ExecInput())
	b.Connect(reset.ExecOutput(), l.ExecInput())
	b.Connect(l.Output(graph.PinLoopBody), acc.ExecInput())
	b.Connect(get.Outputs[0], add.Input(graph.PinA))
	b.Connect(l.Output(graph.PinIndex), add.Input(graph.PinB))
	b.Connect(add.Output(graph.PinReturn), acc.DataInput())
	b.Connect(l.Output(graph.PinCompleted), p.ExecInput())
	b.Connect(get.Outputs[0], p.Input(graph.PinInString))
}

func branchFalse(b *graph.Builder) {
	begin := b.AddNode(graph.Begin())
	br := b.AddNode(graph.Branch())
	b.SetDefault(br.Input(graph.PinCondition), cty.False)
	no := printString(b, "no")
	b.Connect(begin.ExecOutput(), br.ExecInput())
	b.Connect(br.Output(graph.PinFalse), no.ExecInput())
}

func beginOnly(b *graph.Builder) {
	b.AddNode(graph.Begin())
}

func noBegin(b *graph.Builder) {
	printString(b, "never printed")
}

func fanOut(b *graph.Builder) {
	begin := b.AddNode(graph.Begin())
	first := printString(b, "first")
	nested := printString(b, "first, continued")
	second := printString(b, "second")
	third := printString(b, "third")
	b.Connect(begin.ExecOutput(), first.ExecInput())
	b.Connect(first.ExecOutput(), nested.ExecInput())
	b.Connect(begin.ExecOutput(), second.ExecInput())
	b.Connect(begin.ExecOutput(), third.ExecInput())
}

func nestedLoops(b *graph.Builder) {
	begin := b.AddNode(graph.Begin())
	rows := loop(b, 1, 3)
	cols := loop(b, 1, 3)
	mul := b.AddNode(graph.MultiplyInt())
	cell := b.AddNode(graph.Print())
	done := printString(b, "table complete")

	b.Connect(begin.ExecOutput(), rows.ExecInput())
	b.Connect(rows.Output(graph.PinLoopBody), cols.ExecInput())
	b.Connect(cols.Output(graph.PinLoopBody), cell.ExecInput())
	b.Connect(rows.Output(graph.PinIndex), mul.Input(graph.PinA))
	b.Connect(cols.Output(graph.PinIndex), mul.Input(graph.PinB))
	b.Connect(mul.Output(graph.PinReturn), cell.Input(graph.PinInString))
	b.Connect(rows.Output(graph.PinCompleted), done.ExecInput())
}

func compare(b *graph.Builder) {
	begin := b.AddNode(graph.Begin())
	l := loop(b, 1, 4)
	less := b.AddNode(graph.LessInt())
	b.SetDefault(less.Input(graph.PinB), cty.NumberIntVal(3))
	br := b.AddNode(graph.Branch())
	small := printString(b, "small")
	large := printString(b, "large")

	b.Connect(begin.ExecOutput(), l.ExecInput())
	b.Connect(l.Output(graph.PinLoopBody), br.ExecInput())
	b.Connect(l.Output(graph.PinIndex), less.Input(graph.PinA))
	b.Connect(less.Output(graph.PinReturn), br.Input(graph.PinCondition))
	b.Connect(br.Output(graph.PinTrue), small.ExecInput())
	b.Connect(br.Output(graph.PinFalse), large.ExecInput())
}

func missingVariable(b *graph.Builder) {
	x := b.AddVariable("Deleted", graph.Integer, cty.NumberIntVal(1))
	begin := b.AddNode(graph.Begin())
	before := printString(b, "before the write")
	set := b.AddNode(graph.SetVariable(x.ID))
	after := printString(b, "after the write")
	b.Connect(begin.ExecOutput(), before.ExecInput())
	b.Connect(before.ExecOutput(), set.ExecInput())
	b.Connect(set.ExecOutput(), after.ExecInput())
	b.RemoveVariable(x.ID)
}

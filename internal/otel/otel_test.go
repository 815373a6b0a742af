package otel

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/hanpama/blueprint/internal/engine"
	"github.com/hanpama/blueprint/internal/eventbus"
	"github.com/hanpama/blueprint/internal/graph"
)

func recorder(t *testing.T) (*eventbus.Bus, *tracetest.SpanRecorder) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	bus := eventbus.New()
	t.Cleanup(Register(bus, tp.Tracer("test")))
	return bus, sr
}

func attr(attrs []attribute.KeyValue, key string) attribute.Value {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value
		}
	}
	return attribute.Value{}
}

func TestRunSpan(t *testing.T) {
	bus, sr := recorder(t)

	b := graph.NewBuilder(graph.WithIDGenerator(graph.SequentialIDs("n")))
	x := b.AddVariable("X", graph.Integer, cty.NumberIntVal(1))
	begin := b.AddNode(graph.Begin())
	set := b.AddNode(graph.SetVariable(x.ID))
	b.SetDefault(set.DataInput(), cty.NumberIntVal(5))
	p := b.AddNode(graph.Print())
	b.Connect(begin.ExecOutput(), set.ExecInput())
	b.Connect(set.ExecOutput(), p.ExecInput())
	g, err := b.Build()
	require.NoError(t, err)

	run := engine.Start(context.Background(), g, engine.WithBus(bus), engine.WithRunID("r-1"))
	_, err = run.Drain(context.Background())
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "blueprint.run", span.Name())
	assert.Equal(t, "r-1", attr(span.Attributes(), "blueprint.run.id").AsString())
	assert.Equal(t, int64(3), attr(span.Attributes(), "blueprint.run.steps").AsInt64())
	assert.Equal(t, int64(1), attr(span.Attributes(), "blueprint.run.events").AsInt64())
	assert.Equal(t, codes.Unset, span.Status().Code)

	var names []string
	for _, ev := range span.Events() {
		names = append(names, ev.Name)
	}
	want := []string{"node.visit", "node.visit", "variable.set", "node.visit", "trace.log"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("span events mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "5", attr(span.Events()[2].Attributes, "blueprint.variable.new").AsString())
	assert.Equal(t, "Hello", attr(span.Events()[4].Attributes, "blueprint.message").AsString())
}

func TestRunSpan_Error(t *testing.T) {
	bus, sr := recorder(t)

	b := graph.NewBuilder()
	x := b.AddVariable("X", graph.Integer, cty.NumberIntVal(1))
	begin := b.AddNode(graph.Begin())
	set := b.AddNode(graph.SetVariable(x.ID))
	b.Connect(begin.ExecOutput(), set.ExecInput())
	b.RemoveVariable(x.ID)
	g, err := b.Build()
	require.NoError(t, err)

	_, err = engine.Start(context.Background(), g, engine.WithBus(bus)).Drain(context.Background())
	require.Error(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, err.Error(), spans[0].Status().Description)
}

func TestRunSpan_OnlyEndedWhenFinishedOrClosed(t *testing.T) {
	bus, sr := recorder(t)

	b := graph.NewBuilder()
	begin := b.AddNode(graph.Begin())
	p := b.AddNode(graph.Print())
	b.Connect(begin.ExecOutput(), p.ExecInput())
	b.Connect(p.ExecOutput(), p.ExecInput())
	g, err := b.Build()
	require.NoError(t, err)

	ctx := context.Background()
	run := engine.Start(ctx, g, engine.WithBus(bus))
	require.True(t, run.Next(ctx))
	assert.Empty(t, sr.Ended())

	run.Close(ctx)
	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.True(t, attr(spans[0].Attributes(), "blueprint.run.abandoned").AsBool())
}

func TestSetup_NoEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), eventbus.New(), "", "svc")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestUnregister(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	bus := eventbus.New()
	Register(bus, tp.Tracer("test"))()

	_, err := engine.Start(context.Background(), &graph.Graph{}, engine.WithBus(bus)).Drain(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sr.Ended())
	assert.Empty(t, sr.Started())
}

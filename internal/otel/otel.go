// Package otel turns run events into OpenTelemetry traces: one span per run,
// with a span event for every node visit, variable write and printed line.
package otel

import (
	"context"
	"sync"

	"github.com/hanpama/blueprint/internal/eventbus"
	"github.com/hanpama/blueprint/internal/events"
	"github.com/hanpama/blueprint/internal/value"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const instrumentation = "github.com/hanpama/blueprint"

// Setup configures OpenTelemetry and attaches the run subscriber to bus.
// If endpoint is empty, no telemetry is configured.
func Setup(ctx context.Context, bus *eventbus.Bus, endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	unsubscribe := Register(bus, tp.Tracer(instrumentation))
	return func(ctx context.Context) error {
		unsubscribe()
		return tp.Shutdown(ctx)
	}, nil
}

type subscriber struct {
	tracer trace.Tracer
	spans  sync.Map // run id -> trace.Span
}

// Register subscribes a tracing handler for run events on bus and returns a
// function removing it again.
func Register(bus *eventbus.Bus, tracer trace.Tracer) (unsubscribe func()) {
	s := &subscriber{tracer: tracer}
	unsubs := []func(){
		eventbus.On(bus, s.runStart),
		eventbus.On(bus, s.nodeVisit),
		eventbus.On(bus, s.variableSet),
		eventbus.On(bus, s.traceEmitted),
		eventbus.On(bus, s.runFinish),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (s *subscriber) runStart(ctx context.Context, e events.RunStart) {
	_, span := s.tracer.Start(ctx, "blueprint.run")
	span.SetAttributes(
		attribute.String("blueprint.run.id", e.RunID),
		attribute.Int("blueprint.graph.nodes", e.Nodes),
		attribute.Int("blueprint.graph.connections", e.Connections),
		attribute.Int("blueprint.graph.variables", e.Variables),
	)
	s.spans.Store(e.RunID, span)
}

func (s *subscriber) span(runID string) (trace.Span, bool) {
	v, ok := s.spans.Load(runID)
	if !ok {
		return nil, false
	}
	return v.(trace.Span), true
}

func (s *subscriber) nodeVisit(_ context.Context, e events.NodeVisit) {
	if span, ok := s.span(e.RunID); ok {
		span.AddEvent("node.visit", trace.WithAttributes(
			attribute.String("blueprint.node.id", e.Node),
			attribute.String("blueprint.node.name", e.Name),
			attribute.String("blueprint.node.kind", e.Kind),
			attribute.Int("blueprint.step", e.Step),
		))
	}
}

func (s *subscriber) variableSet(_ context.Context, e events.VariableSet) {
	if span, ok := s.span(e.RunID); ok {
		span.AddEvent("variable.set", trace.WithAttributes(
			attribute.String("blueprint.variable.id", e.Variable),
			attribute.String("blueprint.variable.name", e.Name),
			attribute.String("blueprint.variable.old", value.String(e.Old)),
			attribute.String("blueprint.variable.new", value.String(e.New)),
		))
	}
}

func (s *subscriber) traceEmitted(_ context.Context, e events.TraceEmitted) {
	if span, ok := s.span(e.RunID); ok {
		span.AddEvent("trace."+e.Kind, trace.WithAttributes(
			attribute.String("blueprint.node.id", e.Node),
			attribute.String("blueprint.message", e.Message),
		))
	}
}

func (s *subscriber) runFinish(_ context.Context, e events.RunFinish) {
	v, ok := s.spans.LoadAndDelete(e.RunID)
	if !ok {
		return
	}
	span := v.(trace.Span)
	span.SetAttributes(
		attribute.Int("blueprint.run.events", e.Events),
		attribute.Int("blueprint.run.steps", e.Steps),
		attribute.Bool("blueprint.run.abandoned", e.Abandoned),
	)
	if e.Err != nil {
		span.RecordError(e.Err)
		span.SetStatus(codes.Error, e.Err.Error())
	}
	span.End()
}

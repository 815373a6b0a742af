package engine

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"time"

	"github.com/zclconf/go-cty/cty"

	"github.com/hanpama/blueprint/internal/ctxlog"
	"github.com/hanpama/blueprint/internal/eventbus"
	"github.com/hanpama/blueprint/internal/events"
	"github.com/hanpama/blueprint/internal/graph"
	"github.com/hanpama/blueprint/internal/runid"
	"github.com/hanpama/blueprint/internal/value"
)

// TraceKind tags a TraceEvent.
type TraceKind string

const TraceLog TraceKind = "log"

// TraceEvent is one observable unit of output of a run.
type TraceEvent struct {
	Kind    TraceKind `json:"kind"`
	Message string    `json:"message"`
}

// NoEntryMessage is the only event of a run over a graph without a Begin node.
const NoEntryMessage = "No BeginPlay event found."

// Option configures a Run.
type Option func(*options)

type options struct {
	maxSteps int
	bus      *eventbus.Bus
	busSet   bool
	runID    string
}

// WithMaxSteps stops a run with ErrStepLimit once it has dispatched n nodes.
// Zero, the default, means no limit.
func WithMaxSteps(n int) Option { return func(o *options) { o.maxSteps = n } }

// WithBus publishes run events on b instead of the global bus. A nil bus
// disables publishing.
func WithBus(b *eventbus.Bus) Option {
	return func(o *options) { o.bus, o.busSet = b, true }
}

// WithRunID sets the run identifier used in events and logs. Without it the
// id comes from the context or is generated.
func WithRunID(id string) Option { return func(o *options) { o.runID = id } }

// Run walks the execution wires of one graph. It is pulled one event at a
// time:
//
//	run := engine.Start(ctx, g)
//	for run.Next(ctx) {
//		fmt.Println(run.Event().Message)
//	}
//	if err := run.Err(); err != nil {
//		...
//	}
//
// A Run is not safe for concurrent use. Separate runs share nothing but the
// immutable graph.
type Run struct {
	id    string
	opts  options
	index *Index
	vars  *Store
	loops *Loops
	eval  *Evaluator

	stack []frame
	event TraceEvent
	err   error
	done  bool

	started time.Time
	steps   int
	emitted int
}

// frame is one pending piece of work on the walker stack.
type frame interface{ isFrame() }

// entryFrame fires the Begin node.
type entryFrame struct{ node *graph.Node }

// noticeFrame emits a message and nothing else.
type noticeFrame struct{ message string }

// fanoutFrame walks the connections leaving one execution output in order.
type fanoutFrame struct {
	conns []*graph.Connection
	next  int
}

// loopFrame drives the iterations of a loop node. The body of each
// iteration is pushed above it and drains before the frame resumes.
type loopFrame struct {
	node      *graph.Node
	cur, last int64
	over      bool
	prev      int64
	had       bool
}

func (*entryFrame) isFrame()  {}
func (*noticeFrame) isFrame() {}
func (*fanoutFrame) isFrame() {}
func (*loopFrame) isFrame()   {}

// Start prepares a run of g. Variables are copied, so the run never writes
// to g. Nothing executes until the first call to Next.
func Start(ctx context.Context, g *graph.Graph, opts ...Option) *Run {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if !o.busSet {
		o.bus = eventbus.Default()
	}
	if o.runID == "" {
		if id, ok := runid.FromContext(ctx); ok {
			o.runID = id
		} else {
			o.runID = runid.New()
		}
	}

	ix := NewIndex(g)
	vars := NewStore(g.Variables)
	loops := NewLoops()
	r := &Run{
		id:      o.runID,
		opts:    o,
		index:   ix,
		vars:    vars,
		loops:   loops,
		eval:    NewEvaluator(ix, vars, loops),
		started: time.Now(),
	}
	if entry := ix.Entry(); entry != nil {
		r.stack = append(r.stack, &entryFrame{node: entry})
	} else {
		r.stack = append(r.stack, &noticeFrame{message: NoEntryMessage})
	}

	eventbus.Emit(ctx, o.bus, events.RunStart{
		RunID:       r.id,
		Nodes:       len(g.Nodes),
		Connections: len(g.Connections),
		Variables:   len(g.Variables),
	})
	return r
}

// ID returns the run identifier.
func (r *Run) ID() string { return r.id }

// Next advances to the next trace event. It returns false when the run is
// complete or has failed; Err tells which.
func (r *Run) Next(ctx context.Context) bool {
	for !r.done {
		if err := ctx.Err(); err != nil {
			r.fail(ctx, err)
			return false
		}
		if len(r.stack) == 0 {
			r.finish(ctx, nil, false)
			return false
		}

		switch f := r.stack[len(r.stack)-1].(type) {
		case *entryFrame:
			r.pop()
			r.visited(ctx, f.node)
			r.continueFrom(f.node, f.node.ExecOutput())

		case *noticeFrame:
			r.pop()
			r.emit(ctx, "", f.message)
			return true

		case *fanoutFrame:
			if f.next >= len(f.conns) {
				r.pop()
				continue
			}
			c := f.conns[f.next]
			f.next++
			n := r.index.Node(c.To.Node)
			if n == nil {
				// dangling wire: this branch ends
				continue
			}
			emitted, err := r.visit(ctx, n)
			if err != nil {
				r.fail(ctx, err)
				return false
			}
			if emitted {
				return true
			}

		case *loopFrame:
			if f.over || f.cur > f.last {
				r.pop()
				r.loops.restore(f.node.ID, f.prev, f.had)
				r.continueFrom(f.node, f.node.Output(graph.PinCompleted))
				continue
			}
			r.loops.set(f.node.ID, f.cur)
			if f.cur == f.last {
				f.over = true
			} else {
				f.cur++
			}
			r.continueFrom(f.node, f.node.Output(graph.PinLoopBody))
		}
	}
	return false
}

// Event returns the event produced by the last successful call to Next.
func (r *Run) Event() TraceEvent { return r.event }

// Err returns the error that ended the run, nil on normal completion.
func (r *Run) Err() error { return r.err }

// Events adapts the run to a range-over-func loop. A failure is yielded once
// as the final pair. Breaking out of the loop closes the run.
func (r *Run) Events(ctx context.Context) iter.Seq2[TraceEvent, error] {
	return func(yield func(TraceEvent, error) bool) {
		for r.Next(ctx) {
			if !yield(r.event, nil) {
				r.Close(ctx)
				return
			}
		}
		if r.err != nil {
			yield(TraceEvent{}, r.err)
		}
	}
}

// Drain pulls every remaining event. On failure it returns the events
// produced before the error together with the error.
func (r *Run) Drain(ctx context.Context) ([]TraceEvent, error) {
	var out []TraceEvent
	for r.Next(ctx) {
		out = append(out, r.event)
	}
	return out, r.err
}

// Close abandons the run. Calling it is optional: an unfinished run holds
// no resources and may simply be dropped. Close only reports the abandonment
// to event subscribers.
func (r *Run) Close(ctx context.Context) {
	if r.done {
		return
	}
	r.stack = nil
	r.finish(ctx, nil, true)
}

// Variables returns the current value of every run variable.
func (r *Run) Variables() []graph.Variable { return r.vars.Variables() }

// Evaluate resolves a data pin against the current state of the run.
func (r *Run) Evaluate(ctx context.Context, node graph.NodeID, pin graph.PinID) (cty.Value, error) {
	return r.eval.Evaluate(ctx, node, pin)
}

// Steps returns the number of nodes dispatched so far.
func (r *Run) Steps() int { return r.steps }

// visit dispatches n and reports whether it produced an event. Whatever
// comes after n is pushed onto the stack.
func (r *Run) visit(ctx context.Context, n *graph.Node) (bool, error) {
	if limit := r.opts.maxSteps; limit > 0 && r.steps >= limit {
		return false, ErrStepLimit
	}
	r.visited(ctx, n)

	switch n.Kind.Op {
	case graph.OpPrint:
		v, err := r.input(ctx, n, n.Input(graph.PinInString))
		if err != nil {
			return false, err
		}
		r.continueFrom(n, n.ExecOutput())
		r.emit(ctx, n.ID, value.String(v))
		return true, nil

	case graph.OpBranch:
		v, err := r.input(ctx, n, n.Input(graph.PinCondition))
		if err != nil {
			return false, err
		}
		if value.Truthy(v) {
			r.continueFrom(n, n.Output(graph.PinTrue))
		} else {
			r.continueFrom(n, n.Output(graph.PinFalse))
		}

	case graph.OpSetVariable:
		if err := r.setVariable(ctx, n); err != nil {
			return false, err
		}
		r.continueFrom(n, n.ExecOutput())

	case graph.OpForLoop:
		first, err := r.intInput(ctx, n, graph.PinFirstIndex)
		if err != nil {
			return false, err
		}
		last, err := r.intInput(ctx, n, graph.PinLastIndex)
		if err != nil {
			return false, err
		}
		prev, had := r.loops.Index(n.ID)
		r.stack = append(r.stack, &loopFrame{node: n, cur: first, last: last, prev: prev, had: had})

	default:
		r.continueFrom(n, n.ExecOutput())
	}
	return false, nil
}

func (r *Run) visited(ctx context.Context, n *graph.Node) {
	r.steps++
	ctxlog.FromContext(ctx).Debug("visit node",
		slog.String("run_id", r.id),
		slog.String("node", string(n.ID)),
		slog.String("kind", n.Kind.String()),
		slog.Int("step", r.steps),
	)
	eventbus.Emit(ctx, r.opts.bus, events.NodeVisit{
		RunID: r.id,
		Node:  string(n.ID),
		Name:  n.Name,
		Kind:  n.Kind.String(),
		Step:  r.steps,
	})
}

func (r *Run) setVariable(ctx context.Context, n *graph.Node) error {
	id := n.Kind.Variable
	in := n.DataInput()
	v, err := r.input(ctx, n, in)
	if err != nil {
		return err
	}
	old, err := r.vars.Set(id, v)
	switch {
	case errors.Is(err, ErrUnknownVariable):
		return unknownVariable(n.ID, id)
	case err != nil:
		return &ValueError{Node: n.ID, Pin: in.Name, Err: err}
	}
	cur, _ := r.vars.Variable(id)
	eventbus.Emit(ctx, r.opts.bus, events.VariableSet{
		RunID:    r.id,
		Node:     string(n.ID),
		Variable: string(id),
		Name:     cur.Name,
		Old:      old,
		New:      cur.Value,
	})
	return nil
}

// input evaluates a data input of n. A nil pin means the node lacks the
// input its kind requires.
func (r *Run) input(ctx context.Context, n *graph.Node, p *graph.Pin) (cty.Value, error) {
	if p == nil {
		p = n.DataInput()
	}
	if p == nil {
		return cty.NilVal, unknownPin(n.ID, "")
	}
	return r.eval.Evaluate(ctx, n.ID, p.ID)
}

func (r *Run) intInput(ctx context.Context, n *graph.Node, name string) (int64, error) {
	p := n.Input(name)
	if p == nil {
		return 0, unknownPin(n.ID, graph.PinID(name))
	}
	v, err := r.eval.Evaluate(ctx, n.ID, p.ID)
	if err != nil {
		return 0, err
	}
	i, err := value.Int(v)
	if err != nil {
		return 0, &ValueError{Node: n.ID, Pin: name, Err: err}
	}
	return i, nil
}

// continueFrom schedules the connections leaving out. A nil pin or one
// without connections ends the path.
func (r *Run) continueFrom(n *graph.Node, out *graph.Pin) {
	if out == nil {
		return
	}
	conns := r.index.Outgoing(graph.PinRef{Node: n.ID, Pin: out.ID})
	if len(conns) == 0 {
		return
	}
	r.stack = append(r.stack, &fanoutFrame{conns: conns})
}

func (r *Run) pop() { r.stack = r.stack[:len(r.stack)-1] }

func (r *Run) emit(ctx context.Context, node graph.NodeID, msg string) {
	r.event = TraceEvent{Kind: TraceLog, Message: msg}
	r.emitted++
	eventbus.Emit(ctx, r.opts.bus, events.TraceEmitted{
		RunID:   r.id,
		Node:    string(node),
		Kind:    string(TraceLog),
		Message: msg,
	})
}

func (r *Run) fail(ctx context.Context, err error) {
	r.err = err
	r.stack = nil
	r.finish(ctx, err, false)
}

func (r *Run) finish(ctx context.Context, err error, abandoned bool) {
	r.done = true
	r.event = TraceEvent{}
	elapsed := time.Since(r.started)

	log := ctxlog.FromContext(ctx).With(slog.String("run_id", r.id))
	switch {
	case err != nil:
		log.Error("run failed", slog.Any("error", err), slog.Int("steps", r.steps))
	case abandoned:
		log.Info("run abandoned", slog.Int("steps", r.steps), slog.Int("events", r.emitted))
	default:
		log.Info("run finished", slog.Int("steps", r.steps), slog.Int("events", r.emitted), slog.Duration("elapsed", elapsed))
	}

	eventbus.Emit(ctx, r.opts.bus, events.RunFinish{
		RunID:     r.id,
		Events:    r.emitted,
		Steps:     r.steps,
		Err:       err,
		Abandoned: abandoned,
		Duration:  elapsed,
	})
}

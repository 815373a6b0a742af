package graph

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"

	"github.com/hanpama/blueprint/internal/value"
)

// Builder assembles a Graph the way the editor does: nodes come from the
// catalog, connections are validated when they are made, and a DATA input
// keeps only its latest incoming wire.
type Builder struct {
	nodes       []*Node
	owned       map[PinRef]*Pin
	connections []*Connection
	variables   []*Variable
	violations  []*Violation
	newID       func() string
}

type BuilderOption func(*Builder)

// WithIDGenerator replaces the uuid generator used for every new identity.
func WithIDGenerator(gen func() string) BuilderOption {
	return func(b *Builder) { b.newID = gen }
}

// SequentialIDs returns a generator yielding prefix1, prefix2, ...
func SequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return prefix + strconv.Itoa(n)
	}
}

func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		owned: make(map[PinRef]*Pin),
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// AddVariable declares a variable. The initial value is converted to the
// declared type; a value that does not fit is a violation.
func (b *Builder) AddVariable(name string, t DataType, initial cty.Value) *Variable {
	v := &Variable{ID: VariableID(b.newID()), Name: name, Type: t, Value: value.Null}
	b.variables = append(b.variables, v)
	b.UpdateVariable(v.ID, initial)
	return v
}

// UpdateVariable replaces the authoring-time value of a variable.
func (b *Builder) UpdateVariable(id VariableID, initial cty.Value) {
	v := b.variable(id)
	if v == nil {
		b.addViolation(violationUnknownVariable(id))
		return
	}
	conformed, err := v.Type.Conform(initial)
	if err != nil {
		b.addViolation(&Violation{Message: fmt.Sprintf("Invalid value for variable %q: %v", v.Name, err)})
		return
	}
	v.Value = conformed
}

// RemoveVariable deletes a variable. Nodes referencing it stay in the graph,
// as they do in the editor; the engine reports them when they run.
func (b *Builder) RemoveVariable(id VariableID) {
	b.variables = slices.DeleteFunc(b.variables, func(v *Variable) bool { return v.ID == id })
}

// AddNode instantiates the catalog template of k. On failure a violation is
// recorded and a detached node without pins is returned.
func (b *Builder) AddNode(k Kind) *Node {
	var ref *Variable
	if k.Op == OpGetVariable || k.Op == OpSetVariable {
		if ref = b.variable(k.Variable); ref == nil {
			b.addViolation(violationUnknownVariable(k.Variable))
			return &Node{ID: NodeID(b.newID()), Kind: k}
		}
	}
	tmpl, ok := TemplateFor(k, ref)
	if !ok {
		b.addViolation(violationUnknownKind(k))
		return &Node{ID: NodeID(b.newID()), Kind: k}
	}

	n := &Node{ID: NodeID(b.newID()), Name: tmpl.Name, Kind: k}
	n.Inputs = b.pins(n.ID, Input, tmpl.Inputs)
	n.Outputs = b.pins(n.ID, Output, tmpl.Outputs)
	b.nodes = append(b.nodes, n)
	return n
}

func (b *Builder) pins(node NodeID, dir Direction, specs []PinSpec) []*Pin {
	out := make([]*Pin, 0, len(specs))
	for _, s := range specs {
		p := &Pin{
			ID:        PinID(b.newID()),
			Node:      node,
			Name:      s.Name,
			Direction: dir,
			Kind:      s.Kind,
			Type:      s.Type,
			Default:   value.OrNull(s.Default),
		}
		b.owned[p.Ref()] = p
		out = append(out, p)
	}
	return out
}

// SetDefault edits the literal value of a DATA input pin.
func (b *Builder) SetDefault(p *Pin, v cty.Value) {
	if p == nil {
		b.addViolation(violationMissingPin())
		return
	}
	if b.owned[p.Ref()] != p {
		b.addViolation(violationForeignPin(p))
		return
	}
	if p.Direction != Input || p.Kind != Data {
		b.addViolation(violationDefaultOnOutput(p))
		return
	}
	conformed, err := p.Type.Conform(v)
	if err != nil {
		b.addViolation(violationDefault(p, err))
		return
	}
	p.Default = conformed
}

// Connect wires two pins. Either order is accepted; the OUTPUT side becomes
// the source. A DATA input loses any wire it had before.
func (b *Builder) Connect(a, c *Pin) *Connection {
	if a == nil || c == nil {
		b.addViolation(violationMissingPin())
		return nil
	}
	for _, p := range []*Pin{a, c} {
		if b.owned[p.Ref()] != p {
			b.addViolation(violationForeignPin(p))
			return nil
		}
	}
	if a.Direction == c.Direction {
		b.addViolation(violationSameDirection(c))
		return nil
	}
	from, to := a, c
	if from.Direction == Input {
		from, to = c, a
	}
	if from.Kind != to.Kind {
		b.addViolation(violationKindMismatch(from, to))
		return nil
	}
	if to.Kind == Data && !to.Type.Accepts(from.Type) {
		b.addViolation(violationTypeMismatch(from, to))
		return nil
	}

	if to.Kind == Data {
		b.connections = slices.DeleteFunc(b.connections, func(conn *Connection) bool {
			return conn.To == to.Ref()
		})
	}
	conn := &Connection{ID: ConnectionID(b.newID()), From: from.Ref(), To: to.Ref()}
	b.connections = append(b.connections, conn)
	return conn
}

// Violations returns the problems recorded so far.
func (b *Builder) Violations() []*Violation { return slices.Clone(b.violations) }

// Build returns the graph, or a ValidationError when any step was rejected.
// The graph is a deep copy: later edits on the Builder do not reach it.
func (b *Builder) Build() (*Graph, error) {
	if len(b.violations) > 0 {
		return nil, ValidationError(slices.Clone(b.violations))
	}
	g := &Graph{
		Nodes:       make([]*Node, len(b.nodes)),
		Connections: make([]*Connection, len(b.connections)),
		Variables:   make([]*Variable, len(b.variables)),
	}
	for i, n := range b.nodes {
		cp := *n
		cp.Inputs = clonePins(n.Inputs)
		cp.Outputs = clonePins(n.Outputs)
		g.Nodes[i] = &cp
	}
	for i, c := range b.connections {
		cp := *c
		g.Connections[i] = &cp
	}
	for i, v := range b.variables {
		cp := *v
		g.Variables[i] = &cp
	}
	return g, nil
}

func clonePins(ps []*Pin) []*Pin {
	out := make([]*Pin, len(ps))
	for i, p := range ps {
		cp := *p
		out[i] = &cp
	}
	return out
}

func (b *Builder) variable(id VariableID) *Variable {
	for _, v := range b.variables {
		if v.ID == id {
			return v
		}
	}
	return nil
}

func (b *Builder) addViolation(v ...*Violation) {
	b.violations = append(b.violations, v...)
}

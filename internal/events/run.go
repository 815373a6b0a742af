// Package events declares the payloads a run publishes on the event bus.
package events

import (
	"time"

	"github.com/zclconf/go-cty/cty"
)

// RunStart is emitted when a run is created, before any node executes.
type RunStart struct {
	RunID       string
	Nodes       int
	Connections int
	Variables   int
}

// RunFinish is emitted once per run: when it completes, fails, or is closed
// before completion.
type RunFinish struct {
	RunID     string
	Events    int
	Steps     int
	Err       error
	Abandoned bool
	Duration  time.Duration
}

// NodeVisit is emitted each time the walker dispatches a node.
type NodeVisit struct {
	RunID string
	Node  string
	Name  string
	Kind  string
	Step  int
}

// VariableSet is emitted after a set-variable node writes its value.
type VariableSet struct {
	RunID    string
	Node     string
	Variable string
	Name     string
	Old      cty.Value
	New      cty.Value
}

// TraceEmitted mirrors every trace event handed to the consumer.
type TraceEmitted struct {
	RunID   string
	Node    string
	Kind    string
	Message string
}

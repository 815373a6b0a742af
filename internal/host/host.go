// Package host drives a run to completion and turns it into the log a user
// sees: a start marker, every printed line, then either a finish marker or a
// single error line.
package host

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/hanpama/blueprint/internal/ctxlog"
	"github.com/hanpama/blueprint/internal/engine"
	"github.com/hanpama/blueprint/internal/graph"
)

const (
	StartedLine  = "[Execution Started]"
	FinishedLine = "[Execution Finished]"
	errorPrefix  = "[ERROR] "
)

// Transcript is the outcome of one hosted run.
type Transcript struct {
	RunID     string
	Lines     []string
	Variables []graph.Variable
	// Err is the error that ended the run. Its message is already the last
	// line.
	Err error
}

// Execute runs g until it finishes or fails.
func Execute(ctx context.Context, g *graph.Graph, opts ...engine.Option) Transcript {
	run := engine.Start(ctx, g, opts...)
	t := Transcript{RunID: run.ID(), Lines: []string{StartedLine}}
	for run.Next(ctx) {
		ev := run.Event()
		if ev.Kind == engine.TraceLog {
			t.Lines = append(t.Lines, ev.Message)
		}
	}
	t.Variables = run.Variables()
	if err := run.Err(); err != nil {
		ctxlog.FromContext(ctx).Warn("run ended with error",
			slog.String("run_id", t.RunID),
			slog.Any("error", err),
		)
		t.Err = err
		t.Lines = append(t.Lines, ErrorLine(err))
		return t
	}
	t.Lines = append(t.Lines, FinishedLine)
	return t
}

// ErrorLine renders err the way the log shows it.
func ErrorLine(err error) string {
	if err == nil || err.Error() == "" {
		return errorPrefix + "An unknown error occurred."
	}
	return errorPrefix + err.Error()
}

// WriteTo prints the transcript one line at a time.
func (t Transcript) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, line := range t.Lines {
		n, err := fmt.Fprintln(w, line)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hanpama/blueprint/internal/ctxlog"
	"github.com/hanpama/blueprint/internal/engine"
	"github.com/hanpama/blueprint/internal/graph"
	"github.com/hanpama/blueprint/internal/host"
	"github.com/hanpama/blueprint/internal/runid"
	"github.com/hanpama/blueprint/internal/samples"
)

var errRunsFailed = errors.New("runs failed")

func newRunCmd(flags *rootFlags) *cobra.Command {
	var (
		all      bool
		parallel int
	)
	cmd := &cobra.Command{
		Use:   "run [sample...]",
		Short: "Run sample graphs and print their logs",
		Example: "  blueprint run sum-loop\n" +
			"  blueprint run --all --log-level debug",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if all {
				names = samples.Names()
			}
			if len(names) == 0 {
				return errors.New("name at least one sample or pass --all")
			}
			ctx, e, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := e.shutdown(sctx); err != nil {
					ctxlog.FromContext(ctx).Warn("telemetry shutdown", slog.Any("error", err))
				}
			}()

			transcripts, err := runSamples(ctx, e, names, parallel)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			failed := 0
			for i, tr := range transcripts {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "== %s ==\n", names[i])
				if _, err := tr.WriteTo(out); err != nil {
					return err
				}
				if tr.Err != nil {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d", errRunsFailed, failed, len(names))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "run every sample")
	cmd.Flags().IntVar(&parallel, "parallel", 4, "number of samples run at once")
	return cmd
}

// runSamples builds and runs each named sample, several at a time. Results
// keep the order of names. Run failures are part of the transcripts; only a
// sample that cannot be built fails the whole call.
func runSamples(ctx context.Context, e *env, names []string, parallel int) ([]host.Transcript, error) {
	graphs := make([]*graph.Graph, len(names))
	for i, name := range names {
		g, err := samples.Build(name)
		if err != nil {
			return nil, err
		}
		graphs[i] = g
	}

	out := make([]host.Transcript, len(names))
	g, gctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, sample := range graphs {
		g.Go(func() error {
			rctx, _ := runid.NewContext(gctx)
			log := ctxlog.FromContext(rctx).With(slog.String("sample", names[i]))
			out[i] = host.Execute(ctxlog.WithLogger(rctx, log), sample,
				engine.WithBus(e.bus),
				engine.WithMaxSteps(e.cfg.Engine.MaxSteps),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

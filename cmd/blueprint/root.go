package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hanpama/blueprint/internal/config"
	"github.com/hanpama/blueprint/internal/ctxlog"
	"github.com/hanpama/blueprint/internal/eventbus"
	"github.com/hanpama/blueprint/internal/otel"
)

type rootFlags struct {
	configPath   string
	logLevel     string
	logFormat    string
	otelEndpoint string
	otelService  string
	maxSteps     int
}

func newRootCmd() *cobra.Command {
	var flags rootFlags
	root := &cobra.Command{
		Use:   "blueprint",
		Short: "Run visual-scripting blueprint graphs",
		Long: "blueprint executes node graphs built from Begin, Print, Branch, For Loop,\n" +
			"variable and math nodes, and prints the log each run produces.",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&flags.configPath, "config", "", "YAML configuration file")
	f.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	f.StringVar(&flags.logFormat, "log-format", "", "log format: text or json")
	f.StringVar(&flags.otelEndpoint, "otel-endpoint", "", "OTLP gRPC collector endpoint")
	f.StringVar(&flags.otelService, "otel-service", "", "OpenTelemetry service name")
	f.IntVar(&flags.maxSteps, "max-steps", 0, "stop a run after this many node visits (0: no limit)")

	root.AddCommand(newListCmd())
	root.AddCommand(newRunCmd(&flags))
	return root
}

// env is what a command needs to run graphs.
type env struct {
	cfg      config.Config
	bus      *eventbus.Bus
	shutdown func(context.Context) error
}

// setup loads the configuration, applies flag overrides and wires logging
// and tracing. The returned context carries the logger.
func setup(cmd *cobra.Command, flags *rootFlags) (context.Context, *env, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, nil, err
	}
	pf := cmd.Flags()
	if pf.Changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if pf.Changed("log-format") {
		cfg.Log.Format = flags.logFormat
	}
	if pf.Changed("otel-endpoint") {
		cfg.Telemetry.Endpoint = flags.otelEndpoint
	}
	if pf.Changed("otel-service") {
		cfg.Telemetry.Service = flags.otelService
	}
	if pf.Changed("max-steps") {
		cfg.Engine.MaxSteps = flags.maxSteps
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger := ctxlog.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	ctx := ctxlog.WithLogger(cmd.Context(), logger)

	bus := eventbus.New()
	shutdown, err := otel.Setup(ctx, bus, cfg.Telemetry.Endpoint, cfg.Telemetry.Service)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("configured",
		slog.String("log_level", cfg.Log.Level),
		slog.String("otel_endpoint", cfg.Telemetry.Endpoint),
		slog.Int("max_steps", cfg.Engine.MaxSteps),
	)
	return ctx, &env{cfg: cfg, bus: bus, shutdown: shutdown}, nil
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Iron-Ham/consortium/internal/config"
	"github.com/Iron-Ham/consortium/internal/console"
	"github.com/Iron-Ham/consortium/internal/engine"
	"github.com/Iron-Ham/consortium/internal/errors"
	"github.com/Iron-Ham/consortium/internal/logging"
	"github.com/Iron-Ham/consortium/internal/metrics"
	"github.com/Iron-Ham/consortium/internal/notation"
	"github.com/Iron-Ham/consortium/internal/orchestrator"
	"github.com/Iron-Ham/consortium/internal/output"
	"github.com/Iron-Ham/consortium/internal/render"
	"github.com/Iron-Ham/consortium/internal/stream"
	"github.com/Iron-Ham/consortium/internal/styles"
)

// shutdownTimeout bounds the stop/quit sequence once input has ended.
const shutdownTimeout = 5 * time.Second

// terminal is where a session reads commands and prints output.
type terminal struct {
	in  io.Reader
	out io.Writer
	// interactive selects the line-editing prompt over plain line reading.
	interactive bool
	// tty reports whether out is a terminal, for automatic colour.
	tty bool
	// width truncates output lines; zero disables.
	width int
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stdinTTY := term.IsTerminal(int(os.Stdin.Fd()))
	stdoutTTY := term.IsTerminal(int(os.Stdout.Fd()))

	t := terminal{
		in:          os.Stdin,
		out:         os.Stdout,
		interactive: stdinTTY && stdoutTTY,
		tty:         stdoutTTY,
	}
	if cfg.Display.Truncate && stdoutTTY {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			t.width = w
		}
	}

	return serve(ctx, cfg, t)
}

// serve runs one session: it launches every engine, feeds operator input to
// the orchestrator until input ends and then shuts everything down.
func serve(ctx context.Context, cfg *config.Config, t terminal) error {
	if len(cfg.Engines) == 0 {
		return fmt.Errorf("no engines configured; add some to %s", config.ConfigFile())
	}
	specs, err := cfg.EngineSpecs()
	if err != nil {
		return err
	}

	base := newLogger(cfg)
	defer func() { _ = base.Close() }()
	logger := base.WithSession(uuid.NewString())

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	if addr := cfg.Metrics.Listen; addr != "" {
		go func() {
			if err := metrics.Serve(ctx, addr, registry); err != nil {
				logger.Warn("metrics endpoint failed", "addr", addr, "error", err.Error())
			}
		}()
	}

	palette, err := styles.Resolve(cfg.Display.Theme, cfg.Display.ResolveThemeFile())
	if err != nil {
		return fmt.Errorf("loading theme: %w", err)
	}

	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}

	formatOpts := render.Options{
		Names:   names,
		PVMoves: cfg.Display.PVMoves,
		Raw:     cfg.PrintRawUCI,
		Width:   t.width,
		Palette: palette,
		Profile: render.ProfileFor(cfg.Display.Color, t.tty),
	}
	orchOpts := orchestrator.Options{
		SyncByDepth: cfg.SyncByDepth,
		PrintAll:    cfg.PrintAllOutput,
		Logger:      logger,
		Metrics:     m,
	}
	if cfg.Display.SAN {
		tracker := notation.NewTracker()
		formatOpts.Moves = tracker
		orchOpts.Notation = tracker
	}
	formatter := render.New(formatOpts)
	orchOpts.Formatter = formatter

	var orch *orchestrator.Orchestrator
	handle := func(ctx context.Context, line string) error {
		if console.IsQuit(line) {
			return console.ErrQuit
		}
		return orch.ProcessInput(ctx, line)
	}

	var prompt *console.Prompt
	dst := t.out
	if t.interactive {
		prompt = console.NewPrompt(ctx, t.in, t.out, handle)
		dst = prompt
	}

	writer := output.NewWriter(dst, output.Options{
		BatchSize:  cfg.Output.BatchSize,
		BatchDelay: cfg.Output.BatchDelay(),
		Logger:     logger,
	})
	defer func() { _ = writer.Close() }()
	orchOpts.Sink = writer

	events := stream.New[engine.Event]()
	engines := make([]*engine.Engine, len(specs))
	members := make([]orchestrator.Engine, len(specs))
	for i, spec := range specs {
		engines[i] = engine.New(i, spec, events, engine.Options{
			Logger:  logger,
			Metrics: m,
			Sink:    writer,
			Echo:    formatter,
		})
		members[i] = engines[i]
	}

	orch = orchestrator.New(members, events, orchOpts)
	orch.Start(ctx)

	shutdown := func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		orch.Shutdown(sctx)
	}

	logger.Info("launching engines", "engines", len(engines))
	if err := engine.Launch(ctx, engines); err != nil {
		logger.Error("launch failed", "error", err.Error(), "severity", errors.GetSeverity(err).String())
		shutdown()
		return err
	}

	if prompt != nil {
		err = prompt.Run()
	} else {
		err = console.ReadLines(ctx, t.in, handle)
	}
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	shutdown()
	if cerr := writer.Close(); cerr != nil {
		logger.Warn("output incomplete", "error", cerr.Error())
	}
	return err
}

// newLogger opens the debug log. Failing to open it is reported and
// otherwise ignored.
func newLogger(cfg *config.Config) *logging.Logger {
	if !cfg.Logging.Enabled {
		return logging.NopLogger()
	}

	dir := cfg.Logging.ResolveDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: debug logging disabled: %v\n", err)
		return logging.NopLogger()
	}
	logger, err := logging.NewLogger(dir, cfg.Logging.Level, cfg.Logging.Rotation())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: debug logging disabled: %v\n", err)
		return logging.NopLogger()
	}
	return logger
}

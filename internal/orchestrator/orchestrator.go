// Package orchestrator broadcasts operator commands to every engine and runs
// the single consumer that turns the shared event stream into output.
//
// Only one consumer exists at a time. Dispatch cancels the running consumer
// and waits for it to finish before touching session state, then starts a
// fresh one for the new command. Session state is therefore only ever
// accessed by one goroutine: the active consumer, or Dispatch while no
// consumer runs.
package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/Iron-Ham/consortium/internal/engine"
	"github.com/Iron-Ham/consortium/internal/errors"
	"github.com/Iron-Ham/consortium/internal/insights"
	"github.com/Iron-Ham/consortium/internal/logging"
	"github.com/Iron-Ham/consortium/internal/metrics"
	"github.com/Iron-Ham/consortium/internal/render"
	"github.com/Iron-Ham/consortium/internal/session"
	"github.com/Iron-Ham/consortium/internal/stream"
)

// Shutdown timings.
const (
	QuitTimeout   = 250 * time.Millisecond
	TrailingPause = 100 * time.Millisecond
)

// Mode selects how the consumer prints what it reads.
type Mode int

const (
	// Immediate prints every printable line as it arrives.
	Immediate Mode = iota
	// DepthSynchronized prints one row block per depth once every active
	// engine has passed it.
	DepthSynchronized
)

// String returns a human-readable name for the mode.
func (m Mode) String() string {
	switch m {
	case Immediate:
		return "immediate"
	case DepthSynchronized:
		return "synchronized"
	default:
		return "unknown"
	}
}

// ModeFor returns the mode a command is consumed in.
func ModeFor(command string, syncByDepth bool) Mode {
	if syncByDepth && hasPrefixFold(command, "go") {
		return DepthSynchronized
	}
	return Immediate
}

// Engine is the view of an engine process the orchestrator needs.
type Engine interface {
	ID() int
	Name() string
	Send(command string)
	SendAndAwait(ctx context.Context, command string, match func(string) bool, timeout time.Duration) (string, error)
	Exited() bool
	Terminate()
}

// NotationTracker follows position commands. See notation.Tracker.
type NotationTracker interface {
	Apply(command string) (bool, error)
}

// Options configures an Orchestrator.
type Options struct {
	SyncByDepth bool
	// PrintAll prints every line in immediate mode, including option and
	// identity declarations and bound or curr-move chatter.
	PrintAll bool

	Formatter *render.Formatter
	Sink      engine.Sink
	Logger    *logging.Logger
	Metrics   *metrics.Metrics
	Notation  NotationTracker

	// Zero values use QuitTimeout and TrailingPause.
	QuitTimeout   time.Duration
	TrailingPause time.Duration
}

// Orchestrator owns the engine set, the session state and the consumer.
type Orchestrator struct {
	opts    Options
	logger  *logging.Logger
	metrics *metrics.Metrics
	format  *render.Formatter
	sink    engine.Sink

	events  *stream.Queue[engine.Event]
	session *session.Session

	mu       sync.Mutex // serializes input, dispatch and shutdown
	base     context.Context
	engines  []Engine
	consumer *consumer
	closed   bool
}

// New creates an orchestrator over engines, which must be ordered by ID
// starting at zero, all feeding events.
func New(engines []Engine, events *stream.Queue[engine.Event], opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}
	if opts.QuitTimeout <= 0 {
		opts.QuitTimeout = QuitTimeout
	}
	if opts.TrailingPause <= 0 {
		opts.TrailingPause = TrailingPause
	}

	names := make([]string, len(engines))
	for i, e := range engines {
		names[i] = e.Name()
	}
	if opts.Formatter == nil {
		opts.Formatter = render.New(render.Options{Names: names})
	}
	if opts.Sink == nil {
		opts.Sink = discard{}
	}

	return &Orchestrator{
		opts:    opts,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		format:  opts.Formatter,
		sink:    opts.Sink,
		events:  events,
		session: session.New(names),
		base:    context.Background(),
		engines: append([]Engine(nil), engines...),
	}
}

// Start begins consuming in immediate mode so startup output (pids,
// handshakes) is printed. Consumers run until the next dispatch or
// Shutdown replaces them. They keep ctx's values but not its
// cancellation, so output from the quit sequence after an interrupt is
// still printed.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.base = context.WithoutCancel(ctx)
	if o.consumer == nil && !o.closed {
		o.startConsumer(Immediate)
	}
}

// Engines returns the engines still in the set.
func (o *Orchestrator) Engines() []Engine {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Engine(nil), o.engines...)
}

// ProcessInput handles one line of operator input: an empty line prints a
// separator, "breakdown [field]" prints the comparison table and anything
// else is dispatched to every engine.
func (o *Orchestrator) ProcessInput(ctx context.Context, input string) error {
	command := strings.TrimSpace(input)

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return errors.ErrStreamClosed
	}

	switch {
	case command == "":
		o.sink.WriteLine("")
		return nil
	case insights.IsBreakdownCommand(command):
		return o.breakdownLocked(ctx, insights.ParseBreakdown(command))
	default:
		o.dispatchLocked(command)
		return nil
	}
}

// Dispatch sends command to every engine, switching the consumer to the
// mode the command calls for.
func (o *Orchestrator) Dispatch(command string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return errors.ErrStreamClosed
	}
	o.dispatchLocked(command)
	return nil
}

func (o *Orchestrator) dispatchLocked(command string) {
	o.stopConsumer()

	mode := ModeFor(command, o.opts.SyncByDepth)
	isStop := hasPrefixFold(command, "stop")

	if !isStop {
		ids := make([]int, len(o.engines))
		for i, e := range o.engines {
			ids[i] = e.ID()
		}
		o.session.Reset(ids)
		o.metrics.ResetReached()
	}

	o.reapExited()

	if o.opts.Notation != nil {
		if _, err := o.opts.Notation.Apply(command); err != nil {
			o.logger.Warn("position not tracked", "command", command, "error", err.Error())
		}
	}

	o.startConsumer(mode)

	o.logger.Info("dispatch", "command", command, "mode", mode.String(), "engines", len(o.engines))
	o.metrics.Dispatched(mode.String())

	var wg conc.WaitGroup
	for _, e := range o.engines {
		wg.Go(func() { e.Send(command) })
	}
	wg.Wait()
	o.sink.WriteLine("")
}

// reapExited drops engines whose process has ended. Must run with no
// consumer.
func (o *Orchestrator) reapExited() {
	kept := o.engines[:0]
	for _, e := range o.engines {
		if !e.Exited() {
			kept = append(kept, e)
			continue
		}
		o.session.Deactivate(e.ID())
		o.metrics.EngineReaped(e.Name())
		o.logger.Info("engine removed", "engine", e.Name())
	}
	clear(o.engines[len(kept):])
	o.engines = kept
}

// breakdownLocked asks the consumer to build the breakdown table and waits
// until it has been written.
func (o *Orchestrator) breakdownLocked(ctx context.Context, field insights.Field) error {
	done := make(chan struct{})
	query := func() {
		defer close(done)
		for _, line := range insights.Breakdown(o.session, field) {
			o.sink.WriteLine(line)
		}
	}

	if !o.events.Push(engine.Event{Kind: engine.EventQuery, EngineID: -1, Query: query}) {
		return errors.ErrStreamClosed
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops every search, asks every engine to quit, terminates what
// is left and stops the consumer once trailing output has been printed.
// Calling it again is a no-op.
func (o *Orchestrator) Shutdown(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	o.dispatchLocked("stop")
	o.closed = true

	var wg conc.WaitGroup
	for _, e := range o.engines {
		wg.Go(func() {
			if _, err := e.SendAndAwait(ctx, "quit", engine.Never, o.opts.QuitTimeout); err != nil && !errors.Is(err, errors.ErrEngineExited) {
				o.logger.Debug("quit not acknowledged", "engine", e.Name(), "error", err.Error())
			}
		})
	}
	wg.Wait()

	for _, e := range o.engines {
		e.Terminate()
	}

	select {
	case <-time.After(o.opts.TrailingPause):
	case <-ctx.Done():
	}

	o.stopConsumer()
	o.events.Close()
	o.logger.Info("shutdown complete")
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

type discard struct{}

func (discard) WriteLine(string) {}

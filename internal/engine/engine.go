// Package engine supervises one external UCI engine process.
//
// An [Engine] owns the process and its pipes. A single pump goroutine reads
// stdout line by line, classifies each line, stamps it with the engine's
// identity, pushes it onto the shared event stream and offers it to the
// engine's pending expectation. When stdout closes the pump reaps the
// process and pushes an exit event, so consumers learn about crashes through
// the same ordered stream as everything else.
//
// Commands are written with [Engine.Send]; [Engine.SendAndAwait] additionally
// waits for a matching response line. At most one such wait may be pending
// per engine.
package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Iron-Ham/consortium/internal/errors"
	"github.com/Iron-Ham/consortium/internal/logging"
	"github.com/Iron-Ham/consortium/internal/metrics"
	"github.com/Iron-Ham/consortium/internal/stream"
	"github.com/Iron-Ham/consortium/internal/uci"
)

// Handshake timeouts.
const (
	UCIOKTimeout   = 1000 * time.Millisecond
	ReadyOKTimeout = 250 * time.Millisecond
)

const maxLineBytes = 1024 * 1024

// Spec describes how to run one engine. It is never mutated after loading.
type Spec struct {
	Name string
	Path string
	// Options are sent in order during the handshake.
	Options []string
	// Remap replaces a generic command with engine-specific text.
	Remap map[string]string
}

// State is the lifecycle state of an engine.
type State int32

const (
	StateCreated State = iota
	StateStarted
	StateHandshaking
	StateReady
	StateTerminating
	StateDead
)

// String returns a human-readable string for the state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarted:
		return "started"
	case StateHandshaking:
		return "handshaking"
	case StateReady:
		return "ready"
	case StateTerminating:
		return "terminating"
	case StateDead:
		return "dead"
	default:
		return "unknown"
	}
}

// Sink receives operator-facing text lines.
type Sink interface {
	WriteLine(line string)
}

// Echo formats the operator-facing lines an engine produces itself.
type Echo interface {
	// Outgoing formats a command being sent, e.g. "stockfish << go".
	Outgoing(name, command string) string
	// Notice formats a status line about the engine, e.g. "stockfish pid 42".
	Notice(name, text string) string
}

// Options configures an Engine. Every field is optional.
type Options struct {
	Logger  *logging.Logger
	Metrics *metrics.Metrics
	Sink    Sink
	Echo    Echo
}

// Engine supervises one engine process.
type Engine struct {
	id     int
	spec   Spec
	events *stream.Queue[Event]

	logger  *logging.Logger
	metrics *metrics.Metrics
	sink    Sink
	echo    Echo

	mu      sync.Mutex // guards cmd and stdin
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	writeMu sync.Mutex

	state    atomic.Int32
	degraded atomic.Bool
	expect   expectation

	exited   chan struct{}
	exitCode int

	terminateOnce sync.Once
}

// New creates an engine with a stable id. Its output will be pushed onto
// events once started.
func New(id int, spec Spec, events *stream.Queue[Event], opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}
	if opts.Sink == nil {
		opts.Sink = discardSink{}
	}
	if opts.Echo == nil {
		opts.Echo = PlainEcho{}
	}

	return &Engine{
		id:       id,
		spec:     spec,
		events:   events,
		logger:   opts.Logger.WithEngine(spec.Name),
		metrics:  opts.Metrics,
		sink:     opts.Sink,
		echo:     opts.Echo,
		exited:   make(chan struct{}),
		exitCode: -1,
	}
}

// ID returns the engine's stable index.
func (e *Engine) ID() int { return e.id }

// Name returns the configured name.
func (e *Engine) Name() string { return e.spec.Name }

// State returns the current lifecycle state.
func (e *Engine) State() State { return State(e.state.Load()) }

// Degraded reports whether a handshake step timed out.
func (e *Engine) Degraded() bool { return e.degraded.Load() }

// Done is closed once the process has exited and its output is drained.
func (e *Engine) Done() <-chan struct{} { return e.exited }

// Exited reports whether the process has exited.
func (e *Engine) Exited() bool {
	select {
	case <-e.exited:
		return true
	default:
		return false
	}
}

// ExitCode returns the process exit code, or -1 while running or when the
// process was killed by a signal.
func (e *Engine) ExitCode() int {
	select {
	case <-e.exited:
		return e.exitCode
	default:
		return -1
	}
}

// Start spawns the process with piped stdin and stdout and starts the
// output pump.
func (e *Engine) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !e.state.CompareAndSwap(int32(StateCreated), int32(StateStarted)) {
		return errors.NewEngineError("start called twice", errors.ErrInvalidInput).WithEngine(e.spec.Name)
	}

	cmd := exec.Command(e.spec.Path)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return e.spawnError(err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return e.spawnError(err)
	}
	if err := cmd.Start(); err != nil {
		return e.spawnError(err)
	}

	e.mu.Lock()
	e.cmd = cmd
	e.stdin = stdin
	e.mu.Unlock()

	pid := cmd.Process.Pid
	e.logger.Info("engine started", "pid", pid, "path", e.spec.Path)
	e.sink.WriteLine(e.echo.Notice(e.spec.Name, fmt.Sprintf("pid %d", pid)))

	go e.pump(stdout)
	return nil
}

func (e *Engine) spawnError(err error) error {
	e.state.Store(int32(StateDead))
	close(e.exited)
	return errors.NewEngineError("starting "+e.spec.Path, fmt.Errorf("%w: %w", errors.ErrSpawnFailed, err)).
		WithEngine(e.spec.Name).
		WithSeverity(errors.SeverityCritical)
}

func (e *Engine) pump(stdout io.Reader) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for scanner.Scan() {
		raw := strings.TrimRight(scanner.Text(), "\r")
		line := uci.Classify(raw).WithSource(e.id, e.spec.Name, time.Now())

		e.metrics.ObserveLine(e.spec.Name, lineKind(line))
		e.events.Push(Event{Kind: EventLine, EngineID: e.id, Engine: e.spec.Name, Line: line})
		e.expect.offer(raw)
	}
	if err := scanner.Err(); err != nil {
		e.logger.Warn("stopped reading engine output", "error", err)
		_, _ = io.Copy(io.Discard, stdout)
	}

	code := -1
	if err := e.cmd.Wait(); err != nil {
		e.logger.Debug("engine wait returned error", "error", err)
	}
	if e.cmd.ProcessState != nil {
		code = e.cmd.ProcessState.ExitCode()
	}

	e.exitCode = code
	e.state.Store(int32(StateDead))
	close(e.exited)

	e.logger.Info("engine exited", "code", code)
	e.events.Push(Event{Kind: EventExit, EngineID: e.id, Engine: e.spec.Name, ExitCode: code})
}

func lineKind(l uci.Line) string {
	switch {
	case l.IsBound():
		return metrics.KindBound
	case l.IsCurrMove():
		return metrics.KindCurrMove
	case l.IsInfo():
		return metrics.KindInfo
	default:
		return metrics.KindOther
	}
}

// Send writes command, after remapping, to the engine. Write failures are
// logged and otherwise ignored; a dead engine is reaped by the next dispatch.
func (e *Engine) Send(command string) {
	if remapped, ok := e.spec.Remap[command]; ok {
		command = remapped
	}

	e.logger.Debug("sending command", "command", command)
	e.sink.WriteLine(e.echo.Outgoing(e.spec.Name, command))

	e.mu.Lock()
	stdin := e.stdin
	e.mu.Unlock()

	if stdin == nil {
		e.logger.Debug("write skipped", "command", command, "error", errors.ErrEngineNotStarted)
		return
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	if _, err := io.WriteString(stdin, command+"\n"); err != nil {
		e.logger.Debug("write failed", "command", command, "error", err)
	}
}

// SendAndAwait sends command and waits for the first output line accepted
// by match. It gives up after timeout, when ctx is done or when the process
// exits. Only one wait may be pending per engine; a concurrent call fails
// with ErrExpectationPending.
func (e *Engine) SendAndAwait(ctx context.Context, command string, match func(string) bool, timeout time.Duration) (string, error) {
	done, ok := e.expect.arm(match)
	if !ok {
		return "", errors.NewEngineError("cannot await response", errors.ErrExpectationPending).
			WithEngine(e.spec.Name).WithCommand(command)
	}
	defer e.expect.disarm()

	if e.Exited() {
		return "", errors.NewEngineError("cannot await response", errors.ErrEngineExited).
			WithEngine(e.spec.Name).WithCommand(command)
	}

	e.Send(command)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		_, line := e.expect.outcome()
		return line, nil
	case <-timer.C:
		e.expect.expire()
		if state, line := e.expect.outcome(); state == expectFulfilled {
			return line, nil
		}
		return "", errors.NewEngineError(fmt.Sprintf("no response within %v", timeout), errors.ErrTimeout).
			WithEngine(e.spec.Name).WithCommand(command)
	case <-e.exited:
		if state, line := e.expect.outcome(); state == expectFulfilled {
			return line, nil
		}
		return "", errors.NewEngineError("awaiting response", errors.ErrEngineExited).
			WithEngine(e.spec.Name).WithCommand(command)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Exactly matches a line equal to want, ignoring surrounding whitespace.
func Exactly(want string) func(string) bool {
	return func(line string) bool { return strings.TrimSpace(line) == want }
}

// Never matches nothing. Awaiting it waits for the timeout or the exit.
func Never(string) bool { return false }

// Handshake runs the startup exchange: uci/uciok, isready/readyok, the
// configured options, ucinewgame and a final isready/readyok. A step that
// times out marks the engine degraded and the exchange continues. The
// returned error is non-nil only if the engine exited or ctx ended.
func (e *Engine) Handshake(ctx context.Context) error {
	e.state.CompareAndSwap(int32(StateStarted), int32(StateHandshaking))
	start := time.Now()

	if err := e.handshakeStep(ctx, "uci", "uciok", UCIOKTimeout); err != nil {
		return err
	}
	if err := e.handshakeStep(ctx, "isready", "readyok", ReadyOKTimeout); err != nil {
		return err
	}
	for _, opt := range e.spec.Options {
		e.Send(opt)
	}
	e.Send("ucinewgame")
	if err := e.handshakeStep(ctx, "isready", "readyok", ReadyOKTimeout); err != nil {
		return err
	}

	e.state.CompareAndSwap(int32(StateHandshaking), int32(StateReady))
	e.metrics.HandshakeDone(e.spec.Name, time.Since(start))
	e.logger.Info("handshake complete", "degraded", e.Degraded(), "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (e *Engine) handshakeStep(ctx context.Context, command, want string, timeout time.Duration) error {
	_, err := e.SendAndAwait(ctx, command, Exactly(want), timeout)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errors.ErrTimeout) {
		return err
	}

	e.degraded.Store(true)
	e.metrics.HandshakeTimeout(e.spec.Name, want)
	hsErr := errors.NewEngineError("awaiting "+want, errors.ErrHandshakeTimeout).
		WithEngine(e.spec.Name).WithCommand(command)
	e.logger.Warn("handshake step timed out", "error", hsErr, "timeout_ms", timeout.Milliseconds())
	e.sink.WriteLine(e.echo.Notice(e.spec.Name, fmt.Sprintf("timed out waiting for '%s'", want)))
	return nil
}

// Terminate closes stdin and kills the process. Failures are ignored and
// repeated calls do nothing.
func (e *Engine) Terminate() {
	e.terminateOnce.Do(func() {
		for {
			cur := e.state.Load()
			if State(cur) == StateDead || e.state.CompareAndSwap(cur, int32(StateTerminating)) {
				break
			}
		}

		e.mu.Lock()
		cmd, stdin := e.cmd, e.stdin
		e.mu.Unlock()

		if stdin != nil {
			_ = stdin.Close()
		}
		if cmd != nil && cmd.Process != nil && !e.Exited() {
			if err := cmd.Process.Kill(); err != nil {
				e.logger.Debug("kill failed", "error", err)
			}
		}
	})
}

// PlainEcho formats echoes without padding or colour.
type PlainEcho struct{}

// Outgoing implements Echo.
func (PlainEcho) Outgoing(name, command string) string { return name + " << " + command }

// Notice implements Echo.
func (PlainEcho) Notice(name, text string) string { return name + " " + text }

type discardSink struct{}

func (discardSink) WriteLine(string) {}

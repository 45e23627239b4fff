package console

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Suggestions are offered for tab completion at the prompt.
var Suggestions = []string{
	"breakdown branching",
	"breakdown nodes",
	"breakdown score",
	"breakdown seldepth",
	"go depth ",
	"go infinite",
	"go movetime ",
	"go nodes ",
	"isready",
	"position fen ",
	"position startpos",
	"position startpos moves ",
	"setoption name ",
	"stop",
	"uci",
	"ucinewgame",
}

const historyLimit = 200

// Prompt is an interactive line editor. Output written to it is printed
// above the input line in order.
type Prompt struct {
	program *tea.Program
	out     io.Writer
	mu      sync.Mutex // serializes direct writes to out

	startOnce sync.Once
	started   chan struct{}
	finished  chan struct{}
}

// NewPrompt creates a prompt reading keys from in and drawing on out.
// Commands are passed to handle one at a time, in the order entered.
func NewPrompt(ctx context.Context, in io.Reader, out io.Writer, handle Handler) *Prompt {
	p := &Prompt{
		out:      out,
		started:  make(chan struct{}),
		finished: make(chan struct{}),
	}
	m := newModel(ctx, handle)
	m.onStart = func() { p.startOnce.Do(func() { close(p.started) }) }
	p.program = tea.NewProgram(
		m,
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithoutSignalHandler(),
	)
	return p
}

// Run reads commands until the operator quits, handle returns an error or
// ctx is done.
func (p *Prompt) Run() error {
	m, err := p.program.Run()
	close(p.finished)
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	if fm, ok := m.(model); ok && fm.err != nil && !errors.Is(fm.err, ErrQuit) {
		return fm.err
	}
	return nil
}

// Quit ends Run from another goroutine.
func (p *Prompt) Quit() {
	p.program.Quit()
}

// Write prints b above the prompt. Before the prompt has started and after
// it has stopped, output goes straight to the terminal.
func (p *Prompt) Write(b []byte) (int, error) {
	select {
	case <-p.started:
	default:
		return p.writeDirect(b)
	}

	// Println blocks until the event loop takes the line, and forever once
	// the loop has exited.
	text := strings.TrimSuffix(string(b), "\n")
	sent := make(chan struct{})
	go func() {
		p.program.Println(text)
		close(sent)
	}()

	select {
	case <-sent:
		return len(b), nil
	case <-p.finished:
		select {
		case <-sent:
			return len(b), nil
		default:
			return p.writeDirect(b)
		}
	}
}

func (p *Prompt) writeDirect(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out.Write(b)
}

type handledMsg struct{ err error }

type model struct {
	ctx     context.Context
	handle  Handler
	input   textinput.Model
	onStart func()

	pending []string
	busy    bool
	history []string
	cursor  int // position in history while browsing; len(history) when not
	err     error
}

var promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA")).Bold(true)

func newModel(ctx context.Context, handle Handler) model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.PromptStyle = promptStyle
	ti.Placeholder = "uci command, breakdown [field], or quit"
	ti.ShowSuggestions = true
	ti.SetSuggestions(Suggestions)
	ti.Focus()

	return model{ctx: ctx, handle: handle, input: ti}
}

func (m model) Init() tea.Cmd {
	if m.onStart != nil {
		m.onStart()
	}
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyUp:
			m.browse(-1)
			return m, nil
		case tea.KeyDown:
			m.browse(1)
			return m, nil
		}

	case handledMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		return m.next()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) View() string {
	return m.input.View()
}

// submit queues the current input and echoes it above the prompt.
func (m model) submit() (tea.Model, tea.Cmd) {
	line := m.input.Value()
	m.input.Reset()

	if trimmed := strings.TrimSpace(line); trimmed != "" {
		m.history = append(m.history, trimmed)
		if len(m.history) > historyLimit {
			m.history = m.history[len(m.history)-historyLimit:]
		}
	}
	m.cursor = len(m.history)
	m.pending = append(m.pending, line)

	echo := tea.Println(m.input.Prompt + line)
	next, cmd := m.next()
	return next, tea.Sequence(echo, cmd)
}

// next starts the oldest queued command unless one is running.
func (m model) next() (tea.Model, tea.Cmd) {
	if m.busy || len(m.pending) == 0 {
		return m, nil
	}
	line := m.pending[0]
	m.pending = m.pending[1:]
	m.busy = true
	return m, m.run(line)
}

func (m model) run(line string) tea.Cmd {
	ctx, handle := m.ctx, m.handle
	return func() tea.Msg {
		if IsQuit(line) {
			return handledMsg{err: ErrQuit}
		}
		return handledMsg{err: handle(ctx, line)}
	}
}

func (m *model) browse(delta int) {
	if len(m.history) == 0 {
		return
	}
	m.cursor = max(0, min(len(m.history), m.cursor+delta))
	if m.cursor == len(m.history) {
		m.input.SetValue("")
		return
	}
	m.input.SetValue(m.history[m.cursor])
	m.input.CursorEnd()
}

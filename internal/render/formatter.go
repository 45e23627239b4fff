// Package render formats engine output for the operator: progress report
// rows, principal line highlighting, command echoes and notices.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/Iron-Ham/consortium/internal/insights"
	"github.com/Iron-Ham/consortium/internal/styles"
	"github.com/Iron-Ham/consortium/internal/uci"
	"github.com/Iron-Ham/consortium/internal/util"
)

// DefaultPVMoves is how many principal line moves a row shows.
const DefaultPVMoves = 16

// Color modes accepted by ProfileFor.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// MoveNamer rewrites a principal line, e.g. into algebraic notation.
type MoveNamer interface {
	Names(moves []string) []string
}

// Options configures a Formatter.
type Options struct {
	// Names are all engine names; the widest sets the name column.
	Names []string
	// PVMoves caps the moves shown per row. Zero means DefaultPVMoves.
	PVMoves int
	// Raw prints info lines verbatim instead of as formatted rows.
	Raw bool
	// Width truncates every line to this many columns. Zero disables.
	Width   int
	Palette *styles.Palette
	Profile termenv.Profile
	Moves   MoveNamer
}

// Formatter renders operator-facing lines. It is safe for concurrent use.
type Formatter struct {
	nameWidth int
	pvMoves   int
	raw       bool
	width     int
	moves     MoveNamer

	palette  *styles.Palette
	renderer *lipgloss.Renderer
	name     lipgloss.Style
	muted    lipgloss.Style
	warning  lipgloss.Style
	failure  lipgloss.Style
}

// New creates a Formatter.
func New(opts Options) *Formatter {
	if opts.PVMoves <= 0 {
		opts.PVMoves = DefaultPVMoves
	}
	if opts.Palette == nil {
		opts.Palette = styles.DefaultPalette()
	}

	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(opts.Profile)

	return &Formatter{
		nameWidth: util.MaxWidth(opts.Names),
		pvMoves:   opts.PVMoves,
		raw:       opts.Raw,
		width:     opts.Width,
		moves:     opts.Moves,
		palette:   opts.Palette,
		renderer:  r,
		name:      r.NewStyle().Foreground(opts.Palette.Engine).Bold(true),
		muted:     r.NewStyle().Foreground(opts.Palette.Muted),
		warning:   r.NewStyle().Foreground(opts.Palette.Warning),
		failure:   r.NewStyle().Foreground(opts.Palette.Error).Bold(true),
	}
}

// ProfileFor maps a color mode to a terminal profile. Auto uses the
// environment's profile when attached to a terminal and no color otherwise.
func ProfileFor(mode string, tty bool) termenv.Profile {
	switch strings.ToLower(mode) {
	case ColorAlways:
		return termenv.TrueColor
	case ColorNever:
		return termenv.Ascii
	default:
		if !tty {
			return termenv.Ascii
		}
		return termenv.EnvColorProfile()
	}
}

// Name renders an engine name right-aligned in the name column.
func (f *Formatter) Name(name string) string {
	return f.name.Render(util.PadLeft(name, f.nameWidth))
}

// Outgoing renders a command sent to an engine.
func (f *Formatter) Outgoing(name, command string) string {
	return f.fit(f.Name(name) + f.muted.Render(" << "+command))
}

// Notice renders a status line about an engine.
func (f *Formatter) Notice(name, text string) string {
	return f.fit(f.Name(name) + " " + f.warning.Render(text))
}

// Exit renders the notice for an engine whose process ended.
func (f *Formatter) Exit(name string, code int) string {
	return f.Notice(name, "exited with code "+strconv.Itoa(code))
}

// Violation renders the loud line written when a row cannot be completed
// because an engine has no report at depth.
func (f *Formatter) Violation(name string, depth int) string {
	return f.fit(f.failure.Render(fmt.Sprintf("!! %s has no report at depth %d", name, depth)))
}

// Immediate renders a line as it arrives, outside the depth barrier.
func (f *Formatter) Immediate(l uci.Line) string {
	return f.fit(f.Name(l.Engine()) + " >> " + f.Line(l))
}

// Line renders a single line without group highlighting. Non-info lines
// and raw mode return the text unchanged.
func (f *Formatter) Line(l uci.Line) string {
	if f.raw || !l.IsInfo() {
		return l.Raw()
	}
	return f.stats(l) + "  M: " + strings.Join(f.shownMoves(l), " ")
}

// Row renders one engine's entry in a synchronized row block, colouring
// the moves its principal line shares with the rest of its group.
func (f *Formatter) Row(l uci.Line, g insights.Grouping) string {
	prefix := f.Name(l.Engine()) + " >> "
	if f.raw || !l.IsInfo() {
		return f.fit(prefix + l.Raw())
	}

	moves := f.shownMoves(l)
	color, ok := f.palette.GroupColor(g.Group)
	if !ok || len(moves) == 0 {
		return f.fit(prefix + f.stats(l) + "  M: " + strings.Join(moves, " "))
	}

	n := min(len(moves), max(g.Overlap, 1))
	pv := f.renderer.NewStyle().Foreground(color).Render(strings.Join(moves[:n], " "))
	if rest := moves[n:]; len(rest) > 0 {
		pv += " " + strings.Join(rest, " ")
	}
	return f.fit(prefix + f.stats(l) + "  M: " + pv)
}

func (f *Formatter) stats(l uci.Line) string {
	sel := ""
	if l.HasSelDepth() {
		sel = strconv.Itoa(l.SelDepth())
	}
	return fmt.Sprintf("D: %3d/%-3s  S: %9s  N: %11d  T: %8d",
		l.Depth(), sel, l.Score().String(), l.Nodes(), l.Time())
}

func (f *Formatter) shownMoves(l uci.Line) []string {
	pv := l.PV()
	if len(pv) > f.pvMoves {
		pv = pv[:f.pvMoves]
	}
	if f.moves != nil {
		return f.moves.Names(pv)
	}
	return pv
}

func (f *Formatter) fit(s string) string {
	return util.TruncateANSI(s, f.width)
}

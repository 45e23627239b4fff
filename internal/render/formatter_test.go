package render

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/Iron-Ham/consortium/internal/insights"
	"github.com/Iron-Ham/consortium/internal/uci"
)

func line(engine, raw string) uci.Line {
	return uci.Classify(raw).WithSource(0, engine, time.Now())
}

func plain(opts Options) *Formatter {
	opts.Profile = termenv.Ascii
	if opts.Names == nil {
		opts.Names = []string{"sf", "lc0"}
	}
	return New(opts)
}

func TestFormatter_Line(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		raw  string
		want string
	}{
		{
			name: "full info line",
			raw:  "info depth 12 seldepth 18 score cp 34 nodes 100000 time 500 pv e4 e5",
			want: "D:  12/18   S:     cp 34  N:      100000  T:      500  M: e4 e5",
		},
		{
			name: "mate score without seldepth",
			raw:  "info depth 7 score mate -3 nodes 42 pv e2e4",
			want: "D:   7/     S:       #-3  N:          42  T:        0  M: e2e4",
		},
		{
			name: "missing score",
			raw:  "info depth 1 nodes 20",
			want: "D:   1/     S:       ???  N:          20  T:        0  M: ",
		},
		{
			name: "non-info passes through",
			raw:  "bestmove e2e4 ponder e7e5",
			want: "bestmove e2e4 ponder e7e5",
		},
		{
			name: "raw mode",
			opts: Options{Raw: true},
			raw:  "info depth 3 score cp 10 pv e2e4",
			want: "info depth 3 score cp 10 pv e2e4",
		},
		{
			name: "principal line capped",
			opts: Options{PVMoves: 2},
			raw:  "info depth 3 score cp 10 pv a b c d",
			want: "D:   3/     S:     cp 10  N:           0  T:        0  M: a b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := plain(tt.opts)
			if got := f.Line(line("sf", tt.raw)); got != tt.want {
				t.Errorf("Line() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestFormatter_EchoAndNotices(t *testing.T) {
	f := plain(Options{Names: []string{"sf", "komodo"}})

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"outgoing", f.Outgoing("sf", "go depth 5"), "    sf << go depth 5"},
		{"notice", f.Notice("komodo", "pid 42"), "komodo pid 42"},
		{"exit", f.Exit("sf", 3), "    sf exited with code 3"},
		{"violation", f.Violation("sf", 9), "!! sf has no report at depth 9"},
		{"immediate", f.Immediate(line("sf", "readyok")), "    sf >> readyok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestFormatter_RowHighlightsOverlap(t *testing.T) {
	f := New(Options{Names: []string{"sf"}, Profile: termenv.TrueColor})
	l := line("sf", "info depth 3 score cp 10 pv e2e4 e7e5 g1f3 b8c6")

	row := f.Row(l, insights.Grouping{Group: 0, Overlap: 2})
	if !strings.Contains(row, "\x1b[") {
		t.Fatalf("expected ANSI colouring in %q", row)
	}
	stripped := stripANSI(row)
	if !strings.HasSuffix(stripped, "M: e2e4 e7e5 g1f3 b8c6") {
		t.Errorf("row text = %q", stripped)
	}
	// The uncoloured tail follows the styled prefix.
	if !strings.Contains(row, "\x1b[0m g1f3 b8c6") {
		t.Errorf("expected only the shared prefix coloured, got %q", row)
	}
}

func TestFormatter_RowWithoutGroup(t *testing.T) {
	f := New(Options{Names: []string{"sf"}, Profile: termenv.TrueColor})
	l := line("sf", "info depth 3 score cp 10")

	row := stripANSI(f.Row(l, insights.Grouping{Group: insights.NoGroup}))
	want := "sf >> D:   3/     S:     cp 10  N:           0  T:        0  M: "
	if row != want {
		t.Errorf("Row() = %q, want %q", row, want)
	}
}

func TestFormatter_RowPlainProfileMatchesLine(t *testing.T) {
	f := plain(Options{})
	l := line("lc0", "info depth 4 seldepth 6 score cp -5 nodes 10 time 1 pv d2d4")

	got := f.Row(l, insights.Grouping{Group: 1, Overlap: 0})
	want := "lc0 >> " + f.Line(l)
	if got != want {
		t.Errorf("Row() = %q, want %q", got, want)
	}
}

type upper struct{}

func (upper) Names(moves []string) []string {
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = strings.ToUpper(m)
	}
	return out
}

func TestFormatter_MoveNamer(t *testing.T) {
	f := plain(Options{Moves: upper{}})
	got := f.Line(line("sf", "info depth 1 score cp 1 pv e2e4 e7e5"))
	if !strings.HasSuffix(got, "M: E2E4 E7E5") {
		t.Errorf("Line() = %q", got)
	}
}

func TestFormatter_Truncates(t *testing.T) {
	f := plain(Options{Width: 20})
	got := f.Immediate(line("sf", "info depth 12 seldepth 18 score cp 34 nodes 100000 time 500 pv e4 e5"))
	if w := lipgloss.Width(got); w > 20 {
		t.Errorf("width = %d, want <= 20 (%q)", w, got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis, got %q", got)
	}
}

func TestProfileFor(t *testing.T) {
	tests := []struct {
		mode string
		tty  bool
		want termenv.Profile
	}{
		{ColorAlways, false, termenv.TrueColor},
		{"ALWAYS", false, termenv.TrueColor},
		{ColorNever, true, termenv.Ascii},
		{ColorAuto, false, termenv.Ascii},
		{"", false, termenv.Ascii},
	}
	for _, tt := range tests {
		if got := ProfileFor(tt.mode, tt.tty); got != tt.want {
			t.Errorf("ProfileFor(%q, %v) = %v, want %v", tt.mode, tt.tty, got, tt.want)
		}
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == 0x1b {
			for i < len(s) && s[i] != 'm' {
				i++
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

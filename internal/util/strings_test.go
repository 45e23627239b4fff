package util

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestTruncateANSI(t *testing.T) {
	redStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	tests := []struct {
		name     string
		input    string
		maxWidth int
		check    func(t *testing.T, result string)
	}{
		{
			name:     "short plain string unchanged",
			input:    "hello",
			maxWidth: 10,
			check: func(t *testing.T, result string) {
				if result != "hello" {
					t.Errorf("expected 'hello', got %q", result)
				}
			},
		},
		{
			name:     "plain string truncated",
			input:    "D:  12/18   S:     cp 34",
			maxWidth: 10,
			check: func(t *testing.T, result string) {
				if result != "D:  12/..." {
					t.Errorf("expected 'D:  12/...', got %q", result)
				}
			},
		},
		{
			name:     "zero width disables truncation",
			input:    "hello world",
			maxWidth: 0,
			check: func(t *testing.T, result string) {
				if result != "hello world" {
					t.Errorf("expected input unchanged, got %q", result)
				}
			},
		},
		{
			name:     "tiny width returns ellipsis",
			input:    "hello",
			maxWidth: 2,
			check: func(t *testing.T, result string) {
				if result != "..." {
					t.Errorf("expected '...', got %q", result)
				}
			},
		},
		{
			name:     "styled string truncated respects width",
			input:    redStyle.Render("e2e4 e7e5 g1f3 b8c6"),
			maxWidth: 8,
			check: func(t *testing.T, result string) {
				if w := lipgloss.Width(result); w > 8 {
					t.Errorf("result width %d exceeds maxWidth 8", w)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, TruncateANSI(tt.input, tt.maxWidth))
		})
	}
}

func TestPadLeft(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"sf", 6, "    sf"},
		{"stockfish", 4, "stockfish"},
		{"棋士", 6, "  棋士"},
	}
	for _, tt := range tests {
		if got := PadLeft(tt.in, tt.width); got != tt.want {
			t.Errorf("PadLeft(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestMaxWidth(t *testing.T) {
	if got := MaxWidth([]string{"sf", "lc0", "komodo"}); got != 6 {
		t.Errorf("MaxWidth() = %d, want 6", got)
	}
	if got := MaxWidth([]string{"棋士", "a"}); got != 4 {
		t.Errorf("MaxWidth() = %d, want 4", got)
	}
	if got := MaxWidth(nil); got != 0 {
		t.Errorf("MaxWidth(nil) = %d, want 0", got)
	}
}

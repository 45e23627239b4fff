// Package util provides terminal text helpers shared by the renderers.
package util

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// TruncateANSI truncates s to maxWidth visual columns, ending in "..." when
// cut. ANSI escape sequences and wide characters are handled. A maxWidth of
// zero or less disables truncation.
func TruncateANSI(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return s
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return "..."
	}
	return ansi.Truncate(s, maxWidth, "...")
}

// PadLeft right-aligns plain (unstyled) text in width columns.
func PadLeft(s string, width int) string {
	return runewidth.FillLeft(s, width)
}

// MaxWidth returns the widest display width among names.
func MaxWidth(names []string) int {
	widest := 0
	for _, n := range names {
		widest = max(widest, runewidth.StringWidth(n))
	}
	return widest
}

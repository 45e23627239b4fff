// Package styles defines the colour palettes used to highlight principal
// line groups and engine output.
package styles

import (
	"slices"

	"github.com/charmbracelet/lipgloss"
)

// ThemeName represents a named color theme.
type ThemeName string

// Available theme names.
const (
	ThemeDefault       ThemeName = "default"
	ThemeMonokai       ThemeName = "monokai"
	ThemeDracula       ThemeName = "dracula"
	ThemeNord          ThemeName = "nord"
	ThemeSolarizedDark ThemeName = "solarized-dark"
	ThemeGruvbox       ThemeName = "gruvbox"
	ThemeTokyoNight    ThemeName = "tokyo-night"
)

// BuiltinThemes returns all built-in theme names.
func BuiltinThemes() []string {
	return []string{
		string(ThemeDefault),
		string(ThemeMonokai),
		string(ThemeDracula),
		string(ThemeNord),
		string(ThemeSolarizedDark),
		string(ThemeGruvbox),
		string(ThemeTokyoNight),
	}
}

// IsBuiltinTheme reports whether name is a built-in theme.
func IsBuiltinTheme(name string) bool {
	return slices.Contains(BuiltinThemes(), name)
}

// Palette is the set of colours a renderer draws with.
type Palette struct {
	// Groups are cycled by group index. The first entry is used for the
	// most common leading move of the first row that mentions it.
	Groups []lipgloss.Color
	// Engine colours engine names.
	Engine lipgloss.Color
	// Muted colours outgoing command echoes.
	Muted lipgloss.Color
	// Warning colours status notices such as exits and timeouts.
	Warning lipgloss.Color
	// Error colours barrier violations.
	Error lipgloss.Color
}

// GroupColor returns the colour for group index i. The second result is
// false for negative indices or an empty palette.
func (p *Palette) GroupColor(i int) (lipgloss.Color, bool) {
	if i < 0 || len(p.Groups) == 0 {
		return "", false
	}
	return p.Groups[i%len(p.Groups)], true
}

// PaletteFor returns the built-in palette for name.
func PaletteFor(name ThemeName) (*Palette, bool) {
	switch name {
	case ThemeDefault, "":
		return DefaultPalette(), true
	case ThemeMonokai:
		return MonokaiPalette(), true
	case ThemeDracula:
		return DraculaPalette(), true
	case ThemeNord:
		return NordPalette(), true
	case ThemeSolarizedDark:
		return SolarizedDarkPalette(), true
	case ThemeGruvbox:
		return GruvboxPalette(), true
	case ThemeTokyoNight:
		return TokyoNightPalette(), true
	default:
		return nil, false
	}
}

// DefaultPalette returns the default dark theme palette.
func DefaultPalette() *Palette {
	return &Palette{
		Groups: []lipgloss.Color{
			"#10B981", // Green
			"#60A5FA", // Blue
			"#F59E0B", // Amber
			"#F472B6", // Pink
			"#A78BFA", // Purple
			"#FB923C", // Orange
			"#22D3EE", // Cyan
			"#FBBF24", // Yellow
		},
		Engine:  "#A78BFA",
		Muted:   "#9CA3AF",
		Warning: "#F59E0B",
		Error:   "#F87171",
	}
}

// MonokaiPalette returns the classic Monokai editor palette.
func MonokaiPalette() *Palette {
	return &Palette{
		Groups:  []lipgloss.Color{"#A6E22E", "#66D9EF", "#E6DB74", "#F92672", "#AE81FF", "#FD971F"},
		Engine:  "#AE81FF",
		Muted:   "#75715E",
		Warning: "#E6DB74",
		Error:   "#F92672",
	}
}

// DraculaPalette returns the Dracula palette.
func DraculaPalette() *Palette {
	return &Palette{
		Groups:  []lipgloss.Color{"#50FA7B", "#8BE9FD", "#F1FA8C", "#FF79C6", "#BD93F9", "#FFB86C"},
		Engine:  "#BD93F9",
		Muted:   "#6272A4",
		Warning: "#F1FA8C",
		Error:   "#FF5555",
	}
}

// NordPalette returns the cool blue-gray Nord palette.
func NordPalette() *Palette {
	return &Palette{
		Groups:  []lipgloss.Color{"#A3BE8C", "#88C0D0", "#EBCB8B", "#B48EAD", "#81A1C1", "#D08770"},
		Engine:  "#88C0D0",
		Muted:   "#4C566A",
		Warning: "#EBCB8B",
		Error:   "#BF616A",
	}
}

// SolarizedDarkPalette returns Ethan Schoonover's Solarized Dark palette.
func SolarizedDarkPalette() *Palette {
	return &Palette{
		Groups:  []lipgloss.Color{"#859900", "#268BD2", "#B58900", "#D33682", "#6C71C4", "#CB4B16", "#2AA198"},
		Engine:  "#268BD2",
		Muted:   "#586E75",
		Warning: "#B58900",
		Error:   "#DC322F",
	}
}

// GruvboxPalette returns the Gruvbox retro palette.
func GruvboxPalette() *Palette {
	return &Palette{
		Groups:  []lipgloss.Color{"#B8BB26", "#83A598", "#FABD2F", "#D3869B", "#8EC07C", "#FE8019"},
		Engine:  "#FABD2F",
		Muted:   "#928374",
		Warning: "#FE8019",
		Error:   "#FB4934",
	}
}

// TokyoNightPalette returns the Tokyo Night palette.
func TokyoNightPalette() *Palette {
	return &Palette{
		Groups:  []lipgloss.Color{"#9ECE6A", "#7AA2F7", "#E0AF68", "#BB9AF7", "#7DCFFF", "#FF9E64"},
		Engine:  "#7AA2F7",
		Muted:   "#565F89",
		Warning: "#E0AF68",
		Error:   "#F7768E",
	}
}

package styles

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// ThemeFile is a custom palette loaded from YAML:
//
//	name: midnight
//	version: "1"
//	colors:
//	  groups: ["#00FF00", "#00AAFF"]
//	  engine: "#FFFFFF"
//	  error: "#FF0000"
type ThemeFile struct {
	Name        string      `yaml:"name"`
	Author      string      `yaml:"author,omitempty"`
	Description string      `yaml:"description,omitempty"`
	Version     string      `yaml:"version"`
	Colors      ThemeColors `yaml:"colors"`
}

// ThemeColors holds the colours of a ThemeFile. Only groups is required;
// missing colours fall back to the default palette.
type ThemeColors struct {
	Groups  []string `yaml:"groups"`
	Engine  string   `yaml:"engine,omitempty"`
	Muted   string   `yaml:"muted,omitempty"`
	Warning string   `yaml:"warning,omitempty"`
	Error   string   `yaml:"error,omitempty"`
}

var hexColorRegex = regexp.MustCompile(`^#([0-9A-Fa-f]{3}|[0-9A-Fa-f]{6})$`)

// LoadThemeFile loads and validates a theme from a YAML file.
func LoadThemeFile(path string) (*ThemeFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading theme file: %w", err)
	}
	return ParseTheme(data)
}

// ParseTheme parses and validates a YAML theme.
func ParseTheme(data []byte) (*ThemeFile, error) {
	var theme ThemeFile
	if err := yaml.Unmarshal(data, &theme); err != nil {
		return nil, fmt.Errorf("parsing theme file: %w", err)
	}
	if err := theme.Validate(); err != nil {
		return nil, fmt.Errorf("invalid theme: %w", err)
	}
	return &theme, nil
}

// Validate checks that the theme file is well-formed.
func (t *ThemeFile) Validate() error {
	if t.Name == "" {
		return errors.New("theme name is required")
	}
	if t.Version != "1" {
		return fmt.Errorf("unsupported theme version: %q (supported: 1)", t.Version)
	}
	if len(t.Colors.Groups) == 0 {
		return errors.New("at least one group color is required")
	}

	for i, c := range t.Colors.Groups {
		if !isValidHexColor(c) {
			return fmt.Errorf("color 'groups[%d]' has invalid format: %s (expected #RGB or #RRGGBB)", i, c)
		}
	}
	for name, c := range map[string]string{
		"engine":  t.Colors.Engine,
		"muted":   t.Colors.Muted,
		"warning": t.Colors.Warning,
		"error":   t.Colors.Error,
	} {
		if c != "" && !isValidHexColor(c) {
			return fmt.Errorf("color '%s' has invalid format: %s (expected #RGB or #RRGGBB)", name, c)
		}
	}
	return nil
}

func isValidHexColor(color string) bool {
	return hexColorRegex.MatchString(color)
}

// ToPalette converts the theme file to a Palette.
func (t *ThemeFile) ToPalette() *Palette {
	def := DefaultPalette()

	p := &Palette{
		Engine:  colorOrDefault(t.Colors.Engine, def.Engine),
		Muted:   colorOrDefault(t.Colors.Muted, def.Muted),
		Warning: colorOrDefault(t.Colors.Warning, def.Warning),
		Error:   colorOrDefault(t.Colors.Error, def.Error),
	}
	for _, c := range t.Colors.Groups {
		p.Groups = append(p.Groups, lipgloss.Color(c))
	}
	return p
}

func colorOrDefault(color string, def lipgloss.Color) lipgloss.Color {
	if color != "" {
		return lipgloss.Color(color)
	}
	return def
}

// Resolve picks the palette for a run: a theme file wins over a theme name.
func Resolve(theme, themeFile string) (*Palette, error) {
	if themeFile != "" {
		tf, err := LoadThemeFile(themeFile)
		if err != nil {
			return nil, err
		}
		return tf.ToPalette(), nil
	}
	p, ok := PaletteFor(ThemeName(theme))
	if !ok {
		return nil, fmt.Errorf("unknown theme %q", theme)
	}
	return p, nil
}

// FromPalette builds a theme file describing p, e.g. as a starting point
// for a custom theme.
func FromPalette(name string, p *Palette) *ThemeFile {
	tf := &ThemeFile{
		Name:    name,
		Version: "1",
		Colors: ThemeColors{
			Engine:  string(p.Engine),
			Muted:   string(p.Muted),
			Warning: string(p.Warning),
			Error:   string(p.Error),
		},
	}
	for _, c := range p.Groups {
		tf.Colors.Groups = append(tf.Colors.Groups, string(c))
	}
	return tf
}

// ExportTheme renders the built-in theme name as YAML.
func ExportTheme(name ThemeName) ([]byte, error) {
	p, ok := PaletteFor(name)
	if !ok {
		return nil, fmt.Errorf("unknown theme %q", name)
	}
	if name == "" {
		name = ThemeDefault
	}
	data, err := yaml.Marshal(FromPalette(string(name), p))
	if err != nil {
		return nil, fmt.Errorf("marshaling theme: %w", err)
	}
	return data, nil
}

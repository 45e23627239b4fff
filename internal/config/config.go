package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Iron-Ham/consortium/internal/engine"
	"github.com/Iron-Ham/consortium/internal/logging"
)

// Config represents the complete consortium configuration
type Config struct {
	// SyncByDepth prints one row block per depth for "go" commands instead
	// of forwarding info lines as they arrive.
	SyncByDepth bool `mapstructure:"sync_by_depth" yaml:"sync_by_depth"`
	// PrintAllOutput forwards every engine line in immediate mode, including
	// option declarations and curr-move chatter.
	PrintAllOutput bool `mapstructure:"print_all_output" yaml:"print_all_output"`
	// PrintRawUCI prints info lines exactly as received instead of the
	// aligned summary.
	PrintRawUCI bool `mapstructure:"print_raw_uci" yaml:"print_raw_uci"`
	// DefaultOpts are "setoption name X value Y" commands applied to every
	// engine that does not set X itself.
	DefaultOpts []string       `mapstructure:"default_opts" yaml:"default_opts"`
	Engines     []EngineConfig `mapstructure:"engines" yaml:"engines"`

	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// EngineConfig describes one engine process
type EngineConfig struct {
	Name string `mapstructure:"name" yaml:"name"`
	Path string `mapstructure:"path" yaml:"path"`
	// Opts are sent in order after the uci handshake.
	Opts []string `mapstructure:"opts" yaml:"opts,omitempty"`
	// RemappedCmds are "generic;specific" pairs. When the operator sends
	// the generic command this engine receives the specific one instead.
	RemappedCmds []string `mapstructure:"remapped_cmds" yaml:"remapped_cmds,omitempty"`
}

// DisplayConfig controls how engine output is rendered
type DisplayConfig struct {
	// Color is one of "auto", "always", "never"
	Color string `mapstructure:"color" yaml:"color"`
	// Theme selects a built-in group palette (default: "default")
	Theme string `mapstructure:"theme" yaml:"theme"`
	// ThemeFile points at a YAML palette; it wins over Theme when set.
	ThemeFile string `mapstructure:"theme_file" yaml:"theme_file"`
	// PVMoves is how many principal variation moves a row shows (default: 16)
	PVMoves int `mapstructure:"pv_moves" yaml:"pv_moves"`
	// SAN renders principal variations in algebraic notation based on the
	// last position command.
	SAN bool `mapstructure:"san" yaml:"san"`
	// Truncate cuts rows to the terminal width when attached to a terminal.
	Truncate bool `mapstructure:"truncate" yaml:"truncate"`
}

// OutputConfig controls batching of terminal writes
type OutputConfig struct {
	BatchSize    int `mapstructure:"batch_size" yaml:"batch_size"`
	BatchDelayMs int `mapstructure:"batch_delay_ms" yaml:"batch_delay_ms"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether debug logging is active (default: true)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Level is the minimum log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level" yaml:"level"`
	// Dir is where debug.log is written (default: the state directory)
	Dir string `mapstructure:"dir" yaml:"dir"`
	// MaxSizeMB is the maximum log file size before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups is the number of rotated backup files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	// Listen is the address /metrics is served on. Empty disables it.
	Listen string `mapstructure:"listen" yaml:"listen"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		SyncByDepth:    true,
		PrintAllOutput: false,
		PrintRawUCI:    false,
		DefaultOpts:    []string{},
		Engines:        []EngineConfig{},
		Display: DisplayConfig{
			Color:    "auto",
			Theme:    "default",
			PVMoves:  16,
			Truncate: true,
		},
		Output: OutputConfig{
			BatchSize:    64,
			BatchDelayMs: 3,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// BatchDelay returns the batch delay as a time.Duration
func (c *OutputConfig) BatchDelay() time.Duration {
	return time.Duration(c.BatchDelayMs) * time.Millisecond
}

// Rotation returns the log rotation settings
func (c *LoggingConfig) Rotation() logging.RotationConfig {
	return logging.RotationConfig{MaxSizeMB: c.MaxSizeMB, MaxBackups: c.MaxBackups}
}

// ResolveDir returns the log directory, falling back to StateDir.
func (c *LoggingConfig) ResolveDir() string {
	if c.Dir != "" {
		return expandHome(c.Dir)
	}
	return StateDir()
}

// ResolveThemeFile returns ThemeFile with a leading ~ expanded.
func (c *DisplayConfig) ResolveThemeFile() string {
	return expandHome(c.ThemeFile)
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("sync_by_depth", defaults.SyncByDepth)
	viper.SetDefault("print_all_output", defaults.PrintAllOutput)
	viper.SetDefault("print_raw_uci", defaults.PrintRawUCI)
	viper.SetDefault("default_opts", defaults.DefaultOpts)
	viper.SetDefault("engines", defaults.Engines)

	// Display defaults
	viper.SetDefault("display.color", defaults.Display.Color)
	viper.SetDefault("display.theme", defaults.Display.Theme)
	viper.SetDefault("display.theme_file", defaults.Display.ThemeFile)
	viper.SetDefault("display.pv_moves", defaults.Display.PVMoves)
	viper.SetDefault("display.san", defaults.Display.SAN)
	viper.SetDefault("display.truncate", defaults.Display.Truncate)

	// Output defaults
	viper.SetDefault("output.batch_size", defaults.Output.BatchSize)
	viper.SetDefault("output.batch_delay_ms", defaults.Output.BatchDelayMs)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)

	viper.SetDefault("metrics.listen", defaults.Metrics.Listen)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration, or the defaults when it cannot be loaded
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "consortium")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".consortium"
	}
	return filepath.Join(home, ".config", "consortium")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// StateDir returns where logs are kept when logging.dir is unset
func StateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "consortium")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".consortium"
	}
	return filepath.Join(home, ".local", "state", "consortium")
}

func expandHome(path string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return path
}

var setOptionRegex = regexp.MustCompile(`(?i)^setoption\s+name\s+(.+?)\s+value\s+(.+)$`)

// OptionName returns the option an "setoption name X value Y" command sets.
func OptionName(command string) (string, bool) {
	m := setOptionRegex.FindStringSubmatch(strings.TrimSpace(command))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// MergeDefaultOptions appends each default option not already set by opts.
// Option names compare case-insensitively, as engines treat them.
func MergeDefaultOptions(opts, defaults []string) []string {
	set := make(map[string]bool, len(opts))
	for _, o := range opts {
		if name, ok := OptionName(o); ok {
			set[strings.ToLower(name)] = true
		}
	}

	merged := append([]string(nil), opts...)
	for _, d := range defaults {
		name, ok := OptionName(d)
		if !ok {
			merged = append(merged, d)
			continue
		}
		if set[strings.ToLower(name)] {
			continue
		}
		set[strings.ToLower(name)] = true
		merged = append(merged, d)
	}
	return merged
}

// ParseRemap splits a "generic;specific" remap entry.
func ParseRemap(entry string) (generic, specific string, err error) {
	generic, specific, ok := strings.Cut(entry, ";")
	generic, specific = strings.TrimSpace(generic), strings.TrimSpace(specific)
	if !ok || generic == "" || specific == "" {
		return "", "", fmt.Errorf("remap %q: want \"generic;specific\"", entry)
	}
	return generic, specific, nil
}

// EngineSpecs turns the engine list into launch specs with default options
// merged in.
func (c *Config) EngineSpecs() ([]engine.Spec, error) {
	specs := make([]engine.Spec, 0, len(c.Engines))
	for _, ec := range c.Engines {
		spec := engine.Spec{
			Name:    ec.Name,
			Path:    expandHome(ec.Path),
			Options: MergeDefaultOptions(ec.Opts, c.DefaultOpts),
		}
		if len(ec.RemappedCmds) > 0 {
			spec.Remap = make(map[string]string, len(ec.RemappedCmds))
			for _, entry := range ec.RemappedCmds {
				generic, specific, err := ParseRemap(entry)
				if err != nil {
					return nil, fmt.Errorf("engine %s: %w", ec.Name, err)
				}
				spec.Remap[generic] = specific
			}
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// ValidColorModes returns the accepted display.color values
func ValidColorModes() []string {
	return []string{"auto", "always", "never"}
}

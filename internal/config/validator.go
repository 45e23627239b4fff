package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/Iron-Ham/consortium/internal/styles"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "display.pv_moves")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateOptions("default_opts", c.DefaultOpts)...)
	errors = append(errors, c.validateEngines()...)
	errors = append(errors, c.validateDisplay()...)
	errors = append(errors, c.validateOutput()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateEngines validates the engine list. An empty list is valid here;
// running a session requires at least one engine.
func (c *Config) validateEngines() []ValidationError {
	var errors []ValidationError
	seen := make(map[string]bool, len(c.Engines))

	for i, e := range c.Engines {
		prefix := fmt.Sprintf("engines[%d]", i)

		switch {
		case strings.TrimSpace(e.Name) == "":
			errors = append(errors, ValidationError{
				Field:   prefix + ".name",
				Value:   e.Name,
				Message: "is required",
			})
		case strings.ContainsAny(e.Name, " \t"):
			errors = append(errors, ValidationError{
				Field:   prefix + ".name",
				Value:   e.Name,
				Message: "must not contain whitespace",
			})
		case seen[e.Name]:
			errors = append(errors, ValidationError{
				Field:   prefix + ".name",
				Value:   e.Name,
				Message: "duplicates an earlier engine",
			})
		}
		seen[e.Name] = true

		if strings.TrimSpace(e.Path) == "" {
			errors = append(errors, ValidationError{
				Field:   prefix + ".path",
				Value:   e.Path,
				Message: "is required",
			})
		}

		errors = append(errors, c.validateOptions(prefix+".opts", e.Opts)...)

		for j, entry := range e.RemappedCmds {
			if _, _, err := ParseRemap(entry); err != nil {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("%s.remapped_cmds[%d]", prefix, j),
					Value:   entry,
					Message: `must have the form "generic;specific"`,
				})
			}
		}
	}

	return errors
}

// validateOptions rejects empty option commands
func (c *Config) validateOptions(field string, opts []string) []ValidationError {
	var errors []ValidationError
	for i, o := range opts {
		if strings.TrimSpace(o) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("%s[%d]", field, i),
				Value:   o,
				Message: "must not be empty",
			})
		}
	}
	return errors
}

// validateDisplay validates the DisplayConfig
func (c *Config) validateDisplay() []ValidationError {
	var errors []ValidationError

	if c.Display.Color != "" && !slices.Contains(ValidColorModes(), c.Display.Color) {
		errors = append(errors, ValidationError{
			Field:   "display.color",
			Value:   c.Display.Color,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidColorModes(), ", ")),
		})
	}

	if c.Display.Theme != "" && !styles.IsBuiltinTheme(c.Display.Theme) {
		errors = append(errors, ValidationError{
			Field:   "display.theme",
			Value:   c.Display.Theme,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(styles.BuiltinThemes(), ", ")),
		})
	}

	if c.Display.ThemeFile != "" {
		if _, err := os.Stat(expandHome(c.Display.ThemeFile)); err != nil {
			errors = append(errors, ValidationError{
				Field:   "display.theme_file",
				Value:   c.Display.ThemeFile,
				Message: "file does not exist",
			})
		}
	}

	// 0 means use the default
	const maxPVMoves = 256
	if c.Display.PVMoves < 0 {
		errors = append(errors, ValidationError{
			Field:   "display.pv_moves",
			Value:   c.Display.PVMoves,
			Message: "must be non-negative",
		})
	}
	if c.Display.PVMoves > maxPVMoves {
		errors = append(errors, ValidationError{
			Field:   "display.pv_moves",
			Value:   c.Display.PVMoves,
			Message: fmt.Sprintf("exceeds maximum of %d", maxPVMoves),
		})
	}

	return errors
}

// validateOutput validates the OutputConfig
func (c *Config) validateOutput() []ValidationError {
	var errors []ValidationError

	if c.Output.BatchSize <= 0 {
		errors = append(errors, ValidationError{
			Field:   "output.batch_size",
			Value:   c.Output.BatchSize,
			Message: "must be positive",
		})
	}

	// Longer delays make interactive output feel laggy
	const maxBatchDelayMs = 1000
	if c.Output.BatchDelayMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "output.batch_delay_ms",
			Value:   c.Output.BatchDelayMs,
			Message: "must be non-negative",
		})
	}
	if c.Output.BatchDelayMs > maxBatchDelayMs {
		errors = append(errors, ValidationError{
			Field:   "output.batch_delay_ms",
			Value:   c.Output.BatchDelayMs,
			Message: fmt.Sprintf("exceeds maximum of %dms", maxBatchDelayMs),
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	const maxLogSizeMB = 1000 // 1GB
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

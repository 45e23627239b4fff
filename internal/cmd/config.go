package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/Iron-Ham/consortium/internal/config"
	"github.com/Iron-Ham/consortium/internal/styles"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or create consortium configuration",
	Long: `View or create consortium configuration.

Without arguments, displays the current configuration.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/consortium/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "List or export colour themes",
}

var themeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built-in themes",
	RunE:  runThemeList,
}

var themeExportCmd = &cobra.Command{
	Use:   "export <theme-name> [output-file]",
	Short: "Export a theme to YAML",
	Long: `Export a built-in theme to YAML, as a starting point for a custom
theme. Point display.theme_file at the edited file to use it.

Examples:
  consortium config theme export default
  consortium config theme export nord my-theme.yaml`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runThemeExport,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(themeCmd)
	themeCmd.AddCommand(themeListCmd)
	themeCmd.AddCommand(themeExportCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return showConfig(cmd.OutOrStdout(), cfg, viper.ConfigFileUsed())
}

func showConfig(w io.Writer, cfg *config.Config, used string) error {
	if used != "" {
		fmt.Fprintf(w, "# Config file: %s\n", used)
	} else {
		fmt.Fprintln(w, "# Config file: (none - using defaults)")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// defaultConfigContent is written by "config init".
const defaultConfigContent = `# Consortium Configuration

# Print "go" searches as one block per depth once every engine finished it.
sync_by_depth: true
# Print every engine line, including option declarations and currmove chatter.
print_all_output: false
# Print info lines exactly as received instead of aligned summaries.
print_raw_uci: false

# Options applied to every engine that does not set the same option itself.
default_opts:
  - setoption name Hash value 64

# Engines to run. Names must be unique.
engines:
  - name: stockfish
    path: /usr/local/bin/stockfish
    opts:
      - setoption name Threads value 2
    # "generic;specific": send the specific command instead of the generic one
    remapped_cmds:
      - go;go depth 30

display:
  # auto, always or never
  color: auto
  # default, monokai, dracula, nord, solarized-dark, gruvbox, tokyo-night
  theme: default
  # YAML palette; overrides theme when set
  theme_file: ""
  # Principal line moves shown per row
  pv_moves: 16
  # Show principal lines in algebraic notation
  san: false
  # Cut rows at the terminal width
  truncate: true

output:
  batch_size: 64
  batch_delay_ms: 3

logging:
  enabled: true
  # debug, info, warn or error
  level: info
  # Defaults to ~/.local/state/consortium
  dir: ""
  max_size_mb: 10
  max_backups: 3

metrics:
  # Serve Prometheus metrics here, e.g. "127.0.0.1:9090". Empty disables.
  listen: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configFile := config.ConfigFile()

	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s", configFile)
	}

	if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(defaultConfigContent), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created config file at %s\n", configFile)
	fmt.Fprintln(out, "Edit the engines section before starting a session.")

	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	configFile := config.ConfigFile()

	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintf(out, "Active config: %s\n", used)
	} else {
		fmt.Fprintf(out, "Default config location: %s\n", configFile)
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			fmt.Fprintln(out, "(file does not exist - run 'consortium config init' to create)")
		}
	}

	return nil
}

func runThemeList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Built-in themes:")
	for _, name := range styles.BuiltinThemes() {
		fmt.Fprintf(out, "  - %s\n", name)
	}
	return nil
}

func runThemeExport(cmd *cobra.Command, args []string) error {
	themeName := args[0]
	if !styles.IsBuiltinTheme(themeName) {
		return fmt.Errorf("unknown theme: %s\n\nRun 'consortium config theme list' to see available themes", themeName)
	}

	data, err := styles.ExportTheme(styles.ThemeName(themeName))
	if err != nil {
		return fmt.Errorf("exporting theme: %w", err)
	}

	if len(args) > 1 {
		outputPath := args[1]
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			return fmt.Errorf("writing to %s: %w", outputPath, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Theme exported to: %s\n", outputPath)
		return nil
	}

	_, err = cmd.OutOrStdout().Write(data)
	return err
}

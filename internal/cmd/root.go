package cmd

import (
	"strings"

	"github.com/Iron-Ham/consortium/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "consortium",
	Short: "Run several UCI chess engines as one",
	Long: `Consortium starts every configured UCI engine, sends each command you
type to all of them and merges their analysis into one stream.

With sync_by_depth enabled, "go" searches are printed as one block per
depth once every engine has finished it, with matching principal lines
coloured alike. Type "breakdown [score|nodes|seldepth|branching]" to
compare the engines depth by depth.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runSession,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/consortium/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	defaults := config.Default()
	flags := rootCmd.Flags()
	flags.Bool("sync-by-depth", defaults.SyncByDepth, "print go searches as one block per completed depth")
	flags.Bool("print-all", defaults.PrintAllOutput, "print every engine line, including option and currmove chatter")
	flags.Bool("raw", defaults.PrintRawUCI, "print info lines exactly as received")
	flags.String("color", defaults.Display.Color, "color output: auto, always or never")
	flags.String("log-level", defaults.Logging.Level, "debug log level: debug, info, warn or error")
	flags.String("metrics-listen", defaults.Metrics.Listen, "serve Prometheus metrics on this address, e.g. :9090")

	_ = viper.BindPFlag("sync_by_depth", flags.Lookup("sync-by-depth"))
	_ = viper.BindPFlag("print_all_output", flags.Lookup("print-all"))
	_ = viper.BindPFlag("print_raw_uci", flags.Lookup("raw"))
	_ = viper.BindPFlag("display.color", flags.Lookup("color"))
	_ = viper.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("metrics.listen", flags.Lookup("metrics-listen"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/consortium")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("CONSORTIUM")
	// e.g., CONSORTIUM_DISPLAY_THEME for display.theme
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

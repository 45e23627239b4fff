package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Iron-Ham/consortium/internal/config"
	"github.com/Iron-Ham/consortium/internal/logging"
	"github.com/Iron-Ham/consortium/internal/render"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View session logs",
	Long: `View and filter the debug log written by consortium sessions.

By default, shows the most recent session. Use flags to filter the output.

Examples:
  # Show the last 50 entries of the most recent session
  consortium logs

  # Show everything one engine logged at warn or above
  consortium logs --engine stockfish --level warn -n 0

  # Search every session from the last hour
  consortium logs --all --since 1h --contains handshake`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

var (
	logsSessionID string
	logsAll       bool
	logsTail      int
	logsEngine    string
	logsLevel     string
	logsSince     string
	logsContains  string
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().StringVarP(&logsSessionID, "session", "s", "", "Session ID (default: most recent)")
	logsCmd.Flags().BoolVar(&logsAll, "all", false, "Show entries from every session")
	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of entries to show (0 for all)")
	logsCmd.Flags().StringVar(&logsEngine, "engine", "", "Only show entries about this engine")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Filter by minimum level (debug/info/warn/error)")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show logs since duration ago (e.g., 1h, 30m)")
	logsCmd.Flags().StringVar(&logsContains, "contains", "", "Only show entries whose message contains this text")
}

// logsQuery holds the parsed flags of the logs command.
type logsQuery struct {
	filter logging.Filter
	all    bool
	tail   int
	since  time.Time
}

func runLogs(cmd *cobra.Command, args []string) error {
	q := logsQuery{
		filter: logging.Filter{
			Level:     logsLevel,
			Engine:    logsEngine,
			SessionID: logsSessionID,
			Contains:  logsContains,
		},
		all:  logsAll,
		tail: logsTail,
	}
	if logsSince != "" {
		d, err := time.ParseDuration(logsSince)
		if err != nil {
			return fmt.Errorf("invalid duration format: %w", err)
		}
		q.since = time.Now().Add(-d)
	}

	cfg := config.Get()
	tty := term.IsTerminal(int(os.Stdout.Fd()))
	return showLogs(cmd.OutOrStdout(), cfg.Logging.ResolveDir(), q, tty)
}

// showLogs prints the entries of dir selected by q.
func showLogs(w io.Writer, dir string, q logsQuery, color bool) error {
	entries, err := logging.ReadEntries(dir)
	if err != nil {
		return err
	}

	if q.filter.SessionID == "" && !q.all && len(entries) > 0 {
		q.filter.SessionID = entries[len(entries)-1].SessionID
	}
	entries = logging.FilterEntries(entries, q.filter)

	if !q.since.IsZero() {
		kept := entries[:0:0]
		for _, e := range entries {
			if !e.Time.Before(q.since) {
				kept = append(kept, e)
			}
		}
		entries = kept
	}

	if q.tail > 0 && len(entries) > q.tail {
		entries = entries[len(entries)-q.tail:]
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No matching log entries found.")
		return nil
	}

	r := lipgloss.NewRenderer(w)
	mode := render.ColorNever
	if color {
		mode = render.ColorAuto
	}
	r.SetColorProfile(render.ProfileFor(mode, color))

	for _, e := range entries {
		fmt.Fprintln(w, levelStyle(r, e.Level).Render(e.Format()))
	}
	return nil
}

// levelStyle returns the style a log level is printed in
func levelStyle(r *lipgloss.Renderer, level string) lipgloss.Style {
	s := r.NewStyle()
	switch strings.ToUpper(level) {
	case logging.LevelDebug:
		return s.Foreground(lipgloss.Color("#9CA3AF"))
	case logging.LevelWarn:
		return s.Foreground(lipgloss.Color("#F59E0B"))
	case logging.LevelError:
		return s.Foreground(lipgloss.Color("#F87171")).Bold(true)
	default:
		return s
	}
}

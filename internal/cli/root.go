package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/me/mcp/internal/config"
	"github.com/me/mcp/internal/logging"
	"github.com/spf13/cobra"
)

const version = "0.3.0-dev"

var (
	flagConfig       string
	flagDebug        bool
	flagLogLevel     string
	flagLogFormat    string
	flagQuantum      time.Duration
	flagReadyTimeout time.Duration
	flagStats        bool
	flagHistory      string
	flagNoHistory    bool
	flagTrace        string
	flagOutput       string

	cfg    config.Config
	logger *slog.Logger
)

// NewRootCmd creates the root cobra command for the mcp CLI. Invoked with a
// file and no subcommand it behaves like "mcp run".
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "mcp [flags] <command-file>",
		Short:   "mcp — round-robin scheduler for a batch of commands",
		Version: version,
		Long: `mcp launches every command in a file, holds them until all are ready,
then shares the CPU between them in fixed time slices using SIGSTOP/SIGCONT.

The command file holds one command per line (blank lines and lines starting
with '#' are skipped) or, with a .yaml/.yml extension, a list of strings or
argument lists.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd)
		},
		Args:         cobra.MaximumNArgs(1),
		RunE:         runBatch,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "YAML config file")
	pf.BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	pf.StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json, auto)")
	pf.DurationVar(&flagQuantum, "quantum", time.Second, "Time slice granted to each process")
	pf.DurationVar(&flagReadyTimeout, "ready-timeout", 10*time.Second, "Bound on launching and parking each child")
	pf.BoolVar(&flagStats, "stats", true, "Log CPU and memory usage each time a process is resumed (--stats=false to disable)")
	pf.StringVar(&flagHistory, "history", "", "History database (default ~/.mcp/history.db)")
	pf.BoolVar(&flagNoHistory, "no-history", false, "Do not record the batch in the history database")
	pf.StringVar(&flagTrace, "trace", "", "Write OpenTelemetry spans to this file")
	pf.StringVarP(&flagOutput, "output", "o", "table", "Report format (table, json)")

	root.AddCommand(
		newRunCmd(),
		newCheckCmd(),
		newHistoryCmd(),
	)

	return root
}

// setup builds the effective configuration (defaults, then --config file,
// then explicitly set flags) and the logger.
func setup(cmd *cobra.Command) error {
	cfg = config.DefaultConfig()
	if flagConfig != "" {
		if err := config.LoadFile(flagConfig, &cfg); err != nil {
			return err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("quantum") {
		cfg.Quantum = flagQuantum
	}
	if flags.Changed("ready-timeout") {
		cfg.ReadyTimeout = flagReadyTimeout
	}
	if flags.Changed("stats") {
		cfg.Stats = flagStats
	}
	if flags.Changed("history") {
		cfg.HistoryPath = flagHistory
	}
	if flags.Changed("no-history") {
		cfg.NoHistory = flagNoHistory
	}
	if flags.Changed("trace") {
		cfg.TracePath = flagTrace
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = flagLogFormat
	}
	if flagDebug {
		cfg.LogLevel = "debug"
	}

	logger = logging.NewLoggerWithWriter(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat, cmd.ErrOrStderr())
	return nil
}

// historyPath returns the configured history database, defaulting to
// ~/.mcp/history.db. The parent directory is created if needed.
func historyPath() (string, error) {
	path := cfg.HistoryPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("locate history database: %w", err)
		}
		path = filepath.Join(home, ".mcp", "history.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create history directory: %w", err)
	}
	return path, nil
}

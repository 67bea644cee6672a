// Package cli provides the command-line interface for the scan application.
package cli

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stockscan/internal/config"
	"stockscan/internal/logging"
	"stockscan/internal/store"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Store  store.DataStore
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	dbPath := cfg.Storage.DBPath
	if dbPath == "" {
		dbPath = filepath.Join(config.DefaultConfigDir(), "stockscan.db")
	}
	dataStore, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to initialize store, persistence unavailable")
	} else {
		app.Store = dataStore
		logger.Debug().Str("path", dbPath).Msg("SQLite store initialized")
	}

	rootCmd := &cobra.Command{
		Use:   "stockscan",
		Short: "Technical-analysis scanner with risk/reward gating",
		Long: `Stockscan computes technical indicators (SMA, EMA, MACD, Bollinger, ATR,
ADX), blends them into directional composite scores, detects support and
resistance levels, and derives stop/target prices with a reward:risk
approval decision.

Bars are imported into a local SQLite database; every analysis runs
offline against it. Use 'stockscan help <command>' for details.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Store != nil {
				_ = app.Store.Close()
			}
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/stockscan)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addAnalysisCommands(rootCmd, app)
	addWatchlistCommands(rootCmd, app)
	addDataCommands(rootCmd, app)
	addJournalCommands(rootCmd, app)
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("stockscan %s\n", Version)
		},
	}
}

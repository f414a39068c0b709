// Command coopsort turns pasted cooperative member details into structured
// records and spreadsheets.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hurttlocker/coopsort/internal/config"
	"github.com/hurttlocker/coopsort/internal/schema"
	"github.com/hurttlocker/coopsort/internal/store"
)

var version = "0.1.0-dev"

var (
	// Global flags
	verbose    bool
	configPath string
	dbPath     string
	vocabPath  string
	logLevel   string
	logFormat  string

	// Resolved in PersistentPreRunE
	settings config.ResolvedConfig
	logger   *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "coopsort",
	Short: "Rebuild cooperative member records from pasted text",
	Long: `coopsort reads member details pasted from group chats or documents
(plain text, Markdown, PDF, Word) and reconstructs one record per member:
cooperative name, CEO name, phone, bank, account number and sex.

Labels may be misspelled, values may sit on their own lines, and
announcements may be mixed in; coopsort works out which value belongs
where and reports what it discarded.

Configuration is read from ~/.coopsort/config.yaml, then COOPSORT_*
environment variables, then flags.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		resolved, err := config.ResolveConfig(config.ResolveOptions{
			ConfigPath:    configPath,
			CLIDBPath:     dbPath,
			CLIVocabulary: vocabPath,
			CLIColumns:    parseFlags.columns,
			CLIMinFields:  minFieldsFlag(),
			CLILogLevel:   logLevel,
		})
		if err != nil {
			return err
		}
		settings = resolved

		cfg := zap.NewProductionConfig()
		level, err := zapcore.ParseLevel(settings.LogLevel.Value)
		if err != nil {
			return fmt.Errorf("log level from %s: %w", settings.LogLevel.Source, err)
		}
		if verbose {
			level = zapcore.DebugLevel
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
		switch logFormat {
		case "json":
		case "console":
			cfg.Encoding = "console"
			cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		default:
			return fmt.Errorf("unknown log format %q (want json or console)", logFormat)
		}
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the coopsort version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "coopsort %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.coopsort/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (or set COOPSORT_DB)")
	rootCmd.PersistentFlags().StringVar(&vocabPath, "vocabulary", "", "YAML vocabulary overlay (or set COOPSORT_VOCABULARY)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (or set COOPSORT_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "Log encoding: json or console")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore opens the database at the resolved path.
func openStore() (store.Store, error) {
	st, err := store.NewStore(store.StoreConfig{DBPath: settings.DBPath.Value})
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", settings.DBPath.Value, err)
	}
	return st, nil
}

// loadVocabulary returns the configured overlay, or nil for the built-in
// vocabulary.
func loadVocabulary() (*schema.Vocabulary, error) {
	if settings.Vocabulary.Value == "" {
		return nil, nil
	}
	v, err := schema.LoadVocabulary(settings.Vocabulary.Value)
	if err != nil {
		return nil, fmt.Errorf("vocabulary from %s: %w", settings.Vocabulary.Source, err)
	}
	logger.Debug("vocabulary loaded", zap.String("path", settings.Vocabulary.Value))
	return v, nil
}

// activeSchema applies the saved column configuration when nothing else set
// columns and returns the resulting schema.
func activeSchema(ctx context.Context, st store.Store) (*schema.Schema, error) {
	if settings.Columns.Value == "" {
		saved, err := st.LoadColumns(ctx)
		if err != nil {
			return nil, err
		}
		settings.ApplyStoredColumns(saved, settings.DBPath.Value)
	}
	cols := settings.ColumnList()
	if len(cols) == 0 {
		return schema.Default(), nil
	}
	s, err := schema.Default().WithColumns(cols...)
	if err != nil {
		return nil, fmt.Errorf("columns from %s: %w", settings.Columns.Source, err)
	}
	return s, nil
}

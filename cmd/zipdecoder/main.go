package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/jchantrell/zipdecoder/internal/config"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var (
	cfg     *config.Config
	cfgFile string

	outputDir      string
	dbPath         string
	workers        int
	maxArchiveSize int64
	logLevel       string
	logFormat      string
	noProgress     bool
)

var rootCmd = &cobra.Command{
	Use:   "zipdecoder",
	Short: "Extract entries from ZIP archives",
	Long: `zipdecoder loads a ZIP archive into memory, finds entries through its
central directory and inflates their DEFLATE payloads.

Entries can be extracted to disk or stdout, listed, or recorded into a
SQLite catalog that can be queried later.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if cmd.Flags().Changed("output") {
			cfg.OutputDir = outputDir
		}
		if cmd.Flags().Changed("database") {
			cfg.Database = dbPath
		}
		if cmd.Flags().Changed("workers") {
			cfg.Workers = workers
		}
		if cmd.Flags().Changed("max-archive-size") {
			cfg.MaxArchiveSize = maxArchiveSize
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.LogFormat = logFormat
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid flags: %w", err)
		}

		slog.SetDefault(newLogger(cfg.LogLevel, cfg.LogFormat))

		slog.Debug("Configuration",
			"output_dir", cfg.OutputDir,
			"database", cfg.Database,
			"workers", cfg.Workers,
			"max_archive_size", cfg.MaxArchiveSize,
			"log_level", cfg.LogLevel,
			"log_format", cfg.LogFormat)

		return nil
	},
}

func newLogger(levelName, format string) *slog.Logger {
	var level slog.Level
	switch levelName {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level: level,
		})
	}

	return slog.New(handler)
}

// progressEnabled reports whether an mpb bar may be drawn alongside the logs
func progressEnabled() bool {
	return !(noProgress || cfg.LogFormat == "json" || cfg.LogLevel == "debug")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is zipdecoder.yaml in $HOME or pwd)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "directory to extract entries into")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "database", "d", "", "catalog database file path")
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", 0, "number of entries to extract concurrently")
	rootCmd.PersistentFlags().Int64Var(&maxArchiveSize, "max-archive-size", 0, "largest archive in bytes that will be loaded")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable progress bar")
}

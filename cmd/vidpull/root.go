package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	dataDir  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "vidpull",
	Short: "Queue-managed video downloads via yt-dlp",
	Long: `vidpull - queue-managed video downloads via yt-dlp

Submits URLs to a bounded-concurrency download queue, tracks progress
parsed from yt-dlp output, and keeps a capped history of finished jobs.

Run 'vidpull serve' to expose the queue over HTTP for the desktop shell.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDataDir(), "Directory for config and history files")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("vidpull {{.Version}}\n")
}

func defaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".vidpull"
	}
	return filepath.Join(base, "vidpull")
}

// newLogger builds the process logger from the --log-level flag.
func newLogger() *slog.Logger {
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

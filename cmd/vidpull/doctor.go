package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Xisisrefliel/VidPull/internal/config"
	"github.com/Xisisrefliel/VidPull/internal/ytdlp"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the external toolchain",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		fs := afero.NewOsFs()

		store := config.NewStore(fs, dataDir, logger.With("component", "config"))
		store.Load()

		runner := ytdlp.NewRunner(store.Settings().ExecutablePath, fs, logger)
		report := runner.DependencyStatus()

		if report.YTDLPFound {
			fmt.Printf("yt-dlp: %s\n", report.YTDLPPath)
		} else {
			fmt.Println("yt-dlp: NOT FOUND - no downloads can start")
		}
		if report.FFmpegFound {
			fmt.Printf("ffmpeg: %s\n", report.FFmpegPath)
		} else {
			fmt.Println("ffmpeg: not found - merging and extraction will fail")
		}

		for _, msg := range store.Validate() {
			fmt.Printf("config: %s\n", msg)
		}

		if !report.YTDLPFound {
			return fmt.Errorf("yt-dlp is required")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

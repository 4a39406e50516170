package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Xisisrefliel/VidPull/internal/config"
	"github.com/Xisisrefliel/VidPull/internal/download"
	"github.com/Xisisrefliel/VidPull/internal/events"
	"github.com/Xisisrefliel/VidPull/internal/history"
	"github.com/Xisisrefliel/VidPull/internal/ytdlp"
)

var getOutputDir string

var getCmd = &cobra.Command{
	Use:   "get URL [URL...]",
	Short: "Download one or more URLs and wait for completion",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGet,
}

func init() {
	getCmd.Flags().StringVarP(&getOutputDir, "output-dir", "o", "", "Output directory (default from config)")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger()
	fs := afero.NewOsFs()

	store := config.NewStore(fs, dataDir, logger.With("component", "config"))
	store.Load()
	settings := store.Settings()
	defaults := store.Config()
	if getOutputDir != "" {
		defaults.DefaultOutputDir = getOutputDir
	}

	bus := events.NewBus(logger.With("component", "bus"))
	defer bus.Close()

	hist := history.NewStore(fs, filepath.Join(dataDir, "history.json"),
		settings.MaxHistoryItems, logger.With("component", "history"))
	runner := ytdlp.NewRunner(settings.ExecutablePath, fs, logger.With("component", "runner"))

	manager := download.NewManager(runner, ytdlp.NewParser(), hist, bus, download.ManagerConfig{
		MaxConcurrent: settings.MaxConcurrent,
		MaxHistory:    settings.MaxHistoryItems,
		Defaults: download.Options{
			OutputDir: defaults.DefaultOutputDir,
			Format:    defaults.DefaultFormat,
			Playlist:  defaults.Playlist,
		},
	}, logger.With("component", "manager"))
	manager.LoadHistory(hist.Load())

	// Subscribe before submitting so no event is missed.
	feed := bus.SubscribeAll(256)
	defer bus.Unsubscribe(feed)

	pending := make(map[string]bool)
	names := make(map[string]string)
	for _, url := range args {
		job, err := manager.Submit(url)
		if err != nil {
			return fmt.Errorf("submit %s: %w", url, err)
		}
		pending[job.ID] = true
		names[job.ID] = url
	}

	failed := 0
	for len(pending) > 0 {
		select {
		case <-ctx.Done():
			manager.CancelAll()
			return ctx.Err()
		case e, ok := <-feed:
			if !ok {
				return nil
			}
			if !pending[e.EntityID()] {
				continue
			}
			switch ev := e.(type) {
			case events.JobFileDiscovered:
				names[e.EntityID()] = ev.Name
				fmt.Printf("%s: downloading\n", ev.Name)
			case events.JobProgressed:
				fmt.Printf("\r%s: %5.1f%%", names[e.EntityID()], ev.Progress*100)
			case events.JobCompleted:
				fmt.Printf("\r%s: done", names[e.EntityID()])
				if ev.ResultPath != "" {
					fmt.Printf(" -> %s", ev.ResultPath)
				}
				fmt.Println()
				delete(pending, e.EntityID())
			case events.JobFailed:
				fmt.Printf("\r%s: failed: %s\n", names[e.EntityID()], ev.Reason)
				failed++
				delete(pending, e.EntityID())
			case events.JobCancelled:
				fmt.Printf("\r%s: cancelled\n", names[e.EntityID()])
				delete(pending, e.EntityID())
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d download(s) failed", failed)
	}
	return nil
}

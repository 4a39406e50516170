package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Xisisrefliel/VidPull/internal/config"
	"github.com/Xisisrefliel/VidPull/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the download history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List finished downloads, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := newHistoryStore()
		jobs := store.Load()
		if len(jobs) == 0 {
			fmt.Println("history is empty")
			return nil
		}
		for _, j := range jobs {
			name := j.DisplayName
			if name == "" {
				name = j.URL
			}
			fmt.Printf("%-10s  %s  %s\n", j.Status, j.CreatedAt.Format("2006-01-02 15:04"), name)
			if j.ErrorDetail != "" {
				fmt.Printf("            %s\n", j.ErrorDetail)
			}
		}
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the download history",
	RunE: func(cmd *cobra.Command, args []string) error {
		return newHistoryStore().Persist(nil)
	},
}

func newHistoryStore() *history.Store {
	logger := newLogger()
	fs := afero.NewOsFs()
	cfg := config.NewStore(fs, dataDir, logger.With("component", "config"))
	cfg.Load()
	return history.NewStore(fs, filepath.Join(dataDir, "history.json"),
		cfg.Settings().MaxHistoryItems, logger.With("component", "history"))
}

func init() {
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

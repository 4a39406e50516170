package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Xisisrefliel/VidPull/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := newConfigStore()
		out := map[string]any{
			"config":   store.Config(),
			"settings": store.Settings(),
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Change one configuration value and persist it",
	Long: `Change one configuration value and persist it.

Keys: format, output-dir, playlist, max-concurrent, max-history,
notifications, clipboard, executable-path`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := newConfigStore()
		key, value := args[0], args[1]

		switch key {
		case "format":
			return store.UpdateConfig(func(c *config.Config) { c.DefaultFormat = value })
		case "output-dir":
			return store.UpdateConfig(func(c *config.Config) { c.DefaultOutputDir = value })
		case "playlist":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("playlist: %w", err)
			}
			return store.UpdateConfig(func(c *config.Config) { c.Playlist = b })
		case "max-concurrent":
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("max-concurrent: %w", err)
			}
			return store.UpdateSettings(func(s *config.Settings) { s.MaxConcurrent = n })
		case "max-history":
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("max-history: %w", err)
			}
			return store.UpdateSettings(func(s *config.Settings) { s.MaxHistoryItems = n })
		case "notifications":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("notifications: %w", err)
			}
			return store.UpdateSettings(func(s *config.Settings) { s.ShowNotifications = b })
		case "clipboard":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("clipboard: %w", err)
			}
			return store.UpdateSettings(func(s *config.Settings) { s.MonitorClipboard = b })
		case "executable-path":
			return store.UpdateSettings(func(s *config.Settings) { s.ExecutablePath = value })
		default:
			return fmt.Errorf("unknown key %q", key)
		}
	},
}

func newConfigStore() *config.Store {
	store := config.NewStore(afero.NewOsFs(), dataDir, newLogger().With("component", "config"))
	store.Load()
	return store
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

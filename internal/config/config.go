// Package config handles the JSON configuration files and their defaults.
//
// Two flat records are persisted, matching what the GUI and browser
// extension consume: config.json holds per-download defaults, settings.json
// holds app behavior. Both are loaded once at startup and mutated only
// through setters that also persist.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

const (
	configFile   = "config.json"
	settingsFile = "settings.json"
)

// Concurrency bounds for MaxConcurrent.
const (
	MinConcurrent = 1
	MaxConcurrent = 5
)

// Config are the per-download defaults snapshotted into each job.
type Config struct {
	DefaultFormat    string `json:"default_format"`
	DefaultOutputDir string `json:"default_output_dir"`
	Playlist         bool   `json:"playlist"`
}

// Settings are the app-level knobs.
type Settings struct {
	MaxConcurrent       int    `json:"max_concurrent_downloads"`
	MaxHistoryItems     int    `json:"max_history_items"`
	ShowNotifications   bool   `json:"show_notifications"`
	MonitorClipboard    bool   `json:"monitor_clipboard"`
	ClipboardAutoSubmit bool   `json:"clipboard_auto_submit"`
	ExecutablePath      string `json:"executable_path,omitempty"`
}

// Store owns both records and their files under one directory.
type Store struct {
	mu       sync.Mutex
	fs       afero.Fs
	dir      string
	config   Config
	settings Settings
	log      *slog.Logger
}

// NewStore creates a config store rooted at dir. Call Load before use.
func NewStore(fs afero.Fs, dir string, log *slog.Logger) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{fs: fs, dir: dir, log: log}
}

// Load reads both files. A missing or corrupt file degrades to defaults
// and is logged, never propagated: configuration can always be rebuilt.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.config = defaultConfig()
	s.settings = defaultSettings()

	s.read(configFile, &s.config)
	s.read(settingsFile, &s.settings)
	s.clamp()
}

func (s *Store) read(name string, v any) {
	data, err := afero.ReadFile(s.fs, filepath.Join(s.dir, name))
	if err != nil {
		return
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.log.Warn("config file corrupt, using defaults", "file", name, "error", err)
	}
}

// Config returns a copy of the download defaults.
func (s *Store) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// Settings returns a copy of the app settings.
func (s *Store) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// UpdateConfig applies fn to the download defaults and persists them.
func (s *Store) UpdateConfig(fn func(*Config)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.config)
	return s.write(configFile, s.config)
}

// UpdateSettings applies fn to the app settings, clamps the bounded
// fields and persists them.
func (s *Store) UpdateSettings(fn func(*Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.settings)
	s.clamp()
	return s.write(settingsFile, s.settings)
}

// Validate checks both records for errors.
// Returns a slice of error messages (empty if valid).
func (s *Store) Validate() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []string
	if s.settings.MaxConcurrent < MinConcurrent || s.settings.MaxConcurrent > MaxConcurrent {
		errs = append(errs, fmt.Sprintf("max_concurrent_downloads: must be between %d and %d, got %d",
			MinConcurrent, MaxConcurrent, s.settings.MaxConcurrent))
	}
	if s.settings.MaxHistoryItems < 1 {
		errs = append(errs, fmt.Sprintf("max_history_items: must be at least 1, got %d", s.settings.MaxHistoryItems))
	}
	if s.config.DefaultOutputDir == "" {
		errs = append(errs, "default_output_dir: required")
	}
	if s.settings.ExecutablePath != "" {
		if _, err := s.fs.Stat(s.settings.ExecutablePath); err != nil {
			errs = append(errs, fmt.Sprintf("executable_path: %q does not exist", s.settings.ExecutablePath))
		}
	}
	return errs
}

// write persists one record atomically: temp file then rename, so a failed
// write leaves the previous version intact.
func (s *Store) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return err
	}
	return s.fs.Rename(tmp, path)
}

func (s *Store) clamp() {
	if s.settings.MaxConcurrent < MinConcurrent {
		s.settings.MaxConcurrent = MinConcurrent
	}
	if s.settings.MaxConcurrent > MaxConcurrent {
		s.settings.MaxConcurrent = MaxConcurrent
	}
	if s.settings.MaxHistoryItems < 1 {
		s.settings.MaxHistoryItems = 1
	}
}

func defaultConfig() Config {
	return Config{
		DefaultFormat:    "bv*+ba/b",
		DefaultOutputDir: defaultDownloadDir(),
	}
}

func defaultSettings() Settings {
	return Settings{
		MaxConcurrent:     2,
		MaxHistoryItems:   50,
		ShowNotifications: true,
	}
}

func defaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Downloads")
}

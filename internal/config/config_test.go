package config

import (
	"io"
	"log/slog"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	fs := afero.NewMemMapFs()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStore(fs, "/data", log)
}

func TestStore_Defaults(t *testing.T) {
	s := testStore(t)
	s.Load()

	cfg := s.Config()
	assert.Equal(t, "bv*+ba/b", cfg.DefaultFormat)
	assert.NotEmpty(t, cfg.DefaultOutputDir)
	assert.False(t, cfg.Playlist)

	set := s.Settings()
	assert.Equal(t, 2, set.MaxConcurrent)
	assert.Equal(t, 50, set.MaxHistoryItems)
	assert.True(t, set.ShowNotifications)
	assert.False(t, set.MonitorClipboard)
}

func TestStore_LoadExisting(t *testing.T) {
	s := testStore(t)
	require.NoError(t, afero.WriteFile(s.fs, "/data/config.json",
		[]byte(`{"default_format":"best","default_output_dir":"/media","playlist":true}`), 0o644))
	require.NoError(t, afero.WriteFile(s.fs, "/data/settings.json",
		[]byte(`{"max_concurrent_downloads":4,"max_history_items":10,"show_notifications":false}`), 0o644))

	s.Load()

	cfg := s.Config()
	assert.Equal(t, "best", cfg.DefaultFormat)
	assert.Equal(t, "/media", cfg.DefaultOutputDir)
	assert.True(t, cfg.Playlist)

	set := s.Settings()
	assert.Equal(t, 4, set.MaxConcurrent)
	assert.Equal(t, 10, set.MaxHistoryItems)
	assert.False(t, set.ShowNotifications)
}

func TestStore_LoadCorruptFallsBackToDefaults(t *testing.T) {
	s := testStore(t)
	require.NoError(t, afero.WriteFile(s.fs, "/data/settings.json", []byte("{oops"), 0o644))

	s.Load()

	assert.Equal(t, 2, s.Settings().MaxConcurrent)
}

func TestStore_LoadClampsOutOfRange(t *testing.T) {
	s := testStore(t)
	require.NoError(t, afero.WriteFile(s.fs, "/data/settings.json",
		[]byte(`{"max_concurrent_downloads":99,"max_history_items":0}`), 0o644))

	s.Load()

	set := s.Settings()
	assert.Equal(t, MaxConcurrent, set.MaxConcurrent)
	assert.Equal(t, 1, set.MaxHistoryItems)
}

func TestStore_UpdateSettingsPersists(t *testing.T) {
	s := testStore(t)
	s.Load()

	err := s.UpdateSettings(func(set *Settings) {
		set.MaxConcurrent = 3
		set.MonitorClipboard = true
	})
	require.NoError(t, err)

	// A fresh store over the same filesystem sees the update.
	reloaded := NewStore(s.fs, "/data", s.log)
	reloaded.Load()
	assert.Equal(t, 3, reloaded.Settings().MaxConcurrent)
	assert.True(t, reloaded.Settings().MonitorClipboard)
}

func TestStore_UpdateSettingsClamps(t *testing.T) {
	s := testStore(t)
	s.Load()

	require.NoError(t, s.UpdateSettings(func(set *Settings) { set.MaxConcurrent = 0 }))
	assert.Equal(t, MinConcurrent, s.Settings().MaxConcurrent)
}

func TestStore_UpdateConfigPersists(t *testing.T) {
	s := testStore(t)
	s.Load()

	require.NoError(t, s.UpdateConfig(func(c *Config) { c.DefaultOutputDir = "/videos" }))

	reloaded := NewStore(s.fs, "/data", s.log)
	reloaded.Load()
	assert.Equal(t, "/videos", reloaded.Config().DefaultOutputDir)
}

func TestStore_Validate(t *testing.T) {
	s := testStore(t)
	s.Load()
	assert.Empty(t, s.Validate())

	s.config.DefaultOutputDir = ""
	s.settings.MaxConcurrent = 9
	s.settings.ExecutablePath = "/no/such/binary"

	errs := s.Validate()
	require.Len(t, errs, 3)
	assert.Contains(t, errs[0], "max_concurrent_downloads")
	assert.Contains(t, errs[1], "default_output_dir")
	assert.Contains(t, errs[2], "executable_path")
}

func TestStore_WriteLeavesNoTempFiles(t *testing.T) {
	s := testStore(t)
	s.Load()

	require.NoError(t, s.UpdateConfig(func(c *Config) { c.DefaultFormat = "best" }))

	exists, err := afero.Exists(s.fs, "/data/config.json.tmp")
	require.NoError(t, err)
	assert.False(t, exists)
}

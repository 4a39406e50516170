package history

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xisisrefliel/VidPull/internal/download"
)

func testStore(t *testing.T, max int) (*Store, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStore(fs, "/data/history.json", max, log), fs
}

func job(id string, status download.Status) *download.Job {
	return &download.Job{
		ID:        id,
		URL:       "https://example.com/v/" + id,
		Status:    status,
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestStore_RoundTrip(t *testing.T) {
	store, _ := testStore(t, 50)

	jobs := []*download.Job{
		job("a", download.StatusCompleted),
		job("b", download.StatusFailed),
		job("c", download.StatusCancelled),
	}
	require.NoError(t, store.Persist(jobs))

	loaded := store.Load()
	require.Len(t, loaded, 3)
	assert.Equal(t, "a", loaded[0].ID)
	assert.Equal(t, download.StatusFailed, loaded[1].Status)
	assert.Equal(t, jobs[0].URL, loaded[0].URL)
	assert.True(t, jobs[0].CreatedAt.Equal(loaded[0].CreatedAt))
}

func TestStore_LoadMissingFile(t *testing.T) {
	store, _ := testStore(t, 50)
	assert.Empty(t, store.Load())
}

func TestStore_LoadCorruptFile(t *testing.T) {
	store, fs := testStore(t, 50)
	require.NoError(t, afero.WriteFile(fs, "/data/history.json", []byte("{not json"), 0o644))

	assert.Empty(t, store.Load())
}

func TestStore_LoadDropsNonTerminal(t *testing.T) {
	store, _ := testStore(t, 50)

	// Simulate a crash that persisted in-flight records.
	require.NoError(t, store.Persist([]*download.Job{job("done", download.StatusCompleted)}))

	raw := []*download.Job{
		job("done", download.StatusCompleted),
		job("mid", download.StatusDownloading),
		job("waiting", download.StatusQueued),
	}
	data, err := json.Marshal(raw)
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(store.fs, "/data/history.json", data, 0o644))

	loaded := store.Load()
	require.Len(t, loaded, 1)
	assert.Equal(t, "done", loaded[0].ID)
}

func TestStore_PersistFiltersAndCaps(t *testing.T) {
	store, _ := testStore(t, 2)

	jobs := []*download.Job{
		job("1", download.StatusCompleted),
		job("2", download.StatusDownloading), // skipped, not terminal
		job("3", download.StatusFailed),
		job("4", download.StatusCancelled), // beyond cap
	}
	require.NoError(t, store.Persist(jobs))

	loaded := store.Load()
	require.Len(t, loaded, 2)
	assert.Equal(t, "1", loaded[0].ID)
	assert.Equal(t, "3", loaded[1].ID)
}

func TestStore_PersistEmptyWritesEmptyArray(t *testing.T) {
	store, fs := testStore(t, 50)

	require.NoError(t, store.Persist(nil))

	data, err := afero.ReadFile(fs, "/data/history.json")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestStore_PersistLeavesNoTempFile(t *testing.T) {
	store, fs := testStore(t, 50)

	require.NoError(t, store.Persist([]*download.Job{job("a", download.StatusCompleted)}))

	exists, err := afero.Exists(fs, "/data/history.json.tmp")
	require.NoError(t, err)
	assert.False(t, exists)
}

// Package history persists terminal job records to a JSON file.
package history

import (
	"encoding/json"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/Xisisrefliel/VidPull/internal/download"
)

// Store writes the download history as a pretty-printed JSON array,
// most-recent-first, capped at max items. Writes are atomic: a temp file is
// renamed over the old one, so a failed write never leaves a corrupt file
// visible to a subsequent load.
type Store struct {
	fs   afero.Fs
	path string
	max  int
	log  *slog.Logger
}

// NewStore creates a history store backed by fs.
func NewStore(fs afero.Fs, path string, max int, log *slog.Logger) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{fs: fs, path: path, max: max, log: log}
}

// Load reads the persisted history. Non-terminal records found on disk are
// dropped: they cannot be resumed after a restart. A missing, unreadable or
// corrupt file degrades to an empty history and never fails startup.
func (s *Store) Load() []*download.Job {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil
	}

	var jobs []*download.Job
	if err := json.Unmarshal(data, &jobs); err != nil {
		s.log.Warn("history file corrupt, starting empty", "path", s.path, "error", err)
		return nil
	}

	return s.filter(jobs)
}

// Persist replaces the stored set with the terminal records in jobs,
// truncated to the cap. A write failure is logged and leaves the previous
// on-disk version intact.
func (s *Store) Persist(jobs []*download.Job) error {
	terminal := s.filter(jobs)

	data, err := json.MarshalIndent(terminal, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return err
	}
	return s.fs.Rename(tmp, s.path)
}

func (s *Store) filter(jobs []*download.Job) []*download.Job {
	out := make([]*download.Job, 0, len(jobs))
	for _, j := range jobs {
		if j == nil || !j.Status.IsTerminal() {
			continue
		}
		out = append(out, j)
		if s.max > 0 && len(out) == s.max {
			break
		}
	}
	return out
}

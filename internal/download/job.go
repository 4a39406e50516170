// Package download manages the yt-dlp job queue and tracks download progress.
package download

import (
	"context"
	"time"
)

// Job represents one requested download through its lifecycle.
// ID, URL, OutputDir, Format and CreatedAt are immutable after creation;
// the format and output directory are snapshotted at enqueue time so later
// config changes never retroactively alter in-flight jobs.
type Job struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	OutputDir   string    `json:"output_dir"`
	Format      string    `json:"format"`
	Playlist    bool      `json:"playlist"`
	CreatedAt   time.Time `json:"created_at"`
	Status      Status    `json:"status"`
	Progress    float64   `json:"progress"` // 0.0 - 1.0
	DisplayName string    `json:"display_name,omitempty"`
	ResultPath  string    `json:"result_path,omitempty"`
	ErrorDetail string    `json:"error_detail,omitempty"`
}

// Options are the per-job configuration snapshot captured at submit time.
type Options struct {
	OutputDir string
	Format    string
	Playlist  bool
}

// RunSpec describes one external download process invocation.
type RunSpec struct {
	URL       string
	OutputDir string
	Format    string
	Playlist  bool
}

// Process is a handle to a running external download process.
type Process interface {
	// Terminate requests termination. It does not guarantee immediate
	// exit; the exit is still observed via Wait.
	Terminate()
	// Wait blocks until the process exits and returns its exit code.
	Wait() (int, error)
}

// Runner launches external download processes.
type Runner interface {
	// Start launches the external binary for spec and delivers each output
	// line (stdout and stderr both) to onLine as it arrives.
	Start(ctx context.Context, spec RunSpec, onLine func(line string)) (Process, error)
}

// Parser converts raw process output into semantic events.
type Parser interface {
	Parse(text string) []OutputEvent
}

// HistoryStore persists terminal job records.
type HistoryStore interface {
	Persist(jobs []*Job) error
}

//go:generate mockgen -destination=mocks/runner.go -package=mocks github.com/Xisisrefliel/VidPull/internal/download Runner,Process

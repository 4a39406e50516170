// Package ytdlp launches the external yt-dlp binary and parses its
// streaming text output into semantic events.
package ytdlp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/Xisisrefliel/VidPull/internal/download"
)

// candidatePaths are checked in order when yt-dlp is not on $PATH.
var candidatePaths = []string{
	"/usr/local/bin/yt-dlp",
	"/opt/homebrew/bin/yt-dlp",
	"/usr/bin/yt-dlp",
}

// tempSuffixes are the yt-dlp intermediate file suffixes removed after a
// process exits.
var tempSuffixes = []string{".part", ".ytdl", ".temp", ".tmp"}

// Runner launches yt-dlp processes and implements download.Runner.
type Runner struct {
	overridePath string // explicit executable path from settings, may be empty
	fs           afero.Fs
	log          *slog.Logger
}

// NewRunner creates a process runner. overridePath takes precedence over
// $PATH lookup and the well-known install locations.
func NewRunner(overridePath string, fs afero.Fs, log *slog.Logger) *Runner {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Runner{overridePath: overridePath, fs: fs, log: log}
}

// Resolve locates the yt-dlp executable. It returns
// download.ErrExecutableNotFound when no candidate exists, before any
// process is spawned.
func (r *Runner) Resolve() (string, error) {
	if r.overridePath != "" {
		if _, err := os.Stat(r.overridePath); err != nil {
			return "", fmt.Errorf("configured path %s: %w", r.overridePath, download.ErrExecutableNotFound)
		}
		return r.overridePath, nil
	}
	if path, err := exec.LookPath("yt-dlp"); err == nil {
		return path, nil
	}
	for _, path := range candidatePaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", download.ErrExecutableNotFound
}

// Start launches yt-dlp for spec. Stdout and stderr are pumped
// independently; interleaving across the two streams is not guaranteed, but
// each line reaches onLine intact and in stream order.
func (r *Runner) Start(ctx context.Context, spec download.RunSpec, onLine func(string)) (download.Process, error) {
	exe, err := r.Resolve()
	if err != nil {
		return nil, err
	}

	args := BuildArgs(spec)
	cmd := exec.CommandContext(ctx, exe, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", exe, err)
	}
	r.log.Debug("process started", "exe", exe, "args", strings.Join(args, " "))

	p := &process{
		cmd:       cmd,
		outputDir: spec.OutputDir,
		fs:        r.fs,
		log:       r.log,
	}
	p.pumps.Go(func() error { pumpLines(stdout, onLine); return nil })
	p.pumps.Go(func() error { pumpLines(stderr, onLine); return nil })
	return p, nil
}

// process is a handle to one running yt-dlp invocation.
type process struct {
	cmd       *exec.Cmd
	pumps     errgroup.Group
	outputDir string
	fs        afero.Fs
	log       *slog.Logger

	termOnce sync.Once
	waitOnce sync.Once
	exitCode int
	waitErr  error
}

// Terminate requests termination. The exit is still observed via Wait.
func (p *process) Terminate() {
	p.termOnce.Do(func() {
		if p.cmd.Process != nil {
			_ = p.cmd.Process.Kill()
		}
	})
}

// Wait blocks until the output pumps drain and the process exits, then
// performs best-effort temp-file cleanup in the job's output directory.
func (p *process) Wait() (int, error) {
	p.waitOnce.Do(func() {
		_ = p.pumps.Wait()
		err := p.cmd.Wait()

		p.exitCode = -1
		if p.cmd.ProcessState != nil {
			p.exitCode = p.cmd.ProcessState.ExitCode()
		}
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			p.waitErr = err
		}

		cleanupTemp(p.fs, p.outputDir, p.log)
	})
	return p.exitCode, p.waitErr
}

// pumpLines delivers output incrementally as it arrives, not only at
// process exit, because progress must update live. yt-dlp rewrites progress
// lines with bare carriage returns, so the splitter treats CR like LF.
func pumpLines(r io.Reader, onLine func(string)) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	scanner.Split(splitByNewlineOrCR)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			onLine(line)
		}
	}
}

func splitByNewlineOrCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i := 0; i < len(data); i++ {
		if data[i] == '\n' || data[i] == '\r' {
			if i == 0 {
				return 1, nil, nil
			}
			return i + 1, data[:i], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// cleanupTemp removes leftover intermediate files in dir. Failures to
// delete are non-fatal and only logged.
func cleanupTemp(fs afero.Fs, dir string, log *slog.Logger) {
	if dir == "" {
		return
	}
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		log.Debug("temp cleanup skipped", "dir", dir, "error", err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !isTempFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := fs.Remove(path); err != nil {
			log.Warn("temp cleanup failed", "path", path, "error", err)
		}
	}
}

func isTempFile(name string) bool {
	for _, suffix := range tempSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return strings.Contains(name, ".part")
}

package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Xisisrefliel/VidPull/internal/events"
)

// ManagerConfig holds the queue limits and per-job defaults.
type ManagerConfig struct {
	MaxConcurrent int
	MaxHistory    int
	Defaults      Options
}

// supervision is the per-job bookkeeping while a process is active.
type supervision struct {
	proc      Process
	cancel    context.CancelFunc
	cancelled bool
	lastPath  string
	lastError string
}

// Manager holds all jobs, enforces the concurrency bound, promotes queued
// jobs as slots free up and routes parser events into job state.
//
// All job-list mutations are serialized behind mu; supervision goroutines
// never touch a Job directly, they call back into Manager methods.
type Manager struct {
	mu      sync.Mutex
	jobs    []*Job // newest first
	history []*Job // terminal only, newest first
	active  map[string]*supervision

	runner Runner
	parser Parser
	store  HistoryStore
	bus    *events.Bus
	cfg    ManagerConfig
	log    *slog.Logger

	unavailable bool // standing executable-not-found condition
}

// NewManager creates a job queue manager.
// The bus is optional - pass nil to disable outbound signals.
func NewManager(runner Runner, parser Parser, store HistoryStore, bus *events.Bus, cfg ManagerConfig, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	return &Manager{
		active: make(map[string]*supervision),
		runner: runner,
		parser: parser,
		store:  store,
		bus:    bus,
		cfg:    cfg,
		log:    log,
	}
}

// LoadHistory seeds the manager with previously persisted terminal jobs.
func (m *Manager) LoadHistory(jobs []*Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = m.history[:0]
	for _, j := range jobs {
		if j.Status.IsTerminal() {
			m.history = append(m.history, j)
		}
	}
}

// SetMaxConcurrent changes the concurrency bound and re-evaluates the queue.
// Safe to call at any time: evaluation recomputes from current state.
func (m *Manager) SetMaxConcurrent(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n < 1 {
		n = 1
	}
	m.cfg.MaxConcurrent = n
	m.evaluate()
}

// SetDefaults changes the per-job defaults used by Submit.
// In-flight and queued jobs keep their original snapshot.
func (m *Manager) SetDefaults(o Options) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg.Defaults = o
}

// Available reports whether the external executable was found the last time
// a job tried to start. It starts optimistic and flips when a start fails
// with ErrExecutableNotFound.
func (m *Manager) Available() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.unavailable
}

// Submit validates the URL, creates a queued job with a snapshot of the
// current defaults and triggers queue evaluation.
func (m *Manager) Submit(url string) (Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submit(url, m.cfg.Defaults)
}

// SubmitWith is Submit with explicit per-job options.
func (m *Manager) SubmitWith(url string, opts Options) (Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submit(url, opts)
}

func (m *Manager) submit(url string, opts Options) (Job, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return Job{}, ErrInvalidURL
	}

	job := &Job{
		ID:        uuid.NewString(),
		URL:       url,
		OutputDir: opts.OutputDir,
		Format:    opts.Format,
		Playlist:  opts.Playlist,
		CreatedAt: time.Now(),
		Status:    StatusQueued,
	}
	m.jobs = append([]*Job{job}, m.jobs...)

	m.log.Info("job submitted", "job_id", job.ID, "url", job.URL)
	m.publish(events.NewJobCreated(job.ID, job.URL))
	m.evaluate()
	return *job, nil
}

// Cancel terminates an active job or removes a queued one.
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job := m.find(id)
	if job == nil {
		return fmt.Errorf("cancel %s: %w", id, ErrNotFound)
	}

	switch {
	case job.Status == StatusQueued:
		// Never started, nothing to terminate.
		m.removeJob(id)
		m.publish(events.NewJobCancelled(id))
	case job.Status.IsActive():
		sup := m.active[id]
		job.Status = StatusCancelled
		if sup != nil {
			sup.cancelled = true
			if sup.proc != nil {
				sup.proc.Terminate()
			}
			if sup.cancel != nil {
				sup.cancel()
			}
		}
		m.log.Info("job cancelled", "job_id", id)
		// Finalization on process exit records history and frees the slot.
	default:
		return fmt.Errorf("cancel %s: job already %s: %w", id, job.Status, ErrInvalidTransition)
	}

	m.evaluate()
	return nil
}

// Retry creates a brand-new job with the same url and config snapshot as a
// failed or cancelled one. The original record is not mutated.
func (m *Manager) Retry(id string) (Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job := m.find(id)
	if job == nil {
		job = m.findHistory(id)
	}
	if job == nil {
		return Job{}, fmt.Errorf("retry %s: %w", id, ErrNotFound)
	}
	if job.Status != StatusFailed && job.Status != StatusCancelled {
		return Job{}, fmt.Errorf("retry %s: job is %s: %w", id, job.Status, ErrInvalidTransition)
	}

	return m.submit(job.URL, Options{
		OutputDir: job.OutputDir,
		Format:    job.Format,
		Playlist:  job.Playlist,
	})
}

// Remove deletes a job record outright. Active jobs are rejected; callers
// must cancel first so no orphaned process is left behind.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job := m.find(id)
	if job != nil && job.Status.IsActive() {
		return fmt.Errorf("remove %s: %w", id, ErrJobActive)
	}

	removed := m.removeJob(id)
	if removed && job != nil && job.Status == StatusQueued {
		// Removing a never-started job is a cancellation to observers.
		m.publish(events.NewJobCancelled(id))
	}
	if m.removeHistory(id) {
		removed = true
		m.persistHistory()
	}
	if !removed {
		return fmt.Errorf("remove %s: %w", id, ErrNotFound)
	}
	return nil
}

// Jobs returns snapshots of all current-session jobs, newest first.
func (m *Manager) Jobs() []Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Job, len(m.jobs))
	for i, j := range m.jobs {
		out[i] = *j
	}
	return out
}

// History returns snapshots of terminal jobs, most recent first.
func (m *Manager) History() []Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Job, len(m.history))
	for i, j := range m.history {
		out[i] = *j
	}
	return out
}

// Get returns a snapshot of one job by id, searching the session list first
// and the history second.
func (m *Manager) Get(id string) (Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j := m.find(id); j != nil {
		return *j, true
	}
	if j := m.findHistory(id); j != nil {
		return *j, true
	}
	return Job{}, false
}

// ActiveCount returns the number of jobs currently occupying a slot.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeCount()
}

// CancelAll cancels every queued and active job. Used on shutdown.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	var ids []string
	for _, j := range m.jobs {
		if j.Status == StatusQueued || j.Status.IsActive() {
			ids = append(ids, j.ID)
		}
	}
	m.mu.Unlock()

	for _, id := range ids {
		_ = m.Cancel(id)
	}
}

// evaluate promotes queued jobs to downloading while slots are free.
// Caller must hold mu. Claiming happens under the lock, so concurrent
// evaluation triggers can never double-start a job.
func (m *Manager) evaluate() {
	for m.activeCount() < m.cfg.MaxConcurrent {
		job := m.oldestQueued()
		if job == nil {
			return
		}

		// Claim: the status flip is the claim marker.
		job.Status = StatusDownloading
		ctx, cancel := context.WithCancel(context.Background())
		m.active[job.ID] = &supervision{cancel: cancel}

		m.log.Info("job started", "job_id", job.ID, "url", job.URL)
		m.publish(events.NewJobStarted(job.ID))
		m.publish(events.NewJobStatusChanged(job.ID, string(StatusQueued), string(StatusDownloading)))

		go m.supervise(ctx, job.ID, RunSpec{
			URL:       job.URL,
			OutputDir: job.OutputDir,
			Format:    job.Format,
			Playlist:  job.Playlist,
		})
	}
}

// supervise owns one job's external process from start to exit.
func (m *Manager) supervise(ctx context.Context, id string, spec RunSpec) {
	proc, err := m.runner.Start(ctx, spec, func(line string) {
		for _, ev := range m.parser.Parse(line) {
			m.applyEvent(id, ev)
		}
	})
	if err != nil {
		m.startFailed(id, err)
		return
	}

	m.mu.Lock()
	sup := m.active[id]
	if sup != nil {
		sup.proc = proc
		if sup.cancelled {
			// Cancel raced the start: the process exists now, kill it.
			proc.Terminate()
		}
	}
	m.mu.Unlock()

	code, waitErr := proc.Wait()
	m.finalize(id, code, waitErr)
}

// applyEvent folds one parser event into the job record.
// Events arriving after cancellation or completion are ignored: the
// recorded terminal reason is authoritative.
func (m *Manager) applyEvent(id string, ev OutputEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job := m.find(id)
	sup := m.active[id]
	if job == nil || sup == nil || sup.cancelled || job.Status.IsTerminal() {
		return
	}

	switch e := ev.(type) {
	case ProgressEvent:
		if e.Fraction > job.Progress && e.Fraction <= 1.0 {
			job.Progress = e.Fraction
			m.publish(events.NewJobProgressed(id, job.Progress))
		}
	case StatusEvent:
		if e.Status.IsTerminal() {
			// Terminal states are decided at process exit, not from output.
			// Remember the hint so finalize can trust an "already
			// downloaded" run that produced no destination line.
			if e.Status == StatusCompleted {
				job.Progress = 1.0
			}
			return
		}
		if job.Status.CanTransitionTo(e.Status) {
			from := job.Status
			job.Status = e.Status
			m.publish(events.NewJobStatusChanged(id, string(from), string(e.Status)))
		}
	case FileNameEvent:
		if job.DisplayName == "" {
			job.DisplayName = e.Name
			m.publish(events.NewJobFileDiscovered(id, e.Name, e.Path))
		}
		sup.lastPath = e.Path
	case ErrorEvent:
		sup.lastError = strings.TrimSpace(e.Line)
	}
}

// startFailed finalizes a job whose process never spawned.
func (m *Manager) startFailed(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if errors.Is(err, ErrExecutableNotFound) {
		m.unavailable = true
	}

	job := m.find(id)
	sup := m.active[id]
	delete(m.active, id)
	if sup != nil && sup.cancel != nil {
		sup.cancel()
	}
	if job == nil {
		return
	}

	if sup != nil && sup.cancelled {
		job.Status = StatusCancelled
		m.publish(events.NewJobCancelled(id))
	} else {
		job.Status = StatusFailed
		job.ErrorDetail = err.Error()
		m.log.Error("job start failed", "job_id", id, "error", err)
		m.publish(events.NewJobFailed(id, job.ErrorDetail))
	}

	m.recordTerminal(job)
	m.evaluate()
}

// finalize settles a job after its process exited, releases the slot,
// persists history and re-evaluates the queue so the next queued job
// starts immediately.
func (m *Manager) finalize(id string, code int, waitErr error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job := m.find(id)
	sup := m.active[id]
	delete(m.active, id)
	if sup != nil && sup.cancel != nil {
		sup.cancel()
	}
	if job == nil {
		m.evaluate()
		return
	}

	switch {
	case sup != nil && sup.cancelled, job.Status == StatusCancelled:
		// Cancellation wins over a simultaneous natural exit.
		job.Status = StatusCancelled
		m.log.Info("job finished", "job_id", id, "status", job.Status)
		m.publish(events.NewJobCancelled(id))

	case code == 0 && waitErr == nil:
		job.Status = StatusCompleted
		job.Progress = 1.0
		if sup != nil && sup.lastPath != "" {
			job.ResultPath = sup.lastPath
			if job.DisplayName == "" {
				job.DisplayName = baseName(sup.lastPath)
			}
		}
		m.unavailable = false
		m.log.Info("job finished", "job_id", id, "status", job.Status, "result", job.ResultPath)
		m.publish(events.NewJobCompleted(id, job.ResultPath, job.DisplayName))

	default:
		job.Status = StatusFailed
		job.ErrorDetail = exitDetail(code, waitErr, sup)
		m.log.Error("job failed", "job_id", id, "detail", job.ErrorDetail)
		m.publish(events.NewJobFailed(id, job.ErrorDetail))
	}

	m.recordTerminal(job)
	m.evaluate()
}

// recordTerminal pushes a terminal job onto the history and persists it.
// Caller must hold mu.
func (m *Manager) recordTerminal(job *Job) {
	m.history = append([]*Job{job}, m.history...)
	if m.cfg.MaxHistory > 0 && len(m.history) > m.cfg.MaxHistory {
		m.history = m.history[:m.cfg.MaxHistory]
	}
	m.persistHistory()
}

// persistHistory writes the terminal set. A persistence failure never
// blocks queue progress. Caller must hold mu.
func (m *Manager) persistHistory() {
	if m.store == nil {
		return
	}
	if err := m.store.Persist(m.history); err != nil {
		m.log.Error("history persist failed", "error", err)
	}
}

func (m *Manager) publish(e events.Event) {
	if m.bus == nil {
		return
	}
	_ = m.bus.Publish(context.Background(), e)
}

func (m *Manager) activeCount() int {
	n := 0
	for _, j := range m.jobs {
		if j.Status.IsActive() {
			n++
		}
	}
	return n
}

// oldestQueued returns the earliest-submitted queued job. The jobs slice is
// newest first, so that is the last queued entry.
func (m *Manager) oldestQueued() *Job {
	for i := len(m.jobs) - 1; i >= 0; i-- {
		if m.jobs[i].Status == StatusQueued {
			return m.jobs[i]
		}
	}
	return nil
}

func (m *Manager) find(id string) *Job {
	for _, j := range m.jobs {
		if j.ID == id {
			return j
		}
	}
	return nil
}

func (m *Manager) findHistory(id string) *Job {
	for _, j := range m.history {
		if j.ID == id {
			return j
		}
	}
	return nil
}

func (m *Manager) removeJob(id string) bool {
	for i, j := range m.jobs {
		if j.ID == id {
			m.jobs = append(m.jobs[:i], m.jobs[i+1:]...)
			return true
		}
	}
	return false
}

func (m *Manager) removeHistory(id string) bool {
	for i, j := range m.history {
		if j.ID == id {
			m.history = append(m.history[:i], m.history[i+1:]...)
			return true
		}
	}
	return false
}

func exitDetail(code int, waitErr error, sup *supervision) string {
	if sup != nil && sup.lastError != "" {
		return sup.lastError
	}
	if waitErr != nil {
		return waitErr.Error()
	}
	return fmt.Sprintf("yt-dlp exited with code %d", code)
}

func baseName(path string) string {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

package download

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeProc is a controllable process handle. Tests decide the exit code by
// sending on exit; Wait blocks until then.
type fakeProc struct {
	exit     chan int
	term     chan struct{}
	termOnce sync.Once
}

func newFakeProc() *fakeProc {
	return &fakeProc{exit: make(chan int, 1), term: make(chan struct{})}
}

func (p *fakeProc) Terminate() {
	p.termOnce.Do(func() { close(p.term) })
}

func (p *fakeProc) Wait() (int, error) {
	return <-p.exit, nil
}

// fakeStart records one Start call.
type fakeStart struct {
	spec   RunSpec
	onLine func(string)
	proc   *fakeProc
}

// fakeRunner hands out fakeProcs and exposes each start on a channel.
type fakeRunner struct {
	startErr error
	started  chan *fakeStart
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{started: make(chan *fakeStart, 16)}
}

func (r *fakeRunner) Start(ctx context.Context, spec RunSpec, onLine func(string)) (Process, error) {
	if r.startErr != nil {
		return nil, r.startErr
	}
	s := &fakeStart{spec: spec, onLine: onLine, proc: newFakeProc()}
	r.started <- s
	return s.proc, nil
}

func (r *fakeRunner) waitStart(t *testing.T) *fakeStart {
	t.Helper()
	select {
	case s := <-r.started:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for process start")
		return nil
	}
}

func (r *fakeRunner) expectNoStart(t *testing.T) {
	t.Helper()
	select {
	case <-r.started:
		t.Fatal("unexpected process start")
	case <-time.After(50 * time.Millisecond):
	}
}

// fakeParser turns synthetic test lines into events without depending on
// the real output heuristics:
//
//	progress:0.45    dest:Name|/path/file.mp4    status:extracting    error:msg
type fakeParser struct{}

func (fakeParser) Parse(text string) []OutputEvent {
	var out []OutputEvent
	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "progress:"):
			f, _ := strconv.ParseFloat(strings.TrimPrefix(line, "progress:"), 64)
			out = append(out, ProgressEvent{Fraction: f})
		case strings.HasPrefix(line, "dest:"):
			parts := strings.SplitN(strings.TrimPrefix(line, "dest:"), "|", 2)
			out = append(out, FileNameEvent{Name: parts[0], Path: parts[1]}, StatusEvent{Status: StatusDownloading})
		case strings.HasPrefix(line, "status:"):
			out = append(out, StatusEvent{Status: Status(strings.TrimPrefix(line, "status:"))})
		case strings.HasPrefix(line, "error:"):
			out = append(out, ErrorEvent{Line: strings.TrimPrefix(line, "error:")})
		}
	}
	return out
}

// fakeStore records the last persisted history set.
type fakeStore struct {
	mu       sync.Mutex
	persists int
	last     []*Job
	err      error
}

func (s *fakeStore) Persist(jobs []*Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persists++
	s.last = append([]*Job(nil), jobs...)
	return s.err
}

func (s *fakeStore) lastPersisted() []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Job(nil), s.last...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(runner Runner, store HistoryStore, maxConcurrent int) *Manager {
	return NewManager(runner, fakeParser{}, store, nil, ManagerConfig{
		MaxConcurrent: maxConcurrent,
		MaxHistory:    50,
		Defaults: Options{
			OutputDir: "/downloads",
			Format:    "bv*+ba/b",
		},
	}, testLogger())
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", msg)
}

// waitStatus polls until job id reaches want.
func waitStatus(t *testing.T, m *Manager, id string, want Status) {
	t.Helper()
	waitFor(t, func() bool {
		j, ok := m.Get(id)
		return ok && j.Status == want
	}, "job "+id+" to reach "+string(want))
}

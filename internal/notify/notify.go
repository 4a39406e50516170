// Package notify dispatches desktop notifications for terminal job events.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"

	"github.com/Xisisrefliel/VidPull/internal/events"
)

// Notifier delivers one user-visible notification.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// Desktop shells out to the platform notification tool. Delivery is
// best-effort: a missing tool is not an error worth surfacing.
type Desktop struct{}

func (Desktop) Notify(ctx context.Context, title, body string) error {
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", body, title)
		return exec.CommandContext(ctx, "osascript", "-e", script).Run()
	case "linux":
		return exec.CommandContext(ctx, "notify-send", title, body).Run()
	default:
		return nil
	}
}

// Dispatcher subscribes to terminal job events and notifies on them when
// enabled() reports true. Cancellation is deliberate user action, so it is
// not announced.
type Dispatcher struct {
	bus      *events.Bus
	notifier Notifier
	enabled  func() bool
	log      *slog.Logger
}

// NewDispatcher creates a notification dispatcher.
func NewDispatcher(bus *events.Bus, notifier Notifier, enabled func() bool, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{bus: bus, notifier: notifier, enabled: enabled, log: log}
}

// Run consumes events until the context is canceled.
func (d *Dispatcher) Run(ctx context.Context) error {
	completed := d.bus.Subscribe(events.EventJobCompleted, 16)
	failed := d.bus.Subscribe(events.EventJobFailed, 16)
	defer d.bus.Unsubscribe(completed)
	defer d.bus.Unsubscribe(failed)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-completed:
			if !ok {
				return nil
			}
			done, _ := e.(events.JobCompleted)
			name := done.DisplayName
			if name == "" {
				name = done.EntityID()
			}
			d.send(ctx, "Download complete", name)
		case e, ok := <-failed:
			if !ok {
				return nil
			}
			fail, _ := e.(events.JobFailed)
			d.send(ctx, "Download failed", fail.Reason)
		}
	}
}

func (d *Dispatcher) send(ctx context.Context, title, body string) {
	if d.enabled != nil && !d.enabled() {
		return
	}
	if err := d.notifier.Notify(ctx, title, body); err != nil {
		d.log.Debug("notification delivery failed", "error", err)
	}
}

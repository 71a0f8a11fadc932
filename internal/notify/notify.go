// Package notify delivers controller events to whoever hosts the editor: a
// log, a socket.io bridge to a browser, or several at once.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/specialistvlad/graphquery/internal/ctxlog"
)

// Kind names an event. The values double as socket.io event names.
type Kind string

const (
	// KindPreview is sent when a history entry becomes current.
	KindPreview Kind = "preview"
	// KindRepaint is sent when the whole graph was replaced.
	KindRepaint      Kind = "repaint"
	KindTaskStarted  Kind = "task_started"
	KindTaskProgress Kind = "task_progress"
	KindTaskFinished Kind = "task_finished"
	KindTaskFailed   Kind = "task_failed"
	KindDownloaded   Kind = "downloaded"
)

// Event is a single notification. Fields not relevant to Kind are zero.
type Event struct {
	Kind     Kind      `json:"kind"`
	Seq      int       `json:"seq,omitempty"`
	Success  bool      `json:"success,omitempty"`
	Error    string    `json:"error,omitempty"`
	TaskID   string    `json:"taskId,omitempty"`
	Progress float64   `json:"progress,omitempty"`
	Path     string    `json:"path,omitempty"`
	Time     time.Time `json:"time"`
}

// Notifier receives controller events. Notify must not block for long; it is
// called from the controller's queue.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
	Close() error
}

// Log writes events to the context logger.
type Log struct{}

func (Log) Notify(ctx context.Context, ev Event) {
	logger := ctxlog.FromContext(ctx)
	attrs := []any{"kind", ev.Kind}
	if ev.Seq != 0 {
		attrs = append(attrs, "seq", ev.Seq)
	}
	if ev.TaskID != "" {
		attrs = append(attrs, "task_id", ev.TaskID)
	}
	switch ev.Kind {
	case KindTaskProgress:
		logger.Debug("Task progress", append(attrs, "progress", ev.Progress)...)
	case KindTaskFailed:
		logger.Warn("Task failed", attrs...)
	case KindPreview:
		if ev.Error != "" {
			logger.Warn("Preview failed", append(attrs, "error", ev.Error)...)
			return
		}
		logger.Info("Preview ready", attrs...)
	case KindDownloaded:
		logger.Info("Output downloaded", append(attrs, "path", ev.Path)...)
	default:
		logger.Info("Editor event", attrs...)
	}
}

func (Log) Close() error { return nil }

// Multi fans an event out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev Event) {
	for _, n := range m {
		n.Notify(ctx, ev)
	}
}

func (m Multi) Close() error {
	var errs []error
	for _, n := range m {
		if err := n.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps every event in memory. It is meant for tests and is not
// safe for concurrent use beyond the controller's single queue.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Notify(_ context.Context, ev Event) { r.Events = append(r.Events, ev) }

func (r *Recorder) Close() error { return nil }

// Kinds lists the kinds of recorded events in order.
func (r *Recorder) Kinds() []Kind {
	kinds := make([]Kind, len(r.Events))
	for i, ev := range r.Events {
		kinds[i] = ev.Kind
	}
	return kinds
}

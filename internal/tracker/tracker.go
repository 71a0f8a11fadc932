// Package tracker follows an asynchronous task on the processing service
// until it finishes, fails or is cancelled.
package tracker

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/specialistvlad/graphquery/internal/ctxlog"
	"github.com/specialistvlad/graphquery/internal/service"
)

// DefaultInterval is the fixed delay between two polls.
const DefaultInterval = 5 * time.Second

var pollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "graphquery_task_polls_total",
	Help: "Task status polls, by reported state",
}, []string{"state"})

// StatusFetcher is the part of the service client the tracker needs.
type StatusFetcher interface {
	TaskStatus(ctx context.Context, taskID string) (*service.TaskStatus, error)
}

// Outcome is how tracking ended.
type Outcome int

const (
	// Finished means the task reported FINISHED at 100% while still tracked.
	Finished Outcome = iota
	// Failed means the task reported EXECUTION_ERROR.
	Failed
	// Cancelled means tracking was switched off or the context ended.
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Finished:
		return "finished"
	case Failed:
		return "failed"
	default:
		return "cancelled"
	}
}

// Task is the client-side handle of one tracked task.
type Task struct {
	ID string
	// OnProgress, if set, is called from the polling goroutine after every
	// status response that is acted upon.
	OnProgress func(progress float64)

	tracking atomic.Bool
	progress atomic.Uint64
}

// NewTask returns a handle with tracking enabled.
func NewTask(id string) *Task {
	t := &Task{ID: id}
	t.tracking.Store(true)
	return t
}

// Stop switches tracking off. A poll already in flight is allowed to
// complete, but its result is discarded.
func (t *Task) Stop() { t.tracking.Store(false) }

// Tracking reports whether the task is still being followed.
func (t *Task) Tracking() bool { return t.tracking.Load() }

// Progress is the last reported step progress, 0..100.
func (t *Task) Progress() float64 { return math.Float64frombits(t.progress.Load()) }

func (t *Task) setProgress(p float64) {
	t.progress.Store(math.Float64bits(p))
	if t.OnProgress != nil {
		t.OnProgress(p)
	}
}

// Tracker polls task status at a fixed interval.
type Tracker struct {
	fetcher  StatusFetcher
	interval time.Duration
}

// New creates a tracker. A non-positive interval selects DefaultInterval.
func New(fetcher StatusFetcher, interval time.Duration) *Tracker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Tracker{fetcher: fetcher, interval: interval}
}

// Track polls task until a terminal state and returns how it ended. Polls are
// strictly sequential: the next one is scheduled only after the previous
// response has been handled. There is no retry cap and no backoff; transport
// errors and unknown states just lead to another poll.
//
// The tracking flag is checked after every response, whatever the state.
func (tr *Tracker) Track(ctx context.Context, task *Task) Outcome {
	logger := ctxlog.FromContext(ctx).With("task_id", task.ID)
	logger.Info("Tracking task")

	for {
		if err := sleepWithContext(ctx, tr.interval); err != nil {
			task.Stop()
			return Cancelled
		}
		if !task.Tracking() {
			logger.Info("Tracking stopped")
			return Cancelled
		}

		st, err := tr.fetcher.TaskStatus(ctx, task.ID)
		if !task.Tracking() {
			logger.Info("Tracking stopped, discarding poll result")
			return Cancelled
		}
		if err != nil {
			pollsTotal.WithLabelValues("error").Inc()
			if ctx.Err() != nil {
				task.Stop()
				return Cancelled
			}
			logger.Warn("Task status poll failed, retrying", "error", err)
			continue
		}
		pollsTotal.WithLabelValues(string(st.State)).Inc()
		task.setProgress(st.Progress)
		logger.Debug("Task status", "state", st.State, "progress", st.Progress)

		switch st.State {
		case service.StateFinished:
			if st.Progress >= 100 {
				task.Stop()
				logger.Info("Task finished")
				return Finished
			}
		case service.StateExecutionError:
			task.Stop()
			logger.Warn("Task failed on the service")
			return Failed
		case service.StateRunning:
		default:
			logger.Debug("Unknown task state, polling again", "state", st.State)
		}
	}
}

func sleepWithContext(ctx context.Context, wait time.Duration) error {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Package controller is the single logical owner of an editor session: the
// graph, the preview history and the submission/tracking state machine.
//
// Every state change runs as a closure on one goroutine, in the order the
// calls arrived. Network round trips (query submission, task polling,
// downloads) happen outside that queue; their results are posted back onto
// it. No other locking is needed or used.
package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/graphquery/internal/ctxlog"
	"github.com/specialistvlad/graphquery/internal/graph"
	"github.com/specialistvlad/graphquery/internal/history"
	"github.com/specialistvlad/graphquery/internal/node"
	"github.com/specialistvlad/graphquery/internal/notify"
	"github.com/specialistvlad/graphquery/internal/query"
	"github.com/specialistvlad/graphquery/internal/service"
	"github.com/specialistvlad/graphquery/internal/tracker"
)

var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("controller: closed")
	// ErrSubmissionInFlight is returned when a full output is requested
	// while another one is still being produced.
	ErrSubmissionInFlight = errors.New("controller: an output request is already in flight")
	// ErrEntryNotFound is returned when selecting an evicted or unknown
	// history entry.
	ErrEntryNotFound = errors.New("controller: history entry not found")
)

// Service is the part of the service client the controller drives.
type Service interface {
	tracker.StatusFetcher
	Submit(ctx context.Context, query string, preview bool) (*service.SubmitResult, error)
}

// Downloader fetches the output of a finished task. It returns where the
// output ended up.
type Downloader interface {
	Download(ctx context.Context, taskID string) (string, error)
}

// Options configure a Controller. Zero values select defaults.
type Options struct {
	HistorySize  int
	PollInterval time.Duration
	Downloader   Downloader
	Notifier     notify.Notifier
}

// Status is a point-in-time view of the submission state.
type Status struct {
	DownloadDisabled bool
	Tracking         bool
	TaskID           string
	Progress         float64
}

// Controller owns one editor session.
type Controller struct {
	ctx    context.Context
	cancel context.CancelFunc
	ops    chan func()
	done   chan struct{}
	wg     sync.WaitGroup

	svc        Service
	tracker    *tracker.Tracker
	downloader Downloader
	notifier   notify.Notifier

	// Owned by the queue goroutine.
	graph            *graph.Model
	history          *history.History
	current          *history.Entry
	downloadDisabled bool
	task             *tracker.Task
	progress         float64
	idle             chan struct{}
}

// New starts a controller over nodes. The controller lives until Close or
// until ctx ends; ctx also carries the logger.
func New(ctx context.Context, svc Service, nodes []*node.Node, opts Options) *Controller {
	ctx, cancel := context.WithCancel(ctx)
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Log{}
	}
	idle := make(chan struct{})
	close(idle)

	c := &Controller{
		ctx:        ctx,
		cancel:     cancel,
		ops:        make(chan func()),
		done:       make(chan struct{}),
		svc:        svc,
		tracker:    tracker.New(svc, opts.PollInterval),
		downloader: opts.Downloader,
		notifier:   notifier,
		graph:      graph.New(nodes),
		history:    history.New(opts.HistorySize),
		idle:       idle,
	}
	go c.run()
	return c
}

func (c *Controller) run() {
	defer close(c.done)
	for {
		select {
		case fn := <-c.ops:
			fn()
		case <-c.ctx.Done():
			return
		}
	}
}

// do runs fn on the queue and waits for it to finish.
func (c *Controller) do(fn func()) error {
	finished := make(chan struct{})
	select {
	case c.ops <- func() { fn(); close(finished) }:
	case <-c.done:
		return ErrClosed
	}
	select {
	case <-finished:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

// Close stops the queue and any tracking, and waits for background work.
func (c *Controller) Close() {
	c.cancel()
	<-c.done
	c.wg.Wait()
}

func (c *Controller) emit(ev notify.Event) {
	ev.Time = time.Now()
	c.notifier.Notify(c.ctx, ev)
}

// Submit serializes the current graph and sends it. A preview answer, or a
// failure, becomes the returned history entry, which is also made current.
// When the service starts a task instead, the entry is nil and tracking runs
// in the background until the task ends or StopTracking is called.
//
// A full output request while another one is in flight is refused with
// ErrSubmissionInFlight and sends nothing.
func (c *Controller) Submit(ctx context.Context, preview bool) (*history.Entry, error) {
	var (
		body     string
		snapshot []*node.Node
		failed   *history.Entry
		refused  bool
	)
	reqID := uuid.New()
	logger := ctxlog.FromContext(ctx).With("request_id", reqID.String(), "preview", preview)

	err := c.do(func() {
		if !preview && c.downloadDisabled {
			refused = true
			return
		}
		snapshot = query.Strip(c.graph.Nodes())
		doc, err := query.Serialise(snapshot, query.Options{Preview: preview})
		if err != nil {
			failed = c.record(&history.Entry{Error: err.Error(), NodeGraph: snapshot, RequestID: reqID})
			return
		}
		body = doc.String()
		if !preview {
			// Held until the service answers, so a second click cannot
			// submit the same output twice.
			c.downloadDisabled = true
		}
	})
	switch {
	case err != nil:
		return nil, err
	case refused:
		submissionsTotal.WithLabelValues(mode(preview), "refused").Inc()
		return nil, ErrSubmissionInFlight
	case failed != nil:
		submissionsTotal.WithLabelValues(mode(preview), "invalid").Inc()
		logger.Warn("Query could not be serialized", "error", failed.Error)
		return failed, nil
	}

	logger.Info("Submitting query")
	res, subErr := c.svc.Submit(ctx, body, preview)

	var entry *history.Entry
	err = c.do(func() {
		if !preview {
			c.downloadDisabled = false
		}
		switch {
		case subErr != nil:
			submissionsTotal.WithLabelValues(mode(preview), "error").Inc()
			entry = c.record(&history.Entry{Error: service.Message(subErr), NodeGraph: snapshot, RequestID: reqID})
		case res.Preview:
			submissionsTotal.WithLabelValues(mode(preview), "preview").Inc()
			entry = c.record(&history.Entry{
				Data:        res.Data,
				ContentType: res.ContentType,
				NodeGraph:   snapshot,
				Success:     true,
				RequestID:   reqID,
			})
		default:
			submissionsTotal.WithLabelValues(mode(preview), "task").Inc()
			c.startTracking(res.TaskID)
		}
	})
	if err != nil {
		return nil, err
	}
	if subErr != nil {
		logger.Warn("Query submission failed", "error", subErr)
	}
	return entry, nil
}

func mode(preview bool) string {
	if preview {
		return "preview"
	}
	return "output"
}

// record pushes a new entry and makes it current. Queue only.
func (c *Controller) record(e *history.Entry) *history.Entry {
	e.Seq = c.history.NextSeq()
	e.CreatedAt = time.Now()
	c.history.Add(e)
	c.current = e
	c.emit(notify.Event{Kind: notify.KindPreview, Seq: e.Seq, Success: e.Success, Error: e.Error})
	return e
}

// startTracking enters the tracking state for taskID. Queue only.
func (c *Controller) startTracking(taskID string) {
	if c.task != nil {
		c.task.Stop()
	}
	c.downloadDisabled = true
	c.progress = 0
	task := tracker.NewTask(taskID)
	task.OnProgress = func(p float64) {
		_ = c.do(func() {
			if c.task != task {
				return
			}
			c.progress = p
			c.emit(notify.Event{Kind: notify.KindTaskProgress, TaskID: taskID, Progress: p})
		})
	}
	c.task = task
	idle := make(chan struct{})
	c.idle = idle
	trackingGauge.Inc()
	c.emit(notify.Event{Kind: notify.KindTaskStarted, TaskID: taskID})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(idle)
		defer trackingGauge.Dec()
		outcome := c.tracker.Track(c.ctx, task)
		tasksTotal.WithLabelValues(outcome.String()).Inc()
		c.finishTracking(task, outcome)
	}()
}

// finishTracking applies a tracking outcome and, on success, fetches the
// output. Runs on the tracking goroutine.
func (c *Controller) finishTracking(task *tracker.Task, outcome tracker.Outcome) {
	var current bool
	err := c.do(func() {
		if c.task != task {
			return
		}
		current = true
		c.task = nil
		c.downloadDisabled = false
		switch outcome {
		case tracker.Finished:
			c.emit(notify.Event{Kind: notify.KindTaskFinished, TaskID: task.ID, Progress: task.Progress()})
		case tracker.Failed:
			c.emit(notify.Event{Kind: notify.KindTaskFailed, TaskID: task.ID})
		}
	})
	// A task stopped or replaced after its last poll is not downloaded.
	if err != nil || !current || outcome != tracker.Finished || c.downloader == nil {
		return
	}

	logger := ctxlog.FromContext(c.ctx).With("task_id", task.ID)
	path, err := c.downloader.Download(c.ctx, task.ID)
	if err != nil {
		logger.Error("Failed to download task output", "error", err)
		return
	}
	_ = c.do(func() {
		c.emit(notify.Event{Kind: notify.KindDownloaded, TaskID: task.ID, Path: path})
	})
}

// StopTracking switches tracking off. A poll in flight completes but is
// ignored, and output requests are accepted again.
func (c *Controller) StopTracking() error {
	return c.do(c.stopTask)
}

// stopTask is StopTracking on the queue.
func (c *Controller) stopTask() {
	if c.task == nil {
		return
	}
	c.task.Stop()
	c.task = nil
	c.downloadDisabled = false
}

// Wait blocks until no task is being tracked and any download of the last
// tracked task has finished.
func (c *Controller) Wait(ctx context.Context) error {
	var idle chan struct{}
	if err := c.do(func() { idle = c.idle }); err != nil {
		return err
	}
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}
}

// Status reports the submission state.
func (c *Controller) Status() (Status, error) {
	var st Status
	err := c.do(func() {
		st = Status{DownloadDisabled: c.downloadDisabled, Tracking: c.task != nil, Progress: c.progress}
		if c.task != nil {
			st.TaskID = c.task.ID
		}
	})
	return st, err
}

// SelectPreview makes the entry with the given sequence number current and
// restores the graph it was submitted with.
func (c *Controller) SelectPreview(seq int) error {
	var found bool
	err := c.do(func() {
		e, ok := c.history.Find(seq)
		if !ok {
			return
		}
		found = true
		c.current = e
		c.graph.Restore(e.NodeGraph)
		c.emit(notify.Event{Kind: notify.KindRepaint, Seq: e.Seq})
		c.emit(notify.Event{Kind: notify.KindPreview, Seq: e.Seq, Success: e.Success, Error: e.Error})
	})
	if err != nil {
		return err
	}
	if !found {
		return ErrEntryNotFound
	}
	return nil
}

// History returns the entries, newest first.
func (c *Controller) History() ([]*history.Entry, error) {
	var entries []*history.Entry
	err := c.do(func() { entries = c.history.Entries() })
	return entries, err
}

// Current returns the entry on display, nil before the first result.
func (c *Controller) Current() (*history.Entry, error) {
	var e *history.Entry
	err := c.do(func() { e = c.current })
	return e, err
}

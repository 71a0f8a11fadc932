package app

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"slices"

	"github.com/specialistvlad/graphquery/internal/controller"
	"github.com/specialistvlad/graphquery/internal/ctxlog"
	"github.com/specialistvlad/graphquery/internal/graphfile"
	"github.com/specialistvlad/graphquery/internal/history"
	"github.com/specialistvlad/graphquery/internal/notify"
)

// Run submits the graph once. A preview is written to the output directory;
// a full output is tracked until the service finishes and then downloaded.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	a.logger.Debug("App.Run method started.")

	a.startHealthCheckServer()
	defer func() {
		if err := a.closeHealthCheckServer(); err != nil {
			a.logger.Error("Health check server shutdown failed", "error", err)
		}
	}()
	defer a.client.Close()

	recorder := &notify.Recorder{}
	notifiers := notify.Multi{notify.Log{}, recorder}
	if a.config.NotifyURL != "" {
		sio, err := notify.DialSocketIO(ctx, notify.SocketIOOptions{
			URL:       a.config.NotifyURL,
			Namespace: a.config.NotifyNamespace,
		})
		if err != nil {
			return fmt.Errorf("failed to connect notifier: %w", err)
		}
		notifiers = append(notifiers, sio)
	}
	defer notifiers.Close()

	ctrl := controller.New(ctx, a.client, a.nodes, controller.Options{
		HistorySize:  a.config.HistorySize,
		PollInterval: a.config.PollInterval,
		Downloader:   &controller.FileDownloader{Fetcher: a.client, Dir: a.config.OutputDir},
		Notifier:     notifiers,
	})
	defer ctrl.Close()

	if a.config.Dataset != "" {
		link := graphfile.DeepLink{Dataset: a.config.Dataset, Bands: a.config.Bands}
		changed, err := ctrl.ApplyDeepLink(link)
		if err != nil {
			return err
		}
		if !changed {
			a.logger.Warn("Graph has no dataset node, ignoring dataset and bands.")
		}
	}

	entry, err := ctrl.Submit(ctx, a.config.Preview)
	if err != nil {
		return err
	}
	if entry != nil {
		return a.handleEntry(entry)
	}

	a.logger.Info("⏳ Waiting for the task to finish...")
	if err := ctrl.Wait(ctx); err != nil {
		return err
	}
	// Events are recorded on the controller's queue; a round trip through it
	// orders the read below after them.
	if _, err := ctrl.Status(); err != nil {
		return err
	}
	kinds := recorder.Kinds()
	switch {
	case slices.Contains(kinds, notify.KindDownloaded):
		a.logger.Info("🏁 Output downloaded.")
		return nil
	case slices.Contains(kinds, notify.KindTaskFailed):
		return errors.New("the service reported an execution error")
	case slices.Contains(kinds, notify.KindTaskFinished):
		return errors.New("task finished but its output could not be downloaded")
	}
	return errors.New("tracking stopped before the task finished")
}

func (a *App) handleEntry(e *history.Entry) error {
	if !e.Success {
		return fmt.Errorf("query failed: %s", e.Error)
	}
	if !a.config.Preview {
		// The service answered an output request with a preview.
		a.logger.Warn("Service returned a preview instead of starting a task.")
	}
	ext := ".png"
	if exts, err := mime.ExtensionsByType(e.ContentType); err == nil && len(exts) > 0 {
		ext = exts[0]
	}
	if err := os.MkdirAll(a.config.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(a.config.OutputDir, fmt.Sprintf("preview-%d%s", e.Seq, ext))
	if err := os.WriteFile(path, e.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write preview: %w", err)
	}
	a.logger.Info("🖼️ Preview saved.", "path", path, "bytes", len(e.Data))
	return nil
}

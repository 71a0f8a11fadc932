package controller

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/specialistvlad/graphquery/internal/ctxlog"
)

// OutputFetcher streams a finished task's output. *service.Client satisfies
// it.
type OutputFetcher interface {
	Download(ctx context.Context, taskID string, w io.Writer) (string, int64, error)
}

// FileDownloader saves task output into a directory, under the name the
// service suggests or the task id.
type FileDownloader struct {
	Fetcher OutputFetcher
	Dir     string
}

func (d *FileDownloader) Download(ctx context.Context, taskID string) (string, error) {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(d.Dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	name, n, err := d.Fetcher.Download(ctx, taskID, tmp)
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return "", err
	}

	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = taskID
	}
	dst := filepath.Join(d.Dir, name)
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("failed to move output into place: %w", err)
	}
	ctxlog.FromContext(ctx).Info("Saved task output", "task_id", taskID, "path", dst, "bytes", n)
	return dst, nil
}

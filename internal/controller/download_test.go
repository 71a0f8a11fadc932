package controller

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetchFunc func(ctx context.Context, taskID string, w io.Writer) (string, int64, error)

func (f fetchFunc) Download(ctx context.Context, taskID string, w io.Writer) (string, int64, error) {
	return f(ctx, taskID, w)
}

func TestFileDownloader(t *testing.T) {
	testCases := []struct {
		name     string
		suggest  string
		expected string
	}{
		{name: "suggested name", suggest: "ndvi.nc", expected: "ndvi.nc"},
		{name: "no suggestion", suggest: "", expected: "abc123"},
		{name: "path components dropped", suggest: "../../etc/passwd", expected: "passwd"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "out")
			d := &FileDownloader{
				Dir: dir,
				Fetcher: fetchFunc(func(_ context.Context, taskID string, w io.Writer) (string, int64, error) {
					n, err := io.WriteString(w, "data for "+taskID)
					return tc.suggest, int64(n), err
				}),
			}

			path, err := d.Download(context.Background(), "abc123")
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, tc.expected), path)

			content, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "data for abc123", string(content))

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Len(t, entries, 1, "no temporary file left behind")
		})
	}
}

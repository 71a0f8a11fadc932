package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/rsa", 5*time.Second)
	require.NoError(t, err)
	return c
}

func TestSubmit_Preview(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rsa/Data/MultiPreviewQuery", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "<query/>", r.PostForm.Get("query"))
		assert.Equal(t, "true", r.PostForm.Get("preview"))
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	})

	res, err := c.Submit(context.Background(), "<query/>", true)
	require.NoError(t, err)
	assert.True(t, res.Preview)
	assert.Equal(t, png, res.Data)
	assert.Equal(t, "image/png", res.ContentType)
	assert.Empty(t, res.TaskID)
}

func TestSubmit_Output(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rsa/Data/QueryOutput.json", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "false", r.PostForm.Get("preview"))
		_, _ = io.WriteString(w, `{"taskId":"abc123"}`)
	})

	res, err := c.Submit(context.Background(), "<query/>", false)
	require.NoError(t, err)
	assert.False(t, res.Preview)
	assert.Equal(t, "abc123", res.TaskID)
}

func TestSubmit_ServerOverridesPreview(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(PreviewHeader, "false")
		_, _ = io.WriteString(w, `{"taskId":"big"}`)
	})

	res, err := c.Submit(context.Background(), "<query/>", true)
	require.NoError(t, err)
	assert.False(t, res.Preview)
	assert.Equal(t, "big", res.TaskID)
}

func TestSubmit_MissingTaskID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})
	_, err := c.Submit(context.Background(), "<query/>", false)
	assert.ErrorIs(t, err, ErrNoTaskID)
}

func TestSubmit_Failure(t *testing.T) {
	body := "HTTP Status 500\nroot cause ... java.lang.IllegalArgumentException: Bad band name\n"
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, body)
	})

	_, err := c.Submit(context.Background(), "<query/>", true)
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusInternalServerError, reqErr.StatusCode)
	assert.Equal(t, body, reqErr.Body)
	assert.Equal(t, "java.lang.IllegalArgumentException: Bad band name", Message(err))
}

func TestTaskStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rsa/Data/Task/abc123.json", r.URL.Path)
		_, _ = io.WriteString(w, `{"state":"RUNNING","currentStepProgress":40}`)
	})

	st, err := c.TaskStatus(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, StateRunning, st.State)
	assert.Equal(t, float64(40), st.Progress)
}

func TestDownload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rsa/Data/Download/abc123", r.URL.Path)
		w.Header().Set("Content-Disposition", `attachment; filename="out.nc"`)
		_, _ = io.WriteString(w, "netcdf")
	})

	var buf bytes.Buffer
	name, n, err := c.Download(context.Background(), "abc123", &buf)
	require.NoError(t, err)
	assert.Equal(t, "out.nc", name)
	assert.Equal(t, int64(6), n)
	assert.Equal(t, "netcdf", buf.String())
	assert.Contains(t, c.DownloadURL("abc123"), "/rsa/Data/Download/abc123")
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New("not a url", time.Second)
	assert.Error(t, err)
	_, err = New("://bad", time.Second)
	assert.Error(t, err)
}

func TestWithEndpoints(t *testing.T) {
	var hit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = r.URL.Path
		_, _ = fmt.Fprint(w, `{"state":"FINISHED","currentStepProgress":100}`)
	}))
	defer srv.Close()

	c, err := New(srv.URL, time.Second, WithEndpoints(Endpoints{Task: "/tasks"}))
	require.NoError(t, err)
	_, err = c.TaskStatus(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "/tasks/t1.json", hit)
}

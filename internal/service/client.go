package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/specialistvlad/graphquery/internal/ctxlog"
)

// ErrNoTaskID is returned when an asynchronous submission's response has no
// task id.
var ErrNoTaskID = errors.New("service: response carries no task id")

// PreviewHeader lets the service state explicitly whether it answered a
// submission as a preview. It overrides the echoed form parameter.
const PreviewHeader = "X-Preview"

// Endpoints are the service paths, relative to the base URL.
type Endpoints struct {
	Preview  string
	Output   string
	Task     string
	Download string
}

// DefaultEndpoints returns the paths served by the data controller.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Preview:  "/Data/MultiPreviewQuery",
		Output:   "/Data/QueryOutput.json",
		Task:     "/Data/Task",
		Download: "/Data/Download",
	}
}

// Client is a thin wrapper over net/http. It holds no per-submission state
// and is safe for concurrent use.
type Client struct {
	base      *url.URL
	endpoints Endpoints
	http      *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithEndpoints overrides the default endpoint paths. Empty fields keep their
// default.
func WithEndpoints(e Endpoints) Option {
	return func(c *Client) {
		if e.Preview != "" {
			c.endpoints.Preview = e.Preview
		}
		if e.Output != "" {
			c.endpoints.Output = e.Output
		}
		if e.Task != "" {
			c.endpoints.Task = e.Task
		}
		if e.Download != "" {
			c.endpoints.Download = e.Download
		}
	}
}

// New creates a client for the service rooted at baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid service url %q: %w", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid service url %q: scheme and host are required", baseURL)
	}
	c := &Client{
		base:      base,
		endpoints: DefaultEndpoints(),
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

func (c *Client) url(elem ...string) string {
	return c.base.JoinPath(elem...).String()
}

// SubmitResult is the outcome of a successful submission.
type SubmitResult struct {
	// Preview is the service's verdict on how it treated the request.
	Preview bool
	// Data and ContentType hold the inline payload of a preview.
	Data        []byte
	ContentType string
	// TaskID is set for asynchronous submissions.
	TaskID string
}

// Submit posts query to the preview or output endpoint.
func (c *Client) Submit(ctx context.Context, query string, preview bool) (*SubmitResult, error) {
	endpoint, label := c.endpoints.Output, "output"
	if preview {
		endpoint, label = c.endpoints.Preview, "preview"
	}
	form := url.Values{}
	form.Set("query", query)
	form.Set("preview", strconv.FormatBool(preview))

	target := c.url(endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	ctxlog.FromContext(ctx).Debug("Submitting query", "url", target, "preview", preview)
	resp, body, err := c.do(req, label)
	if err != nil {
		return nil, err
	}

	res := &SubmitResult{Preview: echoedPreview(form, resp.Header)}
	if res.Preview {
		res.Data = body
		res.ContentType = resp.Header.Get("Content-Type")
		return res, nil
	}

	var task struct {
		TaskID string `json:"taskId"`
	}
	if err := json.Unmarshal(body, &task); err != nil {
		return nil, fmt.Errorf("failed to decode task response: %w", err)
	}
	if task.TaskID == "" {
		return nil, ErrNoTaskID
	}
	res.TaskID = task.TaskID
	return res, nil
}

// echoedPreview reads the preview parameter back from the request that was
// sent. A missing parameter means preview.
func echoedPreview(sent url.Values, h http.Header) bool {
	if v := h.Get(PreviewHeader); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	if !sent.Has("preview") {
		return true
	}
	return sent.Get("preview") == "true"
}

// TaskState is the remote task lifecycle as reported by the service.
type TaskState string

const (
	StateRunning        TaskState = "RUNNING"
	StateFinished       TaskState = "FINISHED"
	StateExecutionError TaskState = "EXECUTION_ERROR"
)

// TaskStatus is one poll result.
type TaskStatus struct {
	State    TaskState `json:"state"`
	Progress float64   `json:"currentStepProgress"`
}

// TaskStatus fetches the current state of a task.
func (c *Client) TaskStatus(ctx context.Context, taskID string) (*TaskStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(c.endpoints.Task, taskID+".json"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	_, body, err := c.do(req, "task")
	if err != nil {
		return nil, err
	}
	var st TaskStatus
	if err := json.Unmarshal(body, &st); err != nil {
		return nil, fmt.Errorf("failed to decode task status: %w", err)
	}
	return &st, nil
}

// DownloadURL is where a finished task's output can be fetched.
func (c *Client) DownloadURL(taskID string) string {
	return c.url(c.endpoints.Download, taskID)
}

// Download streams a finished task's output into w. It returns the file name
// suggested by the service, if any.
func (c *Client) Download(ctx context.Context, taskID string, w io.Writer) (string, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.DownloadURL(taskID), nil)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		requestsTotal.WithLabelValues("download", "error").Inc()
		return "", 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()
	requestsTotal.WithLabelValues("download", strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(resp.Body)
		return "", 0, &RequestError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return "", n, fmt.Errorf("failed to read download: %w", err)
	}
	return fileName(resp.Header.Get("Content-Disposition")), n, nil
}

func fileName(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}

// do executes req and reads the whole body. Non-2xx responses become a
// *RequestError.
func (c *Client) do(req *http.Request, label string) (*http.Response, []byte, error) {
	timer := prometheus.NewTimer(requestDuration.WithLabelValues(label))
	defer timer.ObserveDuration()

	resp, err := c.http.Do(req)
	if err != nil {
		requestsTotal.WithLabelValues(label, "error").Inc()
		return nil, nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()
	requestsTotal.WithLabelValues(label, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, nil, &RequestError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return resp, body, nil
}

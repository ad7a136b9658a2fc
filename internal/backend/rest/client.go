// Package rest implements the service.Service interface against a JSON
// REST collection (GET/POST on the collection, PUT/DELETE on items).
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"tasklist/internal/service"
)

// RequestIDHeader carries a per-call correlation id.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody bounds how much of a failed response is kept for the error.
const maxErrorBody = 512

// Client implements service.Service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
	timeout time.Duration
	lists   singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client (for testing or custom transports).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for per-request debug lines.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithTimeout bounds each call. Zero means no bound beyond the transport's.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a client for the collection at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListTasks fetches the collection, keeps the first service.ListLimit items
// and returns them sorted by id. Concurrent calls share one request, which
// runs on the first caller's ctx: if that caller is cancelled, every caller
// sharing the request gets the fetch error.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	v, err, _ := c.lists.Do("list", func() (interface{}, error) {
		var tasks []service.Task
		if err := c.do(ctx, http.MethodGet, c.baseURL, nil, &tasks); err != nil {
			return nil, err
		}
		if len(tasks) > service.ListLimit {
			tasks = tasks[:service.ListLimit]
		}
		sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
		return tasks, nil
	})
	if err != nil {
		return nil, service.NewError(service.OpFetch, err)
	}

	shared := v.([]service.Task)
	result := make([]service.Task, len(shared))
	copy(result, shared)
	return result, nil
}

// CreateTask posts a new task and returns the remote's echo of it.
func (c *Client) CreateTask(ctx context.Context, in service.NewTask) (service.Task, error) {
	var task service.Task
	if err := c.do(ctx, http.MethodPost, c.baseURL, in, &task); err != nil {
		return service.Task{}, service.NewError(service.OpCreate, err)
	}
	return task, nil
}

// UpdateTask sends a partial update for the task.
func (c *Client) UpdateTask(ctx context.Context, id int, patch service.TaskPatch) (service.Task, error) {
	var task service.Task
	if err := c.do(ctx, http.MethodPut, c.itemURL(id), patch, &task); err != nil {
		return service.Task{}, service.NewError(service.OpUpdate, err)
	}
	return task, nil
}

// DeleteTask deletes the task. Any 2xx response is success.
func (c *Client) DeleteTask(ctx context.Context, id int) error {
	if err := c.do(ctx, http.MethodDelete, c.itemURL(id), nil, nil); err != nil {
		return service.NewError(service.OpDelete, err)
	}
	return nil
}

func (c *Client) itemURL(id int) string {
	return c.baseURL + "/" + strconv.Itoa(id)
}

// do performs one request. A nil body sends nothing; a nil out skips
// decoding the response.
func (c *Client) do(ctx context.Context, method, url string, body, out interface{}) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("remote call failed",
			zap.String("request_id", reqID),
			zap.String("method", method),
			zap.String("url", url),
			zap.Error(err),
		)
		return wrapError(err)
	}
	defer resp.Body.Close()

	c.log.Debug("remote call",
		zap.String("request_id", reqID),
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(snippet))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusError records a non-2xx response.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("unexpected status %d", e.code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.code, e.body)
}

// wrapError turns transport errors into short messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out")
	}
	return err
}

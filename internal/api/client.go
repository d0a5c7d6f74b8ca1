// Package api is the HTTP client for the remote todo service.
//
//	GET    /api/todos       list
//	POST   /api/todos       create
//	PUT    /api/todos/{id}  full replace
//	DELETE /api/todos/{id}  delete
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/idilsaglam/planner/internal/model"
)

const (
	todosPath = "/api/todos"

	// RequestIDHeader carries a per-request UUID for log correlation.
	RequestIDHeader = "X-Request-ID"

	maxErrorBody = 512
)

// StatusError is returned for responses with status >= 400.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Client talks to one todo service. The zero value is not usable; use New.
type Client struct {
	base    *url.URL
	http    *http.Client
	logger  *log.Logger
	timeout *time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. The client is not
// modified by other options.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds every request. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = &d }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a client rooted at baseURL (e.g. "http://localhost:5000").
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		base:   u,
		http:   &http.Client{},
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout != nil {
		hc := *c.http
		hc.Timeout = *c.timeout
		c.http = &hc
	}
	return c, nil
}

// BaseURL returns the service address the client was built with.
func (c *Client) BaseURL() string { return c.base.String() }

// List fetches every todo.
func (c *Client) List(ctx context.Context) ([]model.Todo, error) {
	body, err := c.do(ctx, http.MethodGet, todosPath, nil)
	if err != nil {
		return nil, err
	}
	if err := checkShape(listShape, todosPath, body); err != nil {
		return nil, err
	}
	todos := []model.Todo{}
	if err := json.Unmarshal(body, &todos); err != nil {
		return nil, fmt.Errorf("decode todos: %w", err)
	}
	return todos, nil
}

// Create posts a new todo; any ID on t is not sent.
func (c *Client) Create(ctx context.Context, t model.Todo) (model.Todo, error) {
	t.ID = ""
	return c.sendTodo(ctx, http.MethodPost, todosPath, t)
}

// Update replaces the todo stored under id with t.
func (c *Client) Update(ctx context.Context, id string, t model.Todo) (model.Todo, error) {
	if id == "" {
		return model.Todo{}, fmt.Errorf("update: empty id")
	}
	return c.sendTodo(ctx, http.MethodPut, todoPath(id), t)
}

// Delete removes the todo stored under id. The confirmation body is
// ignored.
func (c *Client) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("delete: empty id")
	}
	_, err := c.do(ctx, http.MethodDelete, todoPath(id), nil)
	return err
}

func (c *Client) sendTodo(ctx context.Context, method, path string, t model.Todo) (model.Todo, error) {
	if t.Checkpoints == nil {
		t.Checkpoints = []model.Checkpoint{}
	}
	payload, err := json.Marshal(t)
	if err != nil {
		return model.Todo{}, fmt.Errorf("encode todo: %w", err)
	}
	body, err := c.do(ctx, method, path, payload)
	if err != nil {
		return model.Todo{}, err
	}
	if err := checkShape(todoShape, path, body); err != nil {
		return model.Todo{}, err
	}
	var out model.Todo
	if err := json.Unmarshal(body, &out); err != nil {
		return model.Todo{}, fmt.Errorf("decode todo: %w", err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	u := *c.base
	raw := strings.TrimRight(u.EscapedPath(), "/") + path
	unescaped, err := url.PathUnescape(raw)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	u.Path, u.RawPath = unescaped, raw

	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, reqID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("request failed", "method", method, "path", path, "request_id", reqID, "err", err)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	c.logger.Debug("request", "method", method, "path", path, "status", resp.StatusCode,
		"request_id", reqID, "took", time.Since(start).Round(time.Millisecond))

	if resp.StatusCode >= 400 {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody] + "..."
		}
		return nil, &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: snippet}
	}
	return body, nil
}

// todoPath returns the escaped item path for id.
func todoPath(id string) string {
	return todosPath + "/" + url.PathEscape(id)
}

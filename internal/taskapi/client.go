// Package taskapi is the client for the backend task API. It normalizes
// every failure into the domain error taxonomy; raw transport errors never
// leave this package.
package taskapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/domain"
)

const defaultTimeout = 30 * time.Second

// Client performs task CRUD against the backend, authenticated with the
// bearer token from the injected credential source.
type Client struct {
	baseURL string
	creds   auth.Source
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New creates a task API client for the given backend origin.
func New(backendURL string, creds auth.Source, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(backendURL, "/"),
		creds:   creds,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type createRequest struct {
	Title string `json:"title"`
	// Pointer without omitempty: an absent description marshals as JSON
	// null, which the backend treats differently from an empty string.
	Description *string `json:"description"`
}

// UpdatePatch describes a partial task update. Nil fields are left
// untouched by the backend.
type UpdatePatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// List fetches the user's full current task set, in backend order.
func (c *Client) List(ctx context.Context) ([]domain.Task, error) {
	resp, err := c.do(ctx, http.MethodGet, "/tasks/", nil)
	if err != nil {
		return nil, err
	}

	var tasks []domain.Task
	if err := json.Unmarshal(resp, &tasks); err != nil {
		return nil, fmt.Errorf("parse task list: %w", err)
	}
	return tasks, nil
}

// Create adds a task. The title must be non-empty; a nil description is
// forwarded as an explicit null, never coerced to "".
func (c *Client) Create(ctx context.Context, title string, description *string) (domain.Task, error) {
	if strings.TrimSpace(title) == "" {
		return domain.Task{}, &domain.ValidationError{Message: "title cannot be empty"}
	}

	body, err := json.Marshal(createRequest{Title: title, Description: description})
	if err != nil {
		return domain.Task{}, fmt.Errorf("encode create request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/tasks/", body)
	if err != nil {
		return domain.Task{}, err
	}

	var task domain.Task
	if err := json.Unmarshal(resp, &task); err != nil {
		return domain.Task{}, fmt.Errorf("parse created task: %w", err)
	}
	return task, nil
}

// Update applies a partial update to a task.
func (c *Client) Update(ctx context.Context, taskID string, patch UpdatePatch) (domain.Task, error) {
	body, err := json.Marshal(patch)
	if err != nil {
		return domain.Task{}, fmt.Errorf("encode update request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPut, "/tasks/"+taskID, body)
	if err != nil {
		return domain.Task{}, err
	}

	var task domain.Task
	if err := json.Unmarshal(resp, &task); err != nil {
		return domain.Task{}, fmt.Errorf("parse updated task: %w", err)
	}
	return task, nil
}

// ToggleComplete flips the task's completed flag. A missing task is a
// genuine failure here, unlike Remove.
func (c *Client) ToggleComplete(ctx context.Context, taskID string) error {
	_, err := c.do(ctx, http.MethodPatch, "/tasks/"+taskID+"/complete", nil)
	return err
}

// Remove deletes a task. Callers treat domain.ErrNotFound from a stale
// delete the same as success.
func (c *Client) Remove(ctx context.Context, taskID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/tasks/"+taskID, nil)
	return err
}

// do runs one authenticated request and returns the response body, or a
// taxonomy error. Credentials are checked before any network call.
func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	creds, err := c.creds.Credentials()
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/%s%s", c.baseURL, creds.UserID, path)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+creds.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.ErrConnection
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.ErrConnection
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return respBody, nil
	}
	return nil, translateStatus(resp.StatusCode, respBody)
}

func translateStatus(status int, body []byte) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrUnauthenticated
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		return &domain.ValidationError{Message: domain.ErrorMessageFromBody(body)}
	default:
		return &domain.BackendError{Status: status, Message: domain.ErrorMessageFromBody(body)}
	}
}

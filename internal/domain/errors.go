package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared across component boundaries. Components translate
// raw transport and HTTP errors into these; nothing below this taxonomy
// reaches the view layer.
var (
	// ErrUnauthenticated means credentials are missing or were rejected.
	// The user must re-authenticate; callers must not retry silently.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrNotFound means the referenced entity no longer exists. Benign for
	// delete (the goal state already holds), a genuine failure for toggle.
	ErrNotFound = errors.New("not found")

	// ErrConnection means the request failed at the transport layer before
	// reaching the backend. No server-side mutation can have occurred.
	ErrConnection = errors.New("connection failed")
)

// ValidationError reports bad input detected before any network call, or a
// payload the backend rejected.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// BackendError reports a non-2xx response from the backend with whatever
// message the response body carried.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}

// ErrorMessageFromBody extracts a human-readable message from an error
// response body. FastAPI-style backends report failures under "detail", the
// relay uses "error"; fall back to the raw body text.
func ErrorMessageFromBody(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Detail != "" {
			return payload.Detail
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(body))
}

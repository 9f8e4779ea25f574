// Package chat sends user utterances to the assistant through the relay.
// The channel is opaque: a successful reply says nothing about which tasks
// the assistant touched, so the channel publishes a no-payload notification
// after every completed turn and consumers refetch current truth.
package chat

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

// Assistant turns run tool calls against the model; they are slow.
const defaultTimeout = 120 * time.Second

// Notifier receives the "tasks may have changed" signal.
type Notifier interface {
	Publish()
}

// Channel sends chat messages to the relay's /api/chat endpoint.
type Channel struct {
	relayURL string
	creds    auth.Source
	notifier Notifier
	http     *http.Client
}

// Option configures a Channel.
type Option func(*Channel)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Channel) { c.http = hc }
}

// New creates a chat channel. The notifier is published to exactly once per
// turn that reaches the backend, strictly after the response settles.
func New(relayURL string, creds auth.Source, notifier Notifier, opts ...Option) *Channel {
	c := &Channel{
		relayURL: strings.TrimSuffix(relayURL, "/"),
		creds:    creds,
		notifier: notifier,
		http:     &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type sendRequest struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
	Token   string `json:"token"`
}

type sendResponse struct {
	Response string `json:"response"`
}

// Send delivers one user utterance and returns the assistant's reply text.
//
// Publish rules: a transport failure means no backend-side mutation can have
// happened, so nothing is published. Any response from the backend — success
// or reported error — may have left mutations behind (even a failed turn can
// be partially applied), so both publish, after the result is settled.
func (c *Channel) Send(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", &domain.ValidationError{Message: "message cannot be empty"}
	}

	creds, err := c.creds.Credentials()
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(sendRequest{Message: text, UserID: creds.UserID, Token: creds.Token})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.relayURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", domain.ErrConnection
	}
	defer resp.Body.Close()

	reply, sendErr := c.settle(resp)
	if c.notifier != nil {
		c.notifier.Publish()
	}
	return reply, sendErr
}

func (c *Channel) settle(resp *http.Response) (string, error) {
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &domain.BackendError{Status: resp.StatusCode, Message: "unreadable response body"}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &domain.BackendError{
			Status:  resp.StatusCode,
			Message: domain.ErrorMessageFromBody(respBody),
		}
	}

	var sr sendResponse
	if err := json.Unmarshal(respBody, &sr); err != nil {
		return "", &domain.BackendError{Status: resp.StatusCode, Message: "malformed reply from assistant"}
	}
	return sr.Response, nil
}

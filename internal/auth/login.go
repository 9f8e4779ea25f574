package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/taskdeck/taskdeck/internal/domain"
)

const loginTimeout = 15 * time.Second

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
}

// Login exchanges an email and password for session credentials at the
// backend's /api/auth/login endpoint.
func Login(ctx context.Context, backendURL, email, password string) (domain.Credentials, error) {
	return authenticate(ctx, backendURL+"/api/auth/login", email, password)
}

// Register creates a new account at /api/auth/register and returns the
// resulting session credentials.
func Register(ctx context.Context, backendURL, email, password string) (domain.Credentials, error) {
	return authenticate(ctx, backendURL+"/api/auth/register", email, password)
}

func authenticate(ctx context.Context, url, email, password string) (domain.Credentials, error) {
	if email == "" || password == "" {
		return domain.Credentials{}, &domain.ValidationError{Message: "email and password are required"}
	}

	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: loginTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return domain.Credentials{}, domain.ErrConnection
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("read login response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return domain.Credentials{}, domain.ErrUnauthenticated
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Credentials{}, &domain.BackendError{
			Status:  resp.StatusCode,
			Message: domain.ErrorMessageFromBody(respBody),
		}
	}

	var lr loginResponse
	if err := json.Unmarshal(respBody, &lr); err != nil {
		return domain.Credentials{}, fmt.Errorf("parse login response: %w", err)
	}

	creds := domain.Credentials{Token: lr.AccessToken, UserID: lr.UserID}
	if !creds.Valid() {
		return domain.Credentials{}, fmt.Errorf("login response missing token or user id")
	}
	return creds, nil
}

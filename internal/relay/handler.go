// Package relay provides the same-origin HTTP relay that authenticates and
// forwards chat requests to the backend. It decouples the origin clients see
// from the backend origin and centralizes error translation: backend
// failures pass through with their status intact, transport failures become
// a synthesized 502.
package relay

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Handler forwards chat requests to the backend chat endpoint.
type Handler struct {
	backendURL string
	http       *http.Client
}

// NewHandler creates a relay handler for the given backend origin.
func NewHandler(backendURL string, timeout time.Duration) *Handler {
	return &Handler{
		backendURL: strings.TrimSuffix(backendURL, "/"),
		http:       &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
	Token   string `json:"token"`
}

// Chat handles POST /api/chat. It validates the payload before any outbound
// call: forwarding an incomplete request would surface a backend-shaped
// error for what is really a client bug.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err != nil {
		Error(w, http.StatusBadRequest, "request body unreadable")
		return
	}

	var req chatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Message == "" || req.UserID == "" || req.Token == "" {
		Error(w, http.StatusBadRequest, "missing message, userId, or token")
		return
	}

	forwardBody, err := json.Marshal(map[string]string{"message": req.Message})
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to encode forward request")
		return
	}

	url := h.backendURL + "/api/" + req.UserID + "/chat"
	forward, err := http.NewRequestWithContext(r.Context(), http.MethodPost, url, bytes.NewReader(forwardBody))
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to build forward request")
		return
	}
	forward.Header.Set("Content-Type", "application/json")
	forward.Header.Set("Authorization", "Bearer "+req.Token)

	resp, err := h.http.Do(forward)
	if err != nil {
		slog.Error("Chat forward failed", "request_id", reqID, "user_id", req.UserID, "error", err)
		JSON(w, http.StatusBadGateway, map[string]string{
			"error":   "failed to connect to chat service",
			"details": err.Error(),
		})
		return
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("Chat response unreadable", "request_id", reqID, "user_id", req.UserID, "error", err)
		JSON(w, http.StatusBadGateway, map[string]string{
			"error":   "failed to read chat service response",
			"details": err.Error(),
		})
		return
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("Backend chat error", "request_id", reqID, "user_id", req.UserID, "status", resp.StatusCode)
		// Pass the backend status through verbatim; callers distinguish
		// 401 from 500.
		JSON(w, resp.StatusCode, map[string]string{
			"error":   "backend error",
			"details": string(respBody),
		})
		return
	}

	slog.Info("Chat turn forwarded", "request_id", reqID, "user_id", req.UserID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(respBody)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

package relay

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

const healthCheckTimeout = 5 * time.Second

// HealthHandler reports relay health, including backend reachability.
type HealthHandler struct {
	backendURL string
	http       *http.Client
}

// NewHealthHandler creates a health handler probing the given backend.
func NewHealthHandler(backendURL string) *HealthHandler {
	return &HealthHandler{
		backendURL: backendURL,
		http:       &http.Client{Timeout: healthCheckTimeout},
	}
}

// Health returns the relay's status and whether the backend is reachable.
// The relay itself is stateless; the backend is its only dependency.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status := map[string]interface{}{
		"status": "healthy",
		"checks": map[string]string{"relay": "ok"},
	}
	statusCode := http.StatusOK

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.backendURL+"/", nil)
	if err == nil {
		resp, probeErr := h.http.Do(req)
		if probeErr != nil {
			slog.Warn("Health probe to backend failed", "error", probeErr)
			status["status"] = "degraded"
			status["checks"].(map[string]string)["backend"] = "unreachable"
			statusCode = http.StatusServiceUnavailable
		} else {
			resp.Body.Close()
			status["checks"].(map[string]string)["backend"] = "ok"
		}
	}

	JSON(w, statusCode, status)
}

// RegisterRoutes registers the relay's routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/chat", h.Chat)
}

// RegisterHealth registers the health check route.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/healthz", h.Health)
}

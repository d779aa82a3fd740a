package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	pkghttp "github.com/BradenHooton/showcase/pkg/http"
)

const healthCheckTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status       string `json:"status"`
	AttemptStore string `json:"attemptStore"`
}

// HealthHandler reports liveness of the server and its attempt store
type HealthHandler struct {
	store     Pinger
	storeKind string
	logger    *slog.Logger
}

func NewHealthHandler(store Pinger, storeKind string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{store: store, storeKind: storeKind, logger: logger}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("attempt store health check failed",
			slog.String("store", h.storeKind),
			slog.String("error", err.Error()))
		pkghttp.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", AttemptStore: "down"})
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, HealthResponse{Status: "healthy", AttemptStore: h.storeKind})
}

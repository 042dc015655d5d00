package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger is anything that can verify its backing store is reachable.
// The SQLite repository satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the service-level liveness probe.
type HealthHandler struct {
	db     Pinger
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(db Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

// HandleHealth reports overall service health, including a database
// round trip.
//
// HTTP: GET /api/health
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Error("health check: database unreachable", slog.String("error", err.Error()))
		Failure(w, http.StatusServiceUnavailable, "Database unreachable", nil)
		return
	}

	Success(w, http.StatusOK, "Service is healthy", map[string]any{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

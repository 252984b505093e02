package rest

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/frahmantamala/agency-dashboard/internal/transport"
	"github.com/frahmantamala/agency-dashboard/pkg/logger"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
)

type HealthResponse struct {
	OK         bool                  `json:"ok"`
	Status     HealthStatus          `json:"status"`
	CheckedAt  time.Time             `json:"checked_at"`
	Components map[string]CheckEntry `json:"components"`
}

type CheckEntry struct {
	Status     HealthStatus   `json:"status"`
	Message    string         `json:"message,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CheckedAt  time.Time      `json:"checked_at"`
	DurationMs int64          `json:"duration_ms"`
}

type HealthHandler struct {
	db *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// pingHandler is the liveness probe.
func (h *HealthHandler) pingHandler(w http.ResponseWriter, r *http.Request) {
	transport.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "status": "OK"}, logger.From(r.Context()))
}

// healthCheckHandler is the readiness probe; it pings the database.
func (h *HealthHandler) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	start := time.Now()
	entry := CheckEntry{
		Status: HealthHealthy,
	}

	if h.db == nil {
		entry.Status = HealthUnhealthy
		entry.Message = "database not configured"
	} else if err := h.db.PingContext(ctx); err != nil {
		entry.Status = HealthUnhealthy
		// the driver error can carry the DSN host; keep it in logs only
		entry.Message = "database unreachable"
		logger.From(r.Context()).Error("health check: database ping failed", "error", err)
	}
	entry.CheckedAt = time.Now()
	entry.DurationMs = time.Since(start).Milliseconds()

	if h.db != nil {
		stats := h.db.Stats()
		entry.Details = map[string]any{
			"open_connections": stats.OpenConnections,
			"in_use":           stats.InUse,
			"idle":             stats.Idle,
		}
	}

	resp := HealthResponse{
		OK:         entry.Status == HealthHealthy,
		Status:     entry.Status,
		CheckedAt:  time.Now(),
		Components: map[string]CheckEntry{"postgres": entry},
	}

	statusCode := http.StatusOK
	if entry.Status == HealthUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	transport.WriteJSON(w, statusCode, resp, logger.From(r.Context()))
}

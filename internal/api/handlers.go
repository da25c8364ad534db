package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// ErrorResponse is the JSON body of failed requests.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	ScanID  string `json:"scan_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// HealthHandler reports liveness and, when configured, database health.
type HealthHandler struct {
	check     func(ctx context.Context) error
	logger    *slog.Logger
	startTime time.Time
}

// NewHealthHandler creates a health handler. check may be nil.
func NewHealthHandler(check func(ctx context.Context) error, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{check: check, logger: logger, startTime: time.Now()}
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status        string `json:"status"`
	Database      string `json:"database"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// Health handles GET /healthz
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := HealthResponse{
		Status:        "ok",
		Database:      "disabled",
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	}
	status := http.StatusOK

	if h.check != nil {
		if err := h.check(r.Context()); err != nil {
			h.logger.Warn("health check failed", "error", err)
			resp.Status = "degraded"
			resp.Database = "unavailable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Database = "ok"
		}
	}

	writeJSON(w, h.logger, status, resp)
}

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/STRATINT/activityscan/internal/auth"
	"github.com/STRATINT/activityscan/internal/models"
	"github.com/STRATINT/activityscan/internal/settings"
)

// SettingsHandler reads and updates scan settings.
type SettingsHandler struct {
	store  settings.Store
	logger *slog.Logger
}

// NewSettingsHandler creates a settings handler.
func NewSettingsHandler(store settings.Store, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{store: store, logger: logger}
}

// SettingsResponse pairs the stored keys with the values a scan would use.
type SettingsResponse struct {
	Settings  models.Settings   `json:"settings"`
	Effective models.ScanConfig `json:"effective"`
}

// GetSettings handles GET /api/settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	current, err := h.store.Load(r.Context())
	if err != nil {
		h.logger.Error("failed to load settings", "error", err)
		http.Error(w, "Failed to load settings", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, SettingsResponse{Settings: current, Effective: current.ScanConfig()})
}

// UpdateSettings handles PUT and POST /api/settings. Absent keys keep their
// stored value.
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut && r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var update models.Settings
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&update); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	update.UpdatedAt = nil

	saved, err := settings.Update(r.Context(), h.store, update)
	if err != nil {
		var verr models.ValidationError
		if errors.As(err, &verr) {
			http.Error(w, verr.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to update settings", "error", err)
		http.Error(w, "Failed to update settings", http.StatusInternalServerError)
		return
	}

	subject, _ := auth.SubjectFromContext(r.Context())
	cfg := saved.ScanConfig()
	h.logger.Info("settings updated",
		"by", subject,
		"use_comparison", cfg.UseComparison,
		"total_threshold", cfg.TotalThreshold,
		"keyboard_threshold", cfg.KeyboardThreshold,
		"mouse_threshold", cfg.MouseThreshold,
		"skip_annotated", cfg.SkipAnnotated,
	)

	writeJSON(w, h.logger, http.StatusOK, SettingsResponse{Settings: saved, Effective: cfg})
}

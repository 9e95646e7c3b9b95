package handlers

import (
	"net/http"

	"github.com/MegMacD/wordpointe-sub001/internal/models"
	"github.com/MegMacD/wordpointe-sub001/internal/service"
)

// SettingsHandler handles program settings requests
type SettingsHandler struct {
	settings *service.SettingsService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settings *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Get handles GET /api/settings
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Get(r.Context())
	if err != nil {
		respondWithServiceError(w, "Failed to load settings", err)
		return
	}
	respondWithJSON(w, http.StatusOK, settings)
}

// Update handles PATCH /api/settings
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.SettingsPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	settings, err := h.settings.Update(r.Context(), patch)
	if err != nil {
		respondWithServiceError(w, "Failed to update settings", err)
		return
	}
	actorLog(r).WithField("bible_version", settings.BibleVersion).Info("Settings update submitted")
	respondWithJSON(w, http.StatusOK, settings)
}

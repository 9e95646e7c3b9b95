package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/MegMacD/wordpointe-sub001/internal/bible"
	"github.com/MegMacD/wordpointe-sub001/internal/service"
	"github.com/MegMacD/wordpointe-sub001/internal/validation"
)

// VerseFetcher looks up verse text
type VerseFetcher interface {
	FetchVerse(ctx context.Context, reference, version string) (*bible.Verse, error)
}

// BibleHandler serves verse lookups and reference validation
type BibleHandler struct {
	verses   VerseFetcher
	settings *service.SettingsService
}

// NewBibleHandler creates a new bible handler
func NewBibleHandler(verses VerseFetcher, settings *service.SettingsService) *BibleHandler {
	return &BibleHandler{verses: verses, settings: settings}
}

// GetVerse handles GET /api/bible/verse?reference=&version=.
// The version defaults to the configured program version.
func (h *BibleHandler) GetVerse(w http.ResponseWriter, r *http.Request) {
	reference := strings.TrimSpace(r.URL.Query().Get("reference"))
	if reference == "" {
		respondWithServiceError(w, "", validation.ValidationError{Field: "reference", Message: "reference is required"})
		return
	}

	version := r.URL.Query().Get("version")
	if version == "" {
		settings, err := h.settings.Get(r.Context())
		if err != nil {
			respondWithServiceError(w, "Failed to load settings", err)
			return
		}
		version = settings.BibleVersion
	}

	verse, err := h.verses.FetchVerse(r.Context(), reference, version)
	if err != nil {
		respondWithServiceError(w, "Verse lookup failed", err)
		return
	}
	if verse == nil {
		respondWithError(w, http.StatusNotFound, ErrVerseNotFound, "", nil)
		return
	}
	respondWithJSON(w, http.StatusOK, verse)
}

// Validate handles GET /api/bible/validate?reference=
func (h *BibleHandler) Validate(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, bible.ValidateReference(r.URL.Query().Get("reference")))
}

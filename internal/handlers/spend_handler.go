package handlers

import (
	"net/http"

	"github.com/MegMacD/wordpointe-sub001/internal/service"
	log "github.com/sirupsen/logrus"
)

// SpendHandler handles spend record requests
type SpendHandler struct {
	spends *service.SpendService
}

// NewSpendHandler creates a new spend handler
func NewSpendHandler(spends *service.SpendService) *SpendHandler {
	return &SpendHandler{spends: spends}
}

// List handles GET /api/spend?user_id=
func (h *SpendHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := queryID(r, "user_id")
	if err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	spends, err := h.spends.ListSpends(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, "Failed to list spend records", err)
		return
	}
	respondWithJSON(w, http.StatusOK, spends)
}

type createSpendRequest struct {
	UserID      int64  `json:"user_id"`
	PointsSpent int    `json:"points_spent"`
	Description string `json:"description"`
}

// Create handles POST /api/spend
func (h *SpendHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSpendRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rec, err := h.spends.CreateSpend(r.Context(), req.UserID, req.PointsSpent, req.Description)
	if err != nil {
		respondWithServiceError(w, "Failed to create spend record", err)
		return
	}
	actorLog(r).WithFields(log.Fields{"spend_id": rec.ID, "user_id": rec.UserID}).Info("Spend submitted")
	respondWithJSON(w, http.StatusCreated, rec)
}

// Undo handles POST /api/spend/{id}/undo
func (h *SpendHandler) Undo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	rec, err := h.spends.UndoSpend(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, "Failed to undo spend record", err)
		return
	}
	actorLog(r).WithFields(log.Fields{"spend_id": rec.ID, "user_id": rec.UserID}).Info("Spend undo submitted")
	respondWithJSON(w, http.StatusOK, rec)
}

package handlers

import (
	"net/http"

	"github.com/MegMacD/wordpointe-sub001/internal/service"
	log "github.com/sirupsen/logrus"
)

// BonusHandler handles bonus record requests
type BonusHandler struct {
	bonus *service.BonusService
}

// NewBonusHandler creates a new bonus handler
func NewBonusHandler(bonus *service.BonusService) *BonusHandler {
	return &BonusHandler{bonus: bonus}
}

// List handles GET /api/bonus?user_id=
func (h *BonusHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := queryID(r, "user_id")
	if err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	records, err := h.bonus.List(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, "Failed to list bonus records", err)
		return
	}
	respondWithJSON(w, http.StatusOK, records)
}

type createBonusRequest struct {
	UserID        int64  `json:"user_id"`
	PointsAwarded int    `json:"points_awarded"`
	Reason        string `json:"reason"`
}

// Create handles POST /api/bonus
func (h *BonusHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBonusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rec, err := h.bonus.Create(r.Context(), req.UserID, req.PointsAwarded, req.Reason)
	if err != nil {
		respondWithServiceError(w, "Failed to create bonus record", err)
		return
	}
	actorLog(r).WithFields(log.Fields{"bonus_id": rec.ID, "user_id": rec.UserID}).Info("Bonus submitted")
	respondWithJSON(w, http.StatusCreated, rec)
}

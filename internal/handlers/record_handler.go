package handlers

import (
	"net/http"

	"github.com/MegMacD/wordpointe-sub001/internal/service"
	log "github.com/sirupsen/logrus"
)

// RecordHandler handles verse record requests
type RecordHandler struct {
	records *service.RecordService
}

// NewRecordHandler creates a new record handler
func NewRecordHandler(records *service.RecordService) *RecordHandler {
	return &RecordHandler{records: records}
}

// Check handles GET /api/records/check?user_id=&memory_item_id=
func (h *RecordHandler) Check(w http.ResponseWriter, r *http.Request) {
	userID, err := queryID(r, "user_id")
	if err != nil {
		respondWithServiceError(w, "", err)
		return
	}
	memoryItemID, err := queryID(r, "memory_item_id")
	if err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	info, err := h.records.GetRecordInfo(r.Context(), userID, memoryItemID)
	if err != nil {
		respondWithServiceError(w, "Failed to check records", err)
		return
	}
	respondWithJSON(w, http.StatusOK, info)
}

// List handles GET /api/records?user_id=
func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := queryID(r, "user_id")
	if err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	records, err := h.records.ListByUser(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, "Failed to list verse records", err)
		return
	}
	respondWithJSON(w, http.StatusOK, records)
}

type createRecordRequest struct {
	UserID       int64 `json:"user_id"`
	MemoryItemID int64 `json:"memory_item_id"`
}

// Create handles POST /api/records
func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRecordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rec, err := h.records.CreateVerseRecord(r.Context(), req.UserID, req.MemoryItemID)
	if err != nil {
		respondWithServiceError(w, "Failed to create verse record", err)
		return
	}
	actorLog(r).WithFields(log.Fields{"record_id": rec.ID, "user_id": rec.UserID}).Info("Verse record submitted")
	respondWithJSON(w, http.StatusCreated, rec)
}

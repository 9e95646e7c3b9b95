package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MegMacD/wordpointe-sub001/internal/bible"
	"github.com/MegMacD/wordpointe-sub001/internal/service"
	"github.com/MegMacD/wordpointe-sub001/internal/validation"
	log "github.com/sirupsen/logrus"
)

type errorResponse struct {
	Error string `json:"error"`
}

// respondWithJSON writes v as a JSON body with the given status
func respondWithJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

// respondWithError writes {"error": userMsg}. err, when present, is logged
// under logMsg and never sent to the client.
func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		entry := log.WithError(err).WithField("status", status)
		if status >= http.StatusInternalServerError {
			entry.Error(logMsg)
		} else {
			entry.Debug(logMsg)
		}
	}

	respondWithJSON(w, status, errorResponse{Error: userMsg})
}

// respondWithServiceError maps a service error onto a status code
func respondWithServiceError(w http.ResponseWriter, logMsg string, err error) {
	var verr validation.ValidationError
	var refErr *bible.InvalidReferenceError

	switch {
	case errors.As(err, &verr):
		respondWithError(w, http.StatusBadRequest, verr.Error(), logMsg, err)
	case errors.As(err, &refErr):
		respondWithError(w, http.StatusBadRequest, refErr.Error(), logMsg, err)
	case errors.Is(err, bible.ErrUnsupportedVersion):
		respondWithError(w, http.StatusBadRequest, err.Error(), logMsg, err)
	case errors.Is(err, service.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, service.ErrInvalidCredentials.Error(), logMsg, err)
	case errors.Is(err, service.ErrUnauthorized):
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, logMsg, err)
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error(), logMsg, err)
	case errors.Is(err, service.ErrAlreadyUndone),
		errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrInsufficientPoints):
		respondWithError(w, http.StatusBadRequest, err.Error(), logMsg, err)
	default:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
	}
}

// decodeJSON reads a JSON request body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", err)
		return false
	}
	return true
}

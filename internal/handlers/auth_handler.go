package handlers

import (
	"net/http"

	"github.com/MegMacD/wordpointe-sub001/internal/models"
	"github.com/MegMacD/wordpointe-sub001/internal/service"
)

// AuthHandler handles login, logout and identity requests
type AuthHandler struct {
	auth service.Authenticator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth service.Authenticator) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type loginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type userResponse struct {
	User *models.User `json:"user"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.auth.Login(w, r, req.Name, req.Password)
	if err != nil {
		respondWithServiceError(w, "Login failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, userResponse{User: user})
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(w, r); err != nil {
		respondWithServiceError(w, "Logout failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Me handles GET /api/auth/me. Anonymous callers get {"user": null}.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.CurrentUser(r)
	if err != nil {
		respondWithServiceError(w, "Failed to resolve current user", err)
		return
	}
	respondWithJSON(w, http.StatusOK, userResponse{User: user})
}

package handlers

import (
	"net/http"

	"github.com/MegMacD/wordpointe-sub001/internal/models"
	"github.com/MegMacD/wordpointe-sub001/internal/service"
)

// UserHandler handles participant requests
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// List handles GET /api/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		respondWithServiceError(w, "Failed to list users", err)
		return
	}
	respondWithJSON(w, http.StatusOK, users)
}

// Get handles GET /api/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, "Failed to get user", err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}

type createUserRequest struct {
	Name     string      `json:"name"`
	Role     models.Role `json:"role"`
	Password string      `json:"password"`
}

// Create handles POST /api/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.Create(r.Context(), req.Name, req.Role, req.Password)
	if err != nil {
		respondWithServiceError(w, "Failed to create user", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, user)
}

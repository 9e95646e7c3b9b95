package handlers

import (
	"net/http"

	"github.com/MegMacD/wordpointe-sub001/internal/service"
)

// MemoryItemHandler handles memory item requests
type MemoryItemHandler struct {
	items *service.MemoryItemService
}

// NewMemoryItemHandler creates a new memory item handler
func NewMemoryItemHandler(items *service.MemoryItemService) *MemoryItemHandler {
	return &MemoryItemHandler{items: items}
}

// List handles GET /api/memory-items
func (h *MemoryItemHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.List(r.Context())
	if err != nil {
		respondWithServiceError(w, "Failed to list memory items", err)
		return
	}
	respondWithJSON(w, http.StatusOK, items)
}

// Get handles GET /api/memory-items/{id}
func (h *MemoryItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	item, err := h.items.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, "Failed to get memory item", err)
		return
	}
	respondWithJSON(w, http.StatusOK, item)
}

type createMemoryItemRequest struct {
	Reference string `json:"reference"`
	Title     string `json:"title"`
}

// Create handles POST /api/memory-items
func (h *MemoryItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMemoryItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.items.Create(r.Context(), req.Reference, req.Title)
	if err != nil {
		respondWithServiceError(w, "Failed to create memory item", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, item)
}

package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/MegMacD/wordpointe-sub001/internal/bible"
	"github.com/MegMacD/wordpointe-sub001/internal/models"
	"github.com/MegMacD/wordpointe-sub001/internal/repository"
	"github.com/MegMacD/wordpointe-sub001/internal/validation"
)

// MemoryItemService manages the verses participants can memorize
type MemoryItemService struct {
	items *repository.MemoryItemRepository
}

// NewMemoryItemService creates a new memory item service
func NewMemoryItemService(items *repository.MemoryItemRepository) *MemoryItemService {
	return &MemoryItemService{items: items}
}

// Create adds a memory item. The reference is stored in canonical form and
// the title defaults to it. Callers must have checked admin privilege.
func (s *MemoryItemService) Create(ctx context.Context, reference, title string) (*models.MemoryItem, error) {
	ref, err := bible.ParseReference(reference)
	if err != nil {
		return nil, validation.ValidationError{Field: "reference", Message: err.Error()}
	}
	title = strings.TrimSpace(title)
	if err := validation.ValidateText("title", title); err != nil {
		return nil, err
	}
	if title == "" {
		title = ref.String()
	}
	return s.items.Create(ctx, ref.String(), title)
}

// Get returns a memory item or ErrNotFound
func (s *MemoryItemService) Get(ctx context.Context, id int64) (*models.MemoryItem, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("memory item %d: %w", id, ErrNotFound)
	}
	return item, nil
}

// List returns all memory items
func (s *MemoryItemService) List(ctx context.Context) ([]models.MemoryItem, error) {
	return s.items.List(ctx)
}

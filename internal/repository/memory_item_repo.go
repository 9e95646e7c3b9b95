package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MegMacD/wordpointe-sub001/internal/database"
	"github.com/MegMacD/wordpointe-sub001/internal/models"
)

// MemoryItemRepository handles database operations for memory items
type MemoryItemRepository struct {
	db database.DBTX
}

// NewMemoryItemRepository creates a new memory item repository
func NewMemoryItemRepository(db database.DBTX) *MemoryItemRepository {
	return &MemoryItemRepository{db: db}
}

// Create inserts a memory item
func (r *MemoryItemRepository) Create(ctx context.Context, reference, title string) (*models.MemoryItem, error) {
	createdAt := time.Now().UTC()
	query := `INSERT INTO memory_items (reference, title, created_at) VALUES (?, ?, ?)`
	id, err := r.db.ExecReturningID(ctx, query, reference, title, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory item: %w", err)
	}
	return &models.MemoryItem{ID: id, Reference: reference, Title: title, CreatedAt: createdAt}, nil
}

// GetByID retrieves a memory item. Returns nil when it does not exist.
func (r *MemoryItemRepository) GetByID(ctx context.Context, id int64) (*models.MemoryItem, error) {
	item := &models.MemoryItem{}
	query := `SELECT id, reference, title, created_at FROM memory_items WHERE id = ?`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&item.ID, &item.Reference, &item.Title, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get memory item: %w", err)
	}
	return item, nil
}

// List retrieves all memory items in creation order
func (r *MemoryItemRepository) List(ctx context.Context) ([]models.MemoryItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, reference, title, created_at FROM memory_items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query memory items: %w", err)
	}
	defer rows.Close()

	items := []models.MemoryItem{}
	for rows.Next() {
		var item models.MemoryItem
		if err := rows.Scan(&item.ID, &item.Reference, &item.Title, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan memory item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

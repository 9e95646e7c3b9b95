package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/MegMacD/wordpointe-sub001/internal/database"
	"github.com/MegMacD/wordpointe-sub001/internal/models"
)

// VerseRecordRepository handles database operations for memory work completions
type VerseRecordRepository struct {
	db database.DBTX
}

// NewVerseRecordRepository creates a new verse record repository
func NewVerseRecordRepository(db database.DBTX) *VerseRecordRepository {
	return &VerseRecordRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *VerseRecordRepository) WithTx(tx database.DBTX) *VerseRecordRepository {
	return &VerseRecordRepository{db: tx}
}

// CountByUserAndItem counts completions of a memory item by a user
func (r *VerseRecordRepository) CountByUserAndItem(ctx context.Context, userID, memoryItemID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM verse_records WHERE user_id = ? AND memory_item_id = ?`
	if err := r.db.QueryRowContext(ctx, query, userID, memoryItemID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count verse records: %w", err)
	}
	return count, nil
}

// Create inserts a verse record and fills in its ID and creation time.
// A clash on (user_id, memory_item_id, occurrence) returns ErrDuplicate.
func (r *VerseRecordRepository) Create(ctx context.Context, rec *models.VerseRecord) error {
	createdAt := time.Now().UTC()
	query := `
		INSERT INTO verse_records (user_id, memory_item_id, occurrence, points_awarded, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, rec.UserID, rec.MemoryItemID, rec.Occurrence, rec.PointsAwarded, createdAt)
	if err != nil {
		if r.db.GetDialect().IsUniqueViolation(err) {
			return fmt.Errorf("verse record occurrence %d: %w", rec.Occurrence, ErrDuplicate)
		}
		return fmt.Errorf("failed to create verse record: %w", err)
	}
	rec.ID = id
	rec.CreatedAt = createdAt
	return nil
}

// ListByUser retrieves a user's verse records, newest first
func (r *VerseRecordRepository) ListByUser(ctx context.Context, userID int64) ([]models.VerseRecord, error) {
	query := `
		SELECT id, user_id, memory_item_id, occurrence, points_awarded, created_at
		FROM verse_records
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query verse records: %w", err)
	}
	defer rows.Close()

	records := []models.VerseRecord{}
	for rows.Next() {
		var rec models.VerseRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.MemoryItemID,
			&rec.Occurrence,
			&rec.PointsAwarded,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan verse record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/MegMacD/wordpointe-sub001/internal/database"
	"github.com/MegMacD/wordpointe-sub001/internal/models"
)

// BonusRecordRepository handles database operations for manual point adjustments
type BonusRecordRepository struct {
	db database.DBTX
}

// NewBonusRecordRepository creates a new bonus record repository
func NewBonusRecordRepository(db database.DBTX) *BonusRecordRepository {
	return &BonusRecordRepository{db: db}
}

// Create inserts a bonus record and fills in its ID and creation time
func (r *BonusRecordRepository) Create(ctx context.Context, rec *models.BonusRecord) error {
	createdAt := time.Now().UTC()
	query := `
		INSERT INTO bonus_records (user_id, points_awarded, reason, created_at)
		VALUES (?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, rec.UserID, rec.PointsAwarded, rec.Reason, createdAt)
	if err != nil {
		return fmt.Errorf("failed to create bonus record: %w", err)
	}
	rec.ID = id
	rec.CreatedAt = createdAt
	return nil
}

// ListByUser retrieves a user's bonus records, newest first
func (r *BonusRecordRepository) ListByUser(ctx context.Context, userID int64) ([]models.BonusRecord, error) {
	query := `
		SELECT id, user_id, points_awarded, reason, created_at
		FROM bonus_records
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bonus records: %w", err)
	}
	defer rows.Close()

	records := []models.BonusRecord{}
	for rows.Next() {
		var rec models.BonusRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.PointsAwarded, &rec.Reason, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bonus record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

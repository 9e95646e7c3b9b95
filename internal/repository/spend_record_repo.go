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

const spendColumns = `id, user_id, points_spent, description, undone, undone_at, created_at`

// SpendRecordRepository handles database operations for point redemptions
type SpendRecordRepository struct {
	db database.DBTX
}

// NewSpendRecordRepository creates a new spend record repository
func NewSpendRecordRepository(db database.DBTX) *SpendRecordRepository {
	return &SpendRecordRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *SpendRecordRepository) WithTx(tx database.DBTX) *SpendRecordRepository {
	return &SpendRecordRepository{db: tx}
}

// Create inserts a spend record and fills in its ID and creation time
func (r *SpendRecordRepository) Create(ctx context.Context, rec *models.SpendRecord) error {
	createdAt := time.Now().UTC()
	query := `
		INSERT INTO spend_records (user_id, points_spent, description, undone, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, rec.UserID, rec.PointsSpent, rec.Description, false, createdAt)
	if err != nil {
		return fmt.Errorf("failed to create spend record: %w", err)
	}
	rec.ID = id
	rec.Undone = false
	rec.CreatedAt = createdAt
	return nil
}

// GetByID retrieves a spend record. Returns nil when it does not exist.
func (r *SpendRecordRepository) GetByID(ctx context.Context, id int64) (*models.SpendRecord, error) {
	query := `SELECT ` + spendColumns + ` FROM spend_records WHERE id = ?`
	rec, err := scanSpend(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get spend record: %w", err)
	}
	return rec, nil
}

// MarkUndone flips a spend record to undone. It reports false without error
// when the record is missing or was already undone.
func (r *SpendRecordRepository) MarkUndone(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE spend_records
		SET undone = ?, undone_at = ?
		WHERE id = ? AND undone = ?
	`
	result, err := r.db.ExecContext(ctx, query, true, time.Now().UTC(), id, false)
	if err != nil {
		return false, fmt.Errorf("failed to undo spend record: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read undo result: %w", err)
	}
	return rows == 1, nil
}

// ListByUser retrieves a user's spend records, newest first
func (r *SpendRecordRepository) ListByUser(ctx context.Context, userID int64) ([]models.SpendRecord, error) {
	query := `SELECT ` + spendColumns + ` FROM spend_records WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query spend records: %w", err)
	}
	defer rows.Close()

	records := []models.SpendRecord{}
	for rows.Next() {
		rec, err := scanSpend(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan spend record: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func scanSpend(row rowScanner) (*models.SpendRecord, error) {
	rec := &models.SpendRecord{}
	var undoneAt sql.NullTime
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.PointsSpent,
		&rec.Description,
		&rec.Undone,
		&undoneAt,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if undoneAt.Valid {
		t := undoneAt.Time
		rec.UndoneAt = &t
	}
	return rec, nil
}

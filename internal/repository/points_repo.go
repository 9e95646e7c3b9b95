package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MegMacD/wordpointe-sub001/internal/database"
	"github.com/MegMacD/wordpointe-sub001/internal/models"
)

const summaryColumns = `user_id, name, role, memory_points, bonus_points, total_spent, current_points`

// PointsRepository reads the user_points_summary view. The view is derived
// from the ledger tables on every read; nothing here writes balances.
type PointsRepository struct {
	db database.DBTX
}

// NewPointsRepository creates a new points repository
func NewPointsRepository(db database.DBTX) *PointsRepository {
	return &PointsRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *PointsRepository) WithTx(tx database.DBTX) *PointsRepository {
	return &PointsRepository{db: tx}
}

// GetSummary returns one user's totals. Returns nil when the user does not exist.
func (r *PointsRepository) GetSummary(ctx context.Context, userID int64) (*models.PointsSummary, error) {
	query := `SELECT ` + summaryColumns + ` FROM user_points_summary WHERE user_id = ?`
	s, err := scanSummary(r.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get points summary: %w", err)
	}
	return s, nil
}

// ListSummaries returns every user's totals, highest balance first
func (r *PointsRepository) ListSummaries(ctx context.Context) ([]models.PointsSummary, error) {
	query := `SELECT ` + summaryColumns + ` FROM user_points_summary ORDER BY current_points DESC, name ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query points summaries: %w", err)
	}
	defer rows.Close()

	summaries := []models.PointsSummary{}
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan points summary: %w", err)
		}
		summaries = append(summaries, *s)
	}
	return summaries, rows.Err()
}

// LockBalance locks the user's row until the surrounding transaction ends so
// concurrent balance checks for the same user serialize. It reports false when
// the user does not exist. Only meaningful on a repository bound to a transaction.
func (r *PointsRepository) LockBalance(ctx context.Context, userID int64) (bool, error) {
	query := r.db.GetDialect().LockForUpdate(`SELECT id FROM users WHERE id = ?`)
	var id int64
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to lock user balance: %w", err)
	}
	return true, nil
}

func scanSummary(row rowScanner) (*models.PointsSummary, error) {
	s := &models.PointsSummary{}
	var role string
	err := row.Scan(
		&s.UserID,
		&s.Name,
		&role,
		&s.MemoryPoints,
		&s.BonusPoints,
		&s.TotalSpent,
		&s.CurrentPoints,
	)
	if err != nil {
		return nil, err
	}
	s.Role = models.Role(role)
	return s, nil
}

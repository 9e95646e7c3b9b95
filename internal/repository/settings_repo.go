package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MegMacD/wordpointe-sub001/internal/database"
	"github.com/MegMacD/wordpointe-sub001/internal/models"
)

// settingsRowID is the only id the settings table accepts
const settingsRowID = 1

type SettingsRepository struct {
	db database.DBTX
}

func NewSettingsRepository(db database.DBTX) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *SettingsRepository) WithTx(tx database.DBTX) *SettingsRepository {
	return &SettingsRepository{db: tx}
}

// Get retrieves the settings row. Returns nil when it has not been created yet.
func (r *SettingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	query := `
		SELECT default_points_first, default_points_repeat, bible_version, updated_at
		FROM settings
		WHERE id = ?
	`
	s := &models.Settings{}
	err := r.db.QueryRowContext(ctx, query, settingsRowID).Scan(
		&s.DefaultPointsFirst,
		&s.DefaultPointsRepeat,
		&s.BibleVersion,
		&s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return s, nil
}

// CreateIfMissing inserts the settings row unless one already exists. Concurrent
// callers cannot produce a second row: the table only admits id 1.
func (r *SettingsRepository) CreateIfMissing(ctx context.Context, s models.Settings) error {
	query := r.db.GetDialect().InsertIgnore("settings",
		"id", "default_points_first", "default_points_repeat", "bible_version")
	_, err := r.db.ExecContext(ctx, query, settingsRowID, s.DefaultPointsFirst, s.DefaultPointsRepeat, s.BibleVersion)
	if err != nil {
		return fmt.Errorf("failed to create settings: %w", err)
	}
	return nil
}

// Update overwrites the settings row
func (r *SettingsRepository) Update(ctx context.Context, s models.Settings) error {
	query := `
		UPDATE settings
		SET default_points_first = ?, default_points_repeat = ?, bible_version = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query, s.DefaultPointsFirst, s.DefaultPointsRepeat, s.BibleVersion, settingsRowID)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	return nil
}

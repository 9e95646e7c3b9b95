package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/MegMacD/wordpointe-sub001/internal/database"
	"github.com/MegMacD/wordpointe-sub001/internal/models"
	"github.com/MegMacD/wordpointe-sub001/internal/repository"
	log "github.com/sirupsen/logrus"
)

// BackupVersion identifies the backup file layout
const BackupVersion = "1"

// BackupData is the complete ledger in a portable form. It can be restored
// into any supported database type.
type BackupData struct {
	Version      string               `json:"version"`
	ExportedAt   time.Time            `json:"exported_at"`
	DatabaseType string               `json:"database_type"`
	Settings     *models.Settings     `json:"settings,omitempty"`
	Users        []UserBackup         `json:"users"`
	MemoryItems  []models.MemoryItem  `json:"memory_items"`
	VerseRecords []models.VerseRecord `json:"verse_records"`
	SpendRecords []models.SpendRecord `json:"spend_records"`
	BonusRecords []models.BonusRecord `json:"bonus_records"`
}

// UserBackup is a user row including its password hash
type UserBackup struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	Role         models.Role `json:"role"`
	PasswordHash string      `json:"password_hash,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// BackupService handles ledger export and restore
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export writes every ledger table to w as indented JSON
func (s *BackupService) Export(ctx context.Context, w io.Writer) (*BackupData, error) {
	backup := &BackupData{
		Version:      BackupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.Dialect.Name(),
	}

	steps := []struct {
		name string
		fn   func(context.Context, *BackupData) error
	}{
		{"settings", s.exportSettings},
		{"users", s.exportUsers},
		{"memory items", s.exportMemoryItems},
		{"verse records", s.exportVerseRecords},
		{"spend records", s.exportSpendRecords},
		{"bonus records", s.exportBonusRecords},
	}
	for _, step := range steps {
		if err := step.fn(ctx, backup); err != nil {
			return nil, fmt.Errorf("failed to export %s: %w", step.name, err)
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	log.WithFields(log.Fields{
		"users":         len(backup.Users),
		"memory_items":  len(backup.MemoryItems),
		"verse_records": len(backup.VerseRecords),
		"spend_records": len(backup.SpendRecords),
		"bonus_records": len(backup.BonusRecords),
	}).Info("Ledger exported")
	return backup, nil
}

// Import restores a backup read from r. Unless replace is set the database
// must not contain any users; with replace all existing rows are removed first.
// The whole restore runs in one transaction.
func (s *BackupService) Import(ctx context.Context, r io.Reader, replace bool) (*BackupData, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != BackupVersion {
		return nil, fmt.Errorf("unsupported backup version %q", backup.Version)
	}

	log.WithFields(log.Fields{
		"version":     backup.Version,
		"exported_at": backup.ExportedAt,
		"source":      backup.DatabaseType,
	}).Info("Starting ledger import")

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		if replace {
			if err := clearLedger(ctx, tx); err != nil {
				return err
			}
		} else {
			var count int
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
				return fmt.Errorf("failed to count users: %w", err)
			}
			if count > 0 {
				return fmt.Errorf("%w: database already holds %d users", ErrConflict, count)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM settings`); err != nil {
				return fmt.Errorf("failed to clear settings: %w", err)
			}
		}

		if err := importRows(ctx, tx, &backup); err != nil {
			return err
		}
		if tx.GetDialect().Name() == "postgres" {
			if err := resetSequences(ctx, tx); err != nil {
				return err
			}
		}
		return verifyBalances(ctx, repository.NewPointsRepository(tx), &backup)
	})
	if err != nil {
		return nil, err
	}

	log.Info("Ledger import completed")
	return &backup, nil
}

// Ledgers groups the backup's point records by user. Every backed-up user has
// an entry, even one with no records.
func (b *BackupData) Ledgers() map[int64]models.Ledger {
	ledgers := make(map[int64]models.Ledger, len(b.Users))
	for _, u := range b.Users {
		ledgers[u.ID] = models.Ledger{}
	}
	for _, v := range b.VerseRecords {
		l := ledgers[v.UserID]
		l.Verses = append(l.Verses, v)
		ledgers[v.UserID] = l
	}
	for _, bonus := range b.BonusRecords {
		l := ledgers[bonus.UserID]
		l.Bonus = append(l.Bonus, bonus)
		ledgers[bonus.UserID] = l
	}
	for _, sp := range b.SpendRecords {
		l := ledgers[sp.UserID]
		l.Spends = append(l.Spends, sp)
		ledgers[sp.UserID] = l
	}
	return ledgers
}

// verifyBalances checks that the restored summary view agrees with the
// totals computed from the backup file itself
func verifyBalances(ctx context.Context, points *repository.PointsRepository, b *BackupData) error {
	for userID, ledger := range b.Ledgers() {
		want := ledger.Summary()
		got, err := points.GetSummary(ctx, userID)
		if err != nil {
			return err
		}
		if got == nil {
			return fmt.Errorf("restored ledger is missing user %d", userID)
		}
		if got.MemoryPoints != want.MemoryPoints || got.BonusPoints != want.BonusPoints ||
			got.TotalSpent != want.TotalSpent || got.CurrentPoints != want.CurrentPoints {
			return fmt.Errorf("restored balance for user %d is %d, backup totals %d", userID, got.CurrentPoints, want.CurrentPoints)
		}
	}
	return nil
}

// ledgerTables lists tables in dependency order
var ledgerTables = []string{"users", "memory_items", "verse_records", "spend_records", "bonus_records"}

func clearLedger(ctx context.Context, tx *database.Tx) error {
	tables := []string{"settings", "users", "sessions", "memory_items", "verse_records", "spend_records", "bonus_records"}
	for i := len(tables) - 1; i >= 0; i-- {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+tables[i]); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", tables[i], err)
		}
	}
	log.Warn("Cleared existing ledger before import")
	return nil
}

func importRows(ctx context.Context, tx *database.Tx, b *BackupData) error {
	if b.Settings != nil {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO settings (id, default_points_first, default_points_repeat, bible_version, updated_at) VALUES (1, ?, ?, ?, ?)`,
			b.Settings.DefaultPointsFirst, b.Settings.DefaultPointsRepeat, b.Settings.BibleVersion, b.Settings.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import settings: %w", err)
		}
	}

	for _, u := range b.Users {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, name, role, is_leader, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			u.ID, u.Name, string(u.Role), u.Role == models.RoleLeader, nullIfEmpty(u.PasswordHash), u.CreatedAt, u.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import user %d: %w", u.ID, err)
		}
	}

	for _, item := range b.MemoryItems {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO memory_items (id, reference, title, created_at) VALUES (?, ?, ?, ?)`,
			item.ID, item.Reference, item.Title, item.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to import memory item %d: %w", item.ID, err)
		}
	}

	for _, v := range b.VerseRecords {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO verse_records (id, user_id, memory_item_id, occurrence, points_awarded, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			v.ID, v.UserID, v.MemoryItemID, v.Occurrence, v.PointsAwarded, v.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to import verse record %d: %w", v.ID, err)
		}
	}

	for _, sp := range b.SpendRecords {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO spend_records (id, user_id, points_spent, description, undone, undone_at, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sp.ID, sp.UserID, sp.PointsSpent, sp.Description, sp.Undone, sp.UndoneAt, sp.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to import spend record %d: %w", sp.ID, err)
		}
	}

	for _, bonus := range b.BonusRecords {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO bonus_records (id, user_id, points_awarded, reason, created_at) VALUES (?, ?, ?, ?, ?)`,
			bonus.ID, bonus.UserID, bonus.PointsAwarded, bonus.Reason, bonus.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to import bonus record %d: %w", bonus.ID, err)
		}
	}
	return nil
}

// resetSequences moves serial sequences past the imported ids
func resetSequences(ctx context.Context, tx *database.Tx) error {
	for _, table := range ledgerTables {
		query := fmt.Sprintf(
			`SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 0) + 1, false)`,
			table, table)
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to reset sequence for %s: %w", table, err)
		}
	}
	return nil
}

func (s *BackupService) exportSettings(ctx context.Context, b *BackupData) error {
	settings := &models.Settings{}
	err := s.db.QueryRowContext(ctx,
		`SELECT default_points_first, default_points_repeat, bible_version, updated_at FROM settings WHERE id = 1`,
	).Scan(&settings.DefaultPointsFirst, &settings.DefaultPointsRepeat, &settings.BibleVersion, &settings.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}
	b.Settings = settings
	return nil
}

func (s *BackupService) exportUsers(ctx context.Context, b *BackupData) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, role, COALESCE(password_hash, ''), created_at, updated_at FROM users ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	b.Users = []UserBackup{}
	for rows.Next() {
		var u UserBackup
		var role string
		if err := rows.Scan(&u.ID, &u.Name, &role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return err
		}
		u.Role = models.Role(role)
		b.Users = append(b.Users, u)
	}
	return rows.Err()
}

func (s *BackupService) exportMemoryItems(ctx context.Context, b *BackupData) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, reference, title, created_at FROM memory_items ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	b.MemoryItems = []models.MemoryItem{}
	for rows.Next() {
		var item models.MemoryItem
		if err := rows.Scan(&item.ID, &item.Reference, &item.Title, &item.CreatedAt); err != nil {
			return err
		}
		b.MemoryItems = append(b.MemoryItems, item)
	}
	return rows.Err()
}

func (s *BackupService) exportVerseRecords(ctx context.Context, b *BackupData) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, memory_item_id, occurrence, points_awarded, created_at FROM verse_records ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	b.VerseRecords = []models.VerseRecord{}
	for rows.Next() {
		var v models.VerseRecord
		if err := rows.Scan(&v.ID, &v.UserID, &v.MemoryItemID, &v.Occurrence, &v.PointsAwarded, &v.CreatedAt); err != nil {
			return err
		}
		b.VerseRecords = append(b.VerseRecords, v)
	}
	return rows.Err()
}

func (s *BackupService) exportSpendRecords(ctx context.Context, b *BackupData) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, points_spent, description, undone, undone_at, created_at FROM spend_records ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	b.SpendRecords = []models.SpendRecord{}
	for rows.Next() {
		var sp models.SpendRecord
		var undoneAt sql.NullTime
		if err := rows.Scan(&sp.ID, &sp.UserID, &sp.PointsSpent, &sp.Description, &sp.Undone, &undoneAt, &sp.CreatedAt); err != nil {
			return err
		}
		if undoneAt.Valid {
			sp.UndoneAt = &undoneAt.Time
		}
		b.SpendRecords = append(b.SpendRecords, sp)
	}
	return rows.Err()
}

func (s *BackupService) exportBonusRecords(ctx context.Context, b *BackupData) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, points_awarded, reason, created_at FROM bonus_records ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	b.BonusRecords = []models.BonusRecord{}
	for rows.Next() {
		var bonus models.BonusRecord
		if err := rows.Scan(&bonus.ID, &bonus.UserID, &bonus.PointsAwarded, &bonus.Reason, &bonus.CreatedAt); err != nil {
			return err
		}
		b.BonusRecords = append(b.BonusRecords, bonus)
	}
	return rows.Err()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MegMacD/wordpointe-sub001/internal/database"
	"github.com/MegMacD/wordpointe-sub001/internal/metrics"
	"github.com/MegMacD/wordpointe-sub001/internal/models"
	"github.com/MegMacD/wordpointe-sub001/internal/repository"
	"github.com/MegMacD/wordpointe-sub001/internal/validation"
	log "github.com/sirupsen/logrus"
)

// RecordService handles memory work completions
type RecordService struct {
	db       *database.DB
	verses   *repository.VerseRecordRepository
	users    *repository.UserRepository
	items    *repository.MemoryItemRepository
	settings *SettingsService
}

// NewRecordService creates a new record service
func NewRecordService(
	db *database.DB,
	verses *repository.VerseRecordRepository,
	users *repository.UserRepository,
	items *repository.MemoryItemRepository,
	settings *SettingsService,
) *RecordService {
	return &RecordService{
		db:       db,
		verses:   verses,
		users:    users,
		items:    items,
		settings: settings,
	}
}

// GetRecordInfo reports how many times a user has completed a memory item.
// The item is not required to exist.
func (s *RecordService) GetRecordInfo(ctx context.Context, userID, memoryItemID int64) (*models.RecordInfo, error) {
	if err := validation.ValidateID("user_id", userID); err != nil {
		return nil, err
	}
	if err := validation.ValidateID("memory_item_id", memoryItemID); err != nil {
		return nil, err
	}

	count, err := s.verses.CountByUserAndItem(ctx, userID, memoryItemID)
	if err != nil {
		return nil, err
	}
	info := models.NewRecordInfo(userID, memoryItemID, count)
	return &info, nil
}

// CreateVerseRecord records a completion and awards first or repeat points.
// The count is re-read inside the transaction; a concurrent insert for the
// same pair fails on the occurrence unique index and returns ErrConflict.
func (s *RecordService) CreateVerseRecord(ctx context.Context, userID, memoryItemID int64) (*models.VerseRecord, error) {
	if err := validation.ValidateID("user_id", userID); err != nil {
		return nil, err
	}
	if err := validation.ValidateID("memory_item_id", memoryItemID); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	item, err := s.items.GetByID(ctx, memoryItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("memory item %d: %w", memoryItemID, ErrNotFound)
	}

	// Read before the transaction: the lazy insert must not run inside it
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	var rec *models.VerseRecord
	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		verses := s.verses.WithTx(tx)
		count, err := verses.CountByUserAndItem(ctx, userID, memoryItemID)
		if err != nil {
			return err
		}
		rec = &models.VerseRecord{
			UserID:        userID,
			MemoryItemID:  memoryItemID,
			Occurrence:    count + 1,
			PointsAwarded: settings.PointsFor(count),
		}
		return verses.Create(ctx, rec)
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, err
	}

	metrics.RecordPointsAwarded("verse", rec.PointsAwarded)
	log.WithFields(log.Fields{
		"user_id":        userID,
		"memory_item_id": memoryItemID,
		"occurrence":     rec.Occurrence,
		"points":         rec.PointsAwarded,
	}).Info("Verse record created")
	return rec, nil
}

// ListByUser returns a user's verse records, newest first
func (s *RecordService) ListByUser(ctx context.Context, userID int64) ([]models.VerseRecord, error) {
	if err := validation.ValidateID("user_id", userID); err != nil {
		return nil, err
	}
	return s.verses.ListByUser(ctx, userID)
}

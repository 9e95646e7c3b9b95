package service

import (
	"context"
	"fmt"

	"github.com/MegMacD/wordpointe-sub001/internal/database"
	"github.com/MegMacD/wordpointe-sub001/internal/metrics"
	"github.com/MegMacD/wordpointe-sub001/internal/models"
	"github.com/MegMacD/wordpointe-sub001/internal/repository"
	"github.com/MegMacD/wordpointe-sub001/internal/validation"
	log "github.com/sirupsen/logrus"
)

// SpendService handles point redemptions and their undo
type SpendService struct {
	db     *database.DB
	spends *repository.SpendRecordRepository
	points *repository.PointsRepository
}

// NewSpendService creates a new spend service
func NewSpendService(db *database.DB, spends *repository.SpendRecordRepository, points *repository.PointsRepository) *SpendService {
	return &SpendService{db: db, spends: spends, points: points}
}

// CreateSpend records a redemption. It fails with ErrInsufficientPoints when
// points exceed the user's current balance.
func (s *SpendService) CreateSpend(ctx context.Context, userID int64, points int, description string) (*models.SpendRecord, error) {
	if err := validation.ValidateID("user_id", userID); err != nil {
		return nil, err
	}
	if err := validation.ValidatePositivePoints("points_spent", points); err != nil {
		return nil, err
	}
	if err := validation.ValidateText("description", description); err != nil {
		return nil, err
	}

	rec := &models.SpendRecord{UserID: userID, PointsSpent: points, Description: description}
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		ledger := s.points.WithTx(tx)
		exists, err := ledger.LockBalance(ctx, userID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}

		summary, err := ledger.GetSummary(ctx, userID)
		if err != nil {
			return err
		}
		if summary == nil {
			return fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		if points > summary.CurrentPoints {
			return fmt.Errorf("%w: balance is %d", ErrInsufficientPoints, summary.CurrentPoints)
		}
		return s.spends.WithTx(tx).Create(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordPointsSpent("spend", points)
	log.WithFields(log.Fields{
		"spend_id": rec.ID,
		"user_id":  userID,
		"points":   points,
	}).Info("Spend record created")
	return rec, nil
}

// UndoSpend marks a spend record undone so it no longer counts against the
// balance. A failed attempt leaves the record unchanged.
func (s *SpendService) UndoSpend(ctx context.Context, id int64) (*models.SpendRecord, error) {
	rec, err := s.spends.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("spend record %d: %w", id, ErrNotFound)
	}
	if rec.Undone {
		return nil, ErrAlreadyUndone
	}

	changed, err := s.spends.MarkUndone(ctx, id)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Lost a race with another undo
		return nil, ErrAlreadyUndone
	}

	updated, err := s.spends.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("spend record %d: %w", id, ErrNotFound)
	}

	metrics.RecordPointsSpent("undo", updated.PointsSpent)
	log.WithFields(log.Fields{
		"spend_id": id,
		"user_id":  updated.UserID,
		"points":   updated.PointsSpent,
	}).Info("Spend record undone")
	return updated, nil
}

// ListSpends returns a user's spend records, newest first
func (s *SpendService) ListSpends(ctx context.Context, userID int64) ([]models.SpendRecord, error) {
	if err := validation.ValidateID("user_id", userID); err != nil {
		return nil, err
	}
	return s.spends.ListByUser(ctx, userID)
}

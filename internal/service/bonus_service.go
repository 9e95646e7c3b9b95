package service

import (
	"context"
	"fmt"

	"github.com/MegMacD/wordpointe-sub001/internal/metrics"
	"github.com/MegMacD/wordpointe-sub001/internal/models"
	"github.com/MegMacD/wordpointe-sub001/internal/repository"
	"github.com/MegMacD/wordpointe-sub001/internal/validation"
	log "github.com/sirupsen/logrus"
)

// BonusService handles manual point adjustments
type BonusService struct {
	bonus *repository.BonusRecordRepository
	users *repository.UserRepository
}

// NewBonusService creates a new bonus service
func NewBonusService(bonus *repository.BonusRecordRepository, users *repository.UserRepository) *BonusService {
	return &BonusService{bonus: bonus, users: users}
}

// Create records an adjustment. points may be negative but not zero.
// Callers must have checked admin privilege.
func (s *BonusService) Create(ctx context.Context, userID int64, points int, reason string) (*models.BonusRecord, error) {
	if err := validation.ValidateID("user_id", userID); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonZeroPoints("points_awarded", points); err != nil {
		return nil, err
	}
	if err := validation.ValidateText("reason", reason); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}

	rec := &models.BonusRecord{UserID: userID, PointsAwarded: points, Reason: reason}
	if err := s.bonus.Create(ctx, rec); err != nil {
		return nil, err
	}

	metrics.RecordPointsAwarded("bonus", points)
	log.WithFields(log.Fields{
		"bonus_id": rec.ID,
		"user_id":  userID,
		"points":   points,
	}).Info("Bonus record created")
	return rec, nil
}

// List returns a user's adjustments, newest first
func (s *BonusService) List(ctx context.Context, userID int64) ([]models.BonusRecord, error) {
	if err := validation.ValidateID("user_id", userID); err != nil {
		return nil, err
	}
	return s.bonus.ListByUser(ctx, userID)
}

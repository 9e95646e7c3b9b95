package service

import (
	"context"
	"fmt"

	"github.com/MegMacD/wordpointe-sub001/internal/models"
	"github.com/MegMacD/wordpointe-sub001/internal/repository"
)

// PointsService reads balances derived from the ledger
type PointsService struct {
	points *repository.PointsRepository
}

// NewPointsService creates a new points service
func NewPointsService(points *repository.PointsRepository) *PointsService {
	return &PointsService{points: points}
}

// Balance returns one user's totals
func (s *PointsService) Balance(ctx context.Context, userID int64) (*models.PointsSummary, error) {
	summary, err := s.points.GetSummary(ctx, userID)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return summary, nil
}

// Summaries returns every user's totals ordered by current points, highest first
func (s *PointsService) Summaries(ctx context.Context) ([]models.PointsSummary, error) {
	return s.points.ListSummaries(ctx)
}

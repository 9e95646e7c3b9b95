package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/MegMacD/wordpointe-sub001/internal/models"
	"github.com/MegMacD/wordpointe-sub001/internal/repository"
	"github.com/MegMacD/wordpointe-sub001/internal/validation"
	log "github.com/sirupsen/logrus"
)

// SettingsService manages the singleton settings row
type SettingsService struct {
	repo *repository.SettingsRepository
}

// NewSettingsService creates a new settings service
func NewSettingsService(repo *repository.SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

// Get returns the settings, creating the default row on first use
func (s *SettingsService) Get(ctx context.Context) (*models.Settings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if settings != nil {
		return settings, nil
	}

	if err := s.repo.CreateIfMissing(ctx, models.DefaultSettings()); err != nil {
		return nil, err
	}
	log.Info("Created default settings")

	settings, err = s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, fmt.Errorf("settings row missing after insert")
	}
	return settings, nil
}

// Update merges patch into the current settings and stores the result.
// Callers must have checked admin privilege.
func (s *SettingsService) Update(ctx context.Context, patch models.SettingsPatch) (*models.Settings, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	if patch.BibleVersion != nil {
		v := strings.ToUpper(strings.TrimSpace(*patch.BibleVersion))
		patch.BibleVersion = &v
	}
	updated := patch.Apply(*current)
	if err := validation.ValidateSettings(updated); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, updated); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"default_points_first":  updated.DefaultPointsFirst,
		"default_points_repeat": updated.DefaultPointsRepeat,
		"bible_version":         updated.BibleVersion,
	}).Info("Settings updated")

	return s.repo.Get(ctx)
}

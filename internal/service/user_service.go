package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MegMacD/wordpointe-sub001/internal/models"
	"github.com/MegMacD/wordpointe-sub001/internal/repository"
	"github.com/MegMacD/wordpointe-sub001/internal/security"
	"github.com/MegMacD/wordpointe-sub001/internal/validation"
	log "github.com/sirupsen/logrus"
)

// UserService provisions participants and reads them with their balances
type UserService struct {
	users  *repository.UserRepository
	points *repository.PointsRepository
}

// NewUserService creates a new user service
func NewUserService(users *repository.UserRepository, points *repository.PointsRepository) *UserService {
	return &UserService{users: users, points: points}
}

// Create provisions a user. An empty password leaves the user unable to log
// in, which is the normal case for students.
func (s *UserService) Create(ctx context.Context, name string, role models.Role, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}
	if role == "" {
		role = models.RoleStudent
	}
	if err := validation.ValidateRole(role); err != nil {
		return nil, err
	}

	var hash string
	if password != "" {
		if err := validation.ValidatePassword(password); err != nil {
			return nil, err
		}
		var err error
		if hash, err = security.HashPassword(password); err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
	}

	user, err := s.users.CreateUser(ctx, name, role, hash)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, validation.ValidationError{Field: "name", Message: "name already taken"}
	}
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"user_id": user.ID, "role": role}).Info("User created")
	return user, nil
}

// SetPassword replaces a user's password
func (s *UserService) SetPassword(ctx context.Context, name, password string) error {
	if err := validation.ValidatePassword(password); err != nil {
		return err
	}
	user, err := s.users.GetUserByName(ctx, name)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %q: %w", name, ErrNotFound)
	}
	hash, err := security.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, user.ID, hash)
}

// Get returns a user with their point totals
func (s *UserService) Get(ctx context.Context, id int64) (*models.UserWithPoints, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}

	summary, err := s.points.GetSummary(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &models.UserWithPoints{User: *user}
	if summary != nil {
		out.Points = *summary
	}
	return out, nil
}

// List returns every user with their point totals, ordered by name
func (s *UserService) List(ctx context.Context) ([]models.UserWithPoints, error) {
	users, err := s.users.GetAllUsers(ctx)
	if err != nil {
		return nil, err
	}
	summaries, err := s.points.ListSummaries(ctx)
	if err != nil {
		return nil, err
	}

	byUser := make(map[int64]models.PointsSummary, len(summaries))
	for _, sum := range summaries {
		byUser[sum.UserID] = sum
	}

	out := make([]models.UserWithPoints, 0, len(users))
	for _, u := range users {
		out = append(out, models.UserWithPoints{User: u, Points: byUser[u.ID]})
	}
	return out, nil
}

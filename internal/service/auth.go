package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/MegMacD/wordpointe-sub001/internal/models"
	"github.com/MegMacD/wordpointe-sub001/internal/repository"
	"github.com/MegMacD/wordpointe-sub001/internal/security"
	"github.com/MegMacD/wordpointe-sub001/internal/validation"
	log "github.com/sirupsen/logrus"
)

// Authenticator establishes and checks the identity behind a request.
// CurrentUser returns nil, nil for anonymous requests.
type Authenticator interface {
	Login(w http.ResponseWriter, r *http.Request, name, password string) (*models.User, error)
	Logout(w http.ResponseWriter, r *http.Request) error
	CurrentUser(r *http.Request) (*models.User, error)
	RequireAuth(r *http.Request) (*models.User, error)
	RequireAdmin(r *http.Request) (*models.User, error)
}

// checkCredentials verifies a name/password pair. Unknown users and users
// without a password fail the same way as a wrong password.
func checkCredentials(ctx context.Context, users *repository.UserRepository, name, password string) (*models.User, error) {
	if err := validation.ValidateCredentials(name, password); err != nil {
		return nil, err
	}

	user, err := users.GetUserByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !security.CheckPassword(password, user.PasswordHash) {
		log.WithField("name", name).Info("Failed login attempt")
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func requireUser(user *models.User, err error) (*models.User, error) {
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthorized
	}
	return user, nil
}

func requireLeader(user *models.User, err error) (*models.User, error) {
	user, err = requireUser(user, err)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleLeader {
		return nil, ErrUnauthorized
	}
	return user, nil
}

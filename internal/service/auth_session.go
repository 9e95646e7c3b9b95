package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/MegMacD/wordpointe-sub001/internal/models"
	"github.com/MegMacD/wordpointe-sub001/internal/repository"
	"github.com/MegMacD/wordpointe-sub001/internal/security"
	log "github.com/sirupsen/logrus"
)

// SessionAuthenticator keeps sessions in the database and hands the client
// an opaque session id cookie
type SessionAuthenticator struct {
	users           *repository.UserRepository
	sessionDuration time.Duration
}

// NewSessionAuthenticator creates a database-backed authenticator
func NewSessionAuthenticator(users *repository.UserRepository, sessionDuration time.Duration) *SessionAuthenticator {
	return &SessionAuthenticator{users: users, sessionDuration: sessionDuration}
}

// Login checks credentials, stores a session and sets the session cookie
func (a *SessionAuthenticator) Login(w http.ResponseWriter, r *http.Request, name, password string) (*models.User, error) {
	ctx := r.Context()
	user, err := checkCredentials(ctx, a.users, name, password)
	if err != nil {
		return nil, err
	}

	sessionID := security.GenerateSessionID()
	expiresAt := time.Now().Add(a.sessionDuration)
	if _, err := a.users.CreateSession(ctx, sessionID, user.ID, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	http.SetCookie(w, security.CreateSessionCookie(r, sessionID, expiresAt))
	return user, nil
}

// Logout deletes the session and clears the cookie. Logging out without a
// session is not an error.
func (a *SessionAuthenticator) Logout(w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, security.CreateDeleteCookie(r))

	cookie, err := r.Cookie(security.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	if err := a.users.DeleteSession(r.Context(), cookie.Value); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// CurrentUser resolves the session cookie to a user
func (a *SessionAuthenticator) CurrentUser(r *http.Request) (*models.User, error) {
	cookie, err := r.Cookie(security.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	ctx := r.Context()
	session, err := a.users.GetSession(ctx, cookie.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	if session.IsExpired() {
		if err := a.users.DeleteSession(ctx, session.ID); err != nil {
			log.WithError(err).Warn("Failed to delete expired session")
		}
		return nil, nil
	}

	user, err := a.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// RequireAuth returns the current user or ErrUnauthorized
func (a *SessionAuthenticator) RequireAuth(r *http.Request) (*models.User, error) {
	return requireUser(a.CurrentUser(r))
}

// RequireAdmin returns the current user if they are a leader, otherwise ErrUnauthorized
func (a *SessionAuthenticator) RequireAdmin(r *http.Request) (*models.User, error) {
	return requireLeader(a.CurrentUser(r))
}

// CleanupExpiredSessions removes expired sessions from the database
func (a *SessionAuthenticator) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	n, err := a.users.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	return n, nil
}

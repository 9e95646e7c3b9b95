package service

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/MegMacD/wordpointe-sub001/internal/models"
	"github.com/MegMacD/wordpointe-sub001/internal/repository"
	"github.com/MegMacD/wordpointe-sub001/internal/security"
	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
)

const tokenIssuer = "wordpointe"

// TokenAuthenticator issues a signed token cookie and keeps no server-side state
type TokenAuthenticator struct {
	users  *repository.UserRepository
	secret []byte
	ttl    time.Duration
}

type tokenClaims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// NewTokenAuthenticator creates a stateless authenticator signing with secret (HS256)
func NewTokenAuthenticator(users *repository.UserRepository, secret string, ttl time.Duration) (*TokenAuthenticator, error) {
	if len(secret) < 32 {
		return nil, errors.New("token auth secret must be at least 32 bytes")
	}
	return &TokenAuthenticator{users: users, secret: []byte(secret), ttl: ttl}, nil
}

// Login checks credentials and sets a signed token cookie
func (a *TokenAuthenticator) Login(w http.ResponseWriter, r *http.Request, name, password string) (*models.User, error) {
	user, err := checkCredentials(r.Context(), a.users, name, password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	expiresAt := now.Add(a.ttl)
	claims := tokenClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	http.SetCookie(w, security.CreateSessionCookie(r, signed, expiresAt))
	return user, nil
}

// Logout clears the token cookie
func (a *TokenAuthenticator) Logout(w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, security.CreateDeleteCookie(r))
	return nil
}

// CurrentUser verifies the token and loads the user it names. Invalid or
// expired tokens are treated as anonymous.
func (a *TokenAuthenticator) CurrentUser(r *http.Request) (*models.User, error) {
	cookie, err := r.Cookie(security.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	claims := &tokenClaims{}
	_, err = jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		log.WithError(err).Debug("Rejected auth token")
		return nil, nil
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, nil
	}

	// Role is re-read from the database so demotions apply before the token expires
	user, err := a.users.GetUserByID(r.Context(), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// RequireAuth returns the current user or ErrUnauthorized
func (a *TokenAuthenticator) RequireAuth(r *http.Request) (*models.User, error) {
	return requireUser(a.CurrentUser(r))
}

// RequireAdmin returns the current user if they are a leader, otherwise ErrUnauthorized
func (a *TokenAuthenticator) RequireAdmin(r *http.Request) (*models.User, error) {
	return requireLeader(a.CurrentUser(r))
}

package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MegMacD/wordpointe-sub001/internal/database"
	"github.com/MegMacD/wordpointe-sub001/internal/models"
	"github.com/MegMacD/wordpointe-sub001/internal/repository"
	"github.com/MegMacD/wordpointe-sub001/internal/security"
	"github.com/MegMacD/wordpointe-sub001/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func authenticators(t *testing.T, db *database.DB) map[string]Authenticator {
	t.Helper()
	users := repository.NewUserRepository(db)
	token, err := NewTokenAuthenticator(users, testSecret, time.Hour)
	require.NoError(t, err)
	return map[string]Authenticator{
		"session": NewSessionAuthenticator(users, time.Hour),
		"token":   token,
	}
}

// login performs a login and returns a request carrying the resulting cookie
func login(t *testing.T, auth Authenticator, name, password string) (*models.User, *http.Request, error) {
	t.Helper()
	rec := httptest.NewRecorder()
	user, err := auth.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil), name, password)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		next.AddCookie(c)
	}
	return user, next, err
}

func TestAuthenticatorBehaviour(t *testing.T) {
	db := testutil.SetupTestDatabase(t)
	testutil.CreateUser(t, db, "Deborah", models.RoleLeader, "judge-of-israel")
	testutil.CreateUser(t, db, "Barak", models.RoleStudent, "commander1")
	testutil.CreateUser(t, db, "Jael", models.RoleStudent, "")

	for name, auth := range authenticators(t, db) {
		t.Run(name, func(t *testing.T) {
			t.Run("anonymous request", func(t *testing.T) {
				req := httptest.NewRequest(http.MethodGet, "/", nil)
				user, err := auth.CurrentUser(req)
				require.NoError(t, err)
				assert.Nil(t, user)

				_, err = auth.RequireAuth(req)
				assert.ErrorIs(t, err, ErrUnauthorized)
				_, err = auth.RequireAdmin(req)
				assert.ErrorIs(t, err, ErrUnauthorized)
			})

			t.Run("wrong password", func(t *testing.T) {
				_, _, err := login(t, auth, "Deborah", "wrong-password")
				assert.ErrorIs(t, err, ErrInvalidCredentials)
			})

			t.Run("unknown user", func(t *testing.T) {
				_, _, err := login(t, auth, "Sisera", "whatever1")
				assert.ErrorIs(t, err, ErrInvalidCredentials)
			})

			t.Run("user without password cannot log in", func(t *testing.T) {
				_, _, err := login(t, auth, "Jael", "")
				assertValidationField(t, err, "password")
				_, _, err = login(t, auth, "Jael", "anything1")
				assert.ErrorIs(t, err, ErrInvalidCredentials)
			})

			t.Run("leader is admin", func(t *testing.T) {
				user, req, err := login(t, auth, "Deborah", "judge-of-israel")
				require.NoError(t, err)
				assert.Equal(t, "Deborah", user.Name)

				current, err := auth.RequireAdmin(req)
				require.NoError(t, err)
				assert.Equal(t, user.ID, current.ID)
			})

			t.Run("student is authenticated but not admin", func(t *testing.T) {
				_, req, err := login(t, auth, "Barak", "commander1")
				require.NoError(t, err)

				current, err := auth.RequireAuth(req)
				require.NoError(t, err)
				assert.Equal(t, "Barak", current.Name)

				_, err = auth.RequireAdmin(req)
				assert.ErrorIs(t, err, ErrUnauthorized)
			})

			t.Run("logout clears cookie", func(t *testing.T) {
				_, req, err := login(t, auth, "Barak", "commander1")
				require.NoError(t, err)

				rec := httptest.NewRecorder()
				require.NoError(t, auth.Logout(rec, req))

				cookies := rec.Result().Cookies()
				require.Len(t, cookies, 1)
				assert.Equal(t, security.SessionCookieName, cookies[0].Name)
				assert.Equal(t, -1, cookies[0].MaxAge)
			})

			t.Run("tampered cookie is anonymous", func(t *testing.T) {
				req := httptest.NewRequest(http.MethodGet, "/", nil)
				req.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: "forged"})
				user, err := auth.CurrentUser(req)
				require.NoError(t, err)
				assert.Nil(t, user)
			})
		})
	}
}

func TestSessionLogoutInvalidatesServerSession(t *testing.T) {
	db := testutil.SetupTestDatabase(t)
	testutil.CreateUser(t, db, "Hannah", models.RoleLeader, "samuel-born")
	auth := NewSessionAuthenticator(repository.NewUserRepository(db), time.Hour)

	_, req, err := login(t, auth, "Hannah", "samuel-born")
	require.NoError(t, err)

	require.NoError(t, auth.Logout(httptest.NewRecorder(), req))

	// The old cookie no longer resolves
	user, err := auth.CurrentUser(req)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestSessionExpiryAndCleanup(t *testing.T) {
	db := testutil.SetupTestDatabase(t)
	leader := testutil.CreateUser(t, db, "Eli", models.RoleLeader, "")
	users := repository.NewUserRepository(db)
	auth := NewSessionAuthenticator(users, time.Hour)
	ctx := context.Background()

	_, err := users.CreateSession(ctx, "expired-session", leader.ID, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	_, err = users.CreateSession(ctx, "other-expired", leader.ID, time.Now().Add(-time.Minute))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: "expired-session"})
	user, err := auth.CurrentUser(req)
	require.NoError(t, err)
	assert.Nil(t, user)

	removed, err := auth.CleanupExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestTokenAuthenticatorRejectsShortSecret(t *testing.T) {
	db := testutil.SetupTestDatabase(t)
	_, err := NewTokenAuthenticator(repository.NewUserRepository(db), "short", time.Hour)
	assert.Error(t, err)
}

func TestTokenAuthenticatorRejectsOtherSecret(t *testing.T) {
	db := testutil.SetupTestDatabase(t)
	testutil.CreateUser(t, db, "Gideon", models.RoleLeader, "fleece-test")
	users := repository.NewUserRepository(db)

	issuer, err := NewTokenAuthenticator(users, testSecret, time.Hour)
	require.NoError(t, err)
	verifier, err := NewTokenAuthenticator(users, strings.Repeat("z", 32), time.Hour)
	require.NoError(t, err)

	_, req, err := login(t, issuer, "Gideon", "fleece-test")
	require.NoError(t, err)

	user, err := verifier.CurrentUser(req)
	require.NoError(t, err)
	assert.Nil(t, user)
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MegMacD/wordpointe-sub001/internal/models"
	"github.com/MegMacD/wordpointe-sub001/internal/security"
	"github.com/MegMacD/wordpointe-sub001/internal/service"
	log "github.com/sirupsen/logrus"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const UserContextKey ContextKey = "user"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	auth         service.Authenticator
	loginLimiter *security.RateLimiter
	clientIP     *security.ClientIPResolver
}

// NewMiddleware creates a new middleware instance. A nil clientIP keys the
// rate limiter by peer address only.
func NewMiddleware(auth service.Authenticator, loginLimiter *security.RateLimiter, clientIP *security.ClientIPResolver) *Middleware {
	return &Middleware{auth: auth, loginLimiter: loginLimiter, clientIP: clientIP}
}

// RequireAuth is middleware that requires an authenticated user
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return m.require(m.auth.RequireAuth, next)
}

// RequireAdmin is middleware that requires a leader
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.require(m.auth.RequireAdmin, next)
}

func (m *Middleware) require(check func(*http.Request) (*models.User, error), next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := check(r)
		if err != nil {
			respondWithServiceError(w, "Authorization check failed", err)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

// RateLimit limits requests per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := m.clientIP.ClientIP(r)
		if !m.loginLimiter.Allow(ip) {
			log.WithFields(log.Fields{"ip": ip, "path": r.URL.Path}).Warn("Rate limit exceeded")
			respondWithError(w, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
			return
		}
		next(w, r)
	}
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Info("Request handled")
	})
}

// GetUserFromContext retrieves the user from the request context
func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// actorLog returns a log entry tagged with the authenticated user behind r
func actorLog(r *http.Request) *log.Entry {
	entry := log.WithField("path", r.URL.Path)
	if user := GetUserFromContext(r.Context()); user != nil {
		entry = entry.WithFields(log.Fields{"actor_id": user.ID, "actor": user.Name})
	}
	return entry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

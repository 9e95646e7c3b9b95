package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether the datastore is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Healthz handles GET /healthz
func Healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			respondWithError(w, http.StatusServiceUnavailable, "Database unavailable", "Health check failed", err)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

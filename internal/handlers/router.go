package handlers

import (
	"net/http"

	"github.com/MegMacD/wordpointe-sub001/internal/metrics"
	"github.com/gorilla/mux"
)

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Auth        *AuthHandler
	Bible       *BibleHandler
	Records     *RecordHandler
	Spend       *SpendHandler
	Bonus       *BonusHandler
	Settings    *SettingsHandler
	Users       *UserHandler
	MemoryItems *MemoryItemHandler
	Reports     *ReportHandler
	Health      http.HandlerFunc
}

// NewRouter wires routes, auth requirements and instrumentation
func NewRouter(h Handlers, m *Middleware) http.Handler {
	r := mux.NewRouter()
	r.Use(metrics.InstrumentHandler)

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// Auth
	api.HandleFunc("/auth/login", m.RateLimit(h.Auth.Login)).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", h.Auth.Logout).Methods(http.MethodPost)
	api.HandleFunc("/auth/me", h.Auth.Me).Methods(http.MethodGet)

	// Bible
	api.HandleFunc("/bible/verse", h.Bible.GetVerse).Methods(http.MethodGet)
	api.HandleFunc("/bible/validate", h.Bible.Validate).Methods(http.MethodGet)

	// Ledger
	api.HandleFunc("/records/check", m.RequireAuth(h.Records.Check)).Methods(http.MethodGet)
	api.HandleFunc("/records", m.RequireAuth(h.Records.List)).Methods(http.MethodGet)
	api.HandleFunc("/records", m.RequireAuth(h.Records.Create)).Methods(http.MethodPost)
	api.HandleFunc("/spend", m.RequireAuth(h.Spend.List)).Methods(http.MethodGet)
	api.HandleFunc("/spend", m.RequireAuth(h.Spend.Create)).Methods(http.MethodPost)
	api.HandleFunc("/spend/{id:[0-9]+}/undo", m.RequireAuth(h.Spend.Undo)).Methods(http.MethodPost)
	api.HandleFunc("/bonus", m.RequireAuth(h.Bonus.List)).Methods(http.MethodGet)
	api.HandleFunc("/bonus", m.RequireAdmin(h.Bonus.Create)).Methods(http.MethodPost)

	// Settings
	api.HandleFunc("/settings", h.Settings.Get).Methods(http.MethodGet)
	api.HandleFunc("/settings", m.RequireAdmin(h.Settings.Update)).Methods(http.MethodPatch)

	// Participants and memory items
	api.HandleFunc("/users", m.RequireAuth(h.Users.List)).Methods(http.MethodGet)
	api.HandleFunc("/users", m.RequireAdmin(h.Users.Create)).Methods(http.MethodPost)
	api.HandleFunc("/users/{id:[0-9]+}", m.RequireAuth(h.Users.Get)).Methods(http.MethodGet)
	api.HandleFunc("/memory-items", h.MemoryItems.List).Methods(http.MethodGet)
	api.HandleFunc("/memory-items", m.RequireAdmin(h.MemoryItems.Create)).Methods(http.MethodPost)
	api.HandleFunc("/memory-items/{id:[0-9]+}", h.MemoryItems.Get).Methods(http.MethodGet)

	// Reports
	api.HandleFunc("/reports/users-csv", m.RequireAuth(h.Reports.UsersCSV)).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, "Not found", "", nil)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed", "", nil)
	})

	return Logging(r)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/MegMacD/wordpointe-sub001/internal/bible"
	"github.com/MegMacD/wordpointe-sub001/internal/config"
	"github.com/MegMacD/wordpointe-sub001/internal/handlers"
	"github.com/MegMacD/wordpointe-sub001/internal/repository"
	"github.com/MegMacD/wordpointe-sub001/internal/security"
	"github.com/MegMacD/wordpointe-sub001/internal/service"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const sessionCleanupInterval = time.Hour

func serveCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.ServerPort, "port", cfg.ServerPort, "Port to listen on")
	cmd.Flags().StringVar(&cfg.AuthMode, "auth-mode", cfg.AuthMode, "Authenticator (session, token)")
	return cmd
}

func runServer(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(cfg, true)
	if err != nil {
		return err
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	pointsRepo := repository.NewPointsRepository(db)
	itemRepo := repository.NewMemoryItemRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	// Initialize services
	auth, sessions, err := newAuthenticator(cfg, userRepo)
	if err != nil {
		return err
	}
	settingsService := service.NewSettingsService(settingsRepo)
	pointsService := service.NewPointsService(pointsRepo)

	verses, closeCache := newVerseClient(ctx, cfg)
	defer closeCache()

	loginLimiter := security.NewRateLimiter(cfg.LoginRatePerMinute)
	clientIP, err := security.NewClientIPResolver(cfg.TrustedProxies)
	if err != nil {
		return err
	}

	// Initialize handlers
	h := handlers.Handlers{
		Auth:        handlers.NewAuthHandler(auth),
		Bible:       handlers.NewBibleHandler(verses, settingsService),
		Records:     handlers.NewRecordHandler(service.NewRecordService(db, repository.NewVerseRecordRepository(db), userRepo, itemRepo, settingsService)),
		Spend:       handlers.NewSpendHandler(service.NewSpendService(db, repository.NewSpendRecordRepository(db), pointsRepo)),
		Bonus:       handlers.NewBonusHandler(service.NewBonusService(repository.NewBonusRecordRepository(db), userRepo)),
		Settings:    handlers.NewSettingsHandler(settingsService),
		Users:       handlers.NewUserHandler(service.NewUserService(userRepo, pointsRepo)),
		MemoryItems: handlers.NewMemoryItemHandler(service.NewMemoryItemService(itemRepo)),
		Reports:     handlers.NewReportHandler(service.NewReportService(pointsService)),
		Health:      handlers.Healthz(db),
	}
	router := handlers.NewRouter(h, handlers.NewMiddleware(auth, loginLimiter, clientIP))

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background cleanup
	done := make(chan struct{})
	defer close(done)
	loginLimiter.StartCleanup(10*time.Minute, done)
	if sessions != nil {
		go cleanupExpiredSessions(sessions, done)
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{"addr": addr, "auth_mode": cfg.AuthMode}).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("Server stopped")
	return nil
}

// newAuthenticator selects the authenticator for cfg.AuthMode. The session
// authenticator is also returned on its own so expired rows can be pruned.
func newAuthenticator(cfg *config.Config, users *repository.UserRepository) (service.Authenticator, *service.SessionAuthenticator, error) {
	switch cfg.AuthMode {
	case config.AuthModeSession:
		sessions := service.NewSessionAuthenticator(users, cfg.SessionDuration)
		return sessions, sessions, nil
	case config.AuthModeToken:
		tokens, err := service.NewTokenAuthenticator(users, cfg.AuthSecret, cfg.SessionDuration)
		if err != nil {
			return nil, nil, err
		}
		return tokens, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown auth mode %q", cfg.AuthMode)
	}
}

// newVerseClient builds the verse lookup client, with a Redis cache when
// REDIS_URL is set. An unreachable Redis disables caching instead of failing startup.
func newVerseClient(ctx context.Context, cfg *config.Config) (*bible.Client, func()) {
	clientCfg := bible.Config{
		APIKey:      cfg.BibleAPIKey,
		APIURL:      cfg.BibleAPIURL,
		FallbackURL: cfg.BibleFallbackURL,
		BibleIDs:    cfg.BibleIDs,
		Timeout:     10 * time.Second,
	}
	if cfg.BibleAPIKey == "" {
		log.Warn("BIBLE_API_KEY not set, verses are served from the public-domain fallback only")
	}

	if cfg.RedisURL == "" {
		return bible.NewClient(clientCfg, nil), func() {}
	}

	cache, err := bible.NewRedisCache(ctx, cfg.RedisURL)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, verse cache disabled")
		return bible.NewClient(clientCfg, nil), func() {}
	}
	log.Info("Verse cache enabled")
	return bible.NewClient(clientCfg, cache), func() { cache.Close() }
}

// cleanupExpiredSessions periodically removes expired sessions
func cleanupExpiredSessions(sessions *service.SessionAuthenticator, done <-chan struct{}) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			removed, err := sessions.CleanupExpiredSessions(context.Background())
			if err != nil {
				log.WithError(err).Error("Error cleaning up expired sessions")
				continue
			}
			log.WithField("removed", removed).Info("Expired sessions cleaned up")
		}
	}
}

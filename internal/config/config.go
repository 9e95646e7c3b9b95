package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Auth modes
const (
	AuthModeSession = "session"
	AuthModeToken   = "token"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	DatabaseType    string
	DatabasePath    string
	DatabaseURL     string
	SessionDuration time.Duration

	// AuthMode selects the authenticator: "session" (database-backed) or "token" (signed cookie)
	AuthMode   string
	AuthSecret string

	BibleAPIKey      string
	BibleAPIURL      string
	BibleFallbackURL string
	// BibleIDs maps a version abbreviation (KJV, ASV...) to an API.Bible bible id
	BibleIDs map[string]string
	RedisURL string

	LogLevel  string
	LogFormat string

	LoginRatePerMinute int
	// TrustedProxies lists proxy addresses or CIDR ranges allowed to set X-Forwarded-For
	TrustedProxies []string
}

// defaultBibleIDs are public-domain translations available on API.Bible
var defaultBibleIDs = map[string]string{
	"KJV": "de4e12af7f28f599-02",
	"ASV": "06125adad2d5898a-01",
	"WEB": "9879dbb7cfe39e4d-04",
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:         getEnv("PORT", "8080"),
		DatabaseType:       getEnv("DB_TYPE", "sqlite"),
		DatabasePath:       getEnv("DB_PATH", "./wordpointe.db"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		SessionDuration:    getEnvDuration("SESSION_DURATION", 7*24*time.Hour),
		AuthMode:           strings.ToLower(getEnv("AUTH_MODE", AuthModeSession)),
		AuthSecret:         getEnv("AUTH_SECRET", ""),
		BibleAPIKey:        getEnv("BIBLE_API_KEY", ""),
		BibleAPIURL:        getEnv("BIBLE_API_URL", "https://api.scripture.api.bible/v1"),
		BibleFallbackURL:   getEnv("BIBLE_FALLBACK_URL", "https://bible-api.com"),
		BibleIDs:           getEnvMap("BIBLE_IDS", defaultBibleIDs),
		RedisURL:           getEnv("REDIS_URL", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
		LoginRatePerMinute: getEnvInt("LOGIN_RATE_PER_MINUTE", 10),
		TrustedProxies:     getEnvList("TRUSTED_PROXIES"),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

// getEnvMap parses "KEY=value,KEY2=value2" and layers it over the defaults.
// Keys are upper-cased.
func getEnvMap(key string, defaults map[string]string) map[string]string {
	out := make(map[string]string, len(defaults))
	for k, v := range defaults {
		out[k] = v
	}
	raw := os.Getenv(key)
	if raw == "" {
		return out
	}
	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || k == "" || v == "" {
			continue
		}
		out[strings.ToUpper(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return out
}

func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

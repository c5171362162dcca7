package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Issuer   string   // Required: issuer claim for tokens
	Audience []string // Optional: audiences stamped into tokens

	RSABits              int           // Optional: RSA key size for RS256 (default: 2048)
	KeyStorageMode       string        // Optional: key storage mode (ephemeral, persistent) (default: ephemeral)
	KeyGracePeriod       time.Duration // Optional: grace period for retired keys (default: 30 days)
	MasterKeyPath        string        // Optional: path to master encryption key file (for persistent keys)
	DatabaseFile         string        // Optional: path to SQLite database file (default: ./auth.db)
	PepperFile           string        // Optional: path to file containing pepper for password hashing (default: ./pepper)
	AccessTokenTTL       time.Duration // Access token lifetime (default: 1h)
	SessionValidity      time.Duration // How long a session stays valid (default: 7 days)
	BlacklistTTL         time.Duration // Default blacklist retention (default: 24h)
	BlacklistBackend     string        // Blacklist backend (db, redis) (default: db)
	RedisAddr            string        // Redis address for the redis blacklist backend
	RedisPassword        string        // Optional: Redis password
	RedisDB              int           // Optional: Redis database number
	BootstrapAdmin       string        // Optional: username for the bootstrap admin (default: admin)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:               getEnvOrDefault("AUTH_ISSUER", "warden-auth"),
		Audience:             splitList(os.Getenv("AUTH_AUDIENCE")),
		RSABits:              getEnvIntOrDefault("AUTH_RSA_BITS", 0),
		KeyStorageMode:       getEnvOrDefault("AUTH_KEY_STORAGE_MODE", "ephemeral"),
		KeyGracePeriod:       getEnvDurationOrDefault("AUTH_KEY_GRACE_PERIOD", 30*24*time.Hour),
		MasterKeyPath:        os.Getenv("AUTH_MASTER_KEY_PATH"),
		DatabaseFile:         getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		PepperFile:           getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		AccessTokenTTL:       getEnvDurationOrDefault("AUTH_ACCESS_TOKEN_TTL", 1*time.Hour),
		SessionValidity:      getEnvDurationOrDefault("AUTH_SESSION_VALIDITY", 7*24*time.Hour),
		BlacklistTTL:         getEnvDurationOrDefault("AUTH_BLACKLIST_TTL", 24*time.Hour),
		BlacklistBackend:     getEnvOrDefault("AUTH_BLACKLIST_BACKEND", "db"),
		RedisAddr:            os.Getenv("AUTH_REDIS_ADDR"),
		RedisPassword:        os.Getenv("AUTH_REDIS_PASSWORD"),
		RedisDB:              getEnvIntOrDefault("AUTH_REDIS_DB", 0),
		BootstrapAdmin:       getEnvOrDefault("AUTH_BOOTSTRAP_ADMIN", "admin"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}

func splitList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

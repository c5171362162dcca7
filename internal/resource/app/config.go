package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AuthBaseURL string   // Required: base URL of the auth service
	JWKSURL     string   // Optional: override JWKS URL (default: {AuthBaseURL}/.well-known/jwks.json)
	Issuer      string   // Expected iss claim (default: warden-auth)
	Audience    []string // Expected aud values (empty disables the check)

	Leeway             time.Duration // Clock skew tolerance for exp/nbf (default: 2m)
	KeyCacheTTL        time.Duration // JWKS cache TTL (default: 10m)
	MinRefreshInterval time.Duration // Throttle between on-miss fetches (default: 5m)
	RefreshInterval    time.Duration // Background refresh cadence (default: 5m)
	GateCacheTTL       time.Duration // Session-gate answer cache (default: 30s)

	CacheBackend string // "memory" or "redis" (default: memory)
	RedisAddr    string // Redis address when CacheBackend=redis

	Env                 string
	LogLevel            string
	LogFormat           string
	Port                int
	ShutdownGracePeriod time.Duration
}

func LoadConfig() Config {
	authBase := getEnvOrDefault("RESOURCE_AUTH_URL", "http://localhost:8080")

	cfg := Config{
		AuthBaseURL:         authBase,
		JWKSURL:             getEnvOrDefault("RESOURCE_JWKS_URL", strings.TrimRight(authBase, "/")+"/.well-known/jwks.json"),
		Issuer:              getEnvOrDefault("RESOURCE_ISSUER", "warden-auth"),
		Audience:            splitList(os.Getenv("RESOURCE_AUDIENCE")),
		Leeway:              getEnvDurationOrDefault("RESOURCE_LEEWAY", 2*time.Minute),
		KeyCacheTTL:         getEnvDurationOrDefault("RESOURCE_KEY_CACHE_TTL", 10*time.Minute),
		MinRefreshInterval:  getEnvDurationOrDefault("RESOURCE_MIN_REFRESH_INTERVAL", 5*time.Minute),
		RefreshInterval:     getEnvDurationOrDefault("RESOURCE_REFRESH_INTERVAL", 5*time.Minute),
		GateCacheTTL:        getEnvDurationOrDefault("RESOURCE_GATE_CACHE_TTL", 30*time.Second),
		CacheBackend:        getEnvOrDefault("RESOURCE_CACHE_BACKEND", "memory"),
		RedisAddr:           getEnvOrDefault("RESOURCE_REDIS_ADDR", "localhost:6379"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8081),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
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

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

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

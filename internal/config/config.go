package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port           string
	AppEnv         string
	MetricsEnabled bool

	// Storage
	DBPath       string
	DatabaseURL  string
	CacheBackend string
	RedisURL     string
	CacheTTL     time.Duration

	// Geocoder
	PrimaryURL     string
	MirrorURL      string
	MaxRetries     int
	RetryDelay     time.Duration
	Backoff        string
	RequestTimeout time.Duration
	TotalTimeout   time.Duration

	// JWT
	JWTSecretKey            string
	JWTAccessTokenExpireMin int
}

func Load() *Config {
	return &Config{
		Port:           Get("PORT", "8080"),
		AppEnv:         Get("APP_ENV", "development"),
		MetricsEnabled: GetBool("METRICS_ENABLED", true),

		DBPath:       Get("DB_PATH", "data/app.db"),
		DatabaseURL:  Get("DATABASE_URL", ""),
		CacheBackend: strings.ToLower(Get("CACHE_BACKEND", "sqlite")),
		RedisURL:     Get("REDIS_URL", "redis://localhost:6379/0"),
		CacheTTL:     GetDuration("CACHE_TTL", 0),

		PrimaryURL:     Get("POSTCODES_PRIMARY_URL", "https://api.postcodes.io"),
		MirrorURL:      Get("POSTCODES_MIRROR_URL", "https://postcodes.io"),
		MaxRetries:     GetInt("GEOCODER_MAX_RETRIES", 2),
		RetryDelay:     GetDuration("GEOCODER_RETRY_DELAY", 200*time.Millisecond),
		Backoff:        strings.ToLower(Get("GEOCODER_BACKOFF", "exponential")),
		RequestTimeout: GetDuration("GEOCODER_REQUEST_TIMEOUT", 3*time.Second),
		TotalTimeout:   GetDuration("GEOCODER_TOTAL_TIMEOUT", 15*time.Second),

		JWTSecretKey:            Get("JWT_SECRET_KEY", ""),
		JWTAccessTokenExpireMin: GetInt("JWT_ACCESS_TOKEN_EXPIRE_MINUTES", 60),
	}
}

// Get returns the value of key, or fallback when it is unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func GetInt(key string, fallback int) int {
	if v, err := strconv.Atoi(Get(key, "")); err == nil {
		return v
	}
	return fallback
}

// GetDuration accepts Go duration strings ("250ms", "1h") or a bare number
// of seconds.
func GetDuration(key string, fallback time.Duration) time.Duration {
	v := Get(key, "")
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func GetBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(Get(key, "")); err == nil {
		return v
	}
	return fallback
}

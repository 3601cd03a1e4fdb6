package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEOCODER_MAX_RETRIES", "")
	t.Setenv("CACHE_BACKEND", "")

	cfg := Load()
	if cfg.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d, want 2", cfg.MaxRetries)
	}
	if cfg.CacheBackend != "sqlite" {
		t.Errorf("CacheBackend = %q, want sqlite", cfg.CacheBackend)
	}
	if cfg.CacheTTL != 0 {
		t.Errorf("CacheTTL = %v, want 0", cfg.CacheTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GEOCODER_MAX_RETRIES", "5")
	t.Setenv("GEOCODER_RETRY_DELAY", "50ms")
	t.Setenv("CACHE_TTL", "3600")
	t.Setenv("CACHE_BACKEND", "Redis")

	cfg := Load()
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}
	if cfg.RetryDelay != 50*time.Millisecond {
		t.Errorf("RetryDelay = %v, want 50ms", cfg.RetryDelay)
	}
	if cfg.CacheTTL != time.Hour {
		t.Errorf("CacheTTL = %v, want 1h", cfg.CacheTTL)
	}
	if cfg.CacheBackend != "redis" {
		t.Errorf("CacheBackend = %q, want redis", cfg.CacheBackend)
	}
}

func TestGetBool(t *testing.T) {
	t.Setenv("FEATURE_X", "true")
	if !GetBool("FEATURE_X", false) {
		t.Errorf("GetBool(FEATURE_X) = false, want true")
	}
	if GetBool("FEATURE_UNSET", false) {
		t.Errorf("GetBool(FEATURE_UNSET) = true, want false")
	}
	t.Setenv("FEATURE_BAD", "maybe")
	if !GetBool("FEATURE_BAD", true) {
		t.Errorf("GetBool(FEATURE_BAD) ignored the fallback")
	}
}

func TestLoadMetricsEnabled(t *testing.T) {
	if !Load().MetricsEnabled {
		t.Errorf("MetricsEnabled defaults to false, want true")
	}
	t.Setenv("METRICS_ENABLED", "false")
	if Load().MetricsEnabled {
		t.Errorf("METRICS_ENABLED=false left metrics on")
	}
}

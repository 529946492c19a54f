package config

import (
	"strings"
	"testing"
	"time"
)

// clearEnv unsets every variable the loader reads so defaults apply.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT", "READ_TIMEOUT", "READ_HEADER_TIMEOUT", "WRITE_TIMEOUT",
		"IDLE_TIMEOUT", "MAX_HEADER_BYTES", "GIN_MODE", "LOG_LEVEL",
		"LOG_PRETTY", "DB_PATH", "BOT_TOKEN", "WEBHOOK_URL", "WEBHOOK_SECRET",
		"ADMIN_CHAT_ID", "SESSION_TTL", "SESSION_BACKEND", "MONGODB_URI",
		"REDIS_ADDR", "SEARCH_WINDOW", "SEARCH_LIMIT",
		"DELIVERY_CONCURRENCY_PER_USER", "LOOKUP_MAX_ATTEMPTS",
		"LOOKUP_BASE_DELAY", "RATE_RPS", "RATE_BURST", "OTEL_ENABLED",
		"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_INSECURE",
		"OTEL_SERVICE_NAME", "OTEL_TRACES_SAMPLER_ARG",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port default = %q", cfg.Port)
	}
	if cfg.Session.TTL != 600*time.Second {
		t.Fatalf("Session.TTL default = %v", cfg.Session.TTL)
	}
	if cfg.Session.Backend != BackendSQLite {
		t.Fatalf("Session.Backend default = %q", cfg.Session.Backend)
	}
	if cfg.Limits.SearchWindow != 15*time.Second || cfg.Limits.SearchLimit != 5 {
		t.Fatalf("search limits = %v/%d", cfg.Limits.SearchWindow, cfg.Limits.SearchLimit)
	}
	if cfg.Limits.DeliveryConcurrency != 1 {
		t.Fatalf("DeliveryConcurrency default = %d", cfg.Limits.DeliveryConcurrency)
	}
	if cfg.Retry.MaxAttempts != 3 || cfg.Retry.BaseDelay != 700*time.Millisecond {
		t.Fatalf("retry defaults = %d/%v", cfg.Retry.MaxAttempts, cfg.Retry.BaseDelay)
	}
	if cfg.LogLevel != "info" || cfg.GinMode != "release" {
		t.Fatalf("log/gin defaults = %q/%q", cfg.LogLevel, cfg.GinMode)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_TTL", "5m")
	t.Setenv("SEARCH_LIMIT", "7")
	t.Setenv("DELIVERY_CONCURRENCY_PER_USER", "2")
	t.Setenv("ADMIN_CHAT_ID", "-1001234567890")
	t.Setenv("LOG_LEVEL", "WARNING")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Session.TTL != 5*time.Minute {
		t.Fatalf("Session.TTL = %v", cfg.Session.TTL)
	}
	if cfg.Limits.SearchLimit != 7 {
		t.Fatalf("SearchLimit = %d", cfg.Limits.SearchLimit)
	}
	if cfg.Limits.DeliveryConcurrency != 2 {
		t.Fatalf("DeliveryConcurrency = %d", cfg.Limits.DeliveryConcurrency)
	}
	if cfg.Telegram.AdminChatID != -1001234567890 {
		t.Fatalf("AdminChatID = %d", cfg.Telegram.AdminChatID)
	}
	// "warning" is normalized to "warn"
	if cfg.LogLevel != "warn" {
		t.Fatalf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoad_InvalidBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_BACKEND", "cassandra")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "SESSION_BACKEND") {
		t.Fatalf("expected SESSION_BACKEND error, got %v", err)
	}
}

func TestLoad_MongoRequiresURI(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_BACKEND", "mongo")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "MONGODB_URI") {
		t.Fatalf("expected MONGODB_URI error, got %v", err)
	}

	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	if _, err := Load(); err != nil {
		t.Fatalf("unexpected error with URI set: %v", err)
	}
}

func TestLoad_RedisRequiresAddr(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_BACKEND", "redis")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "REDIS_ADDR") {
		t.Fatalf("expected REDIS_ADDR error, got %v", err)
	}
}

func TestLoad_BadValuesRejected(t *testing.T) {
	cases := map[string]string{
		"SESSION_TTL":                   "-1s",
		"SEARCH_LIMIT":                  "0",
		"DELIVERY_CONCURRENCY_PER_USER": "0",
		"LOOKUP_MAX_ATTEMPTS":           "0",
		"RATE_BURST":                    "0",
		"LOG_LEVEL":                     "verbose",
	}
	for k, v := range cases {
		clearEnv(t)
		t.Setenv(k, v)
		if _, err := Load(); err == nil {
			t.Fatalf("%s=%s: expected validation error", k, v)
		}
	}
}

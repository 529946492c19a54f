// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as the Telegram bot credentials, session TTL and locking backend,
// search rate limits, delivery concurrency, retry policy, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Session store backends selectable via SESSION_BACKEND.
const (
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
	BackendRedis  = "redis"
)

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-movie-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// TelegramConfig holds Bot API credentials and webhook protection settings.
type TelegramConfig struct {
	BotToken      string // BOT_TOKEN (required)
	WebhookURL    string // WEBHOOK_URL (optional; registered via setWebhook at startup when set)
	WebhookSecret string // WEBHOOK_SECRET (optional X-Telegram-Bot-Api-Secret-Token)
	AdminChatID   int64  // ADMIN_CHAT_ID (0 disables admin notifications)
}

// SessionConfig controls session lifetime and which store backend holds them.
type SessionConfig struct {
	TTL       time.Duration // SESSION_TTL (default 600s)
	Backend   string        // SESSION_BACKEND: sqlite|mongo|redis
	MongoURI  string        // MONGODB_URI (required when Backend == mongo)
	RedisAddr string        // REDIS_ADDR (required when Backend == redis)
}

// LimitsConfig groups the per-user search and delivery limits.
type LimitsConfig struct {
	SearchWindow        time.Duration // SEARCH_WINDOW (default 15s)
	SearchLimit         int           // SEARCH_LIMIT (default 5)
	DeliveryConcurrency int           // DELIVERY_CONCURRENCY_PER_USER (default 1)
}

// RetryConfig controls the bounded backoff used around file lookups.
type RetryConfig struct {
	MaxAttempts int           // LOOKUP_MAX_ATTEMPTS (default 3)
	BaseDelay   time.Duration // LOOKUP_BASE_DELAY (default 700ms)
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	// App
	DBPath string // SQLite path (catalog, users, delivery log, default sessions)

	Telegram TelegramConfig
	Session  SessionConfig
	Limits   LimitsConfig
	Retry    RetryConfig

	// Edge rate limiting (webhook level, per chat)
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		// App
		DBPath: getenv("DB_PATH", "app.db"),

		Telegram: TelegramConfig{
			BotToken:      getenv("BOT_TOKEN", ""),
			WebhookURL:    getenv("WEBHOOK_URL", ""),
			WebhookSecret: getenv("WEBHOOK_SECRET", ""),
			AdminChatID:   getint64("ADMIN_CHAT_ID", 0),
		},

		Session: SessionConfig{
			TTL:       getdur("SESSION_TTL", 600*time.Second),
			Backend:   strings.ToLower(getenv("SESSION_BACKEND", BackendSQLite)),
			MongoURI:  getenv("MONGODB_URI", ""),
			RedisAddr: getenv("REDIS_ADDR", ""),
		},

		Limits: LimitsConfig{
			SearchWindow:        getdur("SEARCH_WINDOW", 15*time.Second),
			SearchLimit:         getint("SEARCH_LIMIT", 5),
			DeliveryConcurrency: getint("DELIVERY_CONCURRENCY_PER_USER", 1),
		},

		Retry: RetryConfig{
			MaxAttempts: getint("LOOKUP_MAX_ATTEMPTS", 3),
			BaseDelay:   getdur("LOOKUP_BASE_DELAY", 700*time.Millisecond),
		},

		// Edge rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-movie-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.Session.TTL <= 0 {
		return cfg, errors.New("SESSION_TTL must be > 0")
	}
	switch cfg.Session.Backend {
	case BackendSQLite:
	case BackendMongo:
		if strings.TrimSpace(cfg.Session.MongoURI) == "" {
			return cfg, errors.New("MONGODB_URI is required when SESSION_BACKEND=mongo")
		}
	case BackendRedis:
		if strings.TrimSpace(cfg.Session.RedisAddr) == "" {
			return cfg, errors.New("REDIS_ADDR is required when SESSION_BACKEND=redis")
		}
	default:
		return cfg, errors.New("SESSION_BACKEND must be one of: sqlite, mongo, redis")
	}
	if cfg.Limits.SearchWindow <= 0 {
		return cfg, errors.New("SEARCH_WINDOW must be > 0")
	}
	if cfg.Limits.SearchLimit < 1 {
		return cfg, errors.New("SEARCH_LIMIT must be >= 1")
	}
	if cfg.Limits.DeliveryConcurrency < 1 {
		return cfg, errors.New("DELIVERY_CONCURRENCY_PER_USER must be >= 1")
	}
	if cfg.Retry.MaxAttempts < 1 {
		return cfg, errors.New("LOOKUP_MAX_ATTEMPTS must be >= 1")
	}
	if cfg.Retry.BaseDelay < 0 {
		return cfg, errors.New("LOOKUP_BASE_DELAY must be >= 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getint64(k string, def int64) int64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

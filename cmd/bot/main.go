// Command bot runs the Telegram movie delivery bot: it assembles the session
// store, catalog, limiter, and delivery pipeline, registers the webhook, and
// serves the HTTP transport until shutdown.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/filmrelay/go-movie-backend/internal/bot"
	"github.com/filmrelay/go-movie-backend/internal/config"
	httpapi "github.com/filmrelay/go-movie-backend/internal/http"
	"github.com/filmrelay/go-movie-backend/internal/limiter"
	"github.com/filmrelay/go-movie-backend/internal/notify"
	"github.com/filmrelay/go-movie-backend/internal/observability"
	"github.com/filmrelay/go-movie-backend/internal/repo"
	"github.com/filmrelay/go-movie-backend/internal/retry"
	"github.com/filmrelay/go-movie-backend/internal/services"
	"github.com/filmrelay/go-movie-backend/internal/storage"
	"github.com/filmrelay/go-movie-backend/internal/sysutil"
	"github.com/filmrelay/go-movie-backend/internal/tg"
)

func main() {
	// Local development convenience; in containers the env is already set.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	if cfg.Telegram.BotToken == "" {
		log.Fatal().Msg("BOT_TOKEN is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	version := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), "dev")
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(c); err != nil {
			log.Warn().Err(err).Msg("otel shutdown failed")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("database open failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	// Session store per configured backend. SQLite shares the catalog DB;
	// Mongo and Redis get their own connections.
	var store services.SessionStore
	switch cfg.Session.Backend {
	case config.BackendMongo:
		ms, err := storage.NewMongoStore(ctx, cfg.Session.MongoURI)
		if err != nil {
			log.Fatal().Err(err).Msg("mongo session store failed")
		}
		defer func() {
			c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = ms.Close(c)
		}()
		store = ms
	case config.BackendRedis:
		rs, err := storage.NewRedisStore(ctx, cfg.Session.RedisAddr)
		if err != nil {
			log.Fatal().Err(err).Msg("redis session store failed")
		}
		defer func() { _ = rs.Close() }()
		store = rs
	default:
		store = repo.NewSessionRepo(db)
	}

	lim := limiter.New(cfg.Limits.SearchWindow, cfg.Limits.SearchLimit, cfg.Limits.DeliveryConcurrency)

	client := tg.NewClient(cfg.Telegram.BotToken)
	sender := tg.NewThrottledSender(client, 25, 5)

	users := services.NewCachedEntitlements(services.GormEntitlements{DB: db})
	guarded := &tg.GuardedSender{Inner: sender, Verifier: users}

	notifier := &notify.AdminNotifier{
		ChatID: cfg.Telegram.AdminChatID,
		Sender: notify.SenderFunc(func(ctx context.Context, chatID int64, text string) error {
			return sender.SendMessage(ctx, tg.SendMessageRequest{ChatID: chatID, Text: text})
		}),
	}

	sessions := services.NewSessionService(store, cfg.Session.TTL)
	search, err := services.NewSearchService(ctx, db, lim)
	if err != nil {
		log.Fatal().Err(err).Msg("catalog load failed")
	}
	delivery := &services.DeliveryService{
		Sessions: sessions,
		Limiter:  lim,
		Retry:    retry.NewPolicy(cfg.Retry.MaxAttempts, cfg.Retry.BaseDelay),
		Users:    users,
		Files:    services.GormFileLookup{DB: db},
		Sender:   guarded,
		Audit:    services.GormAuditLog{DB: db},
		Notifier: notifier,
	}

	b, err := bot.New(sender, search, sessions, delivery)
	if err != nil {
		log.Fatal().Err(err).Msg("bot construction failed")
	}

	if cfg.Telegram.WebhookURL != "" {
		if err := client.SetWebhook(ctx, cfg.Telegram.WebhookURL, cfg.Telegram.WebhookSecret); err != nil {
			log.Fatal().Err(err).Str("url", cfg.Telegram.WebhookURL).Msg("webhook registration failed")
		}
		log.Info().Str("url", cfg.Telegram.WebhookURL).Msg("webhook registered")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, b, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("backend", cfg.Session.Backend).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	log.Info().Msg("server stopped")
}

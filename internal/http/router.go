// Package httpapi wires the HTTP transport (Gin) to the bot, middleware, and
// route handlers. It centralizes cross-cutting concerns such as tracing,
// correlation IDs, logging, panic recovery, metrics, security headers, and
// edge rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - The webhook is the only mutating surface, guarded by the secret token
package httpapi

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/filmrelay/go-movie-backend/internal/config"
	"github.com/filmrelay/go-movie-backend/internal/http/handlers"
	"github.com/filmrelay/go-movie-backend/internal/http/middleware"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), response
// compression, security headers, health and metrics endpoints, and then
// mounts the webhook endpoint behind the secret-token check and the edge
// rate limiter.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Gzip response compression
//  7. Metrics
//  8. Security headers
//
// The rate limiter and webhook secret check apply only to the webhook group,
// so health checks and Prometheus scrapes are never throttled or rejected.
func RegisterRoutes(r *gin.Engine, bot handlers.UpdateHandler, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured access logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB; Telegram updates are a few KiB)
	r.Use(limitBody(1 << 20))

	// 6) Compress responses (mostly relevant for /metrics scrapes)
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Hardening headers
	r.Use(middleware.SecurityHeaders())

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Webhook: secret-token check first, then the edge rate limiter.
	h := handlers.New(bot)
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())
	wh := r.Group("/telegram", middleware.WebhookSecret(cfg.Telegram.WebhookSecret), rl.Handler())
	{
		wh.POST("/webhook", h.Webhook)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

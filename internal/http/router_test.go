package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/filmrelay/go-movie-backend/internal/config"
	"github.com/filmrelay/go-movie-backend/internal/http/middleware"
	"github.com/filmrelay/go-movie-backend/internal/tg"
)

type stubBot struct {
	seen []tg.Update
}

func (b *stubBot) HandleUpdate(ctx context.Context, upd tg.Update) {
	b.seen = append(b.seen, upd)
}

func testConfig() config.Config {
	cfg := config.Config{
		RateRPS:   100,
		RateBurst: 100,
	}
	cfg.Telegram.WebhookSecret = "hook-secret"
	cfg.OTEL.ServiceName = "go-movie-backend-test"
	return cfg
}

func newTestRouter(t *testing.T) (*gin.Engine, *stubBot) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	bot := &stubBot{}
	RegisterRoutes(r, bot, testConfig())
	return r, bot
}

func TestHealthEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("health body: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("health status = %q", body["status"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Fatalf("metrics exposition missing http_requests_total")
	}
}

func TestWebhook_RequiresSecret(t *testing.T) {
	r, bot := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(`{"update_id":1}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status without secret = %d, want 401", w.Code)
	}
	if len(bot.seen) != 0 {
		t.Fatalf("unauthenticated update reached the bot")
	}
}

func TestWebhook_DispatchesWithSecret(t *testing.T) {
	r, bot := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(`{
		"update_id": 7,
		"message": {"message_id": 1, "from": {"id": 5}, "chat": {"id": 5}, "text": "/start"}
	}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderSecretToken, "hook-secret")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if len(bot.seen) != 1 || bot.seen[0].UpdateID != 7 {
		t.Fatalf("update not dispatched: %+v", bot.seen)
	}
}

func TestUnknownRoute_JSONEnvelope(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("404 body is not JSON: %v", err)
	}
	if body["code"] != "not_found" {
		t.Fatalf("code = %v, want not_found", body["code"])
	}
}

func TestMethodNotAllowed_JSONEnvelope(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/telegram/webhook", nil)
	req.Header.Set(middleware.HeaderSecretToken, "hook-secret")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("405 body is not JSON: %v", err)
	}
	if body["code"] != "method_not_allowed" {
		t.Fatalf("code = %v, want method_not_allowed", body["code"])
	}
}

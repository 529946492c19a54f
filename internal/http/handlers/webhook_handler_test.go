package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/filmrelay/go-movie-backend/internal/tg"
)

type recordingBot struct {
	updates []tg.Update
}

func (b *recordingBot) HandleUpdate(ctx context.Context, upd tg.Update) {
	b.updates = append(b.updates, upd)
}

func newWebhookRouter(bot UpdateHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(bot)
	r.POST("/telegram/webhook", h.Webhook)
	return r
}

func postJSON(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestWebhook_AcksMessageUpdate(t *testing.T) {
	bot := &recordingBot{}
	r := newWebhookRouter(bot)

	w := postJSON(r, `{
		"update_id": 42,
		"message": {"message_id": 1, "from": {"id": 7}, "chat": {"id": 7}, "text": "/start"}
	}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if len(bot.updates) != 1 {
		t.Fatalf("bot saw %d updates, want 1", len(bot.updates))
	}
	upd := bot.updates[0]
	if upd.UpdateID != 42 || upd.Message == nil || upd.Message.Text != "/start" {
		t.Fatalf("update not decoded: %+v", upd)
	}
}

func TestWebhook_AcksCallbackUpdate(t *testing.T) {
	bot := &recordingBot{}
	r := newWebhookRouter(bot)

	w := postJSON(r, `{
		"update_id": 43,
		"callback_query": {"id": "cb1", "from": {"id": 7}, "data": "mv_go:sess-1",
			"message": {"message_id": 9, "chat": {"id": 7}}}
	}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if len(bot.updates) != 1 || bot.updates[0].CallbackQuery == nil {
		t.Fatalf("callback update not decoded: %+v", bot.updates)
	}
	if bot.updates[0].CallbackQuery.Data != "mv_go:sess-1" {
		t.Fatalf("callback data = %q", bot.updates[0].CallbackQuery.Data)
	}
}

func TestWebhook_RejectsMalformedJSON(t *testing.T) {
	bot := &recordingBot{}
	r := newWebhookRouter(bot)

	w := postJSON(r, `{"update_id": `)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if len(bot.updates) != 0 {
		t.Fatalf("malformed payload reached the bot")
	}
}

func TestWebhook_UnknownUpdateKindsStillAck(t *testing.T) {
	bot := &recordingBot{}
	r := newWebhookRouter(bot)

	// An edited_channel_post or similar arrives as an update with neither
	// message nor callback_query; it must still be acked so Telegram does
	// not redeliver it.
	w := postJSON(r, `{"update_id": 44}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if len(bot.updates) != 1 {
		t.Fatalf("bot saw %d updates, want 1", len(bot.updates))
	}
}

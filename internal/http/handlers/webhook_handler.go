// Package handlers provides HTTP handler implementations for the webhook API.
//
// This file implements the Telegram webhook endpoint. Telegram POSTs one
// Update per request and retries any delivery that does not get a 2xx back,
// so the handler acks every well-formed update with 200 regardless of how
// the processing went; user-visible failures are reported through the bot
// itself, not through the HTTP status.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/filmrelay/go-movie-backend/internal/http/middleware"
	"github.com/filmrelay/go-movie-backend/internal/tg"
)

// UpdateHandler consumes one Telegram update. Implementations never return
// an error; failures are logged and answered in-band.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, upd tg.Update)
}

// Handler bundles the webhook endpoints and their dependencies.
type Handler struct {
	Bot UpdateHandler
}

// New constructs the handler set around the given update consumer.
func New(bot UpdateHandler) *Handler {
	return &Handler{Bot: bot}
}

// Webhook handles POST /telegram/webhook.
//
// Behavior:
//   - Malformed JSON is rejected with 400; Telegram gives up on such
//     payloads rather than redelivering them forever.
//   - Well-formed updates are processed synchronously and always acked
//     with 200 so Telegram never redelivers a processed update.
func (h *Handler) Webhook(c *gin.Context) {
	var upd tg.Update
	if err := c.ShouldBindJSON(&upd); err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("malformed webhook payload")
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "malformed update payload")
		return
	}

	middleware.LoggerFrom(c).Debug().
		Int64("update_id", upd.UpdateID).
		Bool("has_message", upd.Message != nil).
		Bool("has_callback", upd.CallbackQuery != nil).
		Msg("webhook update")

	h.Bot.HandleUpdate(c.Request.Context(), upd)
	ok(c, http.StatusOK, gin.H{"ok": true})
}

// Package notify pushes operator alerts to the configured admin chat.
// Notifications are strictly best-effort: failures are logged and dropped,
// never propagated to the flow that triggered them.
package notify

import (
	"context"

	"github.com/rs/zerolog/log"
)

// MessageSender is the transport slice the notifier needs.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// SenderFunc adapts a plain function to MessageSender.
type SenderFunc func(ctx context.Context, chatID int64, text string) error

func (f SenderFunc) SendMessage(ctx context.Context, chatID int64, text string) error {
	return f(ctx, chatID, text)
}

// AdminNotifier sends alerts to a single admin chat. A zero ChatID
// disables it.
type AdminNotifier struct {
	Sender MessageSender
	ChatID int64
}

// Notify delivers one alert. Errors are swallowed after logging.
func (n *AdminNotifier) Notify(ctx context.Context, text string) {
	if n == nil || n.Sender == nil || n.ChatID == 0 {
		return
	}
	if err := n.Sender.SendMessage(ctx, n.ChatID, text); err != nil {
		log.Warn().Err(err).Int64("chat_id", n.ChatID).Msg("admin notification failed")
	}
}

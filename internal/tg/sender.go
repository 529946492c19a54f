package tg

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"
)

// ThrottledSender wraps a Client with a token-bucket limiter so outbound
// calls stay under Telegram's flood limits. All methods block until a token
// is available or the context is cancelled.
type ThrottledSender struct {
	c   *Client
	lim *rate.Limiter
}

// NewThrottledSender wraps the client. Non-positive rps/burst fall back to
// conservative defaults (25 calls/s, burst 5).
func NewThrottledSender(c *Client, rps float64, burst int) *ThrottledSender {
	if rps <= 0 {
		rps = 25
	}
	if burst <= 0 {
		burst = 5
	}
	return &ThrottledSender{c: c, lim: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (s *ThrottledSender) SendMessage(ctx context.Context, req SendMessageRequest) error {
	if err := s.lim.Wait(ctx); err != nil {
		return err
	}
	return s.c.SendMessage(ctx, req)
}

// SendDocument satisfies the delivery pipeline's transport contract.
func (s *ThrottledSender) SendDocument(ctx context.Context, chatID int64, fileID, caption string) error {
	if err := s.lim.Wait(ctx); err != nil {
		return err
	}
	return s.c.SendDocument(ctx, chatID, fileID, caption)
}

func (s *ThrottledSender) AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error {
	if err := s.lim.Wait(ctx); err != nil {
		return err
	}
	return s.c.AnswerCallbackQuery(ctx, callbackQueryID, text)
}

func (s *ThrottledSender) EditMessageText(ctx context.Context, req EditMessageTextRequest) error {
	if err := s.lim.Wait(ctx); err != nil {
		return err
	}
	return s.c.EditMessageText(ctx, req)
}

func (s *ThrottledSender) EditMessageReplyMarkup(ctx context.Context, req EditMessageReplyMarkupRequest) error {
	if err := s.lim.Wait(ctx); err != nil {
		return err
	}
	return s.c.EditMessageReplyMarkup(ctx, req)
}

// Verifier answers whether a user may receive files.
type Verifier interface {
	IsVerified(ctx context.Context, userID int64) (bool, error)
}

// ErrRecipientNotVerified is returned when a document send is refused by
// the verification gate.
var ErrRecipientNotVerified = errors.New("recipient not verified")

// DocumentSender is the slice of the client GuardedSender wraps.
type DocumentSender interface {
	SendDocument(ctx context.Context, chatID int64, fileID, caption string) error
}

// GuardedSender refuses to hand out documents to unverified recipients.
// It is a last line of defense under the orchestrator's own verification
// gate: in private chats the chat ID is the user ID, so the check holds
// for every code path that can emit a file. Fail-closed: a failed check
// blocks the send.
type GuardedSender struct {
	Inner    DocumentSender
	Verifier Verifier
}

func (g *GuardedSender) SendDocument(ctx context.Context, chatID int64, fileID, caption string) error {
	ok, err := g.Verifier.IsVerified(ctx, chatID)
	if err != nil {
		return fmt.Errorf("verification check: %w", err)
	}
	if !ok {
		return ErrRecipientNotVerified
	}
	return g.Inner.SendDocument(ctx, chatID, fileID, caption)
}

package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/filmrelay/go-movie-backend/internal/services"
	"github.com/filmrelay/go-movie-backend/internal/tg"
)

// Sender is the transport slice the handlers need.
type Sender interface {
	SendMessage(ctx context.Context, req tg.SendMessageRequest) error
	AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error
	EditMessageText(ctx context.Context, req tg.EditMessageTextRequest) error
}

// Reply strings for the interaction layer. Delivery outcomes carry their
// own messages; these cover the steps before the orchestrator.
const (
	msgWelcome       = "Send /search <title> to find a movie."
	msgNoResults     = "No results found. Try a different title."
	msgRateLimited   = "Too many searches. Please wait a few seconds and try again."
	msgExpired       = "Session expired. Please /search again."
	msgUnknownAction = "This button is no longer valid."
	msgPickSource    = "Pick a source:"
	msgPickQuality   = "Pick a quality:"
)

// Bot wires Telegram updates to the service layer.
type Bot struct {
	Sender   Sender
	Search   *services.SearchService
	Sessions *services.SessionService
	Delivery *services.DeliveryService

	router *Router
}

// New builds the bot and its validated dispatch table.
func New(sender Sender, search *services.SearchService, sessions *services.SessionService, delivery *services.DeliveryService) (*Bot, error) {
	b := &Bot{Sender: sender, Search: search, Sessions: sessions, Delivery: delivery}
	r, err := NewRouter(map[Command]HandlerFunc{
		CmdSelect:   b.onSelect,
		CmdSource:   b.onSource,
		CmdQuality:  b.onQuality,
		CmdDownload: b.onDownload,
		CmdPage:     b.onPage,
	})
	if err != nil {
		return nil, err
	}
	b.router = r
	return b, nil
}

// HandleUpdate processes one webhook update. Handler errors are logged,
// not returned: the webhook must always ack to avoid Telegram redelivery
// storms.
func (b *Bot) HandleUpdate(ctx context.Context, upd tg.Update) {
	switch {
	case upd.Message != nil && upd.Message.From != nil:
		if err := b.handleMessage(ctx, upd.Message); err != nil {
			log.Error().Err(err).Int64("chat_id", upd.Message.Chat.ID).Msg("message handling failed")
		}
	case upd.CallbackQuery != nil:
		cb := callbackFromQuery(upd.CallbackQuery)
		err := b.router.Dispatch(ctx, upd.CallbackQuery.Data, cb)
		if err != nil {
			var bad ErrBadCallback
			if errors.As(err, &bad) {
				_ = b.Sender.AnswerCallbackQuery(ctx, cb.QueryID, msgUnknownAction)
				return
			}
			log.Error().Err(err).Str("data", upd.CallbackQuery.Data).Msg("callback handling failed")
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, m *tg.Message) error {
	text := strings.TrimSpace(m.Text)
	switch {
	case text == "/start":
		return b.Sender.SendMessage(ctx, tg.SendMessageRequest{ChatID: m.Chat.ID, Text: msgWelcome})
	case strings.HasPrefix(text, "/search"):
		query := strings.TrimSpace(strings.TrimPrefix(text, "/search"))
		return b.sendResults(ctx, m.Chat.ID, m.From.ID, query, 1, 0)
	default:
		return nil
	}
}

// sendResults runs a search and renders one page of results. When
// editMessageID is non-zero the existing results message is edited in
// place (page navigation); otherwise a new message is sent.
func (b *Bot) sendResults(ctx context.Context, chatID, userID int64, query string, page, editMessageID int) error {
	if query == "" {
		return b.Sender.SendMessage(ctx, tg.SendMessageRequest{ChatID: chatID, Text: msgWelcome})
	}

	results, err := b.Search.Search(ctx, userID, query, page)
	if errors.Is(err, services.ErrRateLimited) {
		return b.Sender.SendMessage(ctx, tg.SendMessageRequest{ChatID: chatID, Text: msgRateLimited})
	}
	if err != nil {
		return err
	}
	if len(results) == 0 {
		if page > 1 {
			// Paged past the end; nothing to change.
			return nil
		}
		return b.Sender.SendMessage(ctx, tg.SendMessageRequest{ChatID: chatID, Text: msgNoResults})
	}

	kb := resultsKeyboard(results, query, page, b.Search.PageSize)
	text := fmt.Sprintf("Results for %q:", query)
	if editMessageID != 0 {
		return b.Sender.EditMessageText(ctx, tg.EditMessageTextRequest{
			ChatID:      chatID,
			MessageID:   editMessageID,
			Text:        text,
			ReplyMarkup: &kb,
		})
	}
	return b.Sender.SendMessage(ctx, tg.SendMessageRequest{ChatID: chatID, Text: text, ReplyMarkup: &kb})
}

// onSelect starts a session for the picked movie and offers sources.
// Args: movieID, page.
func (b *Bot) onSelect(ctx context.Context, cb Callback) error {
	if len(cb.Args) < 1 {
		return ErrBadCallback{Data: CallbackData(cb.Cmd, cb.Args...)}
	}
	movieID := cb.Args[0]

	movie, err := b.Search.Movie(movieID)
	if errors.Is(err, services.ErrMovieNotFound) {
		return b.Sender.AnswerCallbackQuery(ctx, cb.QueryID, msgUnknownAction)
	}
	if err != nil {
		return err
	}

	sess, err := b.Sessions.Start(ctx, cb.UserID, movie.ID, movie.Title, pageArg(cb.Args, 1))
	if err != nil {
		return err
	}

	if err := b.Sender.AnswerCallbackQuery(ctx, cb.QueryID, ""); err != nil {
		log.Warn().Err(err).Msg("callback ack failed")
	}
	kb := sourceKeyboard(sess.ID, movie.SourceList())
	return b.Sender.SendMessage(ctx, tg.SendMessageRequest{
		ChatID:      cb.ChatID,
		Text:        fmt.Sprintf("%s\n%s", movie.Title, msgPickSource),
		ReplyMarkup: &kb,
	})
}

// onSource records the source pick and offers qualities.
// Args: sessionID, source.
func (b *Bot) onSource(ctx context.Context, cb Callback) error {
	if len(cb.Args) < 2 {
		return ErrBadCallback{Data: CallbackData(cb.Cmd, cb.Args...)}
	}
	sessionID, source := cb.Args[0], cb.Args[1]

	err := b.Sessions.ChooseSource(ctx, sessionID, source)
	if errors.Is(err, services.ErrSessionExpired) {
		return b.Sender.AnswerCallbackQuery(ctx, cb.QueryID, msgExpired)
	}
	if err != nil {
		return err
	}

	if err := b.Sender.AnswerCallbackQuery(ctx, cb.QueryID, ""); err != nil {
		log.Warn().Err(err).Msg("callback ack failed")
	}
	kb := qualityKeyboard(sessionID)
	return b.Sender.SendMessage(ctx, tg.SendMessageRequest{
		ChatID:      cb.ChatID,
		Text:        msgPickQuality,
		ReplyMarkup: &kb,
	})
}

// onQuality records the quality pick and shows the review message with the
// download button. Args: sessionID, quality.
func (b *Bot) onQuality(ctx context.Context, cb Callback) error {
	if len(cb.Args) < 2 {
		return ErrBadCallback{Data: CallbackData(cb.Cmd, cb.Args...)}
	}
	sessionID, quality := cb.Args[0], cb.Args[1]

	err := b.Sessions.ChooseQuality(ctx, sessionID, quality)
	if errors.Is(err, services.ErrSessionExpired) {
		return b.Sender.AnswerCallbackQuery(ctx, cb.QueryID, msgExpired)
	}
	if err != nil {
		return err
	}

	sess, err := b.Sessions.Get(ctx, sessionID)
	if err != nil {
		return b.Sender.AnswerCallbackQuery(ctx, cb.QueryID, msgExpired)
	}

	if err := b.Sender.AnswerCallbackQuery(ctx, cb.QueryID, ""); err != nil {
		log.Warn().Err(err).Msg("callback ack failed")
	}
	kb := downloadKeyboard(sessionID)
	return b.Sender.SendMessage(ctx, tg.SendMessageRequest{
		ChatID:      cb.ChatID,
		Text:        reviewText(sess),
		ReplyMarkup: &kb,
	})
}

// onDownload runs the delivery pipeline. Args: sessionID.
func (b *Bot) onDownload(ctx context.Context, cb Callback) error {
	if len(cb.Args) < 1 {
		return ErrBadCallback{Data: CallbackData(cb.Cmd, cb.Args...)}
	}
	sessionID := cb.Args[0]

	res := b.Delivery.RequestDelivery(ctx, cb.UserID, cb.ChatID, sessionID)
	if res.Outcome == services.OutcomeDelivered {
		// The document itself is the reply.
		return b.Sender.AnswerCallbackQuery(ctx, cb.QueryID, "")
	}
	if err := b.Sender.AnswerCallbackQuery(ctx, cb.QueryID, ""); err != nil {
		log.Warn().Err(err).Msg("callback ack failed")
	}
	return b.Sender.SendMessage(ctx, tg.SendMessageRequest{ChatID: cb.ChatID, Text: res.Message})
}

// onPage re-renders the results message for another page.
// Args: page, query tokens (rejoined — the query itself may contain ':').
func (b *Bot) onPage(ctx context.Context, cb Callback) error {
	if len(cb.Args) < 2 {
		return ErrBadCallback{Data: CallbackData(cb.Cmd, cb.Args...)}
	}
	page := pageArg(cb.Args, 0)
	query := strings.Join(cb.Args[1:], ":")

	if err := b.Sender.AnswerCallbackQuery(ctx, cb.QueryID, ""); err != nil {
		log.Warn().Err(err).Msg("callback ack failed")
	}
	return b.sendResults(ctx, cb.ChatID, cb.UserID, query, page, cb.MessageID)
}

// Package tg is a thin client for the Telegram Bot API, covering only the
// methods this bot uses. Payloads are plain JSON structs; file delivery
// always goes by file_id, so no multipart uploads are needed.
package tg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the Telegram Bot API over HTTP.
type Client struct {
	baseURL string
	hc      *http.Client
}

// NewClient builds a client for the given bot token.
func NewClient(token string) *Client {
	return &Client{
		baseURL: fmt.Sprintf("https://api.telegram.org/bot%s", token),
		hc:      &http.Client{Timeout: 9 * time.Second},
	}
}

// NewClientWithBaseURL overrides the API endpoint (used by tests).
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: 9 * time.Second},
	}
}

// ----------------------------------------------------------------------------
// Update types (webhook payloads)

type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

type Message struct {
	MessageID int    `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text,omitempty"`
}

type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type,omitempty"`
}

type CallbackQuery struct {
	ID      string   `json:"id"`
	From    User     `json:"from"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data,omitempty"`
}

// ----------------------------------------------------------------------------
// Keyboards

type InlineKeyboardButton struct {
	Text         string `json:"text"`
	URL          string `json:"url,omitempty"`
	CallbackData string `json:"callback_data,omitempty"`
}

type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

func NewInlineKeyboardMarkup(rows [][]InlineKeyboardButton) InlineKeyboardMarkup {
	return InlineKeyboardMarkup{InlineKeyboard: rows}
}

// ----------------------------------------------------------------------------
// Methods

type SendMessageRequest struct {
	ChatID           int64                 `json:"chat_id"`
	Text             string                `json:"text"`
	ParseMode        string                `json:"parse_mode,omitempty"`
	ReplyMarkup      *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	ReplyToMessageID int                   `json:"reply_to_message_id,omitempty"`
}

func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) error {
	return c.post(ctx, "/sendMessage", req)
}

type SendDocumentRequest struct {
	ChatID      int64                 `json:"chat_id"`
	Document    string                `json:"document"` // file_id
	Caption     string                `json:"caption,omitempty"`
	ParseMode   string                `json:"parse_mode,omitempty"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// SendDocument sends a previously uploaded document by its file_id.
func (c *Client) SendDocument(ctx context.Context, chatID int64, fileID, caption string) error {
	return c.post(ctx, "/sendDocument", SendDocumentRequest{
		ChatID:   chatID,
		Document: fileID,
		Caption:  caption,
	})
}

func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackQueryID string, text string) error {
	payload := map[string]any{"callback_query_id": callbackQueryID}
	if text != "" {
		payload["text"] = text
	}
	return c.post(ctx, "/answerCallbackQuery", payload)
}

type EditMessageTextRequest struct {
	ChatID      int64                 `json:"chat_id"`
	MessageID   int                   `json:"message_id"`
	Text        string                `json:"text"`
	ParseMode   string                `json:"parse_mode,omitempty"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

func (c *Client) EditMessageText(ctx context.Context, req EditMessageTextRequest) error {
	return c.post(ctx, "/editMessageText", req)
}

type EditMessageReplyMarkupRequest struct {
	ChatID      int64                 `json:"chat_id,omitempty"`
	MessageID   int                   `json:"message_id,omitempty"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

func (c *Client) EditMessageReplyMarkup(ctx context.Context, req EditMessageReplyMarkupRequest) error {
	return c.post(ctx, "/editMessageReplyMarkup", req)
}

// SetWebhook registers the webhook URL with an optional secret token that
// Telegram echoes back on every update.
func (c *Client) SetWebhook(ctx context.Context, url, secretToken string) error {
	payload := map[string]any{"url": url}
	if secretToken != "" {
		payload["secret_token"] = secretToken
	}
	return c.post(ctx, "/setWebhook", payload)
}

// ----------------------------------------------------------------------------
// Transport plumbing

func (c *Client) post(ctx context.Context, method string, payload any) error {
	_, err := c.postWithResult(ctx, method, payload)
	return err
}

func (c *Client) postWithResult(ctx context.Context, method string, payload any) ([]byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+method, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("telegram api %s status %d: %s", method, resp.StatusCode, string(body))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	var wrapper struct {
		Ok          bool            `json:"ok"`
		Result      json.RawMessage `json:"result"`
		Description string          `json:"description,omitempty"`
	}
	if err := json.Unmarshal(body, &wrapper); err == nil {
		if !wrapper.Ok {
			return nil, fmt.Errorf("telegram api %s: %s", method, wrapper.Description)
		}
		return wrapper.Result, nil
	}
	return body, nil
}

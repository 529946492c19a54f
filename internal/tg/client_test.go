package tg

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type recordedCall struct {
	path string
	body map[string]any
}

// newTestAPI spins up a fake Bot API endpoint that records calls and
// replies per the handler map (default: {"ok":true,"result":{}}).
func newTestAPI(t *testing.T, responses map[string]string) (*Client, *[]recordedCall) {
	t.Helper()
	var mu sync.Mutex
	var calls []recordedCall

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		calls = append(calls, recordedCall{path: r.URL.Path, body: body})
		mu.Unlock()

		if resp, ok := responses[r.URL.Path]; ok {
			_, _ = w.Write([]byte(resp))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	t.Cleanup(srv.Close)
	return NewClientWithBaseURL(srv.URL), &calls
}

func TestSendDocument_PayloadShape(t *testing.T) {
	c, calls := newTestAPI(t, nil)

	if err := c.SendDocument(context.Background(), 42, "file-abc", "The Matrix"); err != nil {
		t.Fatalf("SendDocument: %v", err)
	}

	if len(*calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(*calls))
	}
	call := (*calls)[0]
	if call.path != "/sendDocument" {
		t.Fatalf("path = %q", call.path)
	}
	if call.body["chat_id"] != float64(42) || call.body["document"] != "file-abc" || call.body["caption"] != "The Matrix" {
		t.Fatalf("unexpected payload: %v", call.body)
	}
}

func TestSendMessage_OmitsEmptyOptionals(t *testing.T) {
	c, calls := newTestAPI(t, nil)

	err := c.SendMessage(context.Background(), SendMessageRequest{ChatID: 1, Text: "hi"})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	body := (*calls)[0].body
	if _, ok := body["reply_markup"]; ok {
		t.Fatalf("empty reply_markup must be omitted: %v", body)
	}
	if _, ok := body["parse_mode"]; ok {
		t.Fatalf("empty parse_mode must be omitted: %v", body)
	}
}

func TestAnswerCallbackQuery_TextOptional(t *testing.T) {
	c, calls := newTestAPI(t, nil)
	ctx := context.Background()

	if err := c.AnswerCallbackQuery(ctx, "cb1", ""); err != nil {
		t.Fatalf("AnswerCallbackQuery: %v", err)
	}
	if _, ok := (*calls)[0].body["text"]; ok {
		t.Fatalf("empty text must be omitted")
	}

	if err := c.AnswerCallbackQuery(ctx, "cb2", "done"); err != nil {
		t.Fatalf("AnswerCallbackQuery: %v", err)
	}
	if (*calls)[1].body["text"] != "done" {
		t.Fatalf("text not forwarded: %v", (*calls)[1].body)
	}
}

func TestClient_APIErrorSurfaced(t *testing.T) {
	c, _ := newTestAPI(t, map[string]string{
		"/sendDocument": `{"ok":false,"description":"Bad Request: wrong file identifier"}`,
	})

	err := c.SendDocument(context.Background(), 1, "bogus", "")
	if err == nil || !strings.Contains(err.Error(), "wrong file identifier") {
		t.Fatalf("want API error description, got %v", err)
	}
}

func TestClient_HTTPErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway timeout", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	c := NewClientWithBaseURL(srv.URL)
	err := c.SendMessage(context.Background(), SendMessageRequest{ChatID: 1, Text: "x"})
	if err == nil || !strings.Contains(err.Error(), "status 502") {
		t.Fatalf("want status error, got %v", err)
	}
}

func TestThrottledSender_Delegates(t *testing.T) {
	c, calls := newTestAPI(t, nil)
	s := NewThrottledSender(c, 1000, 10)
	ctx := context.Background()

	if err := s.SendDocument(ctx, 7, "f1", "cap"); err != nil {
		t.Fatalf("SendDocument: %v", err)
	}
	if err := s.AnswerCallbackQuery(ctx, "cb", "ok"); err != nil {
		t.Fatalf("AnswerCallbackQuery: %v", err)
	}
	if len(*calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(*calls))
	}
}

func TestThrottledSender_CancelledContext(t *testing.T) {
	c, _ := newTestAPI(t, nil)
	// Zero-ish rate with empty bucket: Wait must block until cancellation.
	s := NewThrottledSender(c, 0.0001, 1)
	ctx := context.Background()
	_ = s.SendDocument(ctx, 1, "f", "") // drain the single token

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if err := s.SendDocument(cctx, 1, "f", ""); err == nil {
		t.Fatalf("want context error from limiter wait")
	}
}

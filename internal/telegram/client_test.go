package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func TestGetMe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTEST_TOKEN/getMe" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}

		writeJSON(t, w, APIResponse[User]{
			OK: true,
			Result: User{
				ID:        123,
				IsBot:     true,
				FirstName: "KeelBot",
				Username:  "keel_bot",
			},
		})
	}))
	defer srv.Close()

	client := NewClient("TEST_TOKEN", srv.URL)
	user, err := client.GetMe(context.Background())
	if err != nil {
		t.Fatalf("GetMe() error: %v", err)
	}
	if user.ID != 123 {
		t.Errorf("ID = %d, want 123", user.ID)
	}
	if user.Username != "keel_bot" {
		t.Errorf("Username = %q, want %q", user.Username, "keel_bot")
	}
}

func TestSendMessage_WithKeyboard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		body, _ := io.ReadAll(r.Body)
		var req SendMessageRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("unmarshal request: %v", err)
		}
		if req.ChatID != 42 {
			t.Errorf("ChatID = %d, want 42", req.ChatID)
		}
		if req.ReplyMarkup == nil || len(req.ReplyMarkup.InlineKeyboard) != 2 {
			t.Fatalf("ReplyMarkup = %+v, want 2 keyboard rows", req.ReplyMarkup)
		}
		if req.ReplyMarkup.InlineKeyboard[0][0].CallbackData != "approve" {
			t.Errorf("first button data = %q, want approve", req.ReplyMarkup.InlineKeyboard[0][0].CallbackData)
		}

		writeJSON(t, w, APIResponse[Message]{
			OK:     true,
			Result: Message{MessageID: 99, Chat: Chat{ID: 42}},
		})
	}))
	defer srv.Close()

	client := NewClient("TOKEN", srv.URL)
	msg, err := client.SendMessage(context.Background(), SendMessageRequest{
		ChatID: 42,
		Text:   "pending approval",
		ReplyMarkup: SingleColumn(
			InlineKeyboardButton{Text: "Approve", CallbackData: "approve"},
			InlineKeyboardButton{Text: "Reject", CallbackData: "reject"},
		),
	})
	if err != nil {
		t.Fatalf("SendMessage() error: %v", err)
	}
	if msg.MessageID != 99 {
		t.Errorf("MessageID = %d, want 99", msg.MessageID)
	}
}

func TestEditMessageText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/editMessageText" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req EditMessageTextRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.MessageID != 55 {
			t.Errorf("MessageID = %d, want 55", req.MessageID)
		}
		writeJSON(t, w, APIResponse[Message]{OK: true, Result: Message{MessageID: 55}})
	}))
	defer srv.Close()

	client := NewClient("TOKEN", srv.URL)
	_, err := client.EditMessageText(context.Background(), EditMessageTextRequest{
		ChatID:    100,
		MessageID: 55,
		Text:      "updated",
	})
	if err != nil {
		t.Fatalf("EditMessageText() error: %v", err)
	}
}

func TestEditMessageText_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, APIResponse[Message]{
			OK:          false,
			ErrorCode:   400,
			Description: "Bad Request: message can't be edited",
		})
	}))
	defer srv.Close()

	client := NewClient("TOKEN", srv.URL)
	_, err := client.EditMessageText(context.Background(), EditMessageTextRequest{ChatID: 1, MessageID: 2, Text: "x"})
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.Code != 400 {
		t.Errorf("Code = %d, want 400", apiErr.Code)
	}
}

func TestAnswerCallbackQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/answerCallbackQuery" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req AnswerCallbackQueryRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.CallbackQueryID != "cb-1" {
			t.Errorf("CallbackQueryID = %q, want cb-1", req.CallbackQueryID)
		}
		writeJSON(t, w, APIResponse[bool]{OK: true, Result: true})
	}))
	defer srv.Close()

	client := NewClient("TOKEN", srv.URL)
	if err := client.AnswerCallbackQuery(context.Background(), AnswerCallbackQueryRequest{
		CallbackQueryID: "cb-1",
		Text:            "Approved 'default/img:1.0'",
	}); err != nil {
		t.Fatalf("AnswerCallbackQuery() error: %v", err)
	}
}

func TestRateLimitRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			writeJSON(t, w, APIResponse[Message]{
				OK:         false,
				ErrorCode:  429,
				Parameters: &ResponseParameters{RetryAfter: 0},
			})
			return
		}
		writeJSON(t, w, APIResponse[Message]{OK: true, Result: Message{MessageID: 7}})
	}))
	defer srv.Close()

	client := NewClient("TOKEN", srv.URL)
	client.backoff = time.Millisecond // keep the test fast
	msg, err := client.SendMessage(context.Background(), SendMessageRequest{ChatID: 1, Text: "hi"})
	if err != nil {
		t.Fatalf("SendMessage() error: %v", err)
	}
	if msg.MessageID != 7 {
		t.Errorf("MessageID = %d, want 7", msg.MessageID)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2 (one retry)", calls.Load())
	}
}

func TestUserFullName(t *testing.T) {
	tests := []struct {
		user *User
		want string
	}{
		{&User{FirstName: "Ada", LastName: "Lovelace"}, "Ada Lovelace"},
		{&User{FirstName: "Ada"}, "Ada"},
		{&User{Username: "ada"}, "ada"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := tt.user.FullName(); got != tt.want {
			t.Errorf("FullName(%+v) = %q, want %q", tt.user, got, tt.want)
		}
	}
}

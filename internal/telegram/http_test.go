package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// withServer points the client at a test server for the duration of a test
func withServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	originalURL := apiBaseURL
	apiBaseURL = server.URL + "/bot"
	t.Cleanup(func() { apiBaseURL = originalURL })

	return &Client{
		botToken:   "test-token",
		httpClient: &http.Client{},
	}
}

// TestSendMessage_Success tests successful message sending
func TestSendMessage_Success(t *testing.T) {
	var gotPayload map[string]interface{}

	client := withServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Expected POST request, got %s", r.Method)
		}
		if r.URL.Path != "/bottest-token/sendMessage" {
			t.Errorf("path = %s, want /bottest-token/sendMessage", r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected Content-Type application/json, got %s", r.Header.Get("Content-Type"))
		}
		json.NewDecoder(r.Body).Decode(&gotPayload)

		response := map[string]interface{}{
			"ok": true,
			"result": map[string]interface{}{
				"message_id": 123,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	})

	text := "**Current UCF Garage Saturation**```    A:    42 / 100  (42% full)\n```"
	if err := client.SendMessage(context.Background(), "12345", text); err != nil {
		t.Fatalf("SendMessage() unexpected error: %v", err)
	}

	if gotPayload["chat_id"] != "12345" {
		t.Errorf("chat_id = %v, want 12345", gotPayload["chat_id"])
	}
	if gotPayload["text"] != text {
		t.Errorf("text = %q, want %q", gotPayload["text"], text)
	}
	if _, ok := gotPayload["parse_mode"]; ok {
		t.Error("parse_mode should not be set for plain text replies")
	}
}

// TestSendMessage_APIError tests API error handling
func TestSendMessage_APIError(t *testing.T) {
	client := withServer(t, func(w http.ResponseWriter, r *http.Request) {
		response := map[string]interface{}{
			"ok":          false,
			"description": "Bad Request: chat not found",
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	})

	err := client.SendMessage(context.Background(), "12345", "Test message")
	if err == nil {
		t.Fatal("SendMessage() expected error for API failure, got nil")
	}
	if !strings.Contains(err.Error(), "Bad Request") {
		t.Errorf("SendMessage() error = %v, want error containing 'Bad Request'", err)
	}
}

// TestSendMessage_HTTPError tests HTTP error handling
func TestSendMessage_HTTPError(t *testing.T) {
	client := withServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
	})

	err := client.SendMessage(context.Background(), "12345", "Test message")
	if err == nil {
		t.Fatal("SendMessage() expected error for HTTP error, got nil")
	}
	if !strings.Contains(err.Error(), "status 500") {
		t.Errorf("SendMessage() error = %v, want error containing 'status 500'", err)
	}
}

// TestSendMessage_InvalidJSON tests malformed response handling
func TestSendMessage_InvalidJSON(t *testing.T) {
	client := withServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})

	if err := client.SendMessage(context.Background(), "12345", "Test"); err == nil {
		t.Error("SendMessage() expected error for invalid JSON, got nil")
	}
}

func TestSendMessage_Validation(t *testing.T) {
	client := &Client{botToken: "test-token", httpClient: &http.Client{}}

	if err := client.SendMessage(context.Background(), "", "text"); err == nil {
		t.Error("SendMessage() with empty chat ID should error")
	}
	if err := client.SendMessage(context.Background(), "123", ""); err == nil {
		t.Error("SendMessage() with empty text should error")
	}
}

func TestGetUpdates_Success(t *testing.T) {
	client := withServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottest-token/getUpdates" {
			t.Errorf("path = %s, want /bottest-token/getUpdates", r.URL.Path)
		}
		if got := r.URL.Query().Get("offset"); got != "42" {
			t.Errorf("offset = %q, want 42", got)
		}
		if got := r.URL.Query().Get("timeout"); got != "1" {
			t.Errorf("timeout = %q, want 1", got)
		}

		w.Write([]byte(`{"ok":true,"result":[
			{"update_id":42,"message":{"message_id":1,"from":{"id":7,"first_name":"Knight"},
			 "chat":{"id":-100,"type":"supergroup","title":"UCF Commuters"},"text":"/garage"}},
			{"update_id":43}
		]}`))
	})

	updates, err := client.GetUpdates(context.Background(), 42, 1)
	if err != nil {
		t.Fatalf("GetUpdates() error: %v", err)
	}

	if len(updates) != 2 {
		t.Fatalf("GetUpdates() returned %d updates, want 2", len(updates))
	}
	msg := updates[0].Message
	if msg == nil {
		t.Fatal("updates[0].Message is nil")
	}
	if msg.Text != "/garage" || msg.Chat.Title != "UCF Commuters" || msg.From.FirstName != "Knight" {
		t.Errorf("updates[0].Message = %+v", msg)
	}
	if updates[1].Message != nil {
		t.Errorf("updates[1].Message = %+v, want nil", updates[1].Message)
	}
}

func TestGetUpdates_NoParamsOnFirstPoll(t *testing.T) {
	client := withServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Errorf("query = %q, want empty", r.URL.RawQuery)
		}
		w.Write([]byte(`{"ok":true,"result":[]}`))
	})

	updates, err := client.GetUpdates(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("GetUpdates() error: %v", err)
	}
	if len(updates) != 0 {
		t.Errorf("GetUpdates() returned %d updates, want 0", len(updates))
	}
}

func TestGetUpdates_APIError(t *testing.T) {
	client := withServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"description":"Unauthorized"}`))
	})

	_, err := client.GetUpdates(context.Background(), 0, 0)
	if err == nil || !strings.Contains(err.Error(), "Unauthorized") {
		t.Errorf("GetUpdates() error = %v, want Unauthorized", err)
	}
}

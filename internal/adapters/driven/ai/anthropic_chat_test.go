package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
)

func TestNewAnthropicChat_RequiresAPIKey(t *testing.T) {
	if _, err := NewAnthropicChat("", "", "", 0); err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestAnthropicChat_Chat(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "sk-ant-test" {
			t.Errorf("unexpected api key header %q", r.Header.Get("X-Api-Key"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-test",
			"content": [{"type": "text", "text": "{\"Title\":"}, {"type": "text", "text": "\"Hello\"}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 20, "output_tokens": 7}
		}`))
	}))
	defer server.Close()

	chat, err := NewAnthropicChat("sk-ant-test", "claude-test", server.URL, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	messages := []domain.ChatMessage{
		{Role: domain.ChatRoleSystem, Content: "sys"},
		{Role: domain.ChatRoleUser, Content: "first"},
		{Role: domain.ChatRoleAssistant, Content: "reply"},
		{Role: domain.ChatRoleUser, Content: "repair"},
	}
	result, err := chat.Chat(context.Background(), messages, domain.DefaultModelKnobs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Content != `{"Title":"Hello"}` {
		t.Errorf("unexpected content %q", result.Content)
	}
	if result.Usage.InputTokens != 20 || result.Usage.OutputTokens != 7 {
		t.Errorf("unexpected usage %+v", result.Usage)
	}

	if got["model"] != "claude-test" {
		t.Errorf("unexpected model %v", got["model"])
	}
	if sys, ok := got["system"].([]any); !ok || len(sys) != 1 {
		t.Errorf("expected one system block, got %v", got["system"])
	}
	msgs, ok := got["messages"].([]any)
	if !ok || len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %v", got["messages"])
	}
	if msgs[1].(map[string]any)["role"] != "assistant" {
		t.Errorf("expected assistant turn, got %v", msgs[1])
	}
}

func TestAnthropicChat_ServerError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"boom"}}`))
	}))
	defer server.Close()

	chat, _ := NewAnthropicChat("sk-ant-test", "", server.URL, 0)
	_, err := chat.Chat(context.Background(), []domain.ChatMessage{{Role: domain.ChatRoleUser, Content: "hi"}}, domain.DefaultModelKnobs())
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected a single attempt, got %d", calls)
	}
}

func TestAnthropicChat_RequiresUserMessage(t *testing.T) {
	chat, _ := NewAnthropicChat("sk-ant-test", "", "http://127.0.0.1:1", 0)
	_, err := chat.Chat(context.Background(), []domain.ChatMessage{{Role: domain.ChatRoleSystem, Content: "sys"}}, domain.ModelKnobs{})
	if err == nil {
		t.Fatal("expected error without user messages")
	}
}

package infer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCompleteReturnsText(t *testing.T) {
	var got messagesRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" || r.Method != "POST" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("x-api-key") != "sk-test" {
			t.Errorf("missing x-api-key header")
		}
		if r.Header.Get("anthropic-version") != anthropicVersion {
			t.Errorf("anthropic-version = %q", r.Header.Get("anthropic-version"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(messagesResponse{
			Content: []contentBlock{{Type: "text", Text: "alice,30\nbob,25"}},
		})
	}))
	defer server.Close()

	c := NewAnthropic(server.URL, "sk-test", 0)
	text, err := c.Complete(context.Background(), Request{
		Model:       "claude-3-haiku-20240307",
		MaxTokens:   1500,
		Temperature: 0.7,
		System:      "generate rows",
		Prompt:      "give me rows",
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "alice,30\nbob,25" {
		t.Errorf("text = %q", text)
	}
	if got.Model != "claude-3-haiku-20240307" || got.MaxTokens != 1500 {
		t.Errorf("request body = %+v", got)
	}
	if got.System != "generate rows" {
		t.Errorf("system = %q", got.System)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestCompleteNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	c := NewAnthropic(server.URL, "sk-test", 0)
	_, err := c.Complete(context.Background(), Request{Model: "m", MaxTokens: 10, Prompt: "p"})
	if err == nil {
		t.Fatal("expected error for status 429")
	}
	if !strings.Contains(err.Error(), "status 429") {
		t.Errorf("error should carry the status, got %v", err)
	}
}

func TestCompleteErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(messagesResponse{
			Error: &apiError{Message: "invalid model", Type: "invalid_request_error"},
		})
	}))
	defer server.Close()

	c := NewAnthropic(server.URL, "sk-test", 0)
	_, err := c.Complete(context.Background(), Request{Model: "m", MaxTokens: 10, Prompt: "p"})
	if err == nil {
		t.Fatal("expected error for error envelope")
	}
	if !strings.Contains(err.Error(), "invalid model") {
		t.Errorf("error should carry the API message, got %v", err)
	}
}

func TestCompleteEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(messagesResponse{
			Content: []contentBlock{{Type: "text", Text: ""}},
		})
	}))
	defer server.Close()

	c := NewAnthropic(server.URL, "sk-test", 0)
	_, err := c.Complete(context.Background(), Request{Model: "m", MaxTokens: 10, Prompt: "p"})
	if err == nil {
		t.Fatal("empty content must be an error")
	}
}

func TestCompleteMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	c := NewAnthropic(server.URL, "sk-test", 0)
	_, err := c.Complete(context.Background(), Request{Model: "m", MaxTokens: 10, Prompt: "p"})
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestCompleteContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(messagesResponse{Content: []contentBlock{{Type: "text", Text: "x"}}})
	}))
	defer server.Close()

	c := NewAnthropic(server.URL, "sk-test", 0)
	_, err := c.Complete(ctx, Request{Model: "m", MaxTokens: 10, Prompt: "p"})
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

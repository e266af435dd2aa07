package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/exedev/conclave/internal/chat"
)

func openRouterFor(t *testing.T, handler http.HandlerFunc) *OpenRouterClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewOpenRouterClient("test-key")
	c.baseURL = srv.URL
	return c
}

func TestOpenRouterComplete(t *testing.T) {
	var gotAuth string
	var gotReq wireRequest
	c := openRouterFor(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "bonjour"}},
			},
		})
	})

	msgs := []chat.Message{
		{Role: chat.RoleUser, Content: "hi"},
		{Role: chat.RoleAssistant, Content: "hello"},
		{Role: chat.RoleUser, Content: "in french?"},
	}
	got, err := c.Complete(context.Background(), "deepseek/deepseek-r1", msgs, "be brief", 0.4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "bonjour" {
		t.Fatalf("got %q", got)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("bad auth header: %q", gotAuth)
	}
	if gotReq.Model != "deepseek/deepseek-r1" || gotReq.Temperature != 0.4 {
		t.Fatalf("bad request: %+v", gotReq)
	}
	if len(gotReq.Messages) != 4 {
		t.Fatalf("expected system + 3 history messages, got %d", len(gotReq.Messages))
	}
	if gotReq.Messages[0].Role != chat.RoleSystem || gotReq.Messages[0].Content != "be brief" {
		t.Fatalf("expected leading system message, got %+v", gotReq.Messages[0])
	}
}

func TestOpenRouterEmptyChoices(t *testing.T) {
	c := openRouterFor(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	})
	got, err := c.Complete(context.Background(), "m", nil, "", 0.7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != noData {
		t.Fatalf("expected %q, got %q", noData, got)
	}
}

func TestOpenRouterHTTPError(t *testing.T) {
	c := openRouterFor(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	})
	_, err := c.Complete(context.Background(), "m", nil, "", 0.7)
	if err == nil {
		t.Fatal("expected error for non-2xx status")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", apiErr.StatusCode)
	}
	if !strings.Contains(apiErr.Body, "rate limited") {
		t.Fatalf("expected raw body to be preserved, got %q", apiErr.Body)
	}
}

func TestOpenRouterMalformedResponse(t *testing.T) {
	c := openRouterFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})
	_, err := c.Complete(context.Background(), "m", nil, "", 0.7)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Body != "not json" {
		t.Fatalf("expected raw body to be preserved, got %q", apiErr.Body)
	}
}

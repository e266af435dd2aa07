// Package llm provides a provider-agnostic interface for LLM completions.
package llm

import (
	"context"
	"fmt"

	"github.com/exedev/conclave/internal/chat"
)

// Client is one backend adapter. Implementations exist for Anthropic,
// OpenRouter, and OpenAI. Each adapter maps the canonical message list,
// system prompt, and temperature onto its own wire format and returns
// the response as plain text.
type Client interface {
	Complete(ctx context.Context, model string, messages []chat.Message, system string, temperature float64) (string, error)
}

// APIError is the uniform provider error. Adapters never leak
// backend-specific error types; everything is normalized to this,
// carrying the HTTP status and raw body when available.
type APIError struct {
	Message    string
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider error (status %d): %s", e.StatusCode, e.Message)
	}
	return "provider error: " + e.Message
}

func (e *APIError) Unwrap() error { return e.Err }

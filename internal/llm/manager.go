package llm

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/exedev/conclave/internal/chat"
)

const (
	maxAttempts = 3
	retryDelay  = time.Second
)

// Options carries the credentials and limits needed to build a Manager.
// A provider with an empty credential is simply not registered: callers
// see it as unavailable, never as a crash.
type Options struct {
	AnthropicAPIKey  string
	OpenRouterAPIKey string
	OpenAIAPIKey     string
	MaxTokens        int
	Logger           *log.Logger
}

// Manager is the completion engine: it dispatches on the provider
// enumeration and wraps every call in a bounded retry with a fixed
// backoff. LLM APIs rate-limit predictably, so there is no exponential
// growth and no jitter.
type Manager struct {
	clients map[chat.Provider]Client
	logger  *log.Logger
	backoff time.Duration
}

func NewManager(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	clients := make(map[chat.Provider]Client)
	if opts.AnthropicAPIKey != "" {
		clients[chat.ProviderAnthropic] = NewAnthropicClient(opts.AnthropicAPIKey, opts.MaxTokens, logger)
	}
	if opts.OpenRouterAPIKey != "" {
		clients[chat.ProviderOpenRouter] = NewOpenRouterClient(opts.OpenRouterAPIKey)
	}
	if opts.OpenAIAPIKey != "" {
		clients[chat.ProviderOpenAI] = NewOpenAIClient(opts.OpenAIAPIKey)
	}

	return &Manager{
		clients: clients,
		logger:  logger,
		backoff: retryDelay,
	}
}

// Available reports which providers have a configured credential.
func (m *Manager) Available() []chat.Provider {
	var out []chat.Provider
	for _, p := range chat.Providers() {
		if _, ok := m.clients[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// GetCompletion runs one completion against the named provider. An
// unavailable or unknown provider is a configuration error and is
// returned immediately; transient provider failures are retried up to
// maxAttempts with a fixed pause between attempts, and exhausting the
// ceiling yields a terminal APIError reporting the attempt count and
// the last cause.
func (m *Manager) GetCompletion(ctx context.Context, provider chat.Provider, model string, messages []chat.Message, system string, temperature float64) (string, error) {
	client, ok := m.clients[provider]
	if !ok {
		return "", fmt.Errorf("provider %s is not configured (missing API key?)", provider)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		text, err := client.Complete(ctx, model, messages, system, temperature)
		if err == nil {
			return text, nil
		}
		lastErr = err
		m.logger.Printf("attempt %d failed for %s/%s: %v", attempt, provider, model, err)

		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(m.backoff):
		}
	}

	m.logger.Printf("giving up on %s/%s after %d attempts: %v", provider, model, maxAttempts, lastErr)
	return "", &APIError{
		Message: fmt.Sprintf("failed after %d attempts: %v", maxAttempts, lastErr),
		Err:     lastErr,
	}
}

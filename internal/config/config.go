// Package config loads provider credentials and model catalogs from
// the environment.
package config

import (
	"os"

	"github.com/exedev/conclave/internal/chat"
)

const DefaultMaxTokens = 8192

// Config holds one API credential per provider plus the selectable
// model ids for each. A provider with an empty credential is treated
// as unavailable, never as a fatal condition.
type Config struct {
	AnthropicAPIKey  string
	OpenRouterAPIKey string
	OpenAIAPIKey     string
	MaxTokens        int
	Models           map[chat.Provider][]string
}

// LoadFromEnv reads the three API keys from the environment and fills
// in the default model catalog. Call godotenv.Load first if a .env
// file should be honored.
func LoadFromEnv() *Config {
	return &Config{
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		MaxTokens:        DefaultMaxTokens,
		Models: map[chat.Provider][]string{
			chat.ProviderAnthropic:  {"claude-3-7-sonnet-20250219", "claude-3-5-sonnet-20241022", "claude-3-opus-20240229"},
			chat.ProviderOpenRouter: {"deepseek/deepseek-r1"},
			chat.ProviderOpenAI:     {"gpt-4o", "o1-preview", "gpt-4.5-preview"},
		},
	}
}

// Key returns the credential for one provider.
func (c *Config) Key(p chat.Provider) string {
	switch p {
	case chat.ProviderAnthropic:
		return c.AnthropicAPIKey
	case chat.ProviderOpenRouter:
		return c.OpenRouterAPIKey
	case chat.ProviderOpenAI:
		return c.OpenAIAPIKey
	}
	return ""
}

// Available lists providers with a non-empty credential, in display
// order.
func (c *Config) Available() []chat.Provider {
	var out []chat.Provider
	for _, p := range chat.Providers() {
		if c.Key(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// DefaultModel returns the first catalog entry for a provider, or ""
// when the provider has no catalog.
func (c *Config) DefaultModel(p chat.Provider) string {
	if models := c.Models[p]; len(models) > 0 {
		return models[0]
	}
	return ""
}

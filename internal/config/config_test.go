package config

import (
	"testing"

	"github.com/exedev/conclave/internal/chat"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "ak")
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "ok")

	cfg := LoadFromEnv()
	if cfg.AnthropicAPIKey != "ak" || cfg.OpenAIAPIKey != "ok" {
		t.Fatalf("keys not loaded: %+v", cfg)
	}
	if cfg.MaxTokens != DefaultMaxTokens {
		t.Fatalf("expected default max tokens, got %d", cfg.MaxTokens)
	}

	avail := cfg.Available()
	if len(avail) != 2 {
		t.Fatalf("expected 2 available providers, got %v", avail)
	}
	if avail[0] != chat.ProviderAnthropic || avail[1] != chat.ProviderOpenAI {
		t.Fatalf("unexpected providers: %v", avail)
	}
}

func TestDefaultModel(t *testing.T) {
	cfg := LoadFromEnv()
	if got := cfg.DefaultModel(chat.ProviderOpenRouter); got != "deepseek/deepseek-r1" {
		t.Fatalf("unexpected default model: %q", got)
	}
	if got := cfg.DefaultModel(chat.Provider("bogus")); got != "" {
		t.Fatalf("expected empty default for unknown provider, got %q", got)
	}
}

func TestKeyUnknownProvider(t *testing.T) {
	cfg := &Config{}
	if got := cfg.Key(chat.Provider("bogus")); got != "" {
		t.Fatalf("expected empty key, got %q", got)
	}
}

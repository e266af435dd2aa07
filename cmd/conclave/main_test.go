package main

import (
	"testing"

	"github.com/exedev/conclave/internal/chat"
)

func TestParseModelRef(t *testing.T) {
	ref, err := parseModelRef("OpenRouter/deepseek/deepseek-r1")
	if err != nil {
		t.Fatal(err)
	}
	if ref.Provider != chat.ProviderOpenRouter {
		t.Fatalf("provider = %q", ref.Provider)
	}
	if ref.Model != "deepseek/deepseek-r1" {
		t.Fatalf("slashes in the model ID must survive: %q", ref.Model)
	}
}

func TestParseModelRefErrors(t *testing.T) {
	for _, spec := range []string{"", "anthropic", "anthropic/", "nobody/model"} {
		if _, err := parseModelRef(spec); err == nil {
			t.Fatalf("expected error for %q", spec)
		}
	}
}

func TestParseParticipant(t *testing.T) {
	name, ref, err := parseParticipant("Claude=anthropic/claude-3-5-sonnet-20241022")
	if err != nil {
		t.Fatal(err)
	}
	if name != "Claude" {
		t.Fatalf("name = %q", name)
	}
	if ref.Provider != chat.ProviderAnthropic || ref.Model != "claude-3-5-sonnet-20241022" {
		t.Fatalf("ref = %+v", ref)
	}
}

func TestParseParticipantErrors(t *testing.T) {
	for _, spec := range []string{"", "=anthropic/m", "Claude", "Claude=anthropic"} {
		if _, _, err := parseParticipant(spec); err == nil {
			t.Fatalf("expected error for %q", spec)
		}
	}
}

func TestParseProviderCaseInsensitive(t *testing.T) {
	p, err := parseProvider("openai")
	if err != nil {
		t.Fatal(err)
	}
	if p != chat.ProviderOpenAI {
		t.Fatalf("provider = %q", p)
	}
}

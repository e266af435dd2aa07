package chat

import (
	"encoding/json"
	"fmt"
)

// Provider identifies one of the supported LLM backends.
type Provider string

const (
	ProviderAnthropic  Provider = "Anthropic"
	ProviderOpenRouter Provider = "OpenRouter"
	ProviderOpenAI     Provider = "OpenAI"
)

// Providers lists every backend in display order.
func Providers() []Provider {
	return []Provider{ProviderAnthropic, ProviderOpenRouter, ProviderOpenAI}
}

// ChatMode selects how a user turn is answered.
type ChatMode string

const (
	ModeStandard   ChatMode = "Standard Chat"
	ModeRoundTable ChatMode = "Round Table"
)

// ModelRef names one concrete model on one provider.
type ModelRef struct {
	Provider Provider `json:"provider"`
	Model    string   `json:"model"`
}

func (r ModelRef) String() string {
	return fmt.Sprintf("%s (%s)", r.Model, r.Provider)
}

// RoundTableConfig is the roster of round table participants plus the
// chairman that synthesizes their answers. Participant names are unique.
type RoundTableConfig struct {
	Models   map[string]ModelRef `json:"models"`
	Chairman *ModelRef           `json:"chairman_model,omitempty"`
}

// AddParticipant registers a named participant. A name that is already
// taken is rejected without touching the roster.
func (c *RoundTableConfig) AddParticipant(name string, ref ModelRef) error {
	if name == "" {
		return fmt.Errorf("participant name must not be empty")
	}
	if _, exists := c.Models[name]; exists {
		return fmt.Errorf("participant %q already exists", name)
	}
	if c.Models == nil {
		c.Models = make(map[string]ModelRef)
	}
	c.Models[name] = ref
	return nil
}

// RemoveParticipant drops a participant by name. Unknown names are a no-op.
func (c *RoundTableConfig) RemoveParticipant(name string) {
	delete(c.Models, name)
}

// SetChairman designates the synthesizing model. The chairman does not
// have to be a roster member.
func (c *RoundTableConfig) SetChairman(ref ModelRef) {
	c.Chairman = &ref
}

// Clear wipes the roster and the chairman.
func (c *RoundTableConfig) Clear() {
	c.Models = nil
	c.Chairman = nil
}

// DefaultSystemPrompt is the system prompt new sessions start with.
// The wording (typo included) matches what persisted sessions carry.
const DefaultSystemPrompt = "You are helpful asistant. Explain in depth."

// ChatSession is one conversation: a system prompt, the append-only
// message history, the round table roster, and the active mode.
// A session has a single writer; callers serialize turns against it.
type ChatSession struct {
	System     string           `json:"system"`
	History    []Message        `json:"history"`
	RoundTable RoundTableConfig `json:"round_table"`
	Mode       ChatMode         `json:"mode"`
}

// NewSession creates an empty standard-mode session.
func NewSession(system string) *ChatSession {
	if system == "" {
		system = DefaultSystemPrompt
	}
	return &ChatSession{System: system, Mode: ModeStandard}
}

// AddMessage appends a message to the history.
func (s *ChatSession) AddMessage(role, content, source string) error {
	msg, err := NewMessage(role, content, source)
	if err != nil {
		return err
	}
	s.History = append(s.History, msg)
	return nil
}

// ClearHistory empties the history, leaving the system prompt and the
// round table roster intact.
func (s *ChatSession) ClearHistory() {
	s.History = nil
}

// HasContent reports whether any messages have been exchanged.
func (s *ChatSession) HasContent() bool {
	return len(s.History) > 0
}

// UnmarshalJSON fills in defaults for sessions persisted before the
// round table feature existed: missing mode becomes Standard, missing
// roster becomes empty.
func (s *ChatSession) UnmarshalJSON(data []byte) error {
	type alias ChatSession
	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Mode == "" {
		raw.Mode = ModeStandard
	}
	*s = ChatSession(raw)
	return nil
}

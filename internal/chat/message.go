// Package chat holds the conversation data model: messages, sessions,
// and the round table roster.
package chat

import "fmt"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single immutable entry in a session's history.
// Source identifies which round table participant (or the chairman)
// produced an assistant message; it is empty for user messages and
// for standard-mode responses.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Source  string `json:"source,omitempty"`
}

// NewMessage builds a message, rejecting empty content.
func NewMessage(role, content, source string) (Message, error) {
	if content == "" {
		return Message{}, fmt.Errorf("message content must not be empty")
	}
	switch role {
	case RoleUser, RoleAssistant, RoleSystem:
	default:
		return Message{}, fmt.Errorf("unknown message role %q", role)
	}
	return Message{Role: role, Content: content, Source: source}, nil
}

// ValidateHistory checks the standard-mode shape: the first message is
// from the user and a user message is never immediately followed by
// another user message. Round table histories pass too, since they only
// stack assistant messages.
func ValidateHistory(history []Message) bool {
	if len(history) == 0 {
		return true
	}
	if history[0].Role != RoleUser {
		return false
	}
	for i := 1; i < len(history); i++ {
		if history[i].Role == RoleUser && history[i-1].Role == RoleUser {
			return false
		}
	}
	return true
}

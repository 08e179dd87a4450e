// Package history persists chat sessions, their messages and the
// conversation state carried between turns.
package history

import (
	"time"

	"github.com/ziadkadry99/runbookqa/internal/assistant"
)

// DefaultTitle names a session before its first message.
const DefaultTitle = "New Chat"

const titleLength = 30

// Session is a stored conversation.
type Session struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Title     string          `json:"title"`
	State     assistant.State `json:"state"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Message is a single stored turn.
type Message struct {
	ID          string         `json:"id"`
	SessionID   string         `json:"session_id"`
	Role        assistant.Role `json:"role"`
	Content     string         `json:"content"`
	Sources     []string       `json:"sources"`
	IsRunbook   bool           `json:"is_runbook"`
	RunbookType string         `json:"runbook_type,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Turn converts the message for the answer engine.
func (m Message) Turn() assistant.Turn {
	return assistant.Turn{Role: m.Role, Content: m.Content}
}

// Turns converts messages in order.
func Turns(msgs []Message) []assistant.Turn {
	out := make([]assistant.Turn, len(msgs))
	for i, m := range msgs {
		out[i] = m.Turn()
	}
	return out
}

// Title derives a session title from its first message.
func Title(first string) string {
	runes := []rune(first)
	if len(runes) == 0 {
		return DefaultTitle
	}
	if len(runes) > titleLength {
		runes = runes[:titleLength]
	}
	return string(runes)
}

// normalizeRole maps client sender names onto stored roles. Anything that
// is not the user is the assistant ("bot", "ai", ...).
func normalizeRole(r assistant.Role) assistant.Role {
	if r == assistant.RoleUser {
		return assistant.RoleUser
	}
	return assistant.RoleAssistant
}

package conv

import "time"

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn persists one message in a conversation. Immutable once logged;
// Metadata carries strategy name, confidence and language info.
type Turn struct {
	ID        string         `json:"id"`
	SessionID string         `json:"sessionId"`
	Role      Role           `json:"role"`
	Text      string         `json:"text"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Session owns an ordered sequence of turns. Created on first message with
// a given id; the caller controls retention.
type Session struct {
	SessionID string    `json:"sessionId"`
	Turns     []Turn    `json:"turns"`
	Topics    []string  `json:"topics"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// LastEnhanced keeps the most recent rewritten query for stats.
	LastEnhanced string `json:"lastEnhanced,omitempty"`
}

// Stats is a pure aggregation over a session's stored turns.
type Stats struct {
	SessionID    string   `json:"sessionId"`
	MessageCount int      `json:"messageCount"`
	TopTopics    []string `json:"topTopics"`
	LastEnhanced string   `json:"lastEnhanced,omitempty"`
}

package session

import "time"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single turn of the dialog
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session represents one skill session as seen by the bridge
type Session struct {
	ID           string    `json:"id"`
	StartTime    time.Time `json:"start_time"`
	LastActivity time.Time `json:"last_activity"`
	Messages     []Message `json:"messages"`
}

// NewMessage creates a turn stamped with the given time
func NewMessage(role, content string, at time.Time) Message {
	return Message{Role: role, Content: content, Timestamp: at}
}

// Clone returns a deep copy that callers may modify freely
func (s *Session) Clone() *Session {
	out := *s
	out.Messages = make([]Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	return &out
}

// Window returns a copy of the last n messages
func (s *Session) Window(n int) []Message {
	return lastN(s.Messages, n)
}

// Idle reports whether the session has been inactive for longer than ttl
func (s *Session) Idle(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.LastActivity) > ttl
}

func lastN(messages []Message, n int) []Message {
	if n <= 0 || n > len(messages) {
		n = len(messages)
	}
	out := make([]Message, n)
	copy(out, messages[len(messages)-n:])
	return out
}

// capHistory drops the oldest turns so at most limit remain
func capHistory(messages []Message, limit int) []Message {
	if limit <= 0 || len(messages) <= limit {
		return messages
	}
	return lastN(messages, limit)
}

// Package session holds the short-term conversation window.
package session

import (
	"strings"
	"sync"
	"time"

	"github.com/scrypster/recall/pkg/types"
)

// DefaultMaxMessages is the default size of the short-term window.
const DefaultMaxMessages = 10

// Session is a bounded FIFO of recent conversation messages. When the
// window is full, appending drops the oldest message. Safe for concurrent
// use.
type Session struct {
	mu       sync.Mutex
	messages []types.Message
	max      int
}

// New creates a session with the given window size. Sizes below one fall
// back to DefaultMaxMessages.
func New(maxMessages int) *Session {
	if maxMessages < 1 {
		maxMessages = DefaultMaxMessages
	}
	return &Session{max: maxMessages}
}

// Append adds a message to the window, evicting the oldest when full.
func (s *Session) Append(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, types.Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
	if len(s.messages) > s.max {
		s.messages = s.messages[len(s.messages)-s.max:]
	}
}

// Messages returns a copy of the window, oldest first.
func (s *Session) Messages() []types.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages currently in the window.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Clear empties the window.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}

// FormatContext renders the window as prompt context, one "Role: content"
// line per message.
func (s *Session) FormatContext() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.messages) == 0 {
		return "(No previous messages)"
	}

	var b strings.Builder
	for i, m := range s.messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(formatRole(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}

func formatRole(role string) string {
	switch role {
	case "user":
		return "User"
	case "assistant":
		return "Assistant"
	default:
		return role
	}
}

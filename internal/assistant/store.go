package assistant

import (
	"context"
	"sync"
	"time"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one side of a chat exchange.
type Message struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// MessageStore persists chat messages. Quota enforcement counts the
// user's own messages per calendar month.
type MessageStore interface {
	Save(ctx context.Context, msg *Message) error
	CountSince(ctx context.Context, userID, role string, since time.Time) (int, error)
}

// MemoryMessageStore is an in-memory MessageStore safe for concurrent
// use. Data is lost on restart.
type MemoryMessageStore struct {
	mu       sync.RWMutex
	messages []Message
}

// NewMemoryMessageStore creates an empty in-memory message store.
func NewMemoryMessageStore() *MemoryMessageStore {
	return &MemoryMessageStore{}
}

// Save appends a copy of the message.
func (s *MemoryMessageStore) Save(ctx context.Context, msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, *msg)
	return nil
}

// CountSince counts the user's messages with the given role created at
// or after since.
func (s *MemoryMessageStore) CountSince(ctx context.Context, userID, role string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, m := range s.messages {
		if m.UserID == userID && m.Role == role && !m.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

var _ MessageStore = (*MemoryMessageStore)(nil)

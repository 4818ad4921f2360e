package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hearthd/hearth/pkg/models"
)

// MemoryStore keeps everything in process. Contents vanish on
// restart; suitable for tests and ephemeral runs.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	messages      map[string][]StoredMessage
	decisions     []Decision
	nextMsgID     int64
	nextDecID     int64
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]*Conversation),
		messages:      make(map[string][]StoredMessage),
	}
}

func (s *MemoryStore) GetOrCreateConversation(ctx context.Context, id string) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if c, ok := s.conversations[id]; ok {
			cp := *c
			return &cp, nil
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now()
	c := &Conversation{ID: id, CreatedAt: now, UpdatedAt: now}
	s.conversations[id] = c
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) AddMessage(ctx context.Context, conversationID string, msg models.ChatMessage, agent string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[conversationID]
	if !ok {
		return ErrNotFound
	}

	s.nextMsgID++
	s.messages[conversationID] = append(s.messages[conversationID], StoredMessage{
		ID:             s.nextMsgID,
		ConversationID: conversationID,
		Role:           string(msg.Role),
		Content:        msg.Content,
		Agent:          agent,
		CreatedAt:      time.Now(),
	})
	c.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) GetContextMessages(ctx context.Context, conversationID string, max int) ([]models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.messages[conversationID]
	if max > 0 && len(stored) > max {
		stored = stored[len(stored)-max:]
	}
	out := make([]models.ChatMessage, len(stored))
	for i, m := range stored {
		out[i] = models.ChatMessage{Role: models.Role(m.Role), Content: m.Content}
	}
	return out, nil
}

func (s *MemoryStore) LogDecision(ctx context.Context, d Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextDecID++
	d.ID = s.nextDecID
	if d.Timestamp.IsZero() {
		d.Timestamp = time.Now()
	}
	s.decisions = append(s.decisions, d)
	return nil
}

func (s *MemoryStore) ListDecisions(ctx context.Context, limit int) ([]Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.decisions)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Decision, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.decisions[i])
	}
	return out, nil
}

func (s *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := 0
	for _, m := range s.messages {
		msgs += len(m)
	}
	return Stats{
		Conversations: len(s.conversations),
		Messages:      msgs,
		Decisions:     len(s.decisions),
	}, nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)

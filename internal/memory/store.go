// Package memory persists conversations, messages, and routing
// decisions. Three backends share one interface: an in-process map
// store, SQLite for single-node installs, and Postgres for anything
// shared.
package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hearthd/hearth/internal/config"
	"github.com/hearthd/hearth/pkg/models"
)

// ErrNotFound is returned when a conversation does not exist.
var ErrNotFound = errors.New("memory: not found")

// Conversation groups related messages.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StoredMessage is a persisted conversation turn.
type StoredMessage struct {
	ID             int64     `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	Agent          string    `json:"agent,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Decision records a routing or response decision for auditability.
type Decision struct {
	ID           int64     `json:"id"`
	Type         string    `json:"type"`
	Decision     string    `json:"decision"`
	Agent        string    `json:"agent,omitempty"`
	InputSummary string    `json:"input_summary,omitempty"`
	Reasoning    string    `json:"reasoning,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Stats summarizes store contents.
type Stats struct {
	Conversations int `json:"conversations"`
	Messages      int `json:"messages"`
	Decisions     int `json:"decisions"`
}

// Store is the persistence contract shared by all backends.
type Store interface {
	// GetOrCreateConversation returns the conversation with id, or
	// creates one. An empty id always creates.
	GetOrCreateConversation(ctx context.Context, id string) (*Conversation, error)

	// AddMessage appends a turn to a conversation.
	AddMessage(ctx context.Context, conversationID string, msg models.ChatMessage, agent string) error

	// GetContextMessages returns up to max of the most recent
	// messages, oldest first.
	GetContextMessages(ctx context.Context, conversationID string, max int) ([]models.ChatMessage, error)

	// LogDecision records a decision in the audit trail.
	LogDecision(ctx context.Context, d Decision) error

	// ListDecisions returns the most recent decisions, newest first.
	ListDecisions(ctx context.Context, limit int) ([]Decision, error)

	// Stats reports store contents.
	Stats(ctx context.Context) (Stats, error)

	Close() error
}

// Open constructs the store named by cfg.Backend.
func Open(cfg config.MemoryConfig) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		path := cfg.Path
		if path == "" {
			path = "hearth.db"
		}
		return NewSQLiteStore(path)
	case "postgres":
		if cfg.DSN == "" {
			return nil, errors.New("memory: postgres backend requires a dsn")
		}
		return NewPostgresStore(context.Background(), cfg.DSN)
	default:
		return nil, fmt.Errorf("memory: unknown backend %q", cfg.Backend)
	}
}

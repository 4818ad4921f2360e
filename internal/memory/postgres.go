package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hearthd/hearth/pkg/models"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id              BIGSERIAL PRIMARY KEY,
	conversation_id TEXT NOT NULL REFERENCES conversations(id),
	role            TEXT NOT NULL,
	content         TEXT NOT NULL,
	agent           TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, id);

CREATE TABLE IF NOT EXISTS decision_log (
	id            BIGSERIAL PRIMARY KEY,
	type          TEXT NOT NULL,
	decision      TEXT NOT NULL,
	agent         TEXT NOT NULL DEFAULT '',
	input_summary TEXT NOT NULL DEFAULT '',
	reasoning     TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL
);
`

// PostgresStore persists to Postgres via a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn and applies the schema.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) GetOrCreateConversation(ctx context.Context, id string) (*Conversation, error) {
	if id != "" {
		var c Conversation
		err := s.pool.QueryRow(ctx,
			`SELECT id, title, created_at, updated_at FROM conversations WHERE id = $1`, id).
			Scan(&c.ID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
		if err == nil {
			return &c, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("query conversation: %w", err)
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now()
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO conversations (id, title, created_at, updated_at) VALUES ($1, '', $2, $2)`,
		id, now); err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}
	return &Conversation{ID: id, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *PostgresStore) AddMessage(ctx context.Context, conversationID string, msg models.ChatMessage, agent string) error {
	now := time.Now()
	tag, err := s.pool.Exec(ctx,
		`UPDATE conversations SET updated_at = $1 WHERE id = $2`, now, conversationID)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO messages (conversation_id, role, content, agent, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		conversationID, msg.Role, msg.Content, agent, now)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetContextMessages(ctx context.Context, conversationID string, max int) ([]models.ChatMessage, error) {
	if max <= 0 {
		max = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT role, content FROM (
			SELECT id, role, content FROM messages
			WHERE conversation_id = $1
			ORDER BY id DESC LIMIT $2
		) recent ORDER BY id ASC`, conversationID, max)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.Role, &m.Content); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) LogDecision(ctx context.Context, d Decision) error {
	ts := d.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO decision_log (type, decision, agent, input_summary, reasoning, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		d.Type, d.Decision, d.Agent, d.InputSummary, d.Reasoning, ts)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListDecisions(ctx context.Context, limit int) ([]Decision, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, type, decision, agent, input_summary, reasoning, created_at
		 FROM decision_log ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []Decision
	for rows.Next() {
		var d Decision
		if err := rows.Scan(&d.ID, &d.Type, &d.Decision, &d.Agent, &d.InputSummary, &d.Reasoning, &d.Timestamp); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.pool.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM conversations),
		       (SELECT COUNT(*) FROM messages),
		       (SELECT COUNT(*) FROM decision_log)`).
		Scan(&st.Conversations, &st.Messages, &st.Decisions)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

var _ Store = (*PostgresStore)(nil)

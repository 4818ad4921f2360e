package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hearthd/hearth/internal/config"
	"github.com/hearthd/hearth/pkg/models"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	s := NewMemoryStore()
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetOrCreateConversation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c1, err := s.GetOrCreateConversation(ctx, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c1.ID == "" {
		t.Fatal("created conversation has empty id")
	}

	c2, err := s.GetOrCreateConversation(ctx, c1.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c2.ID != c1.ID {
		t.Errorf("got %q, want existing %q", c2.ID, c1.ID)
	}

	c3, err := s.GetOrCreateConversation(ctx, "named-conv")
	if err != nil {
		t.Fatalf("create named: %v", err)
	}
	if c3.ID != "named-conv" {
		t.Errorf("got %q, want named-conv", c3.ID)
	}
}

func TestMessagesOrdered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c, _ := s.GetOrCreateConversation(ctx, "")
	for i := 0; i < 5; i++ {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		msg := models.ChatMessage{Role: role, Content: fmt.Sprintf("msg %d", i)}
		if err := s.AddMessage(ctx, c.ID, msg, "general"); err != nil {
			t.Fatalf("AddMessage: %v", err)
		}
	}

	msgs, err := s.GetContextMessages(ctx, c.ID, 10)
	if err != nil {
		t.Fatalf("GetContextMessages: %v", err)
	}
	if len(msgs) != 5 {
		t.Fatalf("len = %d, want 5", len(msgs))
	}
	for i, m := range msgs {
		if want := fmt.Sprintf("msg %d", i); m.Content != want {
			t.Errorf("msgs[%d] = %q, want %q", i, m.Content, want)
		}
		wantRole := models.RoleUser
		if i%2 == 1 {
			wantRole = models.RoleAssistant
		}
		if m.Role != wantRole {
			t.Errorf("msgs[%d].Role = %q, want %q", i, m.Role, wantRole)
		}
	}
}

func TestContextTruncatedToMostRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c, _ := s.GetOrCreateConversation(ctx, "")
	for i := 0; i < 30; i++ {
		msg := models.ChatMessage{Role: models.RoleUser, Content: fmt.Sprintf("msg %d", i)}
		if err := s.AddMessage(ctx, c.ID, msg, ""); err != nil {
			t.Fatalf("AddMessage: %v", err)
		}
	}

	msgs, err := s.GetContextMessages(ctx, c.ID, 20)
	if err != nil {
		t.Fatalf("GetContextMessages: %v", err)
	}
	if len(msgs) != 20 {
		t.Fatalf("len = %d, want 20", len(msgs))
	}
	if msgs[0].Content != "msg 10" {
		t.Errorf("first = %q, want msg 10 (oldest surviving)", msgs[0].Content)
	}
	if msgs[19].Content != "msg 29" {
		t.Errorf("last = %q, want msg 29", msgs[19].Content)
	}
}

func TestAddMessageUnknownConversation(t *testing.T) {
	s := newTestStore(t)

	err := s.AddMessage(context.Background(), "nope", models.ChatMessage{Role: models.RoleUser, Content: "x"}, "")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDecisionLog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := s.LogDecision(ctx, Decision{
			Type:     "agent_selection",
			Decision: fmt.Sprintf("decision %d", i),
			Agent:    "debug",
		})
		if err != nil {
			t.Fatalf("LogDecision: %v", err)
		}
	}

	decs, err := s.ListDecisions(ctx, 2)
	if err != nil {
		t.Fatalf("ListDecisions: %v", err)
	}
	if len(decs) != 2 {
		t.Fatalf("len = %d, want 2", len(decs))
	}
	if decs[0].Decision != "decision 2" {
		t.Errorf("newest = %q, want decision 2", decs[0].Decision)
	}
	if decs[0].Timestamp.IsZero() {
		t.Error("timestamp was not defaulted")
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c, _ := s.GetOrCreateConversation(ctx, "")
	s.AddMessage(ctx, c.ID, models.ChatMessage{Role: models.RoleUser, Content: "hi"}, "")
	s.LogDecision(ctx, Decision{Type: "agent_selection", Decision: "x"})

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Conversations != 1 || st.Messages != 1 || st.Decisions != 1 {
		t.Errorf("stats = %+v, want 1/1/1", st)
	}
}

func TestOpenBackends(t *testing.T) {
	s, err := Open(config.MemoryConfig{Backend: "memory"})
	if err != nil {
		t.Fatalf("Open memory: %v", err)
	}
	s.Close()

	s, err = Open(config.MemoryConfig{Backend: "sqlite", Path: t.TempDir() + "/test.db"})
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	c, err := s.GetOrCreateConversation(ctx, "")
	if err != nil {
		t.Fatalf("sqlite create conversation: %v", err)
	}
	if err := s.AddMessage(ctx, c.ID, models.ChatMessage{Role: models.RoleUser, Content: "hi"}, "general"); err != nil {
		t.Fatalf("sqlite AddMessage: %v", err)
	}
	msgs, err := s.GetContextMessages(ctx, c.ID, 10)
	if err != nil {
		t.Fatalf("sqlite GetContextMessages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "hi" {
		t.Errorf("sqlite msgs = %+v, want one message", msgs)
	}

	if _, err := Open(config.MemoryConfig{Backend: "bogus"}); err == nil {
		t.Error("Open with unknown backend should fail")
	}
}

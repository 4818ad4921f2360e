package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/hearthd/hearth/internal/config"
	"github.com/hearthd/hearth/internal/events"
	"github.com/hearthd/hearth/internal/memory"
	"github.com/hearthd/hearth/internal/provider"
	"github.com/hearthd/hearth/pkg/models"
)

// stubProvider answers every completion with a fixed reply.
type stubProvider struct {
	reply string
	fail  bool
	last  *models.CompletionRequest
}

func (s *stubProvider) Name() string  { return "stub" }
func (s *stubProvider) Enabled() bool { return true }
func (s *stubProvider) Priority() int { return 1 }

func (s *stubProvider) Complete(ctx context.Context, req *models.CompletionRequest) (*models.CompletionResponse, error) {
	s.last = req
	if s.fail {
		return nil, errors.New("backend down")
	}
	return &models.CompletionResponse{
		Content:  s.reply,
		Model:    "stub-model",
		Provider: "stub",
	}, nil
}

func (s *stubProvider) Stream(ctx context.Context, req *models.CompletionRequest) (<-chan string, error) {
	ch := make(chan string, 1)
	ch <- s.reply
	close(ch)
	return ch, nil
}

func (s *stubProvider) TestConnection(ctx context.Context) models.ProviderStatus {
	return models.ProviderStatus{Name: "stub", Online: true}
}

func (s *stubProvider) ListModels(ctx context.Context) ([]string, error) {
	return []string{"stub-model"}, nil
}

func (s *stubProvider) Status() models.ProviderStatus {
	return models.ProviderStatus{Name: "stub", Online: true}
}

func newTestAgent(t *testing.T, persona Persona, stub *stubProvider) (*Agent, memory.Store, *events.Bus) {
	t.Helper()
	cfg := config.Default()
	bus := events.NewBus()
	store := memory.NewMemoryStore()
	mgr := provider.NewManager(bus)
	mgr.Register(stub)
	return New(persona, cfg, mgr, store, bus), store, bus
}

func TestProcessSuccess(t *testing.T) {
	stub := &stubProvider{reply: "the answer"}
	a, store, bus := newTestAgent(t, GeneralPersona(), stub)

	var types []events.Type
	for _, et := range []events.Type{events.AgentTaskStarted, events.AgentTaskCompleted, events.AgentTaskFailed} {
		et := et
		bus.OnSync(et, func(e events.Event) { types = append(types, e.Type) })
	}

	ctx := context.Background()
	conv, _ := store.GetOrCreateConversation(ctx, "")

	resp, err := a.Process(ctx, &models.AgentTask{
		Query:          "what is the answer",
		ConversationID: conv.ID,
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if resp.Content != "the answer" {
		t.Errorf("Content = %q, want the answer", resp.Content)
	}
	if resp.AgentName != "general" {
		t.Errorf("AgentName = %q, want general", resp.AgentName)
	}
	if a.State() != StateIdle {
		t.Errorf("state = %q, want idle", a.State())
	}

	if len(types) != 2 || types[0] != events.AgentTaskStarted || types[1] != events.AgentTaskCompleted {
		t.Errorf("events = %v, want [started completed]", types)
	}

	// Both turns persisted.
	msgs, _ := store.GetContextMessages(ctx, conv.ID, 10)
	if len(msgs) != 2 {
		t.Fatalf("persisted messages = %d, want 2", len(msgs))
	}
	if msgs[0].Role != models.RoleUser || msgs[1].Role != models.RoleAssistant {
		t.Errorf("roles = %s/%s, want user/assistant", msgs[0].Role, msgs[1].Role)
	}

	decs, _ := store.ListDecisions(ctx, 10)
	if len(decs) != 1 || decs[0].Type != "agent_response" {
		t.Errorf("decisions = %+v, want one agent_response", decs)
	}

	if stub.last.SystemPrompt == "" {
		t.Error("completion request carried no system prompt")
	}
}

func TestProcessFailure(t *testing.T) {
	stub := &stubProvider{fail: true}
	a, _, bus := newTestAgent(t, GeneralPersona(), stub)

	var failed []events.Event
	bus.OnSync(events.AgentTaskFailed, func(e events.Event) { failed = append(failed, e) })

	_, err := a.Process(context.Background(), &models.AgentTask{Query: "hi"})
	if err == nil {
		t.Fatal("expected error")
	}
	if a.State() != StateError {
		t.Errorf("state = %q, want error", a.State())
	}
	if len(failed) != 1 {
		t.Fatalf("failed events = %d, want 1", len(failed))
	}
	if failed[0].Data["error"] == "" {
		t.Error("task-failed event carries no error message")
	}
}

// faultStore fails writes while delegating reads.
type faultStore struct {
	memory.Store
	writeErr error
}

func (f *faultStore) AddMessage(ctx context.Context, conversationID string, msg models.ChatMessage, agent string) error {
	return f.writeErr
}

func (f *faultStore) LogDecision(ctx context.Context, d memory.Decision) error {
	return f.writeErr
}

func TestProcessStoreWriteFailure(t *testing.T) {
	cfg := config.Default()
	bus := events.NewBus()
	backing := memory.NewMemoryStore()
	store := &faultStore{Store: backing, writeErr: errors.New("disk full")}
	mgr := provider.NewManager(bus)
	mgr.Register(&stubProvider{reply: "ok"})
	a := New(GeneralPersona(), cfg, mgr, store, bus)

	var failed []events.Event
	bus.OnSync(events.AgentTaskFailed, func(e events.Event) { failed = append(failed, e) })

	conv, _ := backing.GetOrCreateConversation(context.Background(), "")
	_, err := a.Process(context.Background(), &models.AgentTask{
		Query:          "hello",
		ConversationID: conv.ID,
	})
	if err == nil {
		t.Fatal("expected error when the store cannot persist")
	}
	if a.State() != StateError {
		t.Errorf("state = %q, want error", a.State())
	}
	if len(failed) != 1 {
		t.Errorf("task-failed events = %d, want 1", len(failed))
	}
}

func TestStatsRunningMean(t *testing.T) {
	a, _, _ := newTestAgent(t, GeneralPersona(), &stubProvider{reply: "ok"})

	a.recordLatency(100)
	a.recordLatency(200)

	st := a.Stats()
	if st.TasksDone != 2 {
		t.Errorf("TasksDone = %d, want 2", st.TasksDone)
	}
	if st.AvgLatencyMs != 150 {
		t.Errorf("AvgLatencyMs = %v, want 150", st.AvgLatencyMs)
	}
}

func TestSystemPromptOverride(t *testing.T) {
	stub := &stubProvider{reply: "ok"}
	a, _, _ := newTestAgent(t, GeneralPersona(), stub)
	a.cfg.Agents = map[string]config.AgentConfig{
		"general": {SystemPrompt: "Custom base."},
	}

	got := a.SystemPrompt()
	if len(got) < len("Custom base.") || got[:12] != "Custom base." {
		t.Errorf("SystemPrompt = %q, want to start with the override", got)
	}
}

func TestTaskStartedPreview(t *testing.T) {
	stub := &stubProvider{reply: "ok"}
	a, _, bus := newTestAgent(t, GeneralPersona(), stub)

	var started events.Event
	bus.OnSync(events.AgentTaskStarted, func(e events.Event) { started = e })

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	if _, err := a.Process(context.Background(), &models.AgentTask{Query: string(long)}); err != nil {
		t.Fatalf("Process: %v", err)
	}

	q, _ := started.Data["query"].(string)
	if len(q) != 100 {
		t.Errorf("preview length = %d, want 100", len(q))
	}
}

func TestPreviewMultibyte(t *testing.T) {
	s := strings.Repeat("é", 150)
	got := preview(s, 100)
	if !utf8.ValidString(got) {
		t.Fatalf("preview produced invalid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 100 {
		t.Errorf("preview rune count = %d, want 100", n)
	}

	if got := preview("short", 100); got != "short" {
		t.Errorf("preview(short) = %q, want unchanged", got)
	}
}

// Package orchestrator ties the router, agents, providers, and memory
// into the single entry point the API layer calls.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hearthd/hearth/internal/agent"
	"github.com/hearthd/hearth/internal/config"
	"github.com/hearthd/hearth/internal/events"
	"github.com/hearthd/hearth/internal/memory"
	"github.com/hearthd/hearth/internal/provider"
	"github.com/hearthd/hearth/pkg/models"
)

const maxActivityLog = 200

// Activity is one line of the recent-activity feed.
type Activity struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	Summary   string    `json:"summary"`
}

// Orchestrator coordinates query processing end to end.
type Orchestrator struct {
	cfg     *config.Config
	bus     *events.Bus
	manager *provider.Manager
	router  *agent.Router
	store   memory.Store

	mu         sync.Mutex
	queryCount int64
	activity   []Activity
	startedAt  time.Time
}

// New wires an orchestrator from its collaborators.
func New(cfg *config.Config, bus *events.Bus, manager *provider.Manager, router *agent.Router, store memory.Store) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg,
		bus:     bus,
		manager: manager,
		router:  router,
		store:   store,
	}
}

// Init announces startup and probes providers once.
func (o *Orchestrator) Init(ctx context.Context) {
	o.mu.Lock()
	o.startedAt = time.Now()
	o.mu.Unlock()

	o.bus.Emit(events.New(events.SystemStarting, nil, "orchestrator"))
	statuses := o.manager.TestAll(ctx)

	online := 0
	for _, st := range statuses {
		if st.Online {
			online++
		}
	}
	log.Info().Int("online", online).Int("total", len(statuses)).Msg("Provider probe complete")

	o.bus.Emit(events.New(events.SystemStarted, map[string]any{
		"providers_online": online,
		"agents":           len(o.router.Agents()),
	}, "orchestrator"))
}

// Shutdown announces teardown and closes the store.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.bus.Emit(events.New(events.SystemStopping, nil, "orchestrator"))
	err := o.store.Close()
	o.bus.Emit(events.New(events.SystemStopped, nil, "orchestrator"))
	return err
}

// ProcessQuery routes one query to the best agent and runs it.
// conversationID may be empty to start a fresh conversation;
// preferredAgent may name an agent to bypass scoring.
func (o *Orchestrator) ProcessQuery(ctx context.Context, query, conversationID, preferredAgent string) (*models.AgentResponse, error) {
	o.mu.Lock()
	o.queryCount++
	o.mu.Unlock()

	conv, err := o.store.GetOrCreateConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("conversation: %w", err)
	}

	selected, err := o.router.Select(ctx, query, preferredAgent)
	if err != nil {
		return nil, err
	}

	o.bus.Emit(events.New(events.AgentRouted, map[string]any{
		"agent":        selected.Name(),
		"conversation": conv.ID,
	}, "orchestrator"))
	o.logActivity("routed", fmt.Sprintf("query routed to %s", selected.Name()))

	task := &models.AgentTask{
		Query:          query,
		AgentName:      selected.Name(),
		ConversationID: conv.ID,
		Metadata:       map[string]any{"conversation_id": conv.ID},
		CreatedAt:      time.Now(),
	}

	resp, err := selected.Process(ctx, task)
	if err != nil {
		o.logActivity("failed", fmt.Sprintf("%s failed: %v", selected.Name(), err))
		return nil, err
	}

	o.logActivity("completed", fmt.Sprintf("%s answered in %.0fms", selected.Name(), resp.LatencyMs))
	return resp, nil
}

// StreamQuery routes one query and streams the reply fragments. The
// assembled reply is persisted after the stream drains.
func (o *Orchestrator) StreamQuery(ctx context.Context, query, conversationID, preferredAgent string) (<-chan string, *agent.Agent, error) {
	o.mu.Lock()
	o.queryCount++
	o.mu.Unlock()

	conv, err := o.store.GetOrCreateConversation(ctx, conversationID)
	if err != nil {
		return nil, nil, fmt.Errorf("conversation: %w", err)
	}

	selected, err := o.router.Select(ctx, query, preferredAgent)
	if err != nil {
		return nil, nil, err
	}

	o.bus.Emit(events.New(events.AgentRouted, map[string]any{
		"agent":        selected.Name(),
		"conversation": conv.ID,
		"stream":       true,
	}, "orchestrator"))

	agentCfg := o.cfg.Agent(selected.Name())
	history, err := o.store.GetContextMessages(ctx, conv.ID, agentCfg.MaxContext)
	if err != nil {
		return nil, nil, fmt.Errorf("load context: %w", err)
	}

	messages := make([]models.ChatMessage, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, models.ChatMessage{Role: models.RoleUser, Content: query})

	req := &models.CompletionRequest{
		Messages:     messages,
		Model:        agentCfg.Model,
		Temperature:  agentCfg.Temperature,
		MaxTokens:    agentCfg.MaxTokens,
		Stream:       true,
		SystemPrompt: selected.SystemPrompt(),
	}

	src, providerName, err := o.manager.Stream(ctx, req, "")
	if err != nil {
		return nil, nil, err
	}

	userMsg := models.ChatMessage{Role: models.RoleUser, Content: query}
	if err := o.store.AddMessage(ctx, conv.ID, userMsg, selected.Name()); err != nil {
		return nil, nil, fmt.Errorf("persist user message: %w", err)
	}

	out := make(chan string)
	go func() {
		defer close(out)
		var full string
		for frag := range src {
			full += frag
			out <- frag
		}
		asstMsg := models.ChatMessage{Role: models.RoleAssistant, Content: full}
		if err := o.store.AddMessage(context.Background(), conv.ID, asstMsg, selected.Name()); err != nil {
			log.Warn().Err(err).Msg("Failed to persist streamed reply")
		}
		o.logActivity("completed", fmt.Sprintf("%s streamed %d chars via %s", selected.Name(), len(full), providerName))
	}()
	return out, selected, nil
}

func (o *Orchestrator) logActivity(kind, summary string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.activity = append(o.activity, Activity{Timestamp: time.Now(), Kind: kind, Summary: summary})
	if len(o.activity) > maxActivityLog {
		o.activity = o.activity[len(o.activity)-maxActivityLog:]
	}
}

// ActivityLog returns the recent activity, oldest first.
func (o *Orchestrator) ActivityLog() []Activity {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Activity, len(o.activity))
	copy(out, o.activity)
	return out
}

// Status summarizes the running system.
func (o *Orchestrator) Status(ctx context.Context) map[string]any {
	o.mu.Lock()
	queries := o.queryCount
	started := o.startedAt
	o.mu.Unlock()

	stats, err := o.store.Stats(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read store stats")
	}

	uptime := time.Duration(0)
	if !started.IsZero() {
		uptime = time.Since(started)
	}

	preset := config.Preset(o.cfg.BrainPower())
	return map[string]any{
		"queries":        queries,
		"uptime_seconds": int(uptime.Seconds()),
		"brain_power":    o.cfg.BrainPower(),
		"brain_preset":   preset.Name,
		"agents":         len(o.router.Agents()),
		"providers":      o.manager.Statuses(),
		"provider_stats": o.manager.Stats(),
		"memory":         stats,
	}
}

// AgentStats snapshots every registered agent.
func (o *Orchestrator) AgentStats() []models.AgentStats {
	agents := o.router.Agents()
	out := make([]models.AgentStats, len(agents))
	for i, a := range agents {
		out[i] = a.Stats()
	}
	return out
}

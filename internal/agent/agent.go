// Package agent implements the specialist agents that process user
// queries and the router that picks between them.
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hearthd/hearth/internal/config"
	"github.com/hearthd/hearth/internal/events"
	"github.com/hearthd/hearth/internal/memory"
	"github.com/hearthd/hearth/internal/provider"
	"github.com/hearthd/hearth/pkg/models"
)

// Agent states.
const (
	StateIdle       = "idle"
	StateProcessing = "processing"
	StateError      = "error"
)

// Agent wraps a persona with the machinery to process tasks: context
// assembly, prompt composition, dispatch, persistence, and stats.
type Agent struct {
	persona Persona
	cfg     *config.Config
	manager *provider.Manager
	store   memory.Store
	bus     *events.Bus

	mu           sync.Mutex
	state        string
	taskCount    int64
	totalLatency float64
}

// New creates an agent from a persona and its collaborators.
func New(persona Persona, cfg *config.Config, manager *provider.Manager, store memory.Store, bus *events.Bus) *Agent {
	return &Agent{
		persona: persona,
		cfg:     cfg,
		manager: manager,
		store:   store,
		bus:     bus,
		state:   StateIdle,
	}
}

func (a *Agent) Name() string        { return a.persona.Name }
func (a *Agent) DisplayName() string { return a.persona.DisplayName }
func (a *Agent) Expertise() string   { return a.persona.Expertise }

// Score rates how well this agent matches a query, in [0,1].
func (a *Agent) Score(query string) float64 {
	return a.persona.Score(query)
}

// State returns the current lifecycle state.
func (a *Agent) State() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Agent) setState(s string) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// SystemPrompt composes the effective prompt: configured override or
// persona default, plus the brain-power directives.
func (a *Agent) SystemPrompt() string {
	base := a.persona.Prompt
	if custom := a.cfg.Agent(a.persona.Name).SystemPrompt; custom != "" {
		base = custom
	}
	return composePrompt(base, config.Preset(a.cfg.BrainPower()))
}

// Process runs one task through the full pipeline and returns the
// structured response. On failure the agent lands in the error state
// and the error is returned to the caller after a task-failed event.
func (a *Agent) Process(ctx context.Context, task *models.AgentTask) (*models.AgentResponse, error) {
	a.setState(StateProcessing)
	a.bus.Emit(events.New(events.AgentTaskStarted, map[string]any{
		"agent": a.persona.Name,
		"query": preview(task.Query, 100),
	}, a.persona.Name))

	start := time.Now()
	resp, err := a.process(ctx, task, start)
	if err != nil {
		a.setState(StateError)
		a.bus.Emit(events.New(events.AgentTaskFailed, map[string]any{
			"agent": a.persona.Name,
			"error": err.Error(),
		}, a.persona.Name))
		return nil, fmt.Errorf("agent %s: %w", a.persona.Name, err)
	}

	a.recordLatency(resp.LatencyMs)
	a.setState(StateIdle)
	a.bus.Emit(events.New(events.AgentTaskCompleted, map[string]any{
		"agent":          a.persona.Name,
		"model":          resp.Model,
		"latency_ms":     resp.LatencyMs,
		"content_length": len(resp.Content),
	}, a.persona.Name))
	return resp, nil
}

func (a *Agent) process(ctx context.Context, task *models.AgentTask, start time.Time) (*models.AgentResponse, error) {
	agentCfg := a.cfg.Agent(a.persona.Name)

	// Conversation context: caller-provided wins, otherwise load the
	// recent history.
	history := task.Context
	if history == nil && task.ConversationID != "" {
		var err error
		history, err = a.store.GetContextMessages(ctx, task.ConversationID, agentCfg.MaxContext)
		if err != nil {
			return nil, fmt.Errorf("load context: %w", err)
		}
	}

	messages := make([]models.ChatMessage, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, models.ChatMessage{Role: models.RoleUser, Content: task.Query})

	preset := config.Preset(a.cfg.BrainPower())
	maxTokens := agentCfg.MaxTokens
	if preset.ContextWindow < maxTokens {
		maxTokens = preset.ContextWindow
	}

	req := &models.CompletionRequest{
		Messages:     messages,
		Model:        agentCfg.Model,
		Temperature:  agentCfg.Temperature,
		MaxTokens:    maxTokens,
		SystemPrompt: a.SystemPrompt(),
	}

	completion, err := a.manager.Complete(ctx, req, "")
	if err != nil {
		return nil, err
	}

	latency := float64(time.Since(start).Milliseconds())

	if task.ConversationID != "" {
		userMsg := models.ChatMessage{Role: models.RoleUser, Content: task.Query}
		if err := a.store.AddMessage(ctx, task.ConversationID, userMsg, a.persona.Name); err != nil {
			return nil, fmt.Errorf("persist user message: %w", err)
		}
		asstMsg := models.ChatMessage{Role: models.RoleAssistant, Content: completion.Content}
		if err := a.store.AddMessage(ctx, task.ConversationID, asstMsg, a.persona.Name); err != nil {
			return nil, fmt.Errorf("persist assistant message: %w", err)
		}
	}

	dec := memory.Decision{
		Type:         "agent_response",
		Decision:     fmt.Sprintf("Routed to %s, responded with %d chars", a.persona.Name, len(completion.Content)),
		Agent:        a.persona.Name,
		InputSummary: preview(task.Query, 100),
		Reasoning:    fmt.Sprintf("Model: %s, Provider: %s", completion.Model, completion.Provider),
	}
	if err := a.store.LogDecision(ctx, dec); err != nil {
		return nil, fmt.Errorf("log decision: %w", err)
	}

	return &models.AgentResponse{
		Content:   completion.Content,
		AgentName: a.persona.Name,
		Model:     completion.Model,
		Provider:  completion.Provider,
		LatencyMs: latency,
		Metadata:  task.Metadata,
	}, nil
}

// recordLatency folds one observation into the running mean.
func (a *Agent) recordLatency(latencyMs float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.taskCount++
	a.totalLatency += latencyMs
}

// Stats snapshots the agent's counters.
func (a *Agent) Stats() models.AgentStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	avg := 0.0
	if a.taskCount > 0 {
		avg = a.totalLatency / float64(a.taskCount)
	}
	return models.AgentStats{
		Name:         a.persona.Name,
		DisplayName:  a.persona.DisplayName,
		Expertise:    a.persona.Expertise,
		Enabled:      a.cfg.AgentEnabled(a.persona.Name),
		State:        a.state,
		TasksDone:    a.taskCount,
		AvgLatencyMs: avg,
		Model:        a.cfg.Agent(a.persona.Name).Model,
	}
}

// preview truncates s to at most n characters, never splitting a rune.
func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Package models defines the shared data types exchanged between the
// Hearth subsystems: chat messages, completion requests/responses,
// agent tasks, and provider status.
package models

import (
	"encoding/json"
	"time"
)

// ── Chat Messages ───────────────────────────────────────────

// Role identifies the sender of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ChatMessage is a single turn in a conversation, in the
// OpenAI-compatible wire shape every provider speaks.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ── Completion Request / Response ───────────────────────────

// ModelAuto selects the provider's configured default model.
const ModelAuto = "auto"

// CompletionRequest is the unified request sent to any provider.
type CompletionRequest struct {
	Messages         []ChatMessage `json:"messages"`
	Model            string        `json:"model"`
	Temperature      float64       `json:"temperature"`
	MaxTokens        int           `json:"max_tokens"`
	Stream           bool          `json:"stream"`
	SystemPrompt     string        `json:"system_prompt,omitempty"`
	Stop             []string      `json:"stop,omitempty"`
	TopP             float64       `json:"top_p"`
	FrequencyPenalty float64       `json:"frequency_penalty,omitempty"`
	PresencePenalty  float64       `json:"presence_penalty,omitempty"`
}

// APIRequest is the OpenAI-compatible chat completion body.
type APIRequest struct {
	Model            string        `json:"model"`
	Messages         []ChatMessage `json:"messages"`
	Temperature      float64       `json:"temperature"`
	MaxTokens        int           `json:"max_tokens"`
	Stream           bool          `json:"stream"`
	TopP             float64       `json:"top_p"`
	Stop             []string      `json:"stop,omitempty"`
	FrequencyPenalty float64       `json:"frequency_penalty,omitempty"`
	PresencePenalty  float64       `json:"presence_penalty,omitempty"`
}

// APIBody converts the request to an OpenAI-compatible body. If a
// system prompt is set it is prepended as a synthetic leading message;
// the caller's Messages slice is never mutated.
func (r *CompletionRequest) APIBody(modelOverride string) APIRequest {
	msgs := r.Messages
	if r.SystemPrompt != "" {
		msgs = make([]ChatMessage, 0, len(r.Messages)+1)
		msgs = append(msgs, ChatMessage{Role: RoleSystem, Content: r.SystemPrompt})
		msgs = append(msgs, r.Messages...)
	}

	model := r.Model
	if modelOverride != "" {
		model = modelOverride
	}

	topP := r.TopP
	if topP == 0 {
		topP = 1.0
	}

	return APIRequest{
		Model:            model,
		Messages:         msgs,
		Temperature:      r.Temperature,
		MaxTokens:        r.MaxTokens,
		Stream:           r.Stream,
		TopP:             topP,
		Stop:             r.Stop,
		FrequencyPenalty: r.FrequencyPenalty,
		PresencePenalty:  r.PresencePenalty,
	}
}

// TokenUsage holds token accounting reported by a provider.
type TokenUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// CompletionResponse is the unified response from any provider.
// Produced exactly once per successful request.
type CompletionResponse struct {
	Content      string          `json:"content"`
	Model        string          `json:"model"`
	Provider     string          `json:"provider"`
	FinishReason string          `json:"finish_reason"`
	Usage        TokenUsage      `json:"usage"`
	LatencyMs    float64         `json:"latency_ms"`
	Raw          json.RawMessage `json:"-"`
}

// ── Agent Task / Response ───────────────────────────────────

// AgentAuto routes the task to the best-scoring agent.
const AgentAuto = "auto"

// AgentTask is a unit of work submitted to an agent. Created by the
// caller, consumed once by Process, never mutated afterward.
type AgentTask struct {
	Query          string         `json:"query"`
	AgentName      string         `json:"agent_name"`
	ConversationID string         `json:"conversation_id,omitempty"`
	Context        []ChatMessage  `json:"context,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// AgentResponse is the structured result of one processed task.
type AgentResponse struct {
	Content   string         `json:"content"`
	AgentName string         `json:"agent"`
	Model     string         `json:"model"`
	Provider  string         `json:"provider"`
	Thinking  []string       `json:"thinking,omitempty"`
	ToolsUsed []string       `json:"tools_used,omitempty"`
	LatencyMs float64        `json:"latency_ms"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// AgentStats is a point-in-time snapshot of one agent's counters.
type AgentStats struct {
	Name         string  `json:"name"`
	DisplayName  string  `json:"display_name"`
	Expertise    string  `json:"expertise"`
	Enabled      bool    `json:"enabled"`
	State        string  `json:"state"`
	TasksDone    int64   `json:"tasks_completed"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	Model        string  `json:"model"`
}

// ── Provider Status ─────────────────────────────────────────

// ProviderStatus reflects the last observed state of a provider.
// Refreshed on every health probe or request attempt; last write wins.
type ProviderStatus struct {
	Name      string            `json:"name"`
	Online    bool              `json:"online"`
	LatencyMs float64           `json:"latency_ms"`
	LastCheck time.Time         `json:"last_check"`
	Error     string            `json:"error,omitempty"`
	Models    []string          `json:"models,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

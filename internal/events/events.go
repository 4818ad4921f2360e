// Package events provides the in-process publish/subscribe hub that
// decouples producers (agents, providers, the orchestrator) from
// consumers (loggers, the websocket feed, the dashboard API).
package events

import (
	"fmt"
	"time"
)

// Type tags an event with its category.
type Type string

// Wildcard matches every event type when registering a handler.
const Wildcard Type = "*"

const (
	// System lifecycle
	SystemStarting Type = "system.starting"
	SystemStarted  Type = "system.started"
	SystemStopping Type = "system.stopping"
	SystemStopped  Type = "system.stopped"
	SystemError    Type = "system.error"

	// Agent lifecycle
	AgentTaskStarted   Type = "agent.task.started"
	AgentTaskCompleted Type = "agent.task.completed"
	AgentTaskFailed    Type = "agent.task.failed"
	AgentRouted        Type = "agent.routed"

	// Provider lifecycle
	ProviderConnected    Type = "provider.connected"
	ProviderDisconnected Type = "provider.disconnected"
	ProviderError        Type = "provider.error"
	ProviderRequest      Type = "provider.request"
	ProviderResponse     Type = "provider.response"

	// Routing introspection
	ThinkingStep Type = "thinking.step"
)

// Event is an immutable record of something that happened.
type Event struct {
	Type      Type           `json:"type"`
	Data      map[string]any `json:"data"`
	Source    string         `json:"source"`
	Timestamp time.Time      `json:"timestamp"`
	ID        string         `json:"id"`
}

// New creates an event stamped with the current time and an ID derived
// from the type and millisecond timestamp.
func New(t Type, data map[string]any, source string) Event {
	now := time.Now()
	if data == nil {
		data = map[string]any{}
	}
	if source == "" {
		source = "system"
	}
	return Event{
		Type:      t,
		Data:      data,
		Source:    source,
		Timestamp: now,
		ID:        fmt.Sprintf("%s_%d", t, now.UnixMilli()),
	}
}

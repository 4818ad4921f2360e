package agent

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/hearthd/hearth/internal/events"
	"github.com/hearthd/hearth/internal/memory"
)

// Router scores every registered agent against a query and picks the
// winner. Ties go to the earliest-registered agent: a later agent
// must strictly beat the current best to take over.
type Router struct {
	agents []*Agent
	store  memory.Store
	bus    *events.Bus
}

// NewRouter creates an empty router.
func NewRouter(store memory.Store, bus *events.Bus) *Router {
	return &Router{store: store, bus: bus}
}

// Register appends an agent. Registration order is the tie-break
// order.
func (r *Router) Register(a *Agent) {
	r.agents = append(r.agents, a)
}

// Agents returns the registered agents in registration order.
func (r *Router) Agents() []*Agent {
	out := make([]*Agent, len(r.agents))
	copy(out, r.agents)
	return out
}

// Get returns the named agent, or nil.
func (r *Router) Get(name string) *Agent {
	for _, a := range r.agents {
		if a.Name() == name {
			return a
		}
	}
	return nil
}

// Select picks the agent for a query. A non-empty preferred name
// bypasses scoring when it names a registered agent; "auto", empty,
// or an unknown name runs the scoring pass.
func (r *Router) Select(ctx context.Context, query, preferred string) (*Agent, error) {
	if len(r.agents) == 0 {
		return nil, fmt.Errorf("no agents registered")
	}

	if preferred != "" && preferred != "auto" {
		if a := r.Get(preferred); a != nil {
			return a, nil
		}
		log.Warn().Str("agent", preferred).Msg("Unknown agent requested, falling back to auto-selection")
	}

	best := r.agents[0]
	bestScore := best.Score(query)
	scores := map[string]any{best.Name(): bestScore}
	for _, a := range r.agents[1:] {
		s := a.Score(query)
		scores[a.Name()] = s
		if s > bestScore {
			best = a
			bestScore = s
		}
	}

	r.bus.Emit(events.New(events.ThinkingStep, map[string]any{
		"step":   "agent_selection",
		"scores": scores,
		"chosen": best.Name(),
	}, "router"))

	dec := memory.Decision{
		Type:         "agent_selection",
		Decision:     fmt.Sprintf("Selected %s (score %.2f)", best.Name(), bestScore),
		Agent:        best.Name(),
		InputSummary: preview(query, 100),
		Reasoning:    fmt.Sprintf("Scored %d agents, best score %.2f", len(r.agents), bestScore),
	}
	if err := r.store.LogDecision(ctx, dec); err != nil {
		log.Warn().Err(err).Msg("Failed to log selection decision")
	}

	return best, nil
}

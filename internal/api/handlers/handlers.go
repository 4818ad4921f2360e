// Package handlers implements the HTTP handlers for the Hearth API.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hearthd/hearth/internal/config"
	"github.com/hearthd/hearth/internal/events"
	"github.com/hearthd/hearth/internal/memory"
	"github.com/hearthd/hearth/internal/orchestrator"
	"github.com/hearthd/hearth/internal/provider"
)

// Handlers holds all handler dependencies.
type Handlers struct {
	Config       *config.Config
	Bus          *events.Bus
	Manager      *provider.Manager
	Orchestrator *orchestrator.Orchestrator
	Store        memory.Store
}

// New creates a Handlers instance with all dependencies.
func New(cfg *config.Config, bus *events.Bus, mgr *provider.Manager, orch *orchestrator.Orchestrator, store memory.Store) *Handlers {
	return &Handlers{
		Config:       cfg,
		Bus:          bus,
		Manager:      mgr,
		Orchestrator: orch,
		Store:        store,
	}
}

// ── Chat ─────────────────────────────────────────────────────

type chatRequest struct {
	Query          string `json:"query"`
	ConversationID string `json:"conversation_id,omitempty"`
	Agent          string `json:"agent,omitempty"`
}

// Chat handles POST /api/v1/chat.
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		respondError(w, http.StatusBadRequest, "query is required")
		return
	}

	resp, err := h.Orchestrator.ProcessQuery(r.Context(), req.Query, req.ConversationID, req.Agent)
	if err != nil {
		status := http.StatusInternalServerError
		if provider.IsExhausted(err) {
			status = http.StatusServiceUnavailable
		}
		respondError(w, status, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// ChatStream handles POST /api/v1/chat/stream, replying as
// server-sent events.
func (h *Handlers) ChatStream(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		respondError(w, http.StatusBadRequest, "query is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ch, selected, err := h.Orchestrator.StreamQuery(r.Context(), req.Query, req.ConversationID, req.Agent)
	if err != nil {
		status := http.StatusInternalServerError
		if provider.IsExhausted(err) {
			status = http.StatusServiceUnavailable
		}
		respondError(w, status, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	meta, _ := json.Marshal(map[string]string{"agent": selected.Name()})
	fmt.Fprintf(w, "event: meta\ndata: %s\n\n", meta)
	flusher.Flush()

	for frag := range ch {
		chunk, err := json.Marshal(map[string]string{"content": frag})
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", chunk)
		flusher.Flush()
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// ── Generate ─────────────────────────────────────────────────

type generateRequest struct {
	Prompt       string `json:"prompt"`
	MaxNewTokens int    `json:"max_new_tokens,omitempty"`
}

// Generate handles POST /generate, a minimal one-shot completion
// endpoint for tools that speak the plain prompt-in-text-out shape.
func (h *Handlers) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		respondError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	resp, err := h.Orchestrator.ProcessQuery(r.Context(), req.Prompt, "", "")
	if err != nil {
		status := http.StatusInternalServerError
		if provider.IsExhausted(err) {
			status = http.StatusServiceUnavailable
		}
		respondError(w, status, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"text": resp.Content})
}

// ── Agents & Providers ───────────────────────────────────────

// ListAgents handles GET /api/v1/agents.
func (h *Handlers) ListAgents(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.Orchestrator.AgentStats())
}

// ListProviders handles GET /api/v1/providers.
func (h *Handlers) ListProviders(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.Manager.Statuses())
}

// TestProviders handles POST /api/v1/providers/test. Probes every
// provider and returns the fresh statuses.
func (h *Handlers) TestProviders(w http.ResponseWriter, r *http.Request) {
	results := h.Manager.TestAll(r.Context())
	log.Info().Int("providers", len(results)).Msg("Provider test requested")
	respondJSON(w, http.StatusOK, results)
}

// ── Introspection ────────────────────────────────────────────

// ListEvents handles GET /api/v1/events. Supports ?type= and ?limit=.
func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	// An empty type asks History for every event.
	var eventType events.Type
	if t := r.URL.Query().Get("type"); t != "" {
		eventType = events.Type(t)
	}
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		fmt.Sscanf(l, "%d", &limit)
	}
	history := h.Bus.History(eventType, limit)
	if history == nil {
		history = []events.Event{}
	}
	respondJSON(w, http.StatusOK, history)
}

// Status handles GET /api/v1/status.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.Orchestrator.Status(r.Context()))
}

// Activity handles GET /api/v1/activity.
func (h *Handlers) Activity(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.Orchestrator.ActivityLog())
}

// ListDecisions handles GET /api/v1/decisions.
func (h *Handlers) ListDecisions(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		fmt.Sscanf(l, "%d", &limit)
	}
	decs, err := h.Store.ListDecisions(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if decs == nil {
		decs = []memory.Decision{}
	}
	respondJSON(w, http.StatusOK, decs)
}

// ── Helpers ──────────────────────────────────────────────────

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

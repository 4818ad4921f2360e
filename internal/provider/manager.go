package provider

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hearthd/hearth/internal/events"
	"github.com/hearthd/hearth/pkg/models"
)

// Manager dispatches completion requests across registered providers
// with priority-ordered failover. A provider failing one request is
// retried on the next; there is no circuit breaking.
type Manager struct {
	providers []Provider
	bus       *events.Bus
}

// NewManager creates an empty manager publishing to bus.
func NewManager(bus *events.Bus) *Manager {
	return &Manager{bus: bus}
}

// Register adds a provider. The chain is kept sorted by ascending
// priority; providers sharing a priority keep registration order.
func (m *Manager) Register(p Provider) {
	m.providers = append(m.providers, p)
	sort.SliceStable(m.providers, func(i, j int) bool {
		return m.providers[i].Priority() < m.providers[j].Priority()
	})
	log.Info().
		Str("provider", p.Name()).
		Int("priority", p.Priority()).
		Bool("enabled", p.Enabled()).
		Msg("Provider registered")
}

// Get returns the named provider, or nil.
func (m *Manager) Get(name string) Provider {
	for _, p := range m.providers {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns the providers in failover order.
func (m *Manager) List() []Provider {
	out := make([]Provider, len(m.providers))
	copy(out, m.providers)
	return out
}

// candidates returns the enabled failover chain. A preferred name
// moves that provider to the front; the rest follow in priority order
// so failover still covers them.
func (m *Manager) candidates(preferred string) []Provider {
	var chain []Provider
	for _, p := range m.providers {
		if !p.Enabled() {
			continue
		}
		if preferred != "" && p.Name() == preferred {
			chain = append([]Provider{p}, chain...)
			continue
		}
		chain = append(chain, p)
	}
	return chain
}

// Complete tries each enabled provider in order until one succeeds.
// preferred may name a provider to try first; empty means pure
// priority order. Every attempt and outcome is published on the bus.
func (m *Manager) Complete(ctx context.Context, req *models.CompletionRequest, preferred string) (*models.CompletionResponse, error) {
	chain := m.candidates(preferred)
	if len(chain) == 0 {
		return nil, ErrNoProviders
	}

	var failures []*Error
	for _, p := range chain {
		m.bus.Emit(events.New(events.ProviderRequest, map[string]any{
			"provider": p.Name(),
			"model":    req.Model,
		}, "provider-manager"))

		resp, err := p.Complete(ctx, req)
		if err != nil {
			failures = append(failures, asProviderError(p.Name(), err))
			m.bus.Emit(events.New(events.ProviderError, map[string]any{
				"provider": p.Name(),
				"error":    err.Error(),
			}, "provider-manager"))
			log.Warn().Err(err).Str("provider", p.Name()).Msg("Provider failed, trying next")
			continue
		}

		m.bus.Emit(events.New(events.ProviderResponse, map[string]any{
			"provider":   p.Name(),
			"model":      resp.Model,
			"latency_ms": resp.LatencyMs,
			"tokens":     resp.Usage.TotalTokens,
		}, "provider-manager"))
		return resp, nil
	}

	return nil, &ExhaustedError{Failures: failures}
}

// Stream tries each enabled provider in order until one accepts the
// stream. Failover only covers call setup: once fragments flow, a
// mid-stream failure ends that stream.
func (m *Manager) Stream(ctx context.Context, req *models.CompletionRequest, preferred string) (<-chan string, string, error) {
	chain := m.candidates(preferred)
	if len(chain) == 0 {
		return nil, "", ErrNoProviders
	}

	var failures []*Error
	for _, p := range chain {
		m.bus.Emit(events.New(events.ProviderRequest, map[string]any{
			"provider": p.Name(),
			"model":    req.Model,
			"stream":   true,
		}, "provider-manager"))

		ch, err := p.Stream(ctx, req)
		if err != nil {
			failures = append(failures, asProviderError(p.Name(), err))
			m.bus.Emit(events.New(events.ProviderError, map[string]any{
				"provider": p.Name(),
				"error":    err.Error(),
			}, "provider-manager"))
			continue
		}
		return ch, p.Name(), nil
	}

	return nil, "", &ExhaustedError{Failures: failures}
}

// TestAll probes every registered provider concurrently and publishes
// a connected or disconnected event per result.
func (m *Manager) TestAll(ctx context.Context) []models.ProviderStatus {
	results := make([]models.ProviderStatus, len(m.providers))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range m.providers {
		i, p := i, p
		g.Go(func() error {
			results[i] = p.TestConnection(gctx)
			return nil
		})
	}
	g.Wait()

	for _, st := range results {
		if st.Online {
			m.bus.Emit(events.New(events.ProviderConnected, map[string]any{
				"provider":   st.Name,
				"latency_ms": st.LatencyMs,
				"models":     len(st.Models),
			}, "provider-manager"))
		} else {
			m.bus.Emit(events.New(events.ProviderDisconnected, map[string]any{
				"provider": st.Name,
				"error":    st.Error,
			}, "provider-manager"))
		}
	}
	return results
}

// Statuses returns the last observed status of every provider without
// probing.
func (m *Manager) Statuses() []models.ProviderStatus {
	out := make([]models.ProviderStatus, len(m.providers))
	for i, p := range m.providers {
		out[i] = p.Status()
	}
	return out
}

// Stats summarizes the chain from last observed statuses, without
// probing.
type Stats struct {
	Total   int `json:"total"`
	Enabled int `json:"enabled"`
	Online  int `json:"online"`
}

// Stats counts registered, enabled, and last-known-online providers.
func (m *Manager) Stats() Stats {
	var s Stats
	for _, p := range m.providers {
		s.Total++
		if p.Enabled() {
			s.Enabled++
		}
		if p.Status().Online {
			s.Online++
		}
	}
	return s
}

func asProviderError(name string, err error) *Error {
	if pe, ok := err.(*Error); ok {
		return pe
	}
	return connectivityErr(name, err)
}

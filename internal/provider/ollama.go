package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hearthd/hearth/pkg/models"
)

// OllamaProvider talks to a local Ollama daemon through its
// OpenAI-compatible endpoint. Probing uses the native /api/tags route
// because it reports locally pulled models.
type OllamaProvider struct {
	host string
	*HTTPProvider
}

// NewOllamaProvider creates a provider for an Ollama daemon at host,
// e.g. "http://localhost:11434".
func NewOllamaProvider(host string, opts Options) *OllamaProvider {
	host = strings.TrimRight(host, "/")
	if opts.DefaultModel == "" {
		opts.DefaultModel = "llama3.2"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 120 * time.Second
	}
	opts.BaseURL = host + "/v1"

	return &OllamaProvider{
		host:         host,
		HTTPProvider: NewHTTPProvider("ollama", opts),
	}
}

// TestConnection probes /api/tags and refreshes status.
func (p *OllamaProvider) TestConnection(ctx context.Context) models.ProviderStatus {
	start := time.Now()

	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	names, err := p.tags(probeCtx)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		p.set(models.ProviderStatus{
			Name:      p.Name(),
			Online:    false,
			LatencyMs: latency,
			LastCheck: time.Now(),
			Error:     truncateErr(err),
		})
		return p.Status()
	}

	p.set(models.ProviderStatus{
		Name:      p.Name(),
		Online:    true,
		LatencyMs: latency,
		LastCheck: time.Now(),
		Models:    names,
		Metadata:  map[string]string{"host": p.host},
	})
	return p.Status()
}

// ListModels returns the locally pulled model names.
func (p *OllamaProvider) ListModels(ctx context.Context) ([]string, error) {
	return p.tags(ctx)
}

func (p *OllamaProvider) tags(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.host+"/api/tags", nil)
	if err != nil {
		return nil, connectivityErr(p.Name(), err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, connectivityErr(p.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, connectivityErr(p.Name(), fmt.Errorf("status %d", resp.StatusCode))
	}

	var listing struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, malformedErr(p.Name(), fmt.Errorf("decode tags: %w", err))
	}

	names := make([]string, 0, len(listing.Models))
	for _, m := range listing.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

var _ Provider = (*OllamaProvider)(nil)

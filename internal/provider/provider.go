// Package provider implements the unified completion interface over
// backend language-model services and the failover chain across them.
package provider

import (
	"context"
	"sync"
	"time"

	"github.com/hearthd/hearth/pkg/models"
)

// Provider is the contract every backend implements. A request naming
// "auto" resolves to the provider's configured default model; any
// other literal name passes through unvalidated.
type Provider interface {
	Name() string
	Enabled() bool
	Priority() int

	// Complete performs a blocking completion round trip.
	Complete(ctx context.Context, req *models.CompletionRequest) (*models.CompletionResponse, error)

	// Stream yields content deltas as they arrive. The channel is
	// closed at end-of-stream; a malformed fragment is skipped, never
	// fatal. Restart only by issuing a new call.
	Stream(ctx context.Context, req *models.CompletionRequest) (<-chan string, error)

	// TestConnection probes the backend and refreshes status. It is
	// advisory: dispatch never consults it before attempting a call.
	TestConnection(ctx context.Context) models.ProviderStatus

	// ListModels returns the model names the backend advertises.
	ListModels(ctx context.Context) ([]string, error)

	// Status returns the last observed status without probing.
	Status() models.ProviderStatus
}

// Options configures a provider instance.
type Options struct {
	BaseURL      string
	APIKey       string
	DefaultModel string
	Priority     int
	Timeout      time.Duration
	Enabled      bool
	Headers      map[string]string
}

// statusHolder gives each provider a last-write-wins status cell.
type statusHolder struct {
	mu     sync.Mutex
	status models.ProviderStatus
}

func newStatusHolder(name string) statusHolder {
	return statusHolder{status: models.ProviderStatus{Name: name}}
}

func (s *statusHolder) Status() models.ProviderStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *statusHolder) set(st models.ProviderStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = st
}

func (s *statusHolder) markOnline(latencyMs float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Online = true
	s.status.LatencyMs = latencyMs
	s.status.LastCheck = time.Now()
	s.status.Error = ""
}

func (s *statusHolder) markOffline(errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Online = false
	s.status.LastCheck = time.Now()
	s.status.Error = errMsg
}

// resolveModel applies the "auto" policy.
func resolveModel(requested, defaultModel string) string {
	if requested == "" || requested == models.ModelAuto {
		return defaultModel
	}
	return requested
}

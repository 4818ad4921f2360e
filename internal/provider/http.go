package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hearthd/hearth/pkg/models"
)

// chatCompletion mirrors the OpenAI chat completion response body.
type chatCompletion struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage models.TokenUsage `json:"usage"`
}

// HTTPProvider talks to any OpenAI-compatible chat completion API:
// hosted services, LM Studio, vLLM, and friends.
type HTTPProvider struct {
	name         string
	baseURL      string
	apiKey       string
	defaultModel string
	priority     int
	enabled      bool
	headers      map[string]string
	client       *http.Client

	statusHolder
}

// NewHTTPProvider creates a provider for an OpenAI-compatible endpoint.
func NewHTTPProvider(name string, opts Options) *HTTPProvider {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &HTTPProvider{
		name:         name,
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		apiKey:       opts.APIKey,
		defaultModel: opts.DefaultModel,
		priority:     opts.Priority,
		enabled:      opts.Enabled,
		headers:      opts.Headers,
		client:       &http.Client{Timeout: timeout},
		statusHolder: newStatusHolder(name),
	}
}

func (p *HTTPProvider) Name() string  { return p.name }
func (p *HTTPProvider) Enabled() bool { return p.enabled }
func (p *HTTPProvider) Priority() int { return p.priority }

// DefaultModel returns the model used when a request names "auto".
func (p *HTTPProvider) DefaultModel() string { return p.defaultModel }

func (p *HTTPProvider) applyHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	for k, v := range p.headers {
		req.Header.Set(k, v)
	}
}

// Complete sends a completion request and returns the response.
func (p *HTTPProvider) Complete(ctx context.Context, req *models.CompletionRequest) (*models.CompletionResponse, error) {
	body := req.APIBody(resolveModel(req.Model, p.defaultModel))
	body.Stream = false

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, malformedErr(p.name, fmt.Errorf("encode request: %w", err))
	}

	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, connectivityErr(p.name, err)
	}
	p.applyHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		p.markOffline(err.Error())
		return nil, connectivityErr(p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		p.markOffline(fmt.Sprintf("HTTP %d", resp.StatusCode))
		return nil, connectivityErr(p.name, fmt.Errorf("status %d: %s", resp.StatusCode, string(raw)))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		p.markOffline(err.Error())
		return nil, connectivityErr(p.name, fmt.Errorf("read response: %w", err))
	}

	var cc chatCompletion
	if err := json.Unmarshal(raw, &cc); err != nil {
		p.markOffline("malformed response")
		return nil, malformedErr(p.name, fmt.Errorf("decode response: %w", err))
	}

	latency := float64(time.Since(start).Milliseconds())

	content := ""
	finish := "stop"
	if len(cc.Choices) > 0 {
		content = cc.Choices[0].Message.Content
		if cc.Choices[0].FinishReason != "" {
			finish = cc.Choices[0].FinishReason
		}
	}

	model := cc.Model
	if model == "" {
		model = body.Model
	}

	p.markOnline(latency)

	return &models.CompletionResponse{
		Content:      content,
		Model:        model,
		Provider:     p.name,
		FinishReason: finish,
		Usage:        cc.Usage,
		LatencyMs:    latency,
		Raw:          raw,
	}, nil
}

// Stream sends a streaming completion request. Fragments arrive on
// the returned channel; the channel is closed when the backend sends
// the [DONE] sentinel or the stream ends.
func (p *HTTPProvider) Stream(ctx context.Context, req *models.CompletionRequest) (<-chan string, error) {
	body := req.APIBody(resolveModel(req.Model, p.defaultModel))
	body.Stream = true

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, malformedErr(p.name, fmt.Errorf("encode request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, connectivityErr(p.name, err)
	}
	p.applyHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		p.markOffline(err.Error())
		return nil, connectivityErr(p.name, err)
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		p.markOffline(fmt.Sprintf("HTTP %d", resp.StatusCode))
		return nil, connectivityErr(p.name, fmt.Errorf("status %d: %s", resp.StatusCode, string(raw)))
	}

	p.markOnline(0)

	out := make(chan string)
	go func() {
		defer close(out)
		defer resp.Body.Close()
		readSSE(resp.Body, out, p.name)
	}()
	return out, nil
}

// readSSE parses server-sent-event framed completion chunks. One
// corrupt chunk never aborts the whole stream.
func readSSE(r io.Reader, out chan<- string, provider string) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimSpace(line[len("data: "):])
		if data == "[DONE]" {
			return
		}

		var chunk chatCompletion
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			log.Debug().Str("provider", provider).Msg("Skipping malformed stream chunk")
			continue
		}
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			out <- chunk.Choices[0].Delta.Content
		}
	}
}

// TestConnection probes the /models endpoint and refreshes status.
func (p *HTTPProvider) TestConnection(ctx context.Context) models.ProviderStatus {
	start := time.Now()

	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	names, err := p.fetchModels(probeCtx)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		p.set(models.ProviderStatus{
			Name:      p.name,
			Online:    false,
			LatencyMs: latency,
			LastCheck: time.Now(),
			Error:     truncateErr(err),
		})
		return p.Status()
	}

	if len(names) == 0 {
		// Some backends don't expose /models; reachability is enough.
		names = []string{p.defaultModel}
	}
	p.set(models.ProviderStatus{
		Name:      p.name,
		Online:    true,
		LatencyMs: latency,
		LastCheck: time.Now(),
		Models:    names,
	})
	return p.Status()
}

// ListModels returns the models the backend advertises, falling back
// to the configured default.
func (p *HTTPProvider) ListModels(ctx context.Context) ([]string, error) {
	names, err := p.fetchModels(ctx)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return []string{p.defaultModel}, nil
	}
	return names, nil
}

func (p *HTTPProvider) fetchModels(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", nil)
	if err != nil {
		return nil, connectivityErr(p.name, err)
	}
	p.applyHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, connectivityErr(p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Endpoint not supported; treat as reachable with no listing.
		return nil, nil
	}

	var listing struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, malformedErr(p.name, fmt.Errorf("decode model listing: %w", err))
	}

	names := make([]string, 0, len(listing.Data))
	for _, m := range listing.Data {
		if m.ID != "" {
			names = append(names, m.ID)
		}
	}
	return names, nil
}

func truncateErr(err error) string {
	msg := err.Error()
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

var _ Provider = (*HTTPProvider)(nil)

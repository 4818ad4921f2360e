package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hearthd/hearth/pkg/models"
)

func chatRequest(content string) *models.CompletionRequest {
	return &models.CompletionRequest{
		Messages: []models.ChatMessage{{Role: models.RoleUser, Content: content}},
		Model:    models.ModelAuto,
	}
}

func TestHTTPProviderComplete(t *testing.T) {
	var gotBody models.APIRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q, want Bearer test-key", auth)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"model": "test-model",
			"choices": []map[string]any{
				{"message": map[string]any{"content": "hello back"}, "finish_reason": "stop"},
			},
			"usage": map[string]any{"prompt_tokens": 5, "completion_tokens": 3, "total_tokens": 8},
		})
	}))
	defer srv.Close()

	p := NewHTTPProvider("test", Options{
		BaseURL:      srv.URL,
		APIKey:       "test-key",
		DefaultModel: "test-model",
		Enabled:      true,
	})

	resp, err := p.Complete(context.Background(), chatRequest("hello"))
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "hello back" {
		t.Errorf("Content = %q, want %q", resp.Content, "hello back")
	}
	if resp.Provider != "test" {
		t.Errorf("Provider = %q, want test", resp.Provider)
	}
	if resp.Usage.TotalTokens != 8 {
		t.Errorf("TotalTokens = %d, want 8", resp.Usage.TotalTokens)
	}
	if gotBody.Model != "test-model" {
		t.Errorf("request model = %q, want auto resolved to test-model", gotBody.Model)
	}

	st := p.Status()
	if !st.Online {
		t.Error("status should be online after a successful call")
	}
}

func TestHTTPProviderSystemPromptNotMutating(t *testing.T) {
	var gotBody models.APIRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "ok"}}},
		})
	}))
	defer srv.Close()

	p := NewHTTPProvider("test", Options{BaseURL: srv.URL, DefaultModel: "m", Enabled: true})

	req := chatRequest("hi")
	req.SystemPrompt = "You are terse."
	if _, err := p.Complete(context.Background(), req); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if len(gotBody.Messages) != 2 || gotBody.Messages[0].Role != models.RoleSystem {
		t.Fatalf("wire messages = %+v, want system prompt prepended", gotBody.Messages)
	}
	if len(req.Messages) != 1 {
		t.Errorf("caller messages len = %d, want 1 (request must not be mutated)", len(req.Messages))
	}
}

func TestHTTPProviderConnectivityError(t *testing.T) {
	// Port from a closed listener: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := NewHTTPProvider("test", Options{BaseURL: url, DefaultModel: "m", Enabled: true})

	_, err := p.Complete(context.Background(), chatRequest("hi"))
	var pe *Error
	if !errors.As(err, &pe) {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if pe.Kind != KindConnectivity {
		t.Errorf("Kind = %v, want connectivity", pe.Kind)
	}
	if st := p.Status(); st.Online || st.Error == "" {
		t.Errorf("status = %+v, want offline with error", st)
	}
}

func TestHTTPProviderMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	p := NewHTTPProvider("test", Options{BaseURL: srv.URL, DefaultModel: "m", Enabled: true})

	_, err := p.Complete(context.Background(), chatRequest("hi"))
	var pe *Error
	if !errors.As(err, &pe) {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if pe.Kind != KindMalformed {
		t.Errorf("Kind = %v, want malformed", pe.Kind)
	}
}

func TestHTTPProviderNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewHTTPProvider("test", Options{BaseURL: srv.URL, DefaultModel: "m", Enabled: true})

	_, err := p.Complete(context.Background(), chatRequest("hi"))
	var pe *Error
	if !errors.As(err, &pe) {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if pe.Kind != KindConnectivity {
		t.Errorf("Kind = %v, want connectivity for non-200", pe.Kind)
	}
}

func TestHTTPProviderStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		chunks := []string{
			`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
			`: comment line, ignored`,
			`data: {broken json`,
			`data: {"choices":[{"delta":{"content":"lo"}}]}`,
			`data: [DONE]`,
		}
		for _, c := range chunks {
			w.Write([]byte(c + "\n\n"))
		}
	}))
	defer srv.Close()

	p := NewHTTPProvider("test", Options{BaseURL: srv.URL, DefaultModel: "m", Enabled: true})

	ch, err := p.Stream(context.Background(), chatRequest("hi"))
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	var got string
	for frag := range ch {
		got += frag
	}
	if got != "Hello" {
		t.Errorf("streamed content = %q, want %q (malformed chunk skipped)", got, "Hello")
	}
}

func TestHTTPProviderTestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"id": "alpha"}, {"id": "beta"}},
		})
	}))
	defer srv.Close()

	p := NewHTTPProvider("test", Options{BaseURL: srv.URL, DefaultModel: "alpha", Enabled: true})

	st := p.TestConnection(context.Background())
	if !st.Online {
		t.Fatalf("status = %+v, want online", st)
	}
	if len(st.Models) != 2 || st.Models[0] != "alpha" {
		t.Errorf("Models = %v, want [alpha beta]", st.Models)
	}
}

func TestOllamaTestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]any{{"name": "llama3.2:latest"}},
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, Options{Priority: 1, Enabled: true})

	st := p.TestConnection(context.Background())
	if !st.Online {
		t.Fatalf("status = %+v, want online", st)
	}
	if len(st.Models) != 1 || st.Models[0] != "llama3.2:latest" {
		t.Errorf("Models = %v, want [llama3.2:latest]", st.Models)
	}
	if st.Metadata["host"] != srv.URL {
		t.Errorf("Metadata host = %q, want %q", st.Metadata["host"], srv.URL)
	}
}

func TestResolveModel(t *testing.T) {
	tests := []struct {
		requested string
		want      string
	}{
		{"auto", "default-model"},
		{"", "default-model"},
		{"explicit", "explicit"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.requested, "default-model"); got != tt.want {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.requested, got, tt.want)
		}
	}
}

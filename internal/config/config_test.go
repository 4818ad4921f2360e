package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hearthd/hearth/internal/config"
)

func TestDefaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.System.Port != 7860 {
		t.Errorf("System.Port = %d, want 7860", cfg.System.Port)
	}
	if cfg.BrainPower() != 5 {
		t.Errorf("BrainPower() = %d, want 5", cfg.BrainPower())
	}
	if !cfg.Providers.Ollama.Enabled {
		t.Error("Ollama provider should be enabled by default")
	}
	if cfg.Providers.OpenAI.Enabled {
		t.Error("OpenAI provider should be disabled without an API key")
	}
}

func TestLoadYAMLOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
system:
  port: 9000
reasoning:
  brain_power: 8
agents:
  debug:
    enabled: false
    temperature: 0.1
providers:
  ollama:
    host: http://localhost:9999
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.System.Port != 9000 {
		t.Errorf("System.Port = %d, want 9000", cfg.System.Port)
	}
	if cfg.BrainPower() != 8 {
		t.Errorf("BrainPower() = %d, want 8", cfg.BrainPower())
	}
	if cfg.AgentEnabled("debug") {
		t.Error("debug agent should be disabled by the file")
	}
	if cfg.Providers.Ollama.Host != "http://localhost:9999" {
		t.Errorf("Ollama.Host = %q", cfg.Providers.Ollama.Host)
	}
	// Untouched defaults survive a partial file.
	if cfg.Providers.Ollama.DefaultModel != "llama3.2" {
		t.Errorf("Ollama.DefaultModel = %q, want llama3.2", cfg.Providers.Ollama.DefaultModel)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	t.Setenv("HEARTH_PORT", "8123")
	t.Setenv("HEARTH_OPENAI_KEY", "sk-test")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.System.Port != 8123 {
		t.Errorf("System.Port = %d, want 8123", cfg.System.Port)
	}
	if !cfg.Providers.OpenAI.Enabled || cfg.Providers.OpenAI.APIKey != "sk-test" {
		t.Errorf("OpenAI provider not enabled by env key: %+v", cfg.Providers.OpenAI)
	}
}

func TestAgentDefaults(t *testing.T) {
	cfg := config.Default()

	ac := cfg.Agent("nonexistent")
	if ac.Model != "auto" {
		t.Errorf("Model = %q, want auto", ac.Model)
	}
	if ac.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want 0.7", ac.Temperature)
	}
	if ac.MaxContext != 20 {
		t.Errorf("MaxContext = %d, want 20", ac.MaxContext)
	}
	if !cfg.AgentEnabled("nonexistent") {
		t.Error("unknown agents default to enabled")
	}
}

func TestPresetClamping(t *testing.T) {
	if got := config.Preset(0); got.Name != "Basic" {
		t.Errorf("Preset(0) = %q, want Basic", got.Name)
	}
	if got := config.Preset(42); got.Name != "Maximum" {
		t.Errorf("Preset(42) = %q, want Maximum", got.Name)
	}
	if got := config.Preset(8); got.ReasoningDepth != 7 || got.ResponseDetail != config.DetailExhaustive || !got.Autonomous {
		t.Errorf("Preset(8) = %+v", got)
	}
	if got := config.Preset(3); got.ReasoningDepth != 2 || got.ResponseDetail != config.DetailStandard {
		t.Errorf("Preset(3) = %+v", got)
	}
}

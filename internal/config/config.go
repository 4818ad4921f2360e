// Package config loads Hearth configuration. Defaults are merged with
// an optional YAML file, then environment variables (HEARTH_*) win.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds the full host configuration.
type Config struct {
	System    SystemConfig           `yaml:"system"`
	Reasoning ReasoningConfig        `yaml:"reasoning"`
	Agents    map[string]AgentConfig `yaml:"agents"`
	Providers ProvidersConfig        `yaml:"providers"`
	Memory    MemoryConfig           `yaml:"memory"`
	Telemetry TelemetryConfig        `yaml:"telemetry"`
}

type SystemConfig struct {
	Host    string `yaml:"host" env:"HEARTH_HOST"`
	Port    int    `yaml:"port" env:"HEARTH_PORT"`
	Version string `yaml:"-" env:"HEARTH_VERSION"`
}

type ReasoningConfig struct {
	BrainPower int `yaml:"brain_power" env:"HEARTH_BRAIN_POWER"`
}

// AgentConfig carries per-agent overrides. Zero values fall back to
// the agent defaults at lookup time, so a partial YAML entry only
// overrides what it names.
type AgentConfig struct {
	Enabled      *bool   `yaml:"enabled"`
	Model        string  `yaml:"model"`
	Temperature  float64 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	MaxContext   int     `yaml:"max_context"`
	SystemPrompt string  `yaml:"system_prompt"`
}

type ProvidersConfig struct {
	Ollama    ProviderConfig   `yaml:"ollama"`
	OpenAI    ProviderConfig   `yaml:"openai"`
	Anthropic ProviderConfig   `yaml:"anthropic"`
	Custom    []ProviderConfig `yaml:"custom"`
}

type ProviderConfig struct {
	Name         string `yaml:"name"`
	Enabled      bool   `yaml:"enabled"`
	BaseURL      string `yaml:"base_url"`
	Host         string `yaml:"host"` // Ollama only
	APIKey       string `yaml:"api_key"`
	DefaultModel string `yaml:"default_model"`
	Priority     int    `yaml:"priority"`
	TimeoutSec   int    `yaml:"timeout"`
}

type MemoryConfig struct {
	Backend            string `yaml:"backend" env:"HEARTH_MEMORY_BACKEND"` // memory | sqlite | postgres
	Path               string `yaml:"path" env:"HEARTH_MEMORY_PATH"`
	DSN                string `yaml:"dsn" env:"HEARTH_MEMORY_DSN"`
	MaxContextMessages int    `yaml:"max_context_messages"`
}

type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled" env:"OTEL_ENABLED"`
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `yaml:"service_name" env:"OTEL_SERVICE_NAME"`
}

// envOverrides is the flat set of environment knobs applied after the
// YAML file. Provider keys are listed here so that secrets can stay
// out of the config file.
type envOverrides struct {
	OllamaHost   string `env:"HEARTH_OLLAMA_HOST"`
	OpenAIKey    string `env:"HEARTH_OPENAI_KEY"`
	OpenAIBase   string `env:"HEARTH_OPENAI_BASE_URL"`
	AnthropicKey string `env:"HEARTH_ANTHROPIC_KEY"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		System: SystemConfig{
			Host:    "127.0.0.1",
			Port:    7860,
			Version: "1.0.0",
		},
		Reasoning: ReasoningConfig{BrainPower: 5},
		Agents:    map[string]AgentConfig{},
		Providers: ProvidersConfig{
			Ollama: ProviderConfig{
				Name:         "ollama",
				Enabled:      true,
				Host:         "http://localhost:11434",
				DefaultModel: "llama3.2",
				Priority:     1,
				TimeoutSec:   120,
			},
			OpenAI: ProviderConfig{
				Name:         "openai",
				BaseURL:      "https://api.openai.com/v1",
				DefaultModel: "gpt-4o-mini",
				Priority:     2,
				TimeoutSec:   60,
			},
			Anthropic: ProviderConfig{
				Name:         "anthropic",
				BaseURL:      "https://api.anthropic.com/v1",
				DefaultModel: "claude-3-5-sonnet-20241022",
				Priority:     3,
				TimeoutSec:   60,
			},
		},
		Memory: MemoryConfig{
			Backend:            "memory",
			MaxContextMessages: 50,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "hearth",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path
// (if it exists), and environment overrides, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// No file is fine; defaults + env apply.
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("apply env overrides: %w", err)
	}

	var ov envOverrides
	if err := env.Parse(&ov); err != nil {
		return nil, fmt.Errorf("apply provider env overrides: %w", err)
	}
	if ov.OllamaHost != "" {
		cfg.Providers.Ollama.Host = ov.OllamaHost
	}
	if ov.OpenAIKey != "" {
		cfg.Providers.OpenAI.APIKey = ov.OpenAIKey
		cfg.Providers.OpenAI.Enabled = true
	}
	if ov.OpenAIBase != "" {
		cfg.Providers.OpenAI.BaseURL = ov.OpenAIBase
	}
	if ov.AnthropicKey != "" {
		cfg.Providers.Anthropic.APIKey = ov.AnthropicKey
		cfg.Providers.Anthropic.Enabled = true
	}

	return cfg, nil
}

// Agent returns the effective configuration for a named agent, with
// zero values replaced by defaults.
func (c *Config) Agent(name string) AgentConfig {
	ac := c.Agents[name]
	if ac.Model == "" {
		ac.Model = "auto"
	}
	if ac.Temperature == 0 {
		ac.Temperature = 0.7
	}
	if ac.MaxTokens == 0 {
		ac.MaxTokens = 4096
	}
	if ac.MaxContext == 0 {
		ac.MaxContext = 20
	}
	return ac
}

// AgentEnabled reports whether an agent is enabled (default true).
func (c *Config) AgentEnabled(name string) bool {
	ac, ok := c.Agents[name]
	if !ok || ac.Enabled == nil {
		return true
	}
	return *ac.Enabled
}

// BrainPower returns the configured brain power level, clamped to the
// valid 1-9 range.
func (c *Config) BrainPower() int {
	return clampLevel(c.Reasoning.BrainPower)
}

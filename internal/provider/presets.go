package provider

import (
	"os"
	"time"
)

// Preset describes a hosted OpenAI-compatible service with a free or
// trial tier. The slice order doubles as failover priority when
// providers are detected from the environment.
type Preset struct {
	Name         string
	BaseURL      string
	DefaultModel string
	Models       []string
	EnvKey       string
}

// Presets is the catalog of known hosted services, cheapest-first.
var Presets = []Preset{
	{
		Name:         "groq",
		BaseURL:      "https://api.groq.com/openai/v1",
		DefaultModel: "llama-3.3-70b-versatile",
		Models:       []string{"llama-3.3-70b-versatile", "llama-3.1-8b-instant", "mixtral-8x7b-32768"},
		EnvKey:       "GROQ_API_KEY",
	},
	{
		Name:         "cerebras",
		BaseURL:      "https://api.cerebras.ai/v1",
		DefaultModel: "llama3.1-70b",
		Models:       []string{"llama3.1-70b", "llama3.1-8b"},
		EnvKey:       "CEREBRAS_API_KEY",
	},
	{
		Name:         "openrouter",
		BaseURL:      "https://openrouter.ai/api/v1",
		DefaultModel: "meta-llama/llama-3.3-70b-instruct:free",
		Models:       []string{"meta-llama/llama-3.3-70b-instruct:free", "google/gemini-2.0-flash-exp:free"},
		EnvKey:       "OPENROUTER_API_KEY",
	},
	{
		Name:         "together",
		BaseURL:      "https://api.together.xyz/v1",
		DefaultModel: "meta-llama/Llama-3.3-70B-Instruct-Turbo-Free",
		Models:       []string{"meta-llama/Llama-3.3-70B-Instruct-Turbo-Free"},
		EnvKey:       "TOGETHER_API_KEY",
	},
	{
		Name:         "gemini",
		BaseURL:      "https://generativelanguage.googleapis.com/v1beta/openai",
		DefaultModel: "gemini-2.0-flash",
		Models:       []string{"gemini-2.0-flash", "gemini-1.5-flash"},
		EnvKey:       "GEMINI_API_KEY",
	},
	{
		Name:         "sambanova",
		BaseURL:      "https://api.sambanova.ai/v1",
		DefaultModel: "Meta-Llama-3.3-70B-Instruct",
		Models:       []string{"Meta-Llama-3.3-70B-Instruct", "Meta-Llama-3.1-8B-Instruct"},
		EnvKey:       "SAMBANOVA_API_KEY",
	},
	{
		Name:         "openai",
		BaseURL:      "https://api.openai.com/v1",
		DefaultModel: "gpt-4o-mini",
		Models:       []string{"gpt-4o-mini", "gpt-4o"},
		EnvKey:       "OPENAI_API_KEY",
	},
}

// DetectFromEnv builds a provider for every preset whose API key is
// set in the environment. Priority follows catalog order, offset past
// basePriority so explicitly configured providers keep precedence.
func DetectFromEnv(basePriority int) []Provider {
	var detected []Provider
	for i, preset := range Presets {
		key := os.Getenv(preset.EnvKey)
		if key == "" {
			continue
		}
		detected = append(detected, NewHTTPProvider(preset.Name, Options{
			BaseURL:      preset.BaseURL,
			APIKey:       key,
			DefaultModel: preset.DefaultModel,
			Priority:     basePriority + i + 1,
			Timeout:      60 * time.Second,
			Enabled:      true,
		}))
	}
	return detected
}

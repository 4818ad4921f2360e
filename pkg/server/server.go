// Package server provides the public entry point for initializing the
// Hearth host. It lives in pkg/ so embedders can compose the full
// server and wrap its handler:
//
//	srv, err := server.New(ctx, "")
//	http.ListenAndServe(":7860", srv.Handler)
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hearthd/hearth/internal/agent"
	"github.com/hearthd/hearth/internal/api"
	"github.com/hearthd/hearth/internal/api/handlers"
	"github.com/hearthd/hearth/internal/config"
	"github.com/hearthd/hearth/internal/events"
	"github.com/hearthd/hearth/internal/health"
	"github.com/hearthd/hearth/internal/memory"
	"github.com/hearthd/hearth/internal/orchestrator"
	"github.com/hearthd/hearth/internal/provider"
	"github.com/hearthd/hearth/internal/telemetry"
)

// Server holds the initialized Hearth host.
type Server struct {
	// Handler is the HTTP handler with all routes and middleware.
	Handler http.Handler

	// Config is the resolved configuration.
	Config *config.Config

	// Port is the port the server should listen on.
	Port int

	// Bus is the event hub, exposed for embedders.
	Bus *events.Bus

	// Store is the persistence layer.
	Store memory.Store

	// Orchestrator is the query entry point.
	Orchestrator *orchestrator.Orchestrator

	// Prober runs the periodic provider health loop.
	Prober *health.Prober

	// ShutdownFunc flushes telemetry on graceful shutdown.
	ShutdownFunc func(context.Context) error
}

// New initializes all components and returns a ready Server.
// configPath may be empty to run on defaults plus environment.
func New(ctx context.Context, configPath string) (*Server, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	shutdown, err := telemetry.Init(cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	bus := events.NewBus()

	store, err := memory.Open(cfg.Memory)
	if err != nil {
		return nil, fmt.Errorf("open memory store: %w", err)
	}
	log.Info().Str("backend", cfg.Memory.Backend).Msg("Memory store initialized")

	manager := provider.NewManager(bus)
	registerProviders(manager, cfg)

	router := agent.NewRouter(store, bus)
	for _, persona := range agent.AllPersonas() {
		if !cfg.AgentEnabled(persona.Name) {
			log.Info().Str("agent", persona.Name).Msg("Agent disabled by config")
			continue
		}
		router.Register(agent.New(persona, cfg, manager, store, bus))
	}
	log.Info().Int("agents", len(router.Agents())).Msg("Agents registered")

	orch := orchestrator.New(cfg, bus, manager, router, store)
	prober := health.NewProber(manager, 60*time.Second)

	h := handlers.New(cfg, bus, manager, orch, store)

	return &Server{
		Handler:      api.NewRouter(cfg, h),
		Config:       cfg,
		Port:         cfg.System.Port,
		Bus:          bus,
		Store:        store,
		Orchestrator: orch,
		Prober:       prober,
		ShutdownFunc: shutdown,
	}, nil
}

// registerProviders builds the provider chain: configured backends
// first, then any hosted services detected from the environment.
func registerProviders(manager *provider.Manager, cfg *config.Config) {
	maxPriority := 0
	add := func(p provider.Provider) {
		manager.Register(p)
		if p.Priority() > maxPriority {
			maxPriority = p.Priority()
		}
	}

	if pc := cfg.Providers.Ollama; pc.Enabled {
		host := pc.Host
		if host == "" {
			host = "http://localhost:11434"
		}
		add(provider.NewOllamaProvider(host, provider.Options{
			DefaultModel: pc.DefaultModel,
			Priority:     pc.Priority,
			Timeout:      time.Duration(pc.TimeoutSec) * time.Second,
			Enabled:      true,
		}))
	}

	if pc := cfg.Providers.OpenAI; pc.Enabled {
		baseURL := pc.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		add(provider.NewHTTPProvider("openai", provider.Options{
			BaseURL:      baseURL,
			APIKey:       pc.APIKey,
			DefaultModel: pc.DefaultModel,
			Priority:     pc.Priority,
			Timeout:      time.Duration(pc.TimeoutSec) * time.Second,
			Enabled:      true,
		}))
	}

	if pc := cfg.Providers.Anthropic; pc.Enabled {
		baseURL := pc.BaseURL
		if baseURL == "" {
			baseURL = "https://api.anthropic.com/v1"
		}
		add(provider.NewHTTPProvider("anthropic", provider.Options{
			BaseURL:      baseURL,
			APIKey:       pc.APIKey,
			DefaultModel: pc.DefaultModel,
			Priority:     pc.Priority,
			Timeout:      time.Duration(pc.TimeoutSec) * time.Second,
			Enabled:      true,
		}))
	}

	for _, pc := range cfg.Providers.Custom {
		if !pc.Enabled || pc.Name == "" || pc.BaseURL == "" {
			continue
		}
		add(provider.NewHTTPProvider(pc.Name, provider.Options{
			BaseURL:      pc.BaseURL,
			APIKey:       pc.APIKey,
			DefaultModel: pc.DefaultModel,
			Priority:     pc.Priority,
			Timeout:      time.Duration(pc.TimeoutSec) * time.Second,
			Enabled:      true,
		}))
	}

	detected := provider.DetectFromEnv(maxPriority)
	for _, p := range detected {
		// Skip anything already explicitly configured.
		if manager.Get(p.Name()) != nil {
			continue
		}
		manager.Register(p)
	}
	if len(detected) > 0 {
		log.Info().Int("detected", len(detected)).Msg("Hosted providers detected from environment")
	}
}

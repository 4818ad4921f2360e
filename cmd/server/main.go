// Hearth — a local-first personal AI host.
//
// This is the main entry point for the Hearth server. It provides:
//   - Specialist agents with scoring-based routing
//   - Provider failover across local and hosted backends
//   - Conversation memory (in-memory, SQLite, or Postgres)
//   - A live event feed over websocket

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hearthd/hearth/pkg/server"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	log.Info().Msg("Hearth starting...")

	ctx := context.Background()
	srv, err := server.New(ctx, *configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server")
	}

	srv.Orchestrator.Init(ctx)
	srv.Prober.Start(ctx)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", srv.Config.System.Host, srv.Port),
		Handler:      srv.Handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		srv.Prober.Stop()
		httpServer.Shutdown(shutdownCtx)
		srv.Orchestrator.Shutdown(shutdownCtx)
		srv.ShutdownFunc(shutdownCtx)
	}()

	log.Info().
		Int("port", srv.Port).
		Msg("Hearth is ready")

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

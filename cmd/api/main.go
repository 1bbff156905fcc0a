package main

import (
	"github.com/joho/godotenv"

	"github.com/arbworks/odds-core/internal/config"
	"github.com/arbworks/odds-core/pkg/logger"
	"github.com/arbworks/odds-core/pkg/server"
)

func main() {
	// Local development convenience, a missing .env is fine
	_ = godotenv.Load()

	// Setup structured logging
	logger.SetupLogger()
	log := logger.New("api-service")

	// Load configuration
	cfg := config.Load()

	// Create and configure server
	srv, err := server.New(cfg, log)
	if err != nil {
		log.Fatal().
			Err(err).
			Str("action", "server_creation_failed").
			Msg("Failed to create server")
	}

	// Start server
	if err := srv.Start(); err != nil {
		log.Fatal().
			Err(err).
			Str("action", "server_failed").
			Msg("Server failed to start")
	}
}

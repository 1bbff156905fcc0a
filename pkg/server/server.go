package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/arbworks/odds-core/internal/config"
	"github.com/arbworks/odds-core/pkg/handlers/health"
	"github.com/arbworks/odds-core/pkg/handlers/odds"
	"github.com/arbworks/odds-core/pkg/handlers/scores"
	"github.com/arbworks/odds-core/pkg/handlers/sports"
	"github.com/arbworks/odds-core/pkg/logger"
	"github.com/arbworks/odds-core/pkg/middleware"
	"github.com/arbworks/odds-core/pkg/oddsapi"
)

// sportsCacheTTL bounds how stale the sports catalog may get. The catalog
// changes a few times a year, so a short TTL only burns quota.
const sportsCacheTTL = time.Hour

// Server represents the API server
type Server struct {
	router   *http.ServeMux
	port     string
	logger   *logger.Logger
	client   *oddsapi.Client
	handlers struct {
		health *health.Handler
		sports *sports.Handler
		scores *scores.Handler
		odds   *odds.Handler
	}
}

// New creates a new server instance
func New(cfg *config.Config, log *logger.Logger) (*Server, error) {
	if cfg.OddsAPI.APIKey == "" {
		return nil, fmt.Errorf("ODDS_API_KEY is required")
	}

	client := oddsapi.NewClient(cfg)
	cache := oddsapi.NewSportsCache(client, sportsCacheTTL)

	server := &Server{
		router: http.NewServeMux(),
		port:   cfg.Server.Port,
		logger: log,
		client: client,
	}

	server.handlers.health = health.NewHandler(log)
	server.handlers.sports = sports.NewHandler(cache, log)
	server.handlers.scores = scores.NewHandler(client, log)
	server.handlers.odds = odds.NewHandler(client, log)

	server.setupRoutes()

	return server, nil
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", middleware.CORS(s.handlers.health.HealthCheck))

	s.router.HandleFunc("/", middleware.CORS(func(w http.ResponseWriter, r *http.Request) {
		if _, err := fmt.Fprintf(w, "Odds API Service - OK"); err != nil {
			http.Error(w, "Failed to write response", http.StatusInternalServerError)
		}
	}))

	s.router.HandleFunc("/sports", middleware.CORS(s.handlers.sports.List))
	s.router.HandleFunc("/scores", middleware.CORS(s.handlers.scores.List))
	s.router.HandleFunc("/odds", middleware.CORS(s.handlers.odds.List))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info().
		Str("action", "server_start").
		Str("port", s.port).
		Msg("Starting API server")

	if err := http.ListenAndServe(":"+s.port, s.router); err != nil {
		return fmt.Errorf("server failed to start on port %s: %w", s.port, err)
	}

	return nil
}

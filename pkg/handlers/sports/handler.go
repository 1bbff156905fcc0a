package sports

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/arbworks/odds-core/pkg/logger"
	"github.com/arbworks/odds-core/pkg/models"
)

// sportsProvider is the slice of the sports cache the handler uses.
type sportsProvider interface {
	Get(ctx context.Context, all bool) ([]models.Sport, error)
}

// Handler serves the sports catalog
type Handler struct {
	cache  sportsProvider
	logger *logger.Logger
}

// NewHandler creates a new sports handler
func NewHandler(cache sportsProvider, log *logger.Logger) *Handler {
	return &Handler{
		cache:  cache,
		logger: log,
	}
}

// List handles GET /sports. The all=true query flag includes sports that
// are currently out of season.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	all := r.URL.Query().Get("all") == "true"

	sports, err := h.cache.Get(r.Context(), all)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("action", "list_sports_failed").
			Str("endpoint", "/sports").
			Bool("all", all).
			Msg("Failed to load sports catalog")
		http.Error(w, "Failed to load sports", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(sports); err != nil {
		h.logger.Error().
			Err(err).
			Str("action", "encode_failed").
			Str("endpoint", "/sports").
			Msg("Failed to encode sports response")
		return
	}

	h.logger.Debug().
		Str("action", "list_sports").
		Str("endpoint", "/sports").
		Bool("all", all).
		Int("count", len(sports)).
		Dur("duration", time.Since(start)).
		Msg("Sports catalog served")
}

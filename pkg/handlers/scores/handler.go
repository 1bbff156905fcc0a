package scores

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/arbworks/odds-core/pkg/logger"
	"github.com/arbworks/odds-core/pkg/oddsapi"
)

type scoresFetcher interface {
	FetchScores(ctx context.Context, sport string, daysFrom string) (json.RawMessage, error)
}

// Handler proxies score lookups to the upstream odds API
type Handler struct {
	client scoresFetcher
	logger *logger.Logger
}

// NewHandler creates a new scores handler
func NewHandler(client scoresFetcher, log *logger.Logger) *Handler {
	return &Handler{
		client: client,
		logger: log,
	}
}

// List handles GET /scores?sport=...&daysFrom=...
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	sport := r.URL.Query().Get("sport")
	if sport == "" {
		http.Error(w, "sport query parameter is required", http.StatusBadRequest)
		return
	}

	daysFrom := r.URL.Query().Get("daysFrom")
	if daysFrom != "" {
		// Upstream accepts 1 to 3 days of history
		n, err := strconv.Atoi(daysFrom)
		if err != nil || n < 1 || n > 3 {
			http.Error(w, "daysFrom must be an integer between 1 and 3", http.StatusBadRequest)
			return
		}
	}

	body, err := h.client.FetchScores(r.Context(), sport, daysFrom)
	if err != nil {
		status := http.StatusBadGateway
		var apiErr *oddsapi.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			status = apiErr.StatusCode
		}
		h.logger.Error().
			Err(err).
			Str("action", "fetch_scores_failed").
			Str("endpoint", "/scores").
			Str("sport", sport).
			Int("status_code", status).
			Msg("Failed to fetch scores")
		http.Error(w, "Failed to fetch scores", status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(body); err != nil {
		h.logger.Error().
			Err(err).
			Str("action", "write_failed").
			Str("endpoint", "/scores").
			Msg("Failed to write scores response")
		return
	}

	h.logger.Debug().
		Str("action", "list_scores").
		Str("endpoint", "/scores").
		Str("sport", sport).
		Dur("duration", time.Since(start)).
		Msg("Scores served")
}

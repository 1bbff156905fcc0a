package odds

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

type oddsFetcher interface {
	FetchOdds(ctx context.Context, req oddsapi.OddsRequest) (json.RawMessage, error)
	RemainingQuota() int
}

// Handler proxies live odds lookups to the upstream odds API
type Handler struct {
	client oddsFetcher
	logger *logger.Logger
}

// NewHandler creates a new odds handler
func NewHandler(client oddsFetcher, log *logger.Logger) *Handler {
	return &Handler{
		client: client,
		logger: log,
	}
}

// List handles GET /odds. The sport query parameter is required; regions,
// markets, oddsFormat, eventIds and bookmakers pass through upstream.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	query := r.URL.Query()
	sport := query.Get("sport")
	if sport == "" {
		http.Error(w, "sport query parameter is required", http.StatusBadRequest)
		return
	}

	req := oddsapi.OddsRequest{
		Sport:      sport,
		Regions:    query.Get("regions"),
		Markets:    query.Get("markets"),
		OddsFormat: query.Get("oddsFormat"),
		EventIDs:   query.Get("eventIds"),
		Bookmakers: query.Get("bookmakers"),
	}

	body, err := h.client.FetchOdds(r.Context(), req)
	if err != nil {
		status := http.StatusBadGateway
		var apiErr *oddsapi.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			status = apiErr.StatusCode
		}
		h.logger.Error().
			Err(err).
			Str("action", "fetch_odds_failed").
			Str("endpoint", "/odds").
			Str("sport", sport).
			Int("status_code", status).
			Msg("Failed to fetch odds")
		http.Error(w, "Failed to fetch odds", status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Requests-Remaining", strconv.Itoa(h.client.RemainingQuota()))
	if _, err := w.Write(body); err != nil {
		h.logger.Error().
			Err(err).
			Str("action", "write_failed").
			Str("endpoint", "/odds").
			Msg("Failed to write odds response")
		return
	}

	h.logger.Debug().
		Str("action", "list_odds").
		Str("endpoint", "/odds").
		Str("sport", sport).
		Int("remaining_quota", h.client.RemainingQuota()).
		Dur("duration", time.Since(start)).
		Msg("Odds served")
}

package oddsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/arbworks/odds-core/internal/config"
	"github.com/arbworks/odds-core/pkg/logger"
	"github.com/arbworks/odds-core/pkg/models"
)

const (
	apiVersion = "v4"
	oddsFormat = "decimal" // decimal | american
	dateFormat = "iso"     // iso | unix

	quotaHeader = "x-requests-remaining"
)

// ErrQuotaHeaderMissing is returned when the upstream omits the remaining
// request counter. The client must fail here rather than report a stale
// value the backfill breaker would trust.
var ErrQuotaHeaderMissing = errors.New("upstream response missing " + quotaHeader + " header")

// APIError represents a non-2xx response from the odds API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Body)
}

// OddsRequest holds the query parameters of a live odds passthrough call.
type OddsRequest struct {
	Sport      string
	Regions    string
	Markets    string
	OddsFormat string
	EventIDs   string
	Bookmakers string
}

// Client talks to api.the-odds-api.com. Every response carries the
// remaining request quota in a header; the client keeps the last observed
// value so callers can check their budget before issuing the next request.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *logger.Logger

	mu        sync.RWMutex
	remaining int
}

func NewClient(cfg *config.Config) *Client {
	log := logger.New("odds-api-client")

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "odds-api",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("action", "breaker_state_change").
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})

	return &Client{
		baseURL: cfg.OddsAPI.BaseURL,
		apiKey:  cfg.OddsAPI.APIKey,
		client: &http.Client{
			Timeout: time.Duration(cfg.OddsAPI.Timeout) * time.Second,
		},
		breaker: breaker,
		logger:  log,
	}
}

type apiResult struct {
	body      []byte
	quota     int
	quotaSeen bool
	status    int
}

// do executes one GET against the API through the circuit breaker and
// records the quota header whenever the upstream includes one.
func (c *Client) do(ctx context.Context, path string, params url.Values) (*apiResult, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("apiKey", c.apiKey)
	fullURL := fmt.Sprintf("%s/%s%s?%s", c.baseURL, apiVersion, path, params.Encode())

	start := time.Now()
	out, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to make request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		res := &apiResult{status: resp.StatusCode}
		if v := resp.Header.Get(quotaHeader); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				res.quota = n
				res.quotaSeen = true
			}
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return res, fmt.Errorf("failed to read response body: %w", err)
		}
		res.body = body

		if resp.StatusCode != http.StatusOK {
			return res, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
		}
		return res, nil
	})

	res, _ := out.(*apiResult)
	status := 0
	if res != nil {
		status = res.status
		// The quota counter updates on failed calls too, so the backfill
		// breaker always has the latest value to check.
		if res.quotaSeen {
			c.setRemaining(res.quota)
		}
	}
	c.logger.LogAPICall(http.MethodGet, path, status, time.Since(start), err)

	if err != nil {
		return res, err
	}
	return res, nil
}

// FetchHistorical returns the raw odds snapshot for one sport at the given
// snapshot time, along with the remaining request quota reported by the
// upstream. The call fails if the quota header is absent.
func (c *Client) FetchHistorical(ctx context.Context, sport, snapshotTime string) (json.RawMessage, int, error) {
	params := url.Values{}
	params.Set("regions", "us")
	params.Set("markets", "h2h")
	params.Set("oddsFormat", oddsFormat)
	params.Set("dateFormat", dateFormat)
	params.Set("date", snapshotTime)

	res, err := c.do(ctx, fmt.Sprintf("/historical/sports/%s/odds", sport), params)
	if err != nil {
		return nil, c.RemainingQuota(), err
	}
	if !res.quotaSeen {
		return nil, c.RemainingQuota(), ErrQuotaHeaderMissing
	}

	var snapshot models.HistoricalSnapshot
	if err := json.Unmarshal(res.body, &snapshot); err != nil {
		return nil, res.quota, fmt.Errorf("failed to decode historical snapshot: %w", err)
	}

	return json.RawMessage(res.body), res.quota, nil
}

// RefreshQuota issues a cheap catalog call to seed the remaining request
// counter before a run starts.
func (c *Client) RefreshQuota(ctx context.Context) (int, error) {
	res, err := c.do(ctx, "/sports", nil)
	if err != nil {
		return 0, err
	}
	if !res.quotaSeen {
		return 0, ErrQuotaHeaderMissing
	}
	return res.quota, nil
}

// RemainingQuota returns the last quota counter observed on any response.
func (c *Client) RemainingQuota() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.remaining
}

func (c *Client) setRemaining(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remaining = n
}

// ListSports returns the upstream sports catalog. When all is true, out of
// season sports are included as well.
func (c *Client) ListSports(ctx context.Context, all bool) ([]models.Sport, error) {
	params := url.Values{}
	if all {
		params.Set("all", "true")
	}

	res, err := c.do(ctx, "/sports", params)
	if err != nil {
		return nil, err
	}

	var sports []models.Sport
	if err := json.Unmarshal(res.body, &sports); err != nil {
		return nil, fmt.Errorf("failed to decode sports list: %w", err)
	}
	return sports, nil
}

// FetchScores returns upcoming, live and recently completed games for a
// sport. daysFrom widens the window to include completed games, up to the
// three days the upstream supports.
func (c *Client) FetchScores(ctx context.Context, sport string, daysFrom string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("dateFormat", dateFormat)
	if daysFrom != "" {
		params.Set("daysFrom", daysFrom)
	}

	res, err := c.do(ctx, fmt.Sprintf("/sports/%s/scores", sport), params)
	if err != nil {
		return nil, err
	}
	if !json.Valid(res.body) {
		return nil, fmt.Errorf("scores response is not valid JSON")
	}
	return json.RawMessage(res.body), nil
}

// FetchOdds returns current odds for a sport, region and market selection.
func (c *Client) FetchOdds(ctx context.Context, req OddsRequest) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("dateFormat", dateFormat)
	if req.Regions != "" {
		params.Set("regions", req.Regions)
	}
	if req.Markets != "" {
		params.Set("markets", req.Markets)
	}
	if req.OddsFormat != "" {
		params.Set("oddsFormat", req.OddsFormat)
	} else {
		params.Set("oddsFormat", oddsFormat)
	}
	if req.EventIDs != "" {
		params.Set("eventIds", req.EventIDs)
	}
	if req.Bookmakers != "" {
		params.Set("bookmakers", req.Bookmakers)
	}

	res, err := c.do(ctx, fmt.Sprintf("/sports/%s/odds", req.Sport), params)
	if err != nil {
		return nil, err
	}
	if !json.Valid(res.body) {
		return nil, fmt.Errorf("odds response is not valid JSON")
	}
	return json.RawMessage(res.body), nil
}

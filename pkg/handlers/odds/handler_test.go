package odds

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arbworks/odds-core/pkg/logger"
	"github.com/arbworks/odds-core/pkg/oddsapi"
)

type fakeFetcher struct {
	body    json.RawMessage
	err     error
	quota   int
	lastReq oddsapi.OddsRequest
}

func (f *fakeFetcher) FetchOdds(ctx context.Context, req oddsapi.OddsRequest) (json.RawMessage, error) {
	f.lastReq = req
	return f.body, f.err
}

func (f *fakeFetcher) RemainingQuota() int {
	return f.quota
}

func TestListOdds(t *testing.T) {
	fetcher := &fakeFetcher{
		body:  json.RawMessage(`[{"id":"abc123"}]`),
		quota: 457,
	}
	handler := NewHandler(fetcher, logger.New("test"))

	req := httptest.NewRequest(http.MethodGet,
		"/odds?sport=basketball_nba&regions=us&markets=h2h,spreads&eventIds=abc123", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != `[{"id":"abc123"}]` {
		t.Errorf("Expected upstream body passed through, got %s", rec.Body.String())
	}
	if got := rec.Header().Get("X-Requests-Remaining"); got != "457" {
		t.Errorf("Expected quota header 457, got %q", got)
	}
	if fetcher.lastReq.Sport != "basketball_nba" || fetcher.lastReq.Markets != "h2h,spreads" {
		t.Errorf("Unexpected upstream request: %+v", fetcher.lastReq)
	}
	if fetcher.lastReq.EventIDs != "abc123" {
		t.Errorf("Expected eventIds forwarded, got %q", fetcher.lastReq.EventIDs)
	}
}

func TestListOddsRequiresSport(t *testing.T) {
	handler := NewHandler(&fakeFetcher{}, logger.New("test"))

	req := httptest.NewRequest(http.MethodGet, "/odds", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestListOddsUpstreamClientError(t *testing.T) {
	fetcher := &fakeFetcher{
		err: &oddsapi.APIError{StatusCode: http.StatusUnprocessableEntity, Body: "unknown sport"},
	}
	handler := NewHandler(fetcher, logger.New("test"))

	req := httptest.NewRequest(http.MethodGet, "/odds?sport=nope", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected upstream 422 forwarded, got %d", rec.Code)
	}
}

func TestListOddsUpstreamServerError(t *testing.T) {
	fetcher := &fakeFetcher{
		err: &oddsapi.APIError{StatusCode: http.StatusInternalServerError, Body: "boom"},
	}
	handler := NewHandler(fetcher, logger.New("test"))

	req := httptest.NewRequest(http.MethodGet, "/odds?sport=basketball_nba", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("Expected 502 for upstream 5xx, got %d", rec.Code)
	}
}

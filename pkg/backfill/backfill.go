// Package backfill drives the historical odds pull across a date range
// while self-governing against the upstream request budget. The upstream
// bills per request against a periodic cap, so the run must observe the
// remaining quota after every call before deciding whether to issue the
// next one; days are therefore processed strictly one at a time.
package backfill

import (
	"context"
	"encoding/json"
	"time"

	"github.com/arbworks/odds-core/pkg/logger"
	"github.com/arbworks/odds-core/pkg/storage"
)

// OddsSource fetches one day's historical odds snapshot. FetchHistorical
// reports the remaining request quota alongside the payload; the source is
// required to surface the quota even on failed calls via RemainingQuota.
type OddsSource interface {
	FetchHistorical(ctx context.Context, sport, snapshotTime string) (json.RawMessage, int, error)
	RemainingQuota() int
}

// BlobStore persists one JSON document per day.
type BlobStore interface {
	PutJSON(ctx context.Context, key string, payload any) error
}

// StopReason records which breaker, if any, ended a run early.
type StopReason string

const (
	StopNone         StopReason = ""
	StopQuotaFloor   StopReason = "quota_floor"
	StopErrorCeiling StopReason = "error_ceiling"
)

// Options configures one backfill run.
type Options struct {
	SportKey     string
	QuotaFloor   int
	ErrorCeiling int
	// StrictErrors halts the run when the error ceiling is reached.
	// Lenient mode logs the breach on every check and keeps going.
	StrictErrors bool
}

// RunState is the explicit state of one run: the quota counter as last
// reported by the upstream, the cumulative error counter, and the keys
// persisted so far, in date order.
type RunState struct {
	RemainingQuota int
	ErrorCount     int
	DaysAttempted  int
	Persisted      []string
	StopReason     StopReason
}

// Runner executes backfill runs against an odds source and a blob store.
type Runner struct {
	source OddsSource
	store  BlobStore
	opts   Options
	logger *logger.Logger
}

func NewRunner(source OddsSource, store BlobStore, opts Options, log *logger.Logger) *Runner {
	return &Runner{
		source: source,
		store:  store,
		opts:   opts,
		logger: log.WithSport(opts.SportKey),
	}
}

// DateRange expands an inclusive date range into its calendar days in
// ascending order. A start after the end yields an empty range.
func DateRange(start, end time.Time) []time.Time {
	start = truncateToDay(start)
	end = truncateToDay(end)

	var days []time.Time
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		days = append(days, day)
	}
	return days
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// snapshotTime is the fixed midday-UTC snapshot requested for each day.
func snapshotTime(day time.Time) string {
	return day.Format("2006-01-02") + "T12:00:00Z"
}

// Run pulls and persists one snapshot per day in the inclusive range. Each
// day is independent: a failed fetch or persist increments the error
// counter and the run moves on, so a truncated run is resumable by
// re-running the same range. Only the two breakers end a run early, and a
// quota stop is a graceful stop, not a failure.
func (r *Runner) Run(ctx context.Context, start, end time.Time) *RunState {
	state := &RunState{RemainingQuota: r.source.RemainingQuota()}

	days := DateRange(start, end)
	r.logger.Info().
		Str("action", "run_start").
		Int("days", len(days)).
		Str("from", start.Format("2006-01-02")).
		Str("to", end.Format("2006-01-02")).
		Int("remaining_quota", state.RemainingQuota).
		Msg("Starting historical odds backfill")

	for _, day := range days {
		if state.RemainingQuota <= r.opts.QuotaFloor {
			r.logger.Error().
				Str("action", "quota_floor_reached").
				Int("remaining_quota", state.RemainingQuota).
				Int("quota_floor", r.opts.QuotaFloor).
				Str("day", day.Format("2006-01-02")).
				Msg("Request budget floor reached, stopping the run")
			state.StopReason = StopQuotaFloor
			break
		}

		if state.ErrorCount >= r.opts.ErrorCeiling {
			r.logger.Error().
				Str("action", "error_ceiling_reached").
				Int("error_count", state.ErrorCount).
				Int("error_ceiling", r.opts.ErrorCeiling).
				Str("day", day.Format("2006-01-02")).
				Msg("Error ceiling reached, run needs intervention")
			if r.opts.StrictErrors {
				state.StopReason = StopErrorCeiling
				break
			}
		}

		state.DaysAttempted++
		snapshot := snapshotTime(day)

		payload, remaining, err := r.source.FetchHistorical(ctx, r.opts.SportKey, snapshot)
		if err != nil {
			state.ErrorCount++
			r.logger.LogDayOutcome(day.Format("2006-01-02"), "", state.RemainingQuota, err)
			continue
		}
		state.RemainingQuota = remaining

		key := storage.RawOddsKey(r.opts.SportKey, day)
		if err := r.store.PutJSON(ctx, key, payload); err != nil {
			state.ErrorCount++
			r.logger.LogDayOutcome(day.Format("2006-01-02"), key, state.RemainingQuota, err)
			continue
		}

		state.Persisted = append(state.Persisted, key)
		r.logger.LogDayOutcome(day.Format("2006-01-02"), key, state.RemainingQuota, nil)
	}

	r.logger.Info().
		Str("action", "run_complete").
		Int("days_attempted", state.DaysAttempted).
		Int("days_persisted", len(state.Persisted)).
		Int("error_count", state.ErrorCount).
		Int("remaining_quota", state.RemainingQuota).
		Str("stop_reason", string(state.StopReason)).
		Msg("Backfill run completed")

	return state
}

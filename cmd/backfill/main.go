package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/arbworks/odds-core/internal/config"
	"github.com/arbworks/odds-core/pkg/backfill"
	"github.com/arbworks/odds-core/pkg/logger"
	"github.com/arbworks/odds-core/pkg/oddsapi"
	"github.com/arbworks/odds-core/pkg/storage"
)

const dateLayout = "2006-01-02"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s <from_date> <to_date>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Dates are inclusive, formatted as YYYY-MM-DD.\n")
	}
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()

	logger.SetupLogger()
	log := logger.New("backfill")

	start, err := time.Parse(dateLayout, flag.Arg(0))
	if err != nil {
		log.Fatal().
			Err(err).
			Str("action", "invalid_from_date").
			Str("from_date", flag.Arg(0)).
			Msg("from_date must be formatted YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, flag.Arg(1))
	if err != nil {
		log.Fatal().
			Err(err).
			Str("action", "invalid_to_date").
			Str("to_date", flag.Arg(1)).
			Msg("to_date must be formatted YYYY-MM-DD")
	}

	cfg := config.Load()
	if cfg.OddsAPI.APIKey == "" {
		log.Fatal().
			Str("action", "missing_api_key").
			Msg("ODDS_API_KEY is required")
	}
	if cfg.Storage.Bucket == "" {
		log.Fatal().
			Str("action", "missing_bucket").
			Msg("S3_ARB_BUCKET is required")
	}

	ctx := context.Background()

	policy := storage.RetryPolicy{
		MaxAttempts: cfg.Storage.RetryAttempts,
		Delay:       time.Duration(cfg.Storage.RetryDelay) * time.Second,
	}
	store, err := storage.New(ctx, cfg.Storage.Bucket, policy)
	if err != nil {
		log.Fatal().
			Err(err).
			Str("action", "store_init_failed").
			Msg("Failed to initialize blob store")
	}

	client := oddsapi.NewClient(cfg)

	// Seed the quota counter before the first billed call so the floor
	// check holds from day one.
	quota, err := client.RefreshQuota(ctx)
	if err != nil {
		log.Fatal().
			Err(err).
			Str("action", "quota_seed_failed").
			Msg("Failed to read remaining quota from upstream")
	}
	log.Info().
		Str("action", "quota_seeded").
		Int("remaining_quota", quota).
		Msg("Upstream quota read")

	runner := backfill.NewRunner(client, store, backfill.Options{
		SportKey:     cfg.Backfill.SportKey,
		QuotaFloor:   cfg.Backfill.QuotaFloor,
		ErrorCeiling: cfg.Backfill.ErrorCeiling,
		StrictErrors: cfg.Backfill.StrictErrors,
	}, log)

	state := runner.Run(ctx, start, end)

	// A breaker stop is a normal outcome, the run already persisted
	// everything it safely could.
	log.Info().
		Str("action", "backfill_finished").
		Str("from_date", flag.Arg(0)).
		Str("to_date", flag.Arg(1)).
		Int("days_attempted", state.DaysAttempted).
		Int("days_persisted", len(state.Persisted)).
		Int("error_count", state.ErrorCount).
		Int("remaining_quota", state.RemainingQuota).
		Str("stop_reason", string(state.StopReason)).
		Msg("Backfill finished")
}

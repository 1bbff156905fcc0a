package jobs

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/arbworks/odds-core/pkg/logger"
	"github.com/arbworks/odds-core/pkg/models"
	"github.com/arbworks/odds-core/pkg/storage"
	"github.com/arbworks/odds-core/pkg/transform"
)

// rawOddsStore is the slice of the blob store the transform job uses.
type rawOddsStore interface {
	List(ctx context.Context, prefix string) ([]string, error)
	GetJSON(ctx context.Context, key string, out any) error
	PutBytes(ctx context.Context, key string, body []byte) error
}

// OddsTransformJob flattens every raw odds snapshot into one parquet
// artifact per input file. Raw files that are missing, partial or
// malformed are skipped so a backfill still in progress never blocks the
// transform of the days already persisted.
type OddsTransformJob struct {
	store    rawOddsStore
	sportKey string
}

func NewOddsTransformJob(store rawOddsStore, sportKey string) Job {
	return &OddsTransformJob{
		store:    store,
		sportKey: sportKey,
	}
}

func (j *OddsTransformJob) Execute(ctx context.Context) error {
	log := logger.WithContext(ctx, "odds-transform").WithSport(j.sportKey)
	start := time.Now()

	keys, err := j.store.List(ctx, storage.RawOddsPrefix(j.sportKey))
	if err != nil {
		return fmt.Errorf("failed to list raw snapshots: %w", err)
	}

	log.Info().
		Str("action", "transform_start").
		Int("files", len(keys)).
		Msg("Transforming raw odds snapshots")

	var processed, errCount int
	for _, key := range keys {
		if !strings.HasSuffix(key, ".json") {
			continue
		}

		var snapshot models.HistoricalSnapshot
		if err := j.store.GetJSON(ctx, key, &snapshot); err != nil {
			errCount++
			log.Error().
				Err(err).
				Str("action", "load_failed").
				Str("key", key).
				Msg("Could not load raw snapshot, skipping")
			continue
		}

		rows := transform.Flatten(&snapshot)
		if len(rows) == 0 {
			log.Debug().
				Str("action", "empty_snapshot").
				Str("key", key).
				Msg("Snapshot produced no rows")
			continue
		}

		data, err := transform.EncodeParquet(rows)
		if err != nil {
			errCount++
			log.Error().
				Err(err).
				Str("action", "encode_failed").
				Str("key", key).
				Msg("Could not encode rows, skipping")
			continue
		}

		outKey := storage.TransformedOddsKey(j.sportKey, baseName(key))
		if err := j.store.PutBytes(ctx, outKey, data); err != nil {
			errCount++
			log.Error().
				Err(err).
				Str("action", "persist_failed").
				Str("key", outKey).
				Msg("Could not persist transformed artifact, skipping")
			continue
		}
		processed++
	}

	log.LogJobComplete(j.Name(), time.Since(start), processed, errCount)
	return nil
}

// baseName strips the directory and extension from a blob key.
func baseName(key string) string {
	name := path.Base(key)
	return strings.TrimSuffix(name, path.Ext(name))
}

func (j *OddsTransformJob) Name() string {
	return "odds_transform"
}

func (j *OddsTransformJob) Schedule() string {
	// Daily, after the overnight odds pull has settled
	return "0 6 * * *"
}

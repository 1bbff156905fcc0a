package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/arbworks/odds-core/pkg/logger"
	"github.com/arbworks/odds-core/pkg/nbastats"
	"github.com/arbworks/odds-core/pkg/storage"
)

// gameLogSource is the slice of the NBA stats client the job uses.
type gameLogSource interface {
	TeamGameLog(ctx context.Context, teamID int64, season string) ([]nbastats.GameLogRow, error)
}

type statsStore interface {
	PutBytes(ctx context.Context, key string, body []byte) error
}

// NBAStatsJob pulls every team's game log for the configured seasons and
// persists one parquet artifact per season. A team that fails to load is
// skipped; the season artifact is written from whatever loaded.
type NBAStatsJob struct {
	client  gameLogSource
	store   statsStore
	seasons []string
}

func NewNBAStatsJob(client gameLogSource, store statsStore, seasons []string) Job {
	return &NBAStatsJob{
		client:  client,
		store:   store,
		seasons: seasons,
	}
}

func (j *NBAStatsJob) Execute(ctx context.Context) error {
	log := logger.WithContext(ctx, "nba-stats")
	start := time.Now()

	var seasonsWritten, errCount int
	for _, season := range j.seasons {
		var rows []nbastats.GameLogRow

		for _, team := range nbastats.Teams() {
			gameLog, err := j.client.TeamGameLog(ctx, team.ID, season)
			if err != nil {
				errCount++
				log.Error().
					Err(err).
					Str("action", "team_load_failed").
					Str("season", season).
					Int64("team_id", team.ID).
					Str("team", team.Abbreviation).
					Msg("Could not load team game log, skipping")
				continue
			}
			rows = append(rows, gameLog...)
		}

		if len(rows) == 0 {
			log.Warn().
				Str("action", "empty_season").
				Str("season", season).
				Msg("No game logs loaded for season, nothing persisted")
			continue
		}

		data, err := nbastats.EncodeParquet(rows)
		if err != nil {
			errCount++
			log.Error().
				Err(err).
				Str("action", "encode_failed").
				Str("season", season).
				Msg("Could not encode season stats")
			continue
		}

		key := storage.SeasonStatsKey(season)
		if err := j.store.PutBytes(ctx, key, data); err != nil {
			errCount++
			log.Error().
				Err(err).
				Str("action", "persist_failed").
				Str("key", key).
				Msg("Could not persist season stats")
			continue
		}

		log.Info().
			Str("action", "season_persisted").
			Str("season", season).
			Str("key", key).
			Int("rows", len(rows)).
			Msg("Season stats persisted")
		seasonsWritten++
	}

	log.LogJobComplete(j.Name(), time.Since(start), seasonsWritten, errCount)
	if seasonsWritten == 0 && len(j.seasons) > 0 {
		return fmt.Errorf("no season stats persisted (%d errors)", errCount)
	}
	return nil
}

func (j *NBAStatsJob) Name() string {
	return "nba_stats"
}

func (j *NBAStatsJob) Schedule() string {
	// Weekly, game logs move slowly outside the season
	return "0 7 * * 1"
}

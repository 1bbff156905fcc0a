package storage

import (
	"fmt"
	"time"

	"github.com/gosimple/slug"
)

const (
	// RawOddsRoot is the prefix all raw daily odds snapshots live under.
	RawOddsRoot = "odds_data/raw_data"
	// TransformedOddsRoot is the prefix flattened odds artifacts live under.
	TransformedOddsRoot = "odds_data/transformed"
	// NBAStatsRoot is the prefix raw NBA season stats live under.
	NBAStatsRoot = "nba_data/raw_data"
)

// sportLabels maps upstream sport keys to the short labels used in storage
// paths. Unknown keys fall back to a slug of the full key.
var sportLabels = map[string]string{
	"basketball_nba":       "nba",
	"basketball_ncaab":     "ncaab",
	"americanfootball_nfl": "nfl",
	"baseball_mlb":         "mlb",
	"icehockey_nhl":        "nhl",
}

// SportLabel returns the short storage label for a sport key.
func SportLabel(sportKey string) string {
	if label, ok := sportLabels[sportKey]; ok {
		return label
	}
	return slug.Make(sportKey)
}

// RawOddsKey derives the blob key for one day's raw odds snapshot. Re-runs
// for the same sport and day produce the same key, so persisting is a pure
// overwrite.
func RawOddsKey(sportKey string, day time.Time) string {
	label := SportLabel(sportKey)
	return fmt.Sprintf("%s/%s/%s_%s.json", RawOddsRoot, label, label, day.Format("2006-01-02"))
}

// RawOddsPrefix returns the listing prefix for a sport's raw snapshots.
func RawOddsPrefix(sportKey string) string {
	return fmt.Sprintf("%s/%s", RawOddsRoot, SportLabel(sportKey))
}

// TransformedOddsKey derives the key of a flattened parquet artifact from
// the base name of its raw input file.
func TransformedOddsKey(sportKey string, baseName string) string {
	return fmt.Sprintf("%s/%s/%s.parq", TransformedOddsRoot, SportLabel(sportKey), baseName)
}

// SeasonStatsKey derives the key of one season's raw NBA game stats.
func SeasonStatsKey(season string) string {
	return fmt.Sprintf("%s/%s.parq", NBAStatsRoot, slug.Make(season))
}

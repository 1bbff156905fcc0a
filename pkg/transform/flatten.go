// Package transform flattens raw historical odds snapshots into tabular
// rows and encodes them as parquet for downstream analysis.
package transform

import (
	"bytes"
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/arbworks/odds-core/pkg/models"
)

// OddsRow is one bookmaker market for one game at one snapshot.
type OddsRow struct {
	BookmakerKey   string  `parquet:"bookmaker_key"`
	BookmakerTitle string  `parquet:"bookmaker_title"`
	MarketKey      string  `parquet:"market_key"`
	HomeTeamOdds   float64 `parquet:"home_team_odds"`
	AwayTeamOdds   float64 `parquet:"away_team_odds"`
	GameID         string  `parquet:"game_id"`
	Sport          string  `parquet:"sport"`
	SportTitle     string  `parquet:"sport_title"`
	Commencement   string  `parquet:"commencement"`
	HomeTeam       string  `parquet:"home_team"`
	AwayTeam       string  `parquet:"away_team"`
	Timestamp      string  `parquet:"timestamp"`
}

// Flatten turns one snapshot into rows, one per bookmaker market. Lay
// markets are skipped, as are markets that do not quote both teams.
func Flatten(snapshot *models.HistoricalSnapshot) []OddsRow {
	var rows []OddsRow

	for _, game := range snapshot.Data {
		for _, bookmaker := range game.Bookmakers {
			for _, market := range bookmaker.Markets {
				if market.Key == "h2h_lay" {
					continue
				}

				homeOdds, homeOK := priceFor(market.Outcomes, game.HomeTeam)
				awayOdds, awayOK := priceFor(market.Outcomes, game.AwayTeam)
				if !homeOK || !awayOK {
					continue
				}

				rows = append(rows, OddsRow{
					BookmakerKey:   bookmaker.Key,
					BookmakerTitle: bookmaker.Title,
					MarketKey:      market.Key,
					HomeTeamOdds:   homeOdds,
					AwayTeamOdds:   awayOdds,
					GameID:         game.ID,
					Sport:          game.SportKey,
					SportTitle:     game.SportTitle,
					Commencement:   game.CommenceTime,
					HomeTeam:       game.HomeTeam,
					AwayTeam:       game.AwayTeam,
					Timestamp:      snapshot.Timestamp,
				})
			}
		}
	}

	return rows
}

func priceFor(outcomes []models.Outcome, team string) (float64, bool) {
	for _, outcome := range outcomes {
		if outcome.Name == team {
			return outcome.Price, true
		}
	}
	return 0, false
}

// EncodeParquet serializes rows into a parquet document.
func EncodeParquet(rows []OddsRow) ([]byte, error) {
	var buf bytes.Buffer

	writer := parquet.NewGenericWriter[OddsRow](&buf)
	if _, err := writer.Write(rows); err != nil {
		return nil, fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close parquet writer: %w", err)
	}

	return buf.Bytes(), nil
}

// Package nbastats pulls team game logs from the stats.nba.com API. The
// endpoint requires browser-like headers or it silently hangs.
package nbastats

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/arbworks/odds-core/pkg/logger"
)

const (
	defaultBaseURL = "https://stats.nba.com/stats"
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	referer        = "https://www.nba.com/"
)

// Team is one NBA franchise.
type Team struct {
	ID           int64
	Abbreviation string
	Name         string
}

// Teams returns the static franchise list. Team IDs are stable upstream
// identifiers.
func Teams() []Team {
	return []Team{
		{1610612737, "ATL", "Atlanta Hawks"},
		{1610612738, "BOS", "Boston Celtics"},
		{1610612751, "BKN", "Brooklyn Nets"},
		{1610612766, "CHA", "Charlotte Hornets"},
		{1610612741, "CHI", "Chicago Bulls"},
		{1610612739, "CLE", "Cleveland Cavaliers"},
		{1610612742, "DAL", "Dallas Mavericks"},
		{1610612743, "DEN", "Denver Nuggets"},
		{1610612765, "DET", "Detroit Pistons"},
		{1610612744, "GSW", "Golden State Warriors"},
		{1610612745, "HOU", "Houston Rockets"},
		{1610612754, "IND", "Indiana Pacers"},
		{1610612746, "LAC", "LA Clippers"},
		{1610612747, "LAL", "Los Angeles Lakers"},
		{1610612763, "MEM", "Memphis Grizzlies"},
		{1610612748, "MIA", "Miami Heat"},
		{1610612749, "MIL", "Milwaukee Bucks"},
		{1610612750, "MIN", "Minnesota Timberwolves"},
		{1610612740, "NOP", "New Orleans Pelicans"},
		{1610612752, "NYK", "New York Knicks"},
		{1610612760, "OKC", "Oklahoma City Thunder"},
		{1610612753, "ORL", "Orlando Magic"},
		{1610612755, "PHI", "Philadelphia 76ers"},
		{1610612756, "PHX", "Phoenix Suns"},
		{1610612757, "POR", "Portland Trail Blazers"},
		{1610612758, "SAC", "Sacramento Kings"},
		{1610612759, "SAS", "San Antonio Spurs"},
		{1610612761, "TOR", "Toronto Raptors"},
		{1610612762, "UTA", "Utah Jazz"},
		{1610612764, "WAS", "Washington Wizards"},
	}
}

// GameLogRow is one team's box line for one game.
type GameLogRow struct {
	TeamID   int64   `parquet:"team_id"`
	GameID   string  `parquet:"game_id"`
	GameDate string  `parquet:"game_date"`
	Matchup  string  `parquet:"matchup"`
	WinLoss  string  `parquet:"wl"`
	Minutes  float64 `parquet:"min"`
	FGM      float64 `parquet:"fgm"`
	FGA      float64 `parquet:"fga"`
	FGPct    float64 `parquet:"fg_pct"`
	FG3M     float64 `parquet:"fg3m"`
	FG3A     float64 `parquet:"fg3a"`
	FTM      float64 `parquet:"ftm"`
	FTA      float64 `parquet:"fta"`
	Rebounds float64 `parquet:"reb"`
	Assists  float64 `parquet:"ast"`
	Steals   float64 `parquet:"stl"`
	Blocks   float64 `parquet:"blk"`
	Points   float64 `parquet:"pts"`
}

// Client talks to the stats.nba.com API.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *logger.Logger
}

func NewClient() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.New("nba-stats-client"),
	}
}

// statsResponse is the resultSets envelope every stats.nba.com endpoint
// returns: column names in headers, values as untyped rows.
type statsResponse struct {
	ResultSets []struct {
		Name    string          `json:"name"`
		Headers []string        `json:"headers"`
		RowSet  [][]interface{} `json:"rowSet"`
	} `json:"resultSets"`
}

// TeamGameLog returns every regular-season game line for a team in the
// given season (formatted like "2022-23").
func (c *Client) TeamGameLog(ctx context.Context, teamID int64, season string) ([]GameLogRow, error) {
	params := url.Values{}
	params.Set("TeamID", fmt.Sprintf("%d", teamID))
	params.Set("Season", season)
	params.Set("SeasonType", "Regular Season")

	fullURL := fmt.Sprintf("%s/teamgamelog?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Referer", referer)
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.LogAPICall(http.MethodGet, "/teamgamelog", 0, time.Since(start), err)
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	c.logger.LogAPICall(http.MethodGet, "/teamgamelog", resp.StatusCode, time.Since(start), nil)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var result statsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode team game log: %w", err)
	}
	if len(result.ResultSets) == 0 {
		return nil, fmt.Errorf("team game log response has no result sets")
	}

	return parseGameLog(result.ResultSets[0].Headers, result.ResultSets[0].RowSet)
}

func parseGameLog(headers []string, rowSet [][]interface{}) ([]GameLogRow, error) {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[h] = i
	}

	for _, required := range []string{"Team_ID", "Game_ID", "GAME_DATE", "PTS"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("team game log missing column %s", required)
		}
	}

	rows := make([]GameLogRow, 0, len(rowSet))
	for _, raw := range rowSet {
		rows = append(rows, GameLogRow{
			TeamID:   int64(f64At(raw, idx, "Team_ID")),
			GameID:   strAt(raw, idx, "Game_ID"),
			GameDate: strAt(raw, idx, "GAME_DATE"),
			Matchup:  strAt(raw, idx, "MATCHUP"),
			WinLoss:  strAt(raw, idx, "WL"),
			Minutes:  f64At(raw, idx, "MIN"),
			FGM:      f64At(raw, idx, "FGM"),
			FGA:      f64At(raw, idx, "FGA"),
			FGPct:    f64At(raw, idx, "FG_PCT"),
			FG3M:     f64At(raw, idx, "FG3M"),
			FG3A:     f64At(raw, idx, "FG3A"),
			FTM:      f64At(raw, idx, "FTM"),
			FTA:      f64At(raw, idx, "FTA"),
			Rebounds: f64At(raw, idx, "REB"),
			Assists:  f64At(raw, idx, "AST"),
			Steals:   f64At(raw, idx, "STL"),
			Blocks:   f64At(raw, idx, "BLK"),
			Points:   f64At(raw, idx, "PTS"),
		})
	}
	return rows, nil
}

func strAt(row []interface{}, idx map[string]int, column string) string {
	i, ok := idx[column]
	if !ok || i >= len(row) {
		return ""
	}
	if s, ok := row[i].(string); ok {
		return s
	}
	return ""
}

func f64At(row []interface{}, idx map[string]int, column string) float64 {
	i, ok := idx[column]
	if !ok || i >= len(row) {
		return 0
	}
	if f, ok := row[i].(float64); ok {
		return f
	}
	return 0
}

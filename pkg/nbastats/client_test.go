package nbastats

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
)

type mockRoundTripper struct {
	response *http.Response
	err      error
	lastReq  *http.Request
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.lastReq = req
	return m.response, m.err
}

const gameLogBody = `{
	"resultSets": [
		{
			"name": "TeamGameLog",
			"headers": ["Team_ID", "Game_ID", "GAME_DATE", "MATCHUP", "WL", "MIN", "FGM", "FGA", "FG_PCT", "FG3M", "FG3A", "FTM", "FTA", "REB", "AST", "STL", "BLK", "PTS"],
			"rowSet": [
				[1610612738, "0022200567", "JAN 15, 2023", "BOS vs. MIA", "W", 240, 42, 88, 0.477, 15, 40, 18, 22, 45, 26, 7, 5, 117],
				[1610612738, "0022200554", "JAN 14, 2023", "BOS @ CHA", "L", 240, 38, 90, 0.422, 12, 38, 14, 18, 41, 22, 6, 3, 102]
			]
		}
	]
}`

func TestTeamGameLog(t *testing.T) {
	rt := &mockRoundTripper{
		response: &http.Response{
			StatusCode: 200,
			Body:       io.NopCloser(bytes.NewBufferString(gameLogBody)),
		},
	}
	client := NewClient()
	client.client = &http.Client{Transport: rt}

	rows, err := client.TeamGameLog(context.Background(), 1610612738, "2022-23")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}

	first := rows[0]
	if first.TeamID != 1610612738 {
		t.Errorf("Expected team ID 1610612738, got %d", first.TeamID)
	}
	if first.GameID != "0022200567" {
		t.Errorf("Expected game ID 0022200567, got %q", first.GameID)
	}
	if first.Points != 117 {
		t.Errorf("Expected 117 points, got %v", first.Points)
	}
	if first.WinLoss != "W" {
		t.Errorf("Expected W, got %q", first.WinLoss)
	}

	if rt.lastReq.Header.Get("Referer") != "https://www.nba.com/" {
		t.Errorf("Expected NBA referer header, got %q", rt.lastReq.Header.Get("Referer"))
	}
	query := rt.lastReq.URL.Query()
	if query.Get("Season") != "2022-23" {
		t.Errorf("Expected Season=2022-23, got %q", query.Get("Season"))
	}
	if query.Get("TeamID") != "1610612738" {
		t.Errorf("Expected TeamID param, got %q", query.Get("TeamID"))
	}
}

func TestTeamGameLogMissingColumns(t *testing.T) {
	body := `{"resultSets": [{"name": "TeamGameLog", "headers": ["Team_ID"], "rowSet": []}]}`
	rt := &mockRoundTripper{
		response: &http.Response{
			StatusCode: 200,
			Body:       io.NopCloser(bytes.NewBufferString(body)),
		},
	}
	client := NewClient()
	client.client = &http.Client{Transport: rt}

	if _, err := client.TeamGameLog(context.Background(), 1610612738, "2022-23"); err == nil {
		t.Error("Expected error for missing columns")
	}
}

func TestTeamGameLogUpstreamError(t *testing.T) {
	rt := &mockRoundTripper{
		response: &http.Response{
			StatusCode: 500,
			Body:       io.NopCloser(bytes.NewBufferString("")),
		},
	}
	client := NewClient()
	client.client = &http.Client{Transport: rt}

	if _, err := client.TeamGameLog(context.Background(), 1610612738, "2022-23"); err == nil {
		t.Error("Expected error for 500 response")
	}
}

func TestTeamsListIsComplete(t *testing.T) {
	teams := Teams()
	if len(teams) != 30 {
		t.Fatalf("Expected 30 teams, got %d", len(teams))
	}

	seen := make(map[int64]bool)
	for _, team := range teams {
		if seen[team.ID] {
			t.Errorf("Duplicate team ID %d", team.ID)
		}
		seen[team.ID] = true
		if team.Abbreviation == "" || team.Name == "" {
			t.Errorf("Incomplete team entry: %+v", team)
		}
	}
}

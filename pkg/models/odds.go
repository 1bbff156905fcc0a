package models

// Sport describes one entry of the upstream sports catalog.
type Sport struct {
	Key          string `json:"key"`
	Group        string `json:"group"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Active       bool   `json:"active"`
	HasOutrights bool   `json:"has_outrights"`
}

// HistoricalSnapshot is the envelope returned by the historical odds
// endpoint: the odds state of every game at one snapshot timestamp.
type HistoricalSnapshot struct {
	Timestamp         string `json:"timestamp"`
	PreviousTimestamp string `json:"previous_timestamp"`
	NextTimestamp     string `json:"next_timestamp"`
	Data              []Game `json:"data"`
}

// Game is a single event with its per-bookmaker odds.
type Game struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	SportTitle   string      `json:"sport_title"`
	CommenceTime string      `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

type Bookmaker struct {
	Key        string   `json:"key"`
	Title      string   `json:"title"`
	LastUpdate string   `json:"last_update"`
	Markets    []Market `json:"markets"`
}

type Market struct {
	Key        string    `json:"key"`
	LastUpdate string    `json:"last_update"`
	Outcomes   []Outcome `json:"outcomes"`
}

type Outcome struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point,omitempty"`
}

// Package battledto holds the JSON shapes served by the dashboard API.
// External consumers (the dashboard frontend, scripts) depend on these
// staying stable.
package battledto

// LeaderboardEntry is one ranked win/loss line.
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	Name   string `json:"name"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
}

// Leaderboard is the standings for one aggregation period.
type Leaderboard struct {
	Period  string             `json:"period"`
	Entries []LeaderboardEntry `json:"entries"`
}

// ActiveBattle is one open battle.
type ActiveBattle struct {
	ID       string   `json:"id"`
	Code     string   `json:"code"`
	Player1  string   `json:"player1"`
	Player2  string   `json:"player2"`
	Guest    bool     `json:"guest"`
	Machines []string `json:"machines"`
	Theme    string   `json:"theme,omitempty"`
}

// RecentBattle is one resolved battle.
type RecentBattle struct {
	Winner   string   `json:"winner"`
	Loser    string   `json:"loser"`
	Time     string   `json:"time"`
	Machines []string `json:"machines"`
}

// ContestEntry is one ranked contest score.
type ContestEntry struct {
	Rank   int    `json:"rank"`
	Player string `json:"player"`
	Score  int64  `json:"score"`
}

// Contest is the monthly high-score competition.
type Contest struct {
	Month   string         `json:"month"`
	Machine string         `json:"machine_of_the_month"`
	Entries []ContestEntry `json:"entries"`
}

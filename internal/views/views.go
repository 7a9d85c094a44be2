// Package views turns raw ledger and registry data into the ranked,
// display-ready shapes shared by the chat commands and the dashboard API.
package views

import (
	"sort"

	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/battle"
	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/domain"
	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/ledger"
)

// RankedPlayer is one leaderboard line with its computed rank.
type RankedPlayer struct {
	Rank   int    `json:"rank"`
	Name   string `json:"name"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
}

// RankedScore is one contest line with its computed rank.
type RankedScore struct {
	Rank   int    `json:"rank"`
	Player string `json:"player"`
	Score  int64  `json:"score"`
}

// ActiveBattleRow is one open battle for display.
type ActiveBattleRow struct {
	ID       string   `json:"id"`
	Code     string   `json:"code"`
	Player1  string   `json:"player1"`
	Player2  string   `json:"player2"`
	Guest    bool     `json:"guest"`
	Machines []string `json:"machines"`
	Theme    string   `json:"theme,omitempty"`
}

// RecentBattleRow is one resolved battle for display.
type RecentBattleRow struct {
	Winner   string   `json:"winner"`
	Loser    string   `json:"loser"`
	Time     string   `json:"time"`
	Machines []string `json:"machines"`
}

// RankStats orders stats by wins descending (name ascending on ties) and
// assigns sequential ranks starting at 1. Players tied on wins get distinct
// ranks in name order, matching the historical leaderboard.
func RankStats(stats []ledger.PlayerStats) []RankedPlayer {
	items := append([]ledger.PlayerStats(nil), stats...)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Wins != items[j].Wins {
			return items[i].Wins > items[j].Wins
		}
		return items[i].Name < items[j].Name
	})

	out := make([]RankedPlayer, 0, len(items))
	for i, p := range items {
		out = append(out, RankedPlayer{
			Rank:   i + 1,
			Name:   domain.DisplayName(p.Name),
			Wins:   p.Wins,
			Losses: p.Losses,
		})
	}
	return out
}

// RankScores orders contest scores descending and assigns dense ranks:
// players with equal scores share a rank, and the next distinct score gets
// the next rank number.
func RankScores(scores []ledger.ContestScore) []RankedScore {
	items := append([]ledger.ContestScore(nil), scores...)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].Player < items[j].Player
	})

	out := make([]RankedScore, 0, len(items))
	rank := 0
	var prev int64 = -1
	for _, s := range items {
		if s.Score != prev {
			rank++
			prev = s.Score
		}
		out = append(out, RankedScore{
			Rank:   rank,
			Player: domain.DisplayName(s.Player),
			Score:  s.Score,
		})
	}
	return out
}

// ActiveBattleRows converts registry battles to display rows.
func ActiveBattleRows(battles []battle.Battle) []ActiveBattleRow {
	out := make([]ActiveBattleRow, 0, len(battles))
	for _, b := range battles {
		out = append(out, ActiveBattleRow{
			ID:       b.ID,
			Code:     b.Code,
			Player1:  domain.DisplayName(b.Player1),
			Player2:  domain.DisplayName(b.Player2),
			Guest:    b.Guest,
			Machines: b.MachineNames(),
			Theme:    b.Theme,
		})
	}
	return out
}

// RecentBattleRows converts ledger records to display rows.
func RecentBattleRows(records []ledger.BattleRecord) []RecentBattleRow {
	out := make([]RecentBattleRow, 0, len(records))
	for _, r := range records {
		out = append(out, RecentBattleRow{
			Winner:   domain.DisplayName(r.Winner),
			Loser:    domain.DisplayName(r.Loser),
			Time:     r.Time.Format("2006-01-02 15:04"),
			Machines: append([]string(nil), r.MachineNames...),
		})
	}
	return out
}

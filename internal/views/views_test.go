package views

import (
	"testing"
	"time"

	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/ledger"
)

func TestRankStatsOrderingAndRanks(t *testing.T) {
	stats := []ledger.PlayerStats{
		{Name: "bob#1234", Wins: 2, Losses: 5},
		{Name: "alice", Wins: 7, Losses: 1},
		{Name: "carol", Wins: 2, Losses: 0},
	}

	ranked := RankStats(stats)
	if len(ranked) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(ranked))
	}
	if ranked[0].Name != "alice" || ranked[0].Rank != 1 {
		t.Fatalf("top row wrong: %+v", ranked[0])
	}
	// Tied on wins: bob before carol by name, with distinct ranks.
	if ranked[1].Name != "bob" || ranked[1].Rank != 2 {
		t.Fatalf("second row wrong: %+v", ranked[1])
	}
	if ranked[2].Name != "carol" || ranked[2].Rank != 3 {
		t.Fatalf("third row wrong: %+v", ranked[2])
	}
}

func TestRankStatsStripsDiscriminator(t *testing.T) {
	ranked := RankStats([]ledger.PlayerStats{{Name: "goblin#9999", Wins: 1}})
	if ranked[0].Name != "goblin" {
		t.Fatalf("discriminator not stripped: %q", ranked[0].Name)
	}
}

func TestRankScoresDenseRanks(t *testing.T) {
	scores := []ledger.ContestScore{
		{Player: "alice", Score: 500},
		{Player: "bob", Score: 900},
		{Player: "carol", Score: 500},
		{Player: "dave", Score: 100},
	}

	ranked := RankScores(scores)
	want := []struct {
		player string
		rank   int
	}{
		{"bob", 1}, {"alice", 2}, {"carol", 2}, {"dave", 3},
	}
	for i, w := range want {
		if ranked[i].Player != w.player || ranked[i].Rank != w.rank {
			t.Fatalf("row %d = %+v, want %s rank %d", i, ranked[i], w.player, w.rank)
		}
	}
}

func TestEmptyInputsYieldEmptySlices(t *testing.T) {
	if got := RankStats(nil); got == nil || len(got) != 0 {
		t.Fatalf("RankStats(nil) = %v, want empty slice", got)
	}
	if got := RankScores(nil); got == nil || len(got) != 0 {
		t.Fatalf("RankScores(nil) = %v, want empty slice", got)
	}
	if got := ActiveBattleRows(nil); got == nil || len(got) != 0 {
		t.Fatalf("ActiveBattleRows(nil) = %v, want empty slice", got)
	}
	if got := RecentBattleRows(nil); got == nil || len(got) != 0 {
		t.Fatalf("RecentBattleRows(nil) = %v, want empty slice", got)
	}
}

func TestRecentBattleRowsFormatsTime(t *testing.T) {
	rows := RecentBattleRows([]ledger.BattleRecord{{
		Winner:       "alice#1",
		Loser:        "bob#2",
		Time:         time.Date(2026, 8, 10, 15, 30, 0, 0, time.UTC),
		MachineNames: []string{"Funhouse"},
	}})
	if rows[0].Time != "2026-08-10 15:30" {
		t.Fatalf("time format wrong: %q", rows[0].Time)
	}
	if rows[0].Winner != "alice" || rows[0].Loser != "bob" {
		t.Fatalf("names not cleaned: %+v", rows[0])
	}
}

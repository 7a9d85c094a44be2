// Package ledger is the durable record of resolved battles and the derived
// player and monthly-contest statistics. Writes are idempotent: recording
// the same battle twice, or re-submitting a lower contest score, never
// double-counts.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/domain"
)

// StatsFilter selects the aggregation window for LoadStats.
type StatsFilter string

const (
	FilterAllTime StatsFilter = "all_time"
	// FilterCurrentMonth recomputes from battle rows in the current calendar
	// month rather than reading running counters, so correctness does not
	// depend on counter drift.
	FilterCurrentMonth StatsFilter = "current_month"
)

var (
	ErrInvalidScore    = errors.New("score must be a positive integer")
	ErrContestNotFound = errors.New("no contest exists for that month")
)

// NoMachine is stored as the featured machine when a contest is created
// while the active catalog is empty.
const NoMachine = "None"

// PlayerStats is one aggregated leaderboard line.
type PlayerStats struct {
	Name   string `json:"name"`
	Alias  string `json:"alias,omitempty"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
}

// BattleRecord is one resolved battle as stored.
type BattleRecord struct {
	ID           int64     `json:"id"`
	Winner       string    `json:"winner"`
	Loser        string    `json:"loser"`
	Time         time.Time `json:"time"`
	MachineNames []string  `json:"machine_names"`
}

// ContestScore is one player's best score in a monthly contest.
type ContestScore struct {
	Player string `json:"player"`
	Score  int64  `json:"score"`
}

// MonthlyContest is the rotating single-machine high-score competition for
// one calendar month.
type MonthlyContest struct {
	Month   string         `json:"month"`
	Machine string         `json:"machine_of_the_month"`
	Scores  []ContestScore `json:"scores"`
}

// Store is the ledger contract. Implementations must keep RecordBattle and
// SubmitScore idempotent as described on each method.
type Store interface {
	// RecordBattle persists a resolved battle and updates both players'
	// counters in one transactional scope. Submitting an identical
	// (winner, loser, timestamp) tuple again returns the existing row id
	// without touching counters. Machine order is preserved; duplicate
	// machine ids within one battle collapse to a single entry.
	RecordBattle(ctx context.Context, winner, loser string, machines []domain.Machine, at time.Time) (int64, error)

	// LoadStats aggregates win/loss counts per player under the filter,
	// ordered by wins descending.
	LoadStats(ctx context.Context, filter StatsFilter) ([]PlayerStats, error)

	// RecentBattles returns the most recent resolved battles, newest first.
	RecentBattles(ctx context.Context, limit int) ([]BattleRecord, error)

	// GetOrCreateMonthlyContest returns the contest row for monthKey,
	// creating it with a uniformly-random featured machine from active (or
	// NoMachine when active is empty) only if none exists. An existing
	// month's featured machine is never overwritten.
	GetOrCreateMonthlyContest(ctx context.Context, monthKey string, active []domain.Machine) (*MonthlyContest, error)

	// SubmitScore upserts a player's best score for the contest. Non-positive
	// scores are rejected with ErrInvalidScore; an existing entry is only
	// overwritten when the new score is strictly greater.
	SubmitScore(ctx context.Context, monthKey, player string, score int64) ([]ContestScore, error)

	// ResetMonthlyContest discards the month's contest (scores included) and
	// re-creates it with a freshly drawn featured machine.
	ResetMonthlyContest(ctx context.Context, monthKey string, active []domain.Machine) (*MonthlyContest, error)
}

package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/domain"
)

func testMachines() []domain.Machine {
	return []domain.Machine{
		{ID: 1, Name: "Medieval Madness"},
		{ID: 2, Name: "Attack From Mars"},
		{ID: 3, Name: "The Addams Family"},
	}
}

func findStats(t *testing.T, stats []PlayerStats, name string) PlayerStats {
	t.Helper()
	for _, p := range stats {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("player %q missing from stats", name)
	return PlayerStats{}
}

func TestRecordBattleIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	at := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)

	id1, err := store.RecordBattle(ctx, "alice", "bob", testMachines(), at)
	if err != nil {
		t.Fatalf("first record failed: %v", err)
	}
	id2, err := store.RecordBattle(ctx, "alice", "bob", testMachines(), at)
	if err != nil {
		t.Fatalf("duplicate record failed: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("duplicate tuple created new row: %d vs %d", id1, id2)
	}

	recent, err := store.RecentBattles(ctx, 10)
	if err != nil {
		t.Fatalf("recent battles failed: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 battle row, got %d", len(recent))
	}

	stats, err := store.LoadStats(ctx, FilterAllTime)
	if err != nil {
		t.Fatalf("load stats failed: %v", err)
	}
	if got := findStats(t, stats, "alice"); got.Wins != 1 || got.Losses != 0 {
		t.Fatalf("winner counters double-counted: %+v", got)
	}
	if got := findStats(t, stats, "bob"); got.Wins != 0 || got.Losses != 1 {
		t.Fatalf("loser counters wrong: %+v", got)
	}
}

func TestRecordBattleDistinctTimestamps(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)

	id1, _ := store.RecordBattle(ctx, "alice", "bob", testMachines(), base)
	id2, err := store.RecordBattle(ctx, "alice", "bob", testMachines(), base.Add(time.Minute))
	if err != nil {
		t.Fatalf("second record failed: %v", err)
	}
	if id1 == id2 {
		t.Fatalf("distinct timestamps collapsed to one row")
	}
}

func TestRecordBattleDedupesMachines(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	machines := []domain.Machine{
		{ID: 1, Name: "Medieval Madness"},
		{ID: 2, Name: "Attack From Mars"},
		{ID: 1, Name: "Medieval Madness"},
	}
	if _, err := store.RecordBattle(ctx, "alice", "bob", machines, time.Now()); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	recent, _ := store.RecentBattles(ctx, 1)
	want := []string{"Medieval Madness", "Attack From Mars"}
	if len(recent[0].MachineNames) != len(want) {
		t.Fatalf("machine list not de-duplicated: %v", recent[0].MachineNames)
	}
	for i, name := range want {
		if recent[0].MachineNames[i] != name {
			t.Fatalf("machine order not preserved: %v", recent[0].MachineNames)
		}
	}
}

func TestLoadStatsCurrentMonthFilter(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	store := NewMemoryStoreAt(func() time.Time { return fixed })

	// One win last month, one this month.
	if _, err := store.RecordBattle(ctx, "alice", "bob", testMachines(), fixed.AddDate(0, -1, 0)); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if _, err := store.RecordBattle(ctx, "alice", "carol", testMachines(), fixed); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	all, err := store.LoadStats(ctx, FilterAllTime)
	if err != nil {
		t.Fatalf("all-time stats failed: %v", err)
	}
	if got := findStats(t, all, "alice"); got.Wins != 2 {
		t.Fatalf("all-time wins = %d, want 2", got.Wins)
	}

	month, err := store.LoadStats(ctx, FilterCurrentMonth)
	if err != nil {
		t.Fatalf("monthly stats failed: %v", err)
	}
	if got := findStats(t, month, "alice"); got.Wins != 1 {
		t.Fatalf("monthly wins = %d, want 1", got.Wins)
	}
	if got := findStats(t, month, "bob"); got.Wins != 0 || got.Losses != 0 {
		t.Fatalf("bob should have empty window: %+v", got)
	}
}

func TestLoadStatsOrderedByWins(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()
	store.RecordBattle(ctx, "carol", "alice", testMachines(), now)
	store.RecordBattle(ctx, "carol", "bob", testMachines(), now.Add(time.Minute))
	store.RecordBattle(ctx, "alice", "bob", testMachines(), now.Add(2*time.Minute))

	stats, err := store.LoadStats(ctx, FilterAllTime)
	if err != nil {
		t.Fatalf("load stats failed: %v", err)
	}
	if stats[0].Name != "carol" || stats[1].Name != "alice" || stats[2].Name != "bob" {
		t.Fatalf("unexpected ordering: %+v", stats)
	}
}

func TestRecentBattlesNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		store.RecordBattle(ctx, "alice", "bob", testMachines(), base.Add(time.Duration(i)*time.Hour))
	}

	recent, err := store.RecentBattles(ctx, 5)
	if err != nil {
		t.Fatalf("recent battles failed: %v", err)
	}
	if len(recent) != 5 {
		t.Fatalf("limit not applied: got %d rows", len(recent))
	}
	for i := 1; i < len(recent); i++ {
		if recent[i].Time.After(recent[i-1].Time) {
			t.Fatalf("rows not newest-first: %v", recent)
		}
	}
}

func TestMonthlyContestCreateOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first, err := store.GetOrCreateMonthlyContest(ctx, "2026-08", testMachines())
	if err != nil {
		t.Fatalf("create contest failed: %v", err)
	}
	if first.Machine == "" || first.Machine == NoMachine {
		t.Fatalf("featured machine not drawn from active set: %q", first.Machine)
	}

	// Repeated access, even with a different active set, must not re-roll.
	again, err := store.GetOrCreateMonthlyContest(ctx, "2026-08", []domain.Machine{{ID: 99, Name: "Funhouse"}})
	if err != nil {
		t.Fatalf("get contest failed: %v", err)
	}
	if again.Machine != first.Machine {
		t.Fatalf("featured machine re-rolled: %q then %q", first.Machine, again.Machine)
	}
}

func TestMonthlyContestEmptyCatalog(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	c, err := store.GetOrCreateMonthlyContest(ctx, "2026-08", nil)
	if err != nil {
		t.Fatalf("create contest failed: %v", err)
	}
	if c.Machine != NoMachine {
		t.Fatalf("empty catalog should feature %q, got %q", NoMachine, c.Machine)
	}
}

func TestSubmitScoreKeepsBest(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if _, err := store.GetOrCreateMonthlyContest(ctx, "2026-08", testMachines()); err != nil {
		t.Fatalf("create contest failed: %v", err)
	}

	if _, err := store.SubmitScore(ctx, "2026-08", "alice", 100); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	scores, err := store.SubmitScore(ctx, "2026-08", "alice", 80)
	if err != nil {
		t.Fatalf("lower submit failed: %v", err)
	}
	if len(scores) != 1 || scores[0].Score != 100 {
		t.Fatalf("lower score overwrote best: %+v", scores)
	}

	scores, err = store.SubmitScore(ctx, "2026-08", "alice", 150)
	if err != nil {
		t.Fatalf("higher submit failed: %v", err)
	}
	if len(scores) != 1 || scores[0].Score != 150 {
		t.Fatalf("higher score not recorded: %+v", scores)
	}
}

func TestSubmitScoreValidation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.GetOrCreateMonthlyContest(ctx, "2026-08", testMachines())

	if _, err := store.SubmitScore(ctx, "2026-08", "alice", 0); err != ErrInvalidScore {
		t.Fatalf("zero score: got %v, want ErrInvalidScore", err)
	}
	if _, err := store.SubmitScore(ctx, "2026-08", "alice", -5); err != ErrInvalidScore {
		t.Fatalf("negative score: got %v, want ErrInvalidScore", err)
	}
	if _, err := store.SubmitScore(ctx, "2026-01", "alice", 10); err != ErrContestNotFound {
		t.Fatalf("missing contest: got %v, want ErrContestNotFound", err)
	}
}

func TestSubmitScoreOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.GetOrCreateMonthlyContest(ctx, "2026-08", testMachines())

	store.SubmitScore(ctx, "2026-08", "bob", 50)
	store.SubmitScore(ctx, "2026-08", "carol", 200)
	scores, err := store.SubmitScore(ctx, "2026-08", "alice", 120)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	want := []string{"carol", "alice", "bob"}
	for i, name := range want {
		if scores[i].Player != name {
			t.Fatalf("scores not ranked by score desc: %+v", scores)
		}
	}
}

func TestResetMonthlyContest(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.GetOrCreateMonthlyContest(ctx, "2026-08", testMachines())
	store.SubmitScore(ctx, "2026-08", "alice", 500)

	c, err := store.ResetMonthlyContest(ctx, "2026-08", testMachines())
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if len(c.Scores) != 0 {
		t.Fatalf("reset kept old scores: %+v", c.Scores)
	}
	if c.Machine == NoMachine {
		t.Fatalf("reset did not draw a featured machine")
	}
}

package ledger

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/domain"
)

// memStore is an in-memory Store used by tests and for running without a
// database. It implements the same idempotency contract as the Postgres
// store.
type memStore struct {
	mu sync.RWMutex

	nextID  int64
	players map[string]*PlayerStats
	battles []BattleRecord
	byTuple map[string]int64 // winner|loser|unixnano -> battle id

	contests map[string]*MonthlyContest

	now func() time.Time
	rng *rand.Rand
}

// NewMemoryStore returns an empty in-memory ledger.
func NewMemoryStore() Store {
	return &memStore{
		players:  make(map[string]*PlayerStats),
		byTuple:  make(map[string]int64),
		contests: make(map[string]*MonthlyContest),
		now:      time.Now,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewMemoryStoreAt pins the store's clock; used by tests exercising the
// current-month filter.
func NewMemoryStoreAt(now func() time.Time) Store {
	s := NewMemoryStore().(*memStore)
	s.now = now
	return s
}

func (s *memStore) RecordBattle(ctx context.Context, winner, loser string, machines []domain.Machine, at time.Time) (int64, error) {
	winner = strings.TrimSpace(winner)
	loser = strings.TrimSpace(loser)
	if winner == "" || loser == "" {
		return 0, fmt.Errorf("record battle: empty participant")
	}

	key := fmt.Sprintf("%s|%s|%d", winner, loser, at.UnixNano())

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byTuple[key]; ok {
		return id, nil
	}

	s.ensurePlayer(winner)
	s.ensurePlayer(loser)
	s.players[winner].Wins++
	s.players[loser].Losses++

	s.nextID++
	rec := BattleRecord{
		ID:     s.nextID,
		Winner: winner,
		Loser:  loser,
		Time:   at,
	}
	seen := make(map[int64]bool, len(machines))
	for _, m := range machines {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		rec.MachineNames = append(rec.MachineNames, m.Name)
	}
	s.battles = append(s.battles, rec)
	s.byTuple[key] = rec.ID
	return rec.ID, nil
}

func (s *memStore) LoadStats(ctx context.Context, filter StatsFilter) ([]PlayerStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]*PlayerStats, len(s.players))
	for name := range s.players {
		stats[name] = &PlayerStats{Name: name}
	}
	month := domain.MonthKey(s.now())
	for _, b := range s.battles {
		if filter == FilterCurrentMonth && domain.MonthKey(b.Time) != month {
			continue
		}
		stats[b.Winner].Wins++
		stats[b.Loser].Losses++
	}

	out := make([]PlayerStats, 0, len(stats))
	for _, p := range stats {
		out = append(out, *p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *memStore) RecentBattles(ctx context.Context, limit int) ([]BattleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := append([]BattleRecord(nil), s.battles...)
	sort.Slice(items, func(i, j int) bool {
		if !items[i].Time.Equal(items[j].Time) {
			return items[i].Time.After(items[j].Time)
		}
		return items[i].ID > items[j].ID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *memStore) GetOrCreateMonthlyContest(ctx context.Context, monthKey string, active []domain.Machine) (*MonthlyContest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.contests[monthKey]; ok {
		return copyContest(c), nil
	}
	c := &MonthlyContest{Month: monthKey, Machine: s.pickMachine(active)}
	s.contests[monthKey] = c
	return copyContest(c), nil
}

func (s *memStore) SubmitScore(ctx context.Context, monthKey, player string, score int64) ([]ContestScore, error) {
	if score <= 0 {
		return nil, ErrInvalidScore
	}
	player = strings.TrimSpace(player)

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contests[monthKey]
	if !ok {
		return nil, ErrContestNotFound
	}
	found := false
	for i := range c.Scores {
		if c.Scores[i].Player == player {
			if score > c.Scores[i].Score {
				c.Scores[i].Score = score
			}
			found = true
			break
		}
	}
	if !found {
		c.Scores = append(c.Scores, ContestScore{Player: player, Score: score})
	}
	return sortedScores(c.Scores), nil
}

func (s *memStore) ResetMonthlyContest(ctx context.Context, monthKey string, active []domain.Machine) (*MonthlyContest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &MonthlyContest{Month: monthKey, Machine: s.pickMachine(active)}
	s.contests[monthKey] = c
	return copyContest(c), nil
}

func (s *memStore) ensurePlayer(name string) {
	if _, ok := s.players[name]; !ok {
		s.players[name] = &PlayerStats{Name: name}
	}
}

func (s *memStore) pickMachine(active []domain.Machine) string {
	if len(active) == 0 {
		return NoMachine
	}
	return active[s.rng.Intn(len(active))].Name
}

func copyContest(c *MonthlyContest) *MonthlyContest {
	cp := *c
	cp.Scores = sortedScores(c.Scores)
	return &cp
}

func sortedScores(scores []ContestScore) []ContestScore {
	out := append([]ContestScore(nil), scores...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Player < out[j].Player
	})
	return out
}

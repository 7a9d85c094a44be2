package matchmaking

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/domain"
	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/themes"
)

const (
	// BattleSize is the exact number of machines in every battle.
	BattleSize = 3

	// themeTries bounds how many random theme draws happen before giving up.
	// An unlucky draw must not block matchmaking indefinitely.
	themeTries = 10
)

var (
	ErrInsufficientMachines = errors.New("fewer than 3 active machines available")
	ErrNoMatchingTheme      = errors.New("no theme with at least 3 matching machines")
)

// Selector draws battle machine sets. It holds only a randomness source, so
// selection stays a pure function of catalog state plus that source.
type Selector struct {
	mu     sync.Mutex
	rng    *rand.Rand
	themes []themes.Theme
}

// NewSelector returns a Selector seeded from the clock, using the full
// configured theme set.
func NewSelector() *Selector {
	return &Selector{
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		themes: themes.All(),
	}
}

// NewSelectorWithSource is used by tests to make draws deterministic, and
// optionally to narrow the theme set.
func NewSelectorWithSource(src rand.Source, ts []themes.Theme) *Selector {
	if ts == nil {
		ts = themes.All()
	}
	return &Selector{rng: rand.New(src), themes: ts}
}

// Pick draws exactly BattleSize distinct machines uniformly at random from
// the active set.
func (s *Selector) Pick(active []domain.Machine) ([]domain.Machine, error) {
	if len(active) < BattleSize {
		return nil, ErrInsufficientMachines
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sample(active), nil
}

// PickThemed repeats up to themeTries times: draw a random theme, filter the
// active set by it, and sample when at least BattleSize machines survive.
// Returns the chosen theme's name alongside the machines.
func (s *Selector) PickThemed(active []domain.Machine) ([]domain.Machine, string, error) {
	if len(active) == 0 {
		return nil, "", ErrInsufficientMachines
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for try := 0; try < themeTries; try++ {
		th := s.themes[s.rng.Intn(len(s.themes))]
		var filtered []domain.Machine
		for _, m := range active {
			if th.Match(m) {
				filtered = append(filtered, m)
			}
		}
		if len(filtered) >= BattleSize {
			return s.sample(filtered), th.Name, nil
		}
	}
	return nil, "", ErrNoMatchingTheme
}

// sample draws BattleSize distinct entries via a partial Fisher-Yates
// shuffle over an index slice, leaving the input untouched.
func (s *Selector) sample(pool []domain.Machine) []domain.Machine {
	idx := make([]int, len(pool))
	for i := range idx {
		idx[i] = i
	}
	out := make([]domain.Machine, 0, BattleSize)
	for i := 0; i < BattleSize; i++ {
		j := i + s.rng.Intn(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]
		out = append(out, pool[idx[i]])
	}
	return out
}

package battle

import (
	"errors"
	"time"

	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/domain"
)

// Status represents a battle lifecycle state. Open battles live only in the
// coordinator's registry; resolved battles live only in the ledger.
type Status string

const (
	StatusOpen     Status = "OPEN"
	StatusResolved Status = "RESOLVED"
)

var (
	ErrInvalidArgs     = errors.New("invalid arguments")
	ErrSelfBattle      = errors.New("cannot battle against yourself")
	ErrBattleNotFound  = errors.New("battle not found")
	ErrAlreadyResolved = errors.New("battle already resolved")
	ErrNotParticipant  = errors.New("only battle participants may declare the winner")
	ErrMachineCount    = errors.New("a battle needs exactly 3 distinct machines")
	// ErrStoreUnavailable wraps a failed durable write; the battle has been
	// reopened and the resolve can be retried.
	ErrStoreUnavailable = errors.New("result store unavailable")
)

// Battle is one head-to-head contest over three machines, tracked from Open
// to Resolved. Player2 may be a non-interactive guest.
type Battle struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Player1 string `json:"player1"`
	Player2 string `json:"player2"`
	Guest   bool   `json:"guest"`

	Machines []domain.Machine `json:"machines"`
	Theme    string           `json:"theme,omitempty"`

	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`

	Winner     string    `json:"winner,omitempty"`
	Loser      string    `json:"loser,omitempty"`
	ResolvedAt time.Time `json:"resolved_at,omitempty"`
}

// Participant reports whether name is one of the two registered sides. The
// guest sentinel is non-interactive and never counts as an actor.
func (b *Battle) Participant(name string) bool {
	if name == "" {
		return false
	}
	if name == b.Player1 {
		return true
	}
	return name == b.Player2 && !b.Guest
}

// Opponent returns the other side for a given participant name.
func (b *Battle) Opponent(name string) string {
	if name == b.Player1 {
		return b.Player2
	}
	if name == b.Player2 {
		return b.Player1
	}
	return ""
}

// MachineNames returns the battle's machine names in stored order.
func (b *Battle) MachineNames() []string {
	out := make([]string, 0, len(b.Machines))
	for _, m := range b.Machines {
		out = append(out, m.Name)
	}
	return out
}

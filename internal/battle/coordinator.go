package battle

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/domain"
	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/matchmaking"
	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/obslog"
)

// Recorder receives the durable side effect of a resolution. Implemented by
// the ledger; idempotent under duplicate submission.
type Recorder interface {
	RecordBattle(ctx context.Context, winner, loser string, machines []domain.Machine, at time.Time) (int64, error)
}

// Coordinator owns the registry of in-flight battles. One instance per
// process, created at startup and passed explicitly to every consumer.
//
// Resolution is exactly-once: the status flip and the registry eviction
// happen in a single critical section, so among any number of racing
// resolution attempts for one session exactly one succeeds. The durable
// write happens after the lock is released; when it fails the battle is
// re-inserted as Open so the outcome can be retried rather than lost.
type Coordinator struct {
	mu      sync.Mutex
	battles map[string]*Battle // session id -> battle
	byCode  map[string]string  // short code -> session id

	recorder Recorder
}

func NewCoordinator() *Coordinator {
	return &Coordinator{
		battles: make(map[string]*Battle),
		byCode:  make(map[string]string),
	}
}

// AttachRecorder wires the durable ledger for resolution side effects.
func (c *Coordinator) AttachRecorder(r Recorder) {
	if c != nil {
		c.recorder = r
	}
}

// Create registers a new Open battle over exactly 3 distinct machines and
// returns a snapshot of it. guest marks player2 as a non-interactive side.
func (c *Coordinator) Create(player1, player2 string, guest bool, machines []domain.Machine, theme string) (*Battle, error) {
	player1 = strings.TrimSpace(player1)
	player2 = strings.TrimSpace(player2)
	if player1 == "" || player2 == "" {
		return nil, ErrInvalidArgs
	}
	if player1 == player2 {
		return nil, ErrSelfBattle
	}
	if len(machines) != matchmaking.BattleSize {
		return nil, ErrMachineCount
	}
	seen := make(map[int64]bool, len(machines))
	for _, m := range machines {
		if seen[m.ID] {
			return nil, ErrMachineCount
		}
		seen[m.ID] = true
	}

	ms := append([]domain.Machine(nil), machines...)

	c.mu.Lock()
	id, code := c.nextID()
	b := &Battle{
		ID:        id,
		Code:      code,
		Player1:   player1,
		Player2:   player2,
		Guest:     guest,
		Machines:  ms,
		Theme:     theme,
		Status:    StatusOpen,
		CreatedAt: time.Now(),
	}
	c.battles[id] = b
	c.byCode[code] = id
	snap := snapshot(b)
	c.mu.Unlock()

	obslog.L().Info("battle_create",
		zap.String("battle_id", id),
		zap.String("code", code),
		zap.String("player1", player1),
		zap.String("player2", player2),
		zap.Bool("guest", guest),
		zap.String("theme", theme),
	)
	return snap, nil
}

// Get returns a snapshot of the battle with the given session id or code.
func (c *Coordinator) Get(ref string) (*Battle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.lookup(ref)
	if !ok {
		return nil, ErrBattleNotFound
	}
	return snapshot(b), nil
}

// Resolve declares the winner of a battle. actor must be a registered
// participant; declaredWinner must be one of the two sides. Exactly one
// caller among concurrent attempts on the same session succeeds; the rest
// observe ErrAlreadyResolved or ErrBattleNotFound.
func (c *Coordinator) Resolve(ctx context.Context, ref, actor, declaredWinner string) (*Battle, error) {
	actor = strings.TrimSpace(actor)
	declaredWinner = strings.TrimSpace(declaredWinner)
	if strings.TrimSpace(ref) == "" || declaredWinner == "" {
		return nil, ErrInvalidArgs
	}

	c.mu.Lock()
	b, ok := c.lookup(ref)
	if !ok {
		c.mu.Unlock()
		return nil, ErrBattleNotFound
	}
	if b.Status != StatusOpen {
		c.mu.Unlock()
		return nil, ErrAlreadyResolved
	}
	if !b.Participant(actor) {
		c.mu.Unlock()
		return nil, ErrNotParticipant
	}
	if declaredWinner != b.Player1 && declaredWinner != b.Player2 {
		c.mu.Unlock()
		return nil, ErrNotParticipant
	}

	b.Status = StatusResolved
	b.Winner = declaredWinner
	b.Loser = b.Opponent(declaredWinner)
	b.ResolvedAt = time.Now()
	delete(c.battles, b.ID)
	delete(c.byCode, b.Code)
	snap := snapshot(b)
	c.mu.Unlock()

	// Durable write outside the lock: ledger I/O must not block the registry.
	if c.recorder != nil {
		if _, err := c.recorder.RecordBattle(ctx, snap.Winner, snap.Loser, snap.Machines, snap.ResolvedAt); err != nil {
			c.reopen(b)
			obslog.L().Error("battle_record_persist_error",
				zap.String("battle_id", b.ID),
				zap.String("winner", snap.Winner),
				zap.Error(err),
			)
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	obslog.L().Info("battle_resolve",
		zap.String("battle_id", b.ID),
		zap.String("code", b.Code),
		zap.String("winner", snap.Winner),
		zap.String("loser", snap.Loser),
	)
	return snap, nil
}

// ListActive returns snapshot copies of every Open battle, newest first.
func (c *Coordinator) ListActive() []Battle {
	c.mu.Lock()
	out := make([]Battle, 0, len(c.battles))
	for _, b := range c.battles {
		out = append(out, *snapshot(b))
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// reopen puts a battle whose durable write failed back into the registry so
// a later resolve attempt can retry. Losing a resolved-but-unrecorded battle
// is the worst failure mode in this system.
func (c *Coordinator) reopen(b *Battle) {
	c.mu.Lock()
	b.Status = StatusOpen
	b.Winner = ""
	b.Loser = ""
	b.ResolvedAt = time.Time{}
	c.battles[b.ID] = b
	c.byCode[b.Code] = b.ID
	c.mu.Unlock()
}

// lookup resolves a session id or short code to a live battle. Caller holds
// the lock.
func (c *Coordinator) lookup(ref string) (*Battle, bool) {
	ref = strings.TrimSpace(ref)
	if b, ok := c.battles[ref]; ok {
		return b, true
	}
	if id, ok := c.byCode[strings.ToUpper(ref)]; ok {
		if b, ok := c.battles[id]; ok {
			return b, true
		}
	}
	return nil, false
}

// nextID allocates a fresh session id plus a short chat-friendly code.
// Caller holds the lock; codes re-roll on the (unlikely) collision.
func (c *Coordinator) nextID() (string, string) {
	for {
		id := uuid.NewString()
		code := strings.ToUpper(strings.ReplaceAll(id, "-", "")[:6])
		if _, taken := c.byCode[code]; taken {
			continue
		}
		if _, taken := c.battles[id]; taken {
			continue
		}
		return id, code
	}
}

func snapshot(b *Battle) *Battle {
	cp := *b
	cp.Machines = append([]domain.Machine(nil), b.Machines...)
	return &cp
}

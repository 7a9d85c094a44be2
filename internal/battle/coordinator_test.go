package battle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/domain"
)

func threeMachines() []domain.Machine {
	return []domain.Machine{
		{ID: 1, Name: "Medieval Madness", Active: true},
		{ID: 2, Name: "Attack From Mars", Active: true},
		{ID: 3, Name: "Twilight Zone", Active: true},
	}
}

// countingRecorder records every successful write; optionally fails first.
type countingRecorder struct {
	mu       sync.Mutex
	records  []string
	failNext bool
}

func (r *countingRecorder) RecordBattle(ctx context.Context, winner, loser string, machines []domain.Machine, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext {
		r.failNext = false
		return 0, errors.New("store unavailable")
	}
	r.records = append(r.records, winner+">"+loser)
	return int64(len(r.records)), nil
}

func TestCreateAndGet(t *testing.T) {
	c := NewCoordinator()
	b, err := c.Create("alice", "bob", false, threeMachines(), "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.ID == "" || b.Code == "" || b.Status != StatusOpen {
		t.Fatalf("unexpected battle: %+v", b)
	}

	got, err := c.Get(b.ID)
	if err != nil {
		t.Fatalf("Get by id: %v", err)
	}
	if got.ID != b.ID {
		t.Fatalf("id mismatch: %q vs %q", got.ID, b.ID)
	}
	byCode, err := c.Get(b.Code)
	if err != nil || byCode.ID != b.ID {
		t.Fatalf("Get by code: %v", err)
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	c := NewCoordinator()
	if _, err := c.Create("alice", "alice", false, threeMachines(), ""); !errors.Is(err, ErrSelfBattle) {
		t.Fatalf("expected ErrSelfBattle, got %v", err)
	}
	if _, err := c.Create("alice", "bob", false, threeMachines()[:2], ""); !errors.Is(err, ErrMachineCount) {
		t.Fatalf("expected ErrMachineCount, got %v", err)
	}
	dup := threeMachines()
	dup[2].ID = dup[0].ID
	if _, err := c.Create("alice", "bob", false, dup, ""); !errors.Is(err, ErrMachineCount) {
		t.Fatalf("expected ErrMachineCount on duplicate ids, got %v", err)
	}
}

func TestResolveHappyPath(t *testing.T) {
	c := NewCoordinator()
	rec := &countingRecorder{}
	c.AttachRecorder(rec)

	b, err := c.Create("alice", "bob", false, threeMachines(), "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	res, err := c.Resolve(context.Background(), b.ID, "bob", "alice")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Status != StatusResolved || res.Winner != "alice" || res.Loser != "bob" {
		t.Fatalf("unexpected resolution: %+v", res)
	}
	if len(rec.records) != 1 || rec.records[0] != "alice>bob" {
		t.Fatalf("unexpected ledger records: %v", rec.records)
	}
	// Battle is gone from the registry once resolved.
	if _, err := c.Get(b.ID); !errors.Is(err, ErrBattleNotFound) {
		t.Fatalf("expected ErrBattleNotFound after resolve, got %v", err)
	}
	if _, err := c.Resolve(context.Background(), b.ID, "alice", "alice"); !errors.Is(err, ErrBattleNotFound) {
		t.Fatalf("expected ErrBattleNotFound on duplicate resolve, got %v", err)
	}
}

func TestResolveAuthorization(t *testing.T) {
	c := NewCoordinator()
	b, _ := c.Create("alice", "bob", false, threeMachines(), "")

	if _, err := c.Resolve(context.Background(), b.ID, "mallory", "alice"); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant for outsider, got %v", err)
	}
	if _, err := c.Resolve(context.Background(), b.ID, "alice", "mallory"); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant for outsider winner, got %v", err)
	}
	// Still open after rejected attempts.
	got, err := c.Get(b.ID)
	if err != nil || got.Status != StatusOpen {
		t.Fatalf("battle should remain open: %v %+v", err, got)
	}
}

func TestGuestCannotAct(t *testing.T) {
	c := NewCoordinator()
	b, err := c.Create("alice", "Guest Goblin", true, threeMachines(), "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := c.Resolve(context.Background(), b.ID, "Guest Goblin", "alice"); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("guest must not resolve, got %v", err)
	}
	// The host can still declare the guest as winner.
	res, err := c.Resolve(context.Background(), b.ID, "alice", "Guest Goblin")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Winner != "Guest Goblin" || res.Loser != "alice" {
		t.Fatalf("unexpected outcome: %+v", res)
	}
}

func TestResolveRaceExactlyOnce(t *testing.T) {
	c := NewCoordinator()
	rec := &countingRecorder{}
	c.AttachRecorder(rec)

	b, err := c.Create("alice", "bob", false, threeMachines(), "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	const racers = 16
	var wg sync.WaitGroup
	var successes, rejections int
	var mu sync.Mutex
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Resolve(context.Background(), b.ID, "alice", "bob")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrAlreadyResolved) || errors.Is(err, ErrBattleNotFound):
				rejections++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly 1 successful resolution, got %d", successes)
	}
	if rejections != racers-1 {
		t.Fatalf("expected %d rejections, got %d", racers-1, rejections)
	}
	if len(rec.records) != 1 {
		t.Fatalf("expected exactly 1 ledger record, got %d", len(rec.records))
	}
}

func TestManyBattlesNoDuplicateRecords(t *testing.T) {
	c := NewCoordinator()
	rec := &countingRecorder{}
	c.AttachRecorder(rec)

	const n = 50
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		b, err := c.Create(fmt.Sprintf("p%d", i), fmt.Sprintf("q%d", i), false, threeMachines(), "")
		if err != nil {
			t.Fatalf("Create #%d: %v", i, err)
		}
		ids = append(ids, b.ID)
	}

	var wg sync.WaitGroup
	for i, id := range ids {
		// Two racers per battle, interleaved with creates of nothing else.
		for r := 0; r < 2; r++ {
			wg.Add(1)
			go func(i int, id string) {
				defer wg.Done()
				_, _ = c.Resolve(context.Background(), id, fmt.Sprintf("p%d", i), fmt.Sprintf("p%d", i))
			}(i, id)
		}
	}
	wg.Wait()

	if len(rec.records) != n {
		t.Fatalf("expected %d records, got %d", n, len(rec.records))
	}
	seen := map[string]bool{}
	for _, r := range rec.records {
		if seen[r] {
			t.Fatalf("duplicate record %q", r)
		}
		seen[r] = true
	}
	if got := len(c.ListActive()); got != 0 {
		t.Fatalf("expected empty registry, got %d active", got)
	}
}

func TestResolveReopensOnStoreFailure(t *testing.T) {
	c := NewCoordinator()
	rec := &countingRecorder{failNext: true}
	c.AttachRecorder(rec)

	b, _ := c.Create("alice", "bob", false, threeMachines(), "")

	if _, err := c.Resolve(context.Background(), b.ID, "alice", "alice"); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	// The battle is back in the registry as Open and can be retried.
	got, err := c.Get(b.ID)
	if err != nil {
		t.Fatalf("battle lost after failed write: %v", err)
	}
	if got.Status != StatusOpen || got.Winner != "" {
		t.Fatalf("battle not reopened cleanly: %+v", got)
	}
	if _, err := c.Resolve(context.Background(), b.ID, "alice", "alice"); err != nil {
		t.Fatalf("retry after store recovery: %v", err)
	}
	if len(rec.records) != 1 {
		t.Fatalf("expected 1 record after retry, got %d", len(rec.records))
	}
}

func TestListActiveSnapshots(t *testing.T) {
	c := NewCoordinator()
	if got := c.ListActive(); len(got) != 0 {
		t.Fatalf("expected empty list, got %d", len(got))
	}
	b1, _ := c.Create("alice", "bob", false, threeMachines(), "")
	b2, _ := c.Create("carol", "dave", false, threeMachines(), "90s Favorites")

	list := c.ListActive()
	if len(list) != 2 {
		t.Fatalf("expected 2 active battles, got %d", len(list))
	}
	// Mutating the snapshot must not touch the registry.
	list[0].Machines[0].Name = "mutated"
	fresh, _ := c.Get(list[0].ID)
	if fresh.Machines[0].Name == "mutated" {
		t.Fatalf("snapshot aliased registry state")
	}
	_ = b1
	_ = b2
}

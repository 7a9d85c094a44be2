package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/domain"
)

type fakeLoader struct {
	machines []domain.Machine
	err      error
}

func (f *fakeLoader) LoadActive(ctx context.Context) ([]domain.Machine, error) {
	return f.machines, f.err
}

func TestSnapshotServesStaleOnFailure(t *testing.T) {
	loader := &fakeLoader{machines: []domain.Machine{
		{ID: 1, Name: "Medieval Madness", Active: true},
		{ID: 2, Name: "Funhouse", Active: true},
	}}
	snap := NewSnapshot(loader)
	if err := snap.Refresh(context.Background()); err != nil {
		t.Fatalf("initial refresh failed: %v", err)
	}
	if got := len(snap.Active()); got != 2 {
		t.Fatalf("active count = %d, want 2", got)
	}

	loader.err = errors.New("db down")
	if err := snap.Refresh(context.Background()); err == nil {
		t.Fatalf("expected refresh error")
	}
	if got := len(snap.Active()); got != 2 {
		t.Fatalf("failed refresh clobbered snapshot: %d machines", got)
	}
}

func TestSnapshotCopyOnRead(t *testing.T) {
	loader := &fakeLoader{machines: []domain.Machine{{ID: 1, Name: "Funhouse", Active: true}}}
	snap := NewSnapshot(loader)
	if err := snap.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	got := snap.Active()
	got[0].Name = "mutated"
	if snap.Active()[0].Name != "Funhouse" {
		t.Fatalf("caller mutation leaked into cache")
	}
}

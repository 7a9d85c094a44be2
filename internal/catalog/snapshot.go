package catalog

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/domain"
	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/obslog"
)

// Loader is the read side of the catalog the snapshot caches.
type Loader interface {
	LoadActive(ctx context.Context) ([]domain.Machine, error)
}

// Snapshot caches the active machine list so battle creation never blocks on
// the database. Readers get copy-on-read slices; a stale snapshot is served
// until the next successful refresh.
type Snapshot struct {
	mu     sync.RWMutex
	loader Loader

	machines    []domain.Machine
	refreshedAt time.Time
}

func NewSnapshot(loader Loader) *Snapshot {
	return &Snapshot{loader: loader}
}

// Refresh reloads the active set from the loader. On failure the previous
// snapshot stays in place and the error is returned.
func (s *Snapshot) Refresh(ctx context.Context) error {
	machines, err := s.loader.LoadActive(ctx)
	if err != nil {
		obslog.L().Warn("catalog_refresh_failed", zap.Error(err))
		return err
	}

	s.mu.Lock()
	s.machines = machines
	s.refreshedAt = time.Now()
	s.mu.Unlock()

	obslog.L().Debug("catalog_refresh", zap.Int("active_machines", len(machines)))
	return nil
}

// StartRefresh refreshes on the given interval until ctx is canceled.
func (s *Snapshot) StartRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = s.Refresh(ctx)
			}
		}
	}()
}

// Active returns a copy of the cached active machine list.
func (s *Snapshot) Active() []domain.Machine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Machine(nil), s.machines...)
}

// RefreshedAt reports when the snapshot last loaded successfully.
func (s *Snapshot) RefreshedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshedAt
}

// Package catalog owns the machine roster: loading it from Postgres,
// caching an in-memory snapshot for the selector, and the admin mutations
// that change it.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/domain"
)

var ErrMachineNotFound = errors.New("machine not found")

// MachineInput is the admin-facing write shape for one machine. Attribute
// strings arrive raw and are normalized through domain.CanonicalMachine on
// every read.
type MachineInput struct {
	Name         string   `json:"name"`
	Tags         []string `json:"tags"`
	Active       bool     `json:"active"`
	Manufacturer string   `json:"manufacturer"`
	ReleaseDate  string   `json:"release_date"`
	Type         string   `json:"type"`
	Generation   string   `json:"generation"`
	ReleaseCount string   `json:"release_count"`
	Cabinet      string   `json:"cabinet"`
	DisplayType  string   `json:"display_type"`
	Players      int      `json:"players"`
	Flippers     int      `json:"flippers"`
	Ramps        int      `json:"ramps"`
	Multiball    int      `json:"multiball"`
}

// Repository reads and writes the machine catalog.
type Repository struct {
	db      *sql.DB
	timeout time.Duration
}

func NewRepository(db *sql.DB, timeout time.Duration) *Repository {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Repository{db: db, timeout: timeout}
}

func (r *Repository) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// LoadActive returns only machines flagged active, name-sorted.
func (r *Repository) LoadActive(ctx context.Context) ([]domain.Machine, error) {
	return r.load(ctx, true)
}

// LoadAll returns every machine regardless of the active flag.
func (r *Repository) LoadAll(ctx context.Context) ([]domain.Machine, error) {
	return r.load(ctx, false)
}

func (r *Repository) load(ctx context.Context, activeOnly bool) ([]domain.Machine, error) {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	query := `
		SELECT id, name, active, manufacturer, release_year, type, generation,
		       release_count, cabinet, display_type, players, flippers, ramps, multiball
		FROM machines`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load machines: %w", err)
	}
	defer rows.Close()

	type rawRow struct {
		id int64
		in MachineInput
	}
	var raws []rawRow
	for rows.Next() {
		var rr rawRow
		if err := rows.Scan(&rr.id, &rr.in.Name, &rr.in.Active, &rr.in.Manufacturer,
			&rr.in.ReleaseDate, &rr.in.Type, &rr.in.Generation, &rr.in.ReleaseCount,
			&rr.in.Cabinet, &rr.in.DisplayType, &rr.in.Players, &rr.in.Flippers,
			&rr.in.Ramps, &rr.in.Multiball); err != nil {
			return nil, fmt.Errorf("scan machine row: %w", err)
		}
		raws = append(raws, rr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tagsByMachine, err := r.loadTags(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Machine, 0, len(raws))
	for _, rr := range raws {
		out = append(out, domain.CanonicalMachine(rr.id, rr.in.Name, tagsByMachine[rr.id],
			rr.in.Active, rr.in.Manufacturer, rr.in.ReleaseDate, rr.in.Type,
			rr.in.Generation, rr.in.ReleaseCount, rr.in.Cabinet, rr.in.DisplayType,
			rr.in.Players, rr.in.Flippers, rr.in.Ramps, rr.in.Multiball))
	}
	return out, nil
}

func (r *Repository) loadTags(ctx context.Context) (map[int64][]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT mt.machine_id, t.name
		FROM machine_tags mt
		JOIN tags t ON t.id = mt.tag_id
		ORDER BY t.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("load machine tags: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]string)
	for rows.Next() {
		var (
			machineID int64
			tag       string
		)
		if err := rows.Scan(&machineID, &tag); err != nil {
			return nil, fmt.Errorf("scan tag row: %w", err)
		}
		out[machineID] = append(out[machineID], tag)
	}
	return out, rows.Err()
}

// Add inserts a machine with its tags and returns the new id.
func (r *Repository) Add(ctx context.Context, in MachineInput) (int64, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return 0, fmt.Errorf("machine name is required")
	}

	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin add machine: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO machines (name, active, manufacturer, release_year, type, generation,
		                      release_count, cabinet, display_type, players, flippers, ramps, multiball)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		in.Name, in.Active, in.Manufacturer, in.ReleaseDate, in.Type, in.Generation,
		in.ReleaseCount, in.Cabinet, in.DisplayType, in.Players, in.Flippers,
		in.Ramps, in.Multiball).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert machine: %w", err)
	}

	if err := setTags(ctx, tx, id, in.Tags); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit add machine: %w", err)
	}
	return id, nil
}

// Update replaces a machine's attributes and tag set.
func (r *Repository) Update(ctx context.Context, id int64, in MachineInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return fmt.Errorf("machine name is required")
	}

	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update machine: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE machines SET name = $1, active = $2, manufacturer = $3, release_year = $4,
		       type = $5, generation = $6, release_count = $7, cabinet = $8,
		       display_type = $9, players = $10, flippers = $11, ramps = $12, multiball = $13
		WHERE id = $14`,
		in.Name, in.Active, in.Manufacturer, in.ReleaseDate, in.Type, in.Generation,
		in.ReleaseCount, in.Cabinet, in.DisplayType, in.Players, in.Flippers,
		in.Ramps, in.Multiball, id)
	if err != nil {
		return fmt.Errorf("update machine: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMachineNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM machine_tags WHERE machine_id = $1`, id); err != nil {
		return fmt.Errorf("clear machine tags: %w", err)
	}
	if err := setTags(ctx, tx, id, in.Tags); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a machine. Battle rows referencing it keep their machine
// list through battle_machines history.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM machines WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete machine: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMachineNotFound
	}
	return nil
}

func setTags(ctx context.Context, tx *sql.Tx, machineID int64, tags []string) error {
	seen := make(map[string]bool, len(tags))
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		s := strings.TrimSpace(t)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		clean = append(clean, s)
	}
	sort.Strings(clean)

	for _, tag := range clean {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tags (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, tag); err != nil {
			return fmt.Errorf("ensure tag %q: %w", tag, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO machine_tags (machine_id, tag_id)
			SELECT $1, id FROM tags WHERE name = $2
			ON CONFLICT DO NOTHING`, machineID, tag); err != nil {
			return fmt.Errorf("attach tag %q: %w", tag, err)
		}
	}
	return nil
}

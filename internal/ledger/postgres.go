package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/domain"
)

// postgresStore persists the ledger in Postgres. Idempotency relies on the
// unique (winner_id, loser_id, battle_time) tuple on battles and the unique
// (contest_id, player_id) pair on monthly_scores.
type postgresStore struct {
	db      *sql.DB
	timeout time.Duration
	rng     *rand.Rand
	now     func() time.Time
}

// NewPostgresStore wraps an open database handle. Every operation applies a
// bounded timeout so a stalled store surfaces failure instead of hanging
// the caller.
func NewPostgresStore(db *sql.DB, timeout time.Duration) Store {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &postgresStore{
		db:      db,
		timeout: timeout,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
	}
}

// OpenDB opens and pings a Postgres connection with the pool limits used
// across the process.
func OpenDB(databaseURL string) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

func (s *postgresStore) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *postgresStore) RecordBattle(ctx context.Context, winner, loser string, machines []domain.Machine, at time.Time) (int64, error) {
	winner = strings.TrimSpace(winner)
	loser = strings.TrimSpace(loser)
	if winner == "" || loser == "" {
		return 0, fmt.Errorf("record battle: empty participant")
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin record battle: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	winnerID, err := getOrCreatePlayer(ctx, tx, winner)
	if err != nil {
		return 0, err
	}
	loserID, err := getOrCreatePlayer(ctx, tx, loser)
	if err != nil {
		return 0, err
	}

	// Duplicate submission of the identical tuple returns the existing row.
	var battleID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM battles WHERE winner_id = $1 AND loser_id = $2 AND battle_time = $3`,
		winnerID, loserID, at,
	).Scan(&battleID)
	switch {
	case err == nil:
		return battleID, tx.Commit()
	case errors.Is(err, sql.ErrNoRows):
		// fall through to insert
	default:
		return 0, fmt.Errorf("check existing battle: %w", err)
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO battles (winner_id, loser_id, battle_time) VALUES ($1, $2, $3) RETURNING id`,
		winnerID, loserID, at,
	).Scan(&battleID)
	if err != nil {
		return 0, fmt.Errorf("insert battle: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE players SET wins = wins + 1 WHERE id = $1`, winnerID); err != nil {
		return 0, fmt.Errorf("update winner counter: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE players SET losses = losses + 1 WHERE id = $1`, loserID); err != nil {
		return 0, fmt.Errorf("update loser counter: %w", err)
	}

	seen := make(map[int64]bool, len(machines))
	position := 0
	for _, m := range machines {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		position++
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO battle_machines (battle_id, machine_id, position) VALUES ($1, $2, $3)`,
			battleID, m.ID, position); err != nil {
			return 0, fmt.Errorf("insert battle machine: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit record battle: %w", err)
	}
	return battleID, nil
}

func getOrCreatePlayer(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO players (name, wins, losses) VALUES ($1, 0, 0) ON CONFLICT (name) DO NOTHING`,
		name); err != nil {
		return 0, fmt.Errorf("ensure player %q: %w", name, err)
	}
	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM players WHERE name = $1`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("load player %q: %w", name, err)
	}
	return id, nil
}

func (s *postgresStore) LoadStats(ctx context.Context, filter StatsFilter) ([]PlayerStats, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var (
		rows *sql.Rows
		err  error
	)
	if filter == FilterCurrentMonth {
		// Recomputed from battle rows so the window does not depend on the
		// running counters.
		rows, err = s.db.QueryContext(ctx, `
			SELECT p.name, COALESCE(p.custom_name, ''),
			       COUNT(CASE WHEN b.winner_id = p.id THEN 1 END) AS total_wins,
			       COUNT(CASE WHEN b.loser_id = p.id THEN 1 END) AS total_losses
			FROM players p
			LEFT JOIN battles b ON (
				(b.winner_id = p.id OR b.loser_id = p.id)
				AND to_char(b.battle_time, 'YYYY-MM') = $1
			)
			GROUP BY p.id, p.name, p.custom_name
			ORDER BY total_wins DESC, p.name ASC`,
			domain.MonthKey(s.now()))
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT p.name, COALESCE(p.custom_name, ''),
			       COUNT(CASE WHEN b.winner_id = p.id THEN 1 END) AS total_wins,
			       COUNT(CASE WHEN b.loser_id = p.id THEN 1 END) AS total_losses
			FROM players p
			LEFT JOIN battles b ON (b.winner_id = p.id OR b.loser_id = p.id)
			GROUP BY p.id, p.name, p.custom_name
			ORDER BY total_wins DESC, p.name ASC`)
	}
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}
	defer rows.Close()

	var out []PlayerStats
	for rows.Next() {
		var p PlayerStats
		if err := rows.Scan(&p.Name, &p.Alias, &p.Wins, &p.Losses); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *postgresStore) RecentBattles(ctx context.Context, limit int) ([]BattleRecord, error) {
	if limit <= 0 {
		limit = 5
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, w.name, l.name, b.battle_time,
		       COALESCE(array_agg(m.name ORDER BY bm.position) FILTER (WHERE m.name IS NOT NULL), '{}')
		FROM battles b
		JOIN players w ON b.winner_id = w.id
		JOIN players l ON b.loser_id = l.id
		LEFT JOIN battle_machines bm ON bm.battle_id = b.id
		LEFT JOIN machines m ON m.id = bm.machine_id
		GROUP BY b.id, w.name, l.name, b.battle_time
		ORDER BY b.battle_time DESC, b.id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("load recent battles: %w", err)
	}
	defer rows.Close()

	var out []BattleRecord
	for rows.Next() {
		var rec BattleRecord
		if err := rows.Scan(&rec.ID, &rec.Winner, &rec.Loser, &rec.Time, pq.Array(&rec.MachineNames)); err != nil {
			return nil, fmt.Errorf("scan battle row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *postgresStore) GetOrCreateMonthlyContest(ctx context.Context, monthKey string, active []domain.Machine) (*MonthlyContest, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if c, err := s.loadContest(ctx, monthKey); err != nil {
		return nil, err
	} else if c != nil {
		return c, nil
	}

	// First access in a new month performs the random pick. The unique month
	// constraint plus DO NOTHING keeps a concurrent first access from
	// overwriting the featured machine.
	machineID := sql.NullInt64{}
	if len(active) > 0 {
		machineID = sql.NullInt64{Int64: active[s.rng.Intn(len(active))].ID, Valid: true}
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO monthly_contests (month, machine_id) VALUES ($1, $2) ON CONFLICT (month) DO NOTHING`,
		monthKey, machineID); err != nil {
		return nil, fmt.Errorf("create monthly contest: %w", err)
	}

	c, err := s.loadContest(ctx, monthKey)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrContestNotFound
	}
	return c, nil
}

func (s *postgresStore) SubmitScore(ctx context.Context, monthKey, player string, score int64) ([]ContestScore, error) {
	if score <= 0 {
		return nil, ErrInvalidScore
	}
	player = strings.TrimSpace(player)

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin submit score: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var contestID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM monthly_contests WHERE month = $1`, monthKey).Scan(&contestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrContestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load contest: %w", err)
	}

	playerID, err := getOrCreatePlayer(ctx, tx, player)
	if err != nil {
		return nil, err
	}

	// Upsert keeps only the strictly-greater score.
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO monthly_scores (contest_id, player_id, score)
		VALUES ($1, $2, $3)
		ON CONFLICT (contest_id, player_id)
		DO UPDATE SET score = EXCLUDED.score
		WHERE monthly_scores.score < EXCLUDED.score`,
		contestID, playerID, score); err != nil {
		return nil, fmt.Errorf("upsert score: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit submit score: %w", err)
	}

	return s.contestScores(ctx, contestID)
}

func (s *postgresStore) ResetMonthlyContest(ctx context.Context, monthKey string, active []domain.Machine) (*MonthlyContest, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin contest reset: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM monthly_scores WHERE contest_id IN
			(SELECT id FROM monthly_contests WHERE month = $1)`, monthKey); err != nil {
		return nil, fmt.Errorf("clear contest scores: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM monthly_contests WHERE month = $1`, monthKey); err != nil {
		return nil, fmt.Errorf("clear contest: %w", err)
	}

	machineID := sql.NullInt64{}
	if len(active) > 0 {
		machineID = sql.NullInt64{Int64: active[s.rng.Intn(len(active))].ID, Valid: true}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO monthly_contests (month, machine_id) VALUES ($1, $2)`,
		monthKey, machineID); err != nil {
		return nil, fmt.Errorf("recreate contest: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit contest reset: %w", err)
	}

	return s.GetOrCreateMonthlyContest(ctx, monthKey, active)
}

func (s *postgresStore) loadContest(ctx context.Context, monthKey string) (*MonthlyContest, error) {
	var (
		contestID int64
		machine   sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT c.id, m.name
		FROM monthly_contests c
		LEFT JOIN machines m ON m.id = c.machine_id
		WHERE c.month = $1`, monthKey).Scan(&contestID, &machine)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load contest: %w", err)
	}

	c := &MonthlyContest{Month: monthKey, Machine: NoMachine}
	if machine.Valid && strings.TrimSpace(machine.String) != "" {
		c.Machine = machine.String
	}
	scores, err := s.contestScores(ctx, contestID)
	if err != nil {
		return nil, err
	}
	c.Scores = scores
	return c, nil
}

func (s *postgresStore) contestScores(ctx context.Context, contestID int64) ([]ContestScore, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.name, ms.score
		FROM monthly_scores ms
		JOIN players p ON p.id = ms.player_id
		WHERE ms.contest_id = $1
		ORDER BY ms.score DESC, p.name ASC`, contestID)
	if err != nil {
		return nil, fmt.Errorf("load contest scores: %w", err)
	}
	defer rows.Close()

	var out []ContestScore
	for rows.Next() {
		var sc ContestScore
		if err := rows.Scan(&sc.Player, &sc.Score); err != nil {
			return nil, fmt.Errorf("scan score row: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

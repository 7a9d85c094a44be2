package ledger

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements are applied in order on startup. All statements are
// idempotent so repeated boots against the same database are safe.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS machines (
		id          BIGSERIAL PRIMARY KEY,
		name        TEXT NOT NULL UNIQUE,
		active      BOOLEAN NOT NULL DEFAULT TRUE,
		manufacturer TEXT NOT NULL DEFAULT '',
		release_year TEXT NOT NULL DEFAULT '',
		type        TEXT NOT NULL DEFAULT '',
		generation  TEXT NOT NULL DEFAULT '',
		release_count TEXT NOT NULL DEFAULT '',
		cabinet     TEXT NOT NULL DEFAULT '',
		display_type TEXT NOT NULL DEFAULT '',
		players     INT NOT NULL DEFAULT 0,
		flippers    INT NOT NULL DEFAULT 0,
		ramps       INT NOT NULL DEFAULT 0,
		multiball   INT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS tags (
		id   BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS machine_tags (
		machine_id BIGINT NOT NULL REFERENCES machines(id) ON DELETE CASCADE,
		tag_id     BIGINT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (machine_id, tag_id)
	)`,
	`CREATE TABLE IF NOT EXISTS players (
		id          BIGSERIAL PRIMARY KEY,
		name        TEXT NOT NULL UNIQUE,
		custom_name TEXT,
		wins        BIGINT NOT NULL DEFAULT 0,
		losses      BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS battles (
		id          BIGSERIAL PRIMARY KEY,
		winner_id   BIGINT NOT NULL REFERENCES players(id),
		loser_id    BIGINT NOT NULL REFERENCES players(id),
		battle_time TIMESTAMPTZ NOT NULL,
		UNIQUE (winner_id, loser_id, battle_time)
	)`,
	`CREATE TABLE IF NOT EXISTS battle_machines (
		battle_id  BIGINT NOT NULL REFERENCES battles(id) ON DELETE CASCADE,
		machine_id BIGINT NOT NULL REFERENCES machines(id),
		position   INT NOT NULL,
		PRIMARY KEY (battle_id, machine_id)
	)`,
	`CREATE TABLE IF NOT EXISTS monthly_contests (
		id         BIGSERIAL PRIMARY KEY,
		month      TEXT NOT NULL UNIQUE,
		machine_id BIGINT REFERENCES machines(id)
	)`,
	`CREATE TABLE IF NOT EXISTS monthly_scores (
		id         BIGSERIAL PRIMARY KEY,
		contest_id BIGINT NOT NULL REFERENCES monthly_contests(id) ON DELETE CASCADE,
		player_id  BIGINT NOT NULL REFERENCES players(id),
		score      BIGINT NOT NULL,
		UNIQUE (contest_id, player_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_battles_time ON battles (battle_time DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_machine_tags_tag ON machine_tags (tag_id)`,
}

// EnsureSchema creates any missing ledger tables and indexes.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	return nil
}

package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Collections are stored as JSONB documents with the predicate keys lifted
// into columns. The primary key on tournaments is the de-duplication tuple:
// inserting the same calendar occurrence twice is a no-op, not an error.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id  TEXT PRIMARY KEY,
		doc JSONB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS templates (
		user_id        TEXT NOT NULL,
		tournament_set TEXT NOT NULL,
		id             TEXT NOT NULL,
		doc            JSONB NOT NULL,
		PRIMARY KEY (user_id, tournament_set, id)
	)`,
	`CREATE TABLE IF NOT EXISTS tournaments (
		user_id        TEXT NOT NULL,
		tournament_set TEXT NOT NULL,
		template_id    TEXT NOT NULL,
		starts_at      BIGINT NOT NULL,
		remote_id      TEXT NOT NULL,
		created        BIGINT NOT NULL,
		doc            JSONB NOT NULL,
		PRIMARY KEY (user_id, tournament_set, template_id, starts_at)
	)`,
	`CREATE TABLE IF NOT EXISTS diploma_templates (
		user_id TEXT NOT NULL,
		id      TEXT NOT NULL,
		doc     JSONB NOT NULL,
		PRIMARY KEY (user_id, id)
	)`,
}

// EnsureSchema creates the document collections if they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}

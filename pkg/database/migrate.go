package database

import (
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id              TEXT PRIMARY KEY,
	keywords        TEXT NOT NULL,     -- JSON array
	per_keyword     INTEGER NOT NULL,
	filter_policy   TEXT NOT NULL,
	empty_fallback  TEXT NOT NULL,
	candidates_seen INTEGER NOT NULL,
	publishers      INTEGER NOT NULL,
	row_count       INTEGER NOT NULL,
	errors          TEXT NOT NULL,     -- JSON array
	content_type    TEXT NOT NULL,
	filename        TEXT NOT NULL,
	body            BLOB NOT NULL,
	started_at      TIMESTAMP NOT NULL,
	finished_at     TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs (started_at DESC);
`

func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

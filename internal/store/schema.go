package store

import (
	"database/sql"
	"fmt"
)

const recordsTableDDL = `
CREATE TABLE IF NOT EXISTS records (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL,
    ts INTEGER NOT NULL,
    source TEXT NOT NULL,
    op TEXT NOT NULL,
    result TEXT NOT NULL,
    absent INTEGER NOT NULL,
    ascent INTEGER NOT NULL,
    action TEXT NOT NULL,
    rate_limited INTEGER NOT NULL,
    expectation TEXT NOT NULL,
    duration_us INTEGER NOT NULL,
    body TEXT NOT NULL
);
`

const recordsTimeIndexDDL = `CREATE INDEX IF NOT EXISTS idx_records_ts ON records(ts);`
const recordsOpIndexDDL = `CREATE INDEX IF NOT EXISTS idx_records_op ON records(op, action);`

// InitSchema creates the records table and its indexes.
func InitSchema(db *sql.DB) error {
	ddls := []string{
		recordsTableDDL,
		recordsTimeIndexDDL,
		recordsOpIndexDDL,
	}

	for _, ddl := range ddls {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("failed to execute DDL: %w", err)
		}
	}

	return nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to apply pragma %q: %w", pragma, err)
		}
	}

	return nil
}

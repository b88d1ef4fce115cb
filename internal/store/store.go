package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/klyr/dotpath/internal/logging"
)

const insertRecordSQL = `INSERT INTO records (id, ts, source, op, result, absent, ascent, action, rate_limited, expectation, duration_us, body) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectRecordsSQL = `SELECT body FROM records WHERE ts >= ? ORDER BY ts, seq`

// Store keeps evaluation records in a SQLite file. It implements
// logging.Sink.
type Store struct {
	db     *sql.DB
	insert *sql.Stmt
}

// Open opens or creates the database at path. ":memory:" gives a private
// in-memory store.
// OpenExisting opens a store that must already exist on disk. Readers use it
// so a wrong path fails instead of creating an empty database.
func OpenExisting(path string) (*Store, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("open store: %s is a directory", path)
	}
	return Open(path)
}

func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// One connection serializes writers and keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)

	if err := applyPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := InitSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	insert, err := db.Prepare(insertRecordSQL)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare insert: %w", err)
	}

	return &Store{db: db, insert: insert}, nil
}

func (s *Store) Write(record logging.Record) error {
	body, err := json.Marshal(record)
	if err != nil {
		return err
	}

	_, err = s.insert.Exec(
		record.ID,
		record.Timestamp.UnixNano(),
		record.Source,
		record.Op,
		record.Result,
		boolInt(record.Absent),
		record.Ascent,
		record.Action,
		boolInt(record.RateLimited),
		record.Expectation,
		record.DurationUS,
		string(body),
	)
	if err != nil {
		return fmt.Errorf("insert record %s: %w", record.ID, err)
	}
	return nil
}

// Records returns every record at or after since, oldest first. A zero since
// returns everything.
func (s *Store) Records(since time.Time) ([]logging.Record, error) {
	var from int64
	if !since.IsZero() {
		from = since.UnixNano()
	}

	rows, err := s.db.Query(selectRecordsSQL, from)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []logging.Record
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var record logging.Record
		if err := json.Unmarshal([]byte(body), &record); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Count returns the number of stored records.
func (s *Store) Count() (int64, error) {
	var n int64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM records`).Scan(&n)
	return n, err
}

func (s *Store) Close() error {
	if s.insert != nil {
		_ = s.insert.Close()
	}
	return s.db.Close()
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

package registry

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"modelhub/pkg/types"

	_ "modernc.org/sqlite" // pure Go driver registered as "sqlite"
)

// SQLiteStore keeps the registry in a single table, one JSON record per row.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection serializes writers and keeps the file lock simple
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	const schema = `CREATE TABLE IF NOT EXISTS models (
		name TEXT PRIMARY KEY,
		record TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

// Load reads every row into a mapping.
func (s *SQLiteStore) Load() (map[string]types.ModelRecord, error) {
	rows, err := s.db.Query(`SELECT name, record FROM models`)
	if err != nil {
		return nil, fmt.Errorf("query registry: %w", err)
	}
	defer rows.Close()
	records := map[string]types.ModelRecord{}
	for rows.Next() {
		var name, raw string
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, fmt.Errorf("scan registry row: %w", err)
		}
		var rec types.ModelRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode record %q: %w", name, err)
		}
		records[name] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registry: %w", err)
	}
	return records, nil
}

// Save replaces all rows inside one transaction.
func (s *SQLiteStore) Save(records map[string]types.ModelRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(`DELETE FROM models`); err != nil {
		return fmt.Errorf("clear registry: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO models (name, record) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for name, rec := range records {
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode record %q: %w", name, err)
		}
		if _, err := stmt.Exec(name, string(raw)); err != nil {
			return fmt.Errorf("insert %q: %w", name, err)
		}
	}
	return tx.Commit()
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

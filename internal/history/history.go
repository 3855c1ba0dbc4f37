// Package history persists past generation runs in a sqlite database so the
// serve and roll commands can replay earlier results by seed.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS rolls (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	namespace TEXT NOT NULL,
	pattern TEXT NOT NULL,
	output TEXT NOT NULL,
	seed INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_rolls_namespace ON rolls(namespace);
`

// Roll is one recorded generation run.
type Roll struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"runId"`
	Namespace string    `json:"namespace"`
	Pattern   string    `json:"pattern"`
	Output    string    `json:"output"`
	Seed      int64     `json:"seed"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store wraps the sqlite database holding roll history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one completed roll.
func (s *Store) Record(r Roll) error {
	_, err := s.db.Exec(
		`INSERT INTO rolls (run_id, namespace, pattern, output, seed) VALUES (?, ?, ?, ?, ?)`,
		r.RunID, r.Namespace, r.Pattern, r.Output, r.Seed,
	)
	if err != nil {
		return fmt.Errorf("record roll: %w", err)
	}
	return nil
}

// Recent returns the latest rolls, newest first.
func (s *Store) Recent(limit int) ([]Roll, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, namespace, pattern, output, seed, created_at
		 FROM rolls ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var rolls []Roll
	for rows.Next() {
		var r Roll
		if err := rows.Scan(&r.ID, &r.RunID, &r.Namespace, &r.Pattern, &r.Output, &r.Seed, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan roll: %w", err)
		}
		rolls = append(rolls, r)
	}
	return rolls, rows.Err()
}

// Prune deletes everything but the newest keep rolls.
func (s *Store) Prune(keep int) error {
	_, err := s.db.Exec(
		`DELETE FROM rolls WHERE id NOT IN (SELECT id FROM rolls ORDER BY id DESC LIMIT ?)`, keep)
	if err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	return nil
}

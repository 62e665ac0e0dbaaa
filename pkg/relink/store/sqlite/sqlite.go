// Package sqlite implements store.Store on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/relink/pkg/relink/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// Open opens a SQLite database with WAL mode enabled and initializes the
// schema.
func Open(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS matches (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	product_name TEXT NOT NULL,
	title TEXT NOT NULL,
	manufacturer TEXT NOT NULL,
	currency TEXT NOT NULL,
	price TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_matches_run ON matches(run_id);
CREATE INDEX IF NOT EXISTS idx_matches_product ON matches(run_id, product_name);

CREATE TABLE IF NOT EXISTS misses (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	listing_index INTEGER NOT NULL,
	reason TEXT NOT NULL,
	title TEXT NOT NULL,
	manufacturer TEXT NOT NULL,
	currency TEXT NOT NULL,
	price TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_misses_run ON misses(run_id);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveRun writes a run and its rows in one transaction.
func (s *sqliteStore) SaveRun(ctx context.Context, run store.Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (id, started_at) VALUES (?, ?)`,
		run.ID, run.StartedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	// Replace semantics: re-saving a run drops its previous rows.
	if _, err := tx.ExecContext(ctx, `DELETE FROM matches WHERE run_id = ?`, run.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM misses WHERE run_id = ?`, run.ID); err != nil {
		return err
	}

	for _, m := range run.Matches {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO matches (run_id, product_name, title, manufacturer, currency, price)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, m.ProductName, m.Listing.Title, m.Listing.Manufacturer, m.Listing.Currency, m.Listing.Price,
		); err != nil {
			return fmt.Errorf("insert match: %w", err)
		}
	}
	for _, m := range run.Misses {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO misses (run_id, listing_index, reason, title, manufacturer, currency, price)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, m.ListingIndex, m.Reason, m.Listing.Title, m.Listing.Manufacturer, m.Listing.Currency, m.Listing.Price,
		); err != nil {
			return fmt.Errorf("insert miss: %w", err)
		}
	}

	return tx.Commit()
}

// GetRun returns a stored run by ID.
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, bool, error) {
	var startedAt string
	err := s.db.QueryRowContext(ctx, `SELECT started_at FROM runs WHERE id = ?`, id).Scan(&startedAt)
	if err == sql.ErrNoRows {
		return store.Run{}, false, nil
	}
	if err != nil {
		return store.Run{}, false, err
	}

	run := store.Run{ID: id}
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return store.Run{}, false, fmt.Errorf("parse started_at: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT product_name, title, manufacturer, currency, price
		 FROM matches WHERE run_id = ? ORDER BY rowid`, id)
	if err != nil {
		return store.Run{}, false, err
	}
	defer rows.Close()
	for rows.Next() {
		var m store.Match
		if err := rows.Scan(&m.ProductName, &m.Listing.Title, &m.Listing.Manufacturer, &m.Listing.Currency, &m.Listing.Price); err != nil {
			return store.Run{}, false, err
		}
		run.Matches = append(run.Matches, m)
	}
	if err := rows.Err(); err != nil {
		return store.Run{}, false, err
	}

	missRows, err := s.db.QueryContext(ctx,
		`SELECT listing_index, reason, title, manufacturer, currency, price
		 FROM misses WHERE run_id = ? ORDER BY listing_index`, id)
	if err != nil {
		return store.Run{}, false, err
	}
	defer missRows.Close()
	for missRows.Next() {
		var m store.Miss
		if err := missRows.Scan(&m.ListingIndex, &m.Reason, &m.Listing.Title, &m.Listing.Manufacturer, &m.Listing.Currency, &m.Listing.Price); err != nil {
			return store.Run{}, false, err
		}
		run.Misses = append(run.Misses, m)
	}
	if err := missRows.Err(); err != nil {
		return store.Run{}, false, err
	}

	return run, true, nil
}

// ListRuns returns summaries of all stored runs, newest first.
func (s *sqliteStore) ListRuns(ctx context.Context) ([]store.RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.started_at,
		       (SELECT COUNT(*) FROM matches m WHERE m.run_id = r.id),
		       (SELECT COUNT(*) FROM misses x WHERE x.run_id = r.id)
		FROM runs r ORDER BY r.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.RunSummary
	for rows.Next() {
		var sum store.RunSummary
		var startedAt string
		if err := rows.Scan(&sum.ID, &startedAt, &sum.Matches, &sum.Misses); err != nil {
			return nil, err
		}
		if sum.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

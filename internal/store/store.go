// Package store persists outlines and ranking results in SQLite. Outlines
// are keyed by the content hash of the source file so unchanged documents
// are not re-extracted.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dgallion1/docintel/internal/doctree"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS outlines (
	hash       TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	outline    TEXT NOT NULL,
	headings   INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS results (
	job_id     TEXT PRIMARY KEY,
	result     TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
`

// Store wraps a SQLite database.
type Store struct {
	db *sql.DB
}

// OutlineRecord summarizes a cached outline.
type OutlineRecord struct {
	Hash      string    `json:"hash"`
	Name      string    `json:"name"`
	Headings  int       `json:"headings"`
	CreatedAt time.Time `json:"created_at"`
}

// Open opens or creates the database at path. ":memory:" is accepted.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes
	// writers.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// PutOutline stores o under hash, replacing any previous entry.
func (s *Store) PutOutline(ctx context.Context, hash, name string, o doctree.Outline) error {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshal outline: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO outlines (hash, name, outline, headings, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(hash) DO UPDATE SET name = excluded.name, outline = excluded.outline,
		 headings = excluded.headings, created_at = excluded.created_at`,
		hash, name, string(data), len(o.Outline), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("put outline %s: %w", hash, err)
	}
	return nil
}

// GetOutline returns the outline stored under hash. The bool is false when
// nothing is stored.
func (s *Store) GetOutline(ctx context.Context, hash string) (doctree.Outline, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT outline FROM outlines WHERE hash = ?`, hash).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return doctree.Outline{}, false, nil
	}
	if err != nil {
		return doctree.Outline{}, false, fmt.Errorf("get outline %s: %w", hash, err)
	}
	var o doctree.Outline
	if err := json.Unmarshal([]byte(data), &o); err != nil {
		return doctree.Outline{}, false, fmt.Errorf("decode outline %s: %w", hash, err)
	}
	return o, true, nil
}

// ListOutlines returns the most recently stored outlines first.
func (s *Store) ListOutlines(ctx context.Context, limit int) ([]OutlineRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT hash, name, headings, created_at FROM outlines ORDER BY created_at DESC, hash LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list outlines: %w", err)
	}
	defer rows.Close()

	out := []OutlineRecord{}
	for rows.Next() {
		var rec OutlineRecord
		var created int64
		if err := rows.Scan(&rec.Hash, &rec.Name, &rec.Headings, &created); err != nil {
			return nil, fmt.Errorf("scan outline: %w", err)
		}
		rec.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteOutline removes the outline stored under hash. The bool reports
// whether a row existed.
func (s *Store) DeleteOutline(ctx context.Context, hash string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM outlines WHERE hash = ?`, hash)
	if err != nil {
		return false, fmt.Errorf("delete outline %s: %w", hash, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// PutResult stores the ranking result of a job.
func (s *Store) PutResult(ctx context.Context, jobID string, r doctree.RankedResult) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO results (job_id, result, created_at) VALUES (?, ?, ?)`,
		jobID, string(data), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("put result %s: %w", jobID, err)
	}
	return nil
}

// GetResult returns the stored result of a job.
func (s *Store) GetResult(ctx context.Context, jobID string) (doctree.RankedResult, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT result FROM results WHERE job_id = ?`, jobID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return doctree.RankedResult{}, false, nil
	}
	if err != nil {
		return doctree.RankedResult{}, false, fmt.Errorf("get result %s: %w", jobID, err)
	}
	var r doctree.RankedResult
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return doctree.RankedResult{}, false, fmt.Errorf("decode result %s: %w", jobID, err)
	}
	return r, true, nil
}

// PruneResults deletes results older than maxAge and returns how many were
// removed.
func (s *Store) PruneResults(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).Unix()
	res, err := s.db.ExecContext(ctx, `DELETE FROM results WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune results: %w", err)
	}
	return res.RowsAffected()
}

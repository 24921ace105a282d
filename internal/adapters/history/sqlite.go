package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"scrapemonitor/internal/core/domain"
)

// ErrNotFound is returned when a job id has never been recorded.
var ErrNotFound = errors.New("job not in history")

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
  id            TEXT PRIMARY KEY,
  batch_id      TEXT NOT NULL DEFAULT '',
  url           TEXT NOT NULL DEFAULT '',
  idx           INTEGER NOT NULL DEFAULT 0,
  status        TEXT NOT NULL,
  snapshot_json TEXT NOT NULL,
  created_at    INTEGER NOT NULL,
  updated_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
`

// SQLite implements ports.History on a single SQLite file.
type SQLite struct {
	db *sql.DB
}

// Open opens or creates the history database at path.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// All writers share one connection, and ":memory:" stays a single database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the database.
func (s *SQLite) Close() error { return s.db.Close() }

// RecordSubmission stores a freshly created job with its batch placement.
func (s *SQLite) RecordSubmission(ctx context.Context, batchID string, job domain.Job) error {
	snap, err := json.Marshal(job)
	if err != nil {
		return err
	}
	now := time.Now().UnixMilli()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, batch_id, url, idx, status, snapshot_json, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
           batch_id = excluded.batch_id,
           url = excluded.url,
           idx = excluded.idx,
           status = excluded.status,
           snapshot_json = excluded.snapshot_json,
           updated_at = excluded.updated_at`,
		job.ID, batchID, job.URL, job.Index, string(job.Status), string(snap), now, now,
	)
	if err != nil {
		return fmt.Errorf("record submission %s: %w", job.ID, err)
	}
	return nil
}

// RecordSnapshot stores the latest server snapshot, keeping batch placement.
func (s *SQLite) RecordSnapshot(ctx context.Context, job domain.Job) error {
	snap, err := json.Marshal(job)
	if err != nil {
		return err
	}
	now := time.Now().UnixMilli()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, url, idx, status, snapshot_json, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
           url = CASE WHEN excluded.url != '' THEN excluded.url ELSE jobs.url END,
           idx = CASE WHEN excluded.idx != 0 THEN excluded.idx ELSE jobs.idx END,
           status = excluded.status,
           snapshot_json = excluded.snapshot_json,
           updated_at = excluded.updated_at`,
		job.ID, job.URL, job.Index, string(job.Status), string(snap), now, now,
	)
	if err != nil {
		return fmt.Errorf("record snapshot %s: %w", job.ID, err)
	}
	return nil
}

// Get returns the last recorded snapshot of a job.
func (s *SQLite) Get(ctx context.Context, jobID string) (domain.Job, error) {
	row := s.db.QueryRowContext(ctx, selectJobs+` WHERE id = ?`, jobID)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Job{}, ErrNotFound
	}
	return job, err
}

// ListPending returns jobs whose last snapshot was not terminal, oldest first.
func (s *SQLite) ListPending(ctx context.Context) ([]domain.Job, error) {
	return s.query(ctx,
		selectJobs+` WHERE status NOT IN (?, ?) ORDER BY created_at, idx`,
		string(domain.StatusCompleted), string(domain.StatusFailed),
	)
}

// ListRecent returns the most recently updated jobs.
func (s *SQLite) ListRecent(ctx context.Context, limit int) ([]domain.Job, error) {
	if limit <= 0 {
		limit = 25
	}
	return s.query(ctx, selectJobs+` ORDER BY updated_at DESC LIMIT ?`, limit)
}

const selectJobs = `SELECT id, url, idx, status, snapshot_json, updated_at FROM jobs`

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (domain.Job, error) {
	var (
		id, rawURL, status, snap string
		idx                      int
		updatedMs                int64
	)
	if err := row.Scan(&id, &rawURL, &idx, &status, &snap, &updatedMs); err != nil {
		return domain.Job{}, err
	}

	var job domain.Job
	if err := json.Unmarshal([]byte(snap), &job); err != nil {
		return domain.Job{}, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	job.ID = id
	job.Status = domain.Status(status)
	if job.URL == "" {
		job.URL = rawURL
	}
	job.Index = idx
	job.UpdatedAt = time.UnixMilli(updatedMs).UTC()
	return job, nil
}

func (s *SQLite) query(ctx context.Context, q string, args ...any) ([]domain.Job, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

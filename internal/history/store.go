package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/yildizm/mlstudio/internal/pipeline"
)

const timeLayout = time.RFC3339Nano

// Run is a persisted action outcome
type Run struct {
	ID        int64           `json:"id" yaml:"id"`
	SessionID string          `json:"session_id" yaml:"session_id"`
	Action    pipeline.Action `json:"action" yaml:"action"`
	Status    pipeline.Status `json:"status" yaml:"status"`
	Message   string          `json:"message" yaml:"message"`
	Dataset   string          `json:"dataset,omitempty" yaml:"dataset,omitempty"`
	Target    string          `json:"target,omitempty" yaml:"target,omitempty"`
	StartedAt time.Time       `json:"started_at" yaml:"started_at"`
	Duration  time.Duration   `json:"duration" yaml:"duration"`
}

// Session summarizes the runs of one controller session
type Session struct {
	SessionID string    `json:"session_id" yaml:"session_id"`
	Dataset   string    `json:"dataset,omitempty" yaml:"dataset,omitempty"`
	Runs      int       `json:"runs" yaml:"runs"`
	Failures  int       `json:"failures" yaml:"failures"`
	LastRunAt time.Time `json:"last_run_at" yaml:"last_run_at"`
}

// Store is a SQLite-backed run history. It implements pipeline.Recorder.
type Store struct {
	db *sql.DB
}

var _ pipeline.Recorder = (*Store)(nil)

// Open opens or creates the history database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			action TEXT NOT NULL,
			status TEXT NOT NULL,
			message TEXT NOT NULL,
			dataset TEXT NOT NULL DEFAULT '',
			target TEXT NOT NULL DEFAULT '',
			started_at TEXT NOT NULL,
			duration_ms INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_runs_session ON runs(session_id);`

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends a run
func (s *Store) Record(ctx context.Context, r pipeline.RunRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (session_id, action, status, message, dataset, target, started_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SessionID,
		string(r.Action),
		string(r.Status),
		r.Message,
		r.Dataset,
		r.Target,
		r.StartedAt.UTC().Format(timeLayout),
		r.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Recent returns the latest runs, newest first. A non-positive limit returns all.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, session_id, action, status, message, dataset, target, started_at, duration_ms
		 FROM runs ORDER BY id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		var (
			r          Run
			action     string
			status     string
			startedAt  string
			durationMs int64
		)
		if err := rows.Scan(&r.ID, &r.SessionID, &action, &status, &r.Message, &r.Dataset, &r.Target, &startedAt, &durationMs); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Action = pipeline.Action(action)
		r.Status = pipeline.Status(status)
		r.Duration = time.Duration(durationMs) * time.Millisecond
		if r.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
			return nil, fmt.Errorf("parse started_at for run %d: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Sessions summarizes every recorded session, most recently active first
func (s *Store) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id,
			COALESCE((SELECT r2.dataset FROM runs r2
				WHERE r2.session_id = runs.session_id AND r2.dataset != ''
				ORDER BY r2.id DESC LIMIT 1), ''),
			COUNT(*),
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END),
			(SELECT r3.started_at FROM runs r3
				WHERE r3.session_id = runs.session_id
				ORDER BY r3.id DESC LIMIT 1)
		 FROM runs
		 GROUP BY session_id
		 ORDER BY MAX(id) DESC`,
		string(pipeline.StatusFailed),
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Session
	for rows.Next() {
		var (
			sess Session
			last string
		)
		// started_at text does not sort chronologically within a second, so the latest row wins by id
		if err := rows.Scan(&sess.SessionID, &sess.Dataset, &sess.Runs, &sess.Failures, &last); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if sess.LastRunAt, err = time.Parse(timeLayout, last); err != nil {
			return nil, fmt.Errorf("parse last run for session %s: %w", sess.SessionID, err)
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

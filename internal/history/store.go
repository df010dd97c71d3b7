package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"mp4get/internal/config"
	"mp4get/internal/runner"
)

//go:embed schema.sql
var schemaSQL string

// Store manages run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	keep int
}

// Open initializes or connects to the history database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.HistoryDBPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: dbPath, keep: cfg.History.Keep}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record persists a finished run and prunes history past the retention
// bound. It satisfies the runner's Recorder interface.
func (s *Store) Record(ctx context.Context, report *runner.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, elapsed_ms, cookie_source, succeeded, failed)
         VALUES (?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.Started.UTC().Format(time.RFC3339Nano),
		report.Elapsed.Milliseconds(),
		report.Jar.Description(),
		report.Succeeded(),
		report.Failed(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, o := range report.Outcomes {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_items (run_id, position, video_id, raw_input, title, output_path, strategy, attempts, reason, succeeded)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			report.RunID,
			i,
			o.Entry.ID,
			o.Entry.Raw,
			o.Title,
			o.Path,
			o.Strategy,
			o.Attempts,
			o.Reason(),
			boolToInt(o.Succeeded()),
		)
		if err != nil {
			return fmt.Errorf("insert run item %d: %w", i, err)
		}
	}

	if s.keep > 0 {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM runs WHERE id NOT IN (
                 SELECT id FROM runs ORDER BY started_at DESC LIMIT ?
             )`, s.keep)
		if err != nil {
			return fmt.Errorf("prune runs: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Run is one persisted run summary.
type Run struct {
	ID           string
	StartedAt    time.Time
	Elapsed      time.Duration
	CookieSource string
	Succeeded    int
	Failed       int
}

// Item is one persisted per-link outcome.
type Item struct {
	VideoID    string
	RawInput   string
	Title      string
	OutputPath string
	Strategy   string
	Attempts   int
	Reason     string
	Succeeded  bool
}

// Recent lists the newest runs, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, elapsed_ms, cookie_source, succeeded, failed
         FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		var elapsedMS int64
		if err := rows.Scan(&r.ID, &started, &elapsedMS, &r.CookieSource, &r.Succeeded, &r.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if ts, parseErr := time.Parse(time.RFC3339Nano, started); parseErr == nil {
			r.StartedAt = ts
		}
		r.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Items lists the per-link outcomes of one run in input order.
func (s *Store) Items(ctx context.Context, runID string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT video_id, raw_input, title, output_path, strategy, attempts, reason, succeeded
         FROM run_items WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var ok int
		if err := rows.Scan(&it.VideoID, &it.RawInput, &it.Title, &it.OutputPath, &it.Strategy, &it.Attempts, &it.Reason, &ok); err != nil {
			return nil, fmt.Errorf("scan run item: %w", err)
		}
		it.Succeeded = ok != 0
		items = append(items, it)
	}
	return items, rows.Err()
}

// Clear removes all persisted runs.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM runs"); err != nil {
		return fmt.Errorf("clear runs: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

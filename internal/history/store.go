// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history records extraction runs in a SQLite database so earlier
// batches can be listed and exported after the console output is gone.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/zipflat/pkg/types"
)

const defaultMaxResults = 20

// ErrRunNotFound is returned when a run ID has no record.
var ErrRunNotFound = errors.New("run not found")

// Store manages the run history database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// RunSummary is one row of the runs table.
type RunSummary struct {
	ID         int64     `json:"id" yaml:"id"`
	SourceDir  string    `json:"source_dir" yaml:"source_dir"`
	DestDir    string    `json:"dest_dir" yaml:"dest_dir"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
	Extracted  int       `json:"extracted" yaml:"extracted"`
	Invalid    int       `json:"invalid" yaml:"invalid"`
	Failed     int       `json:"failed" yaml:"failed"`
	Files      int       `json:"files" yaml:"files"`
}

// NewStore opens or creates the history database at cfg.DBPath and
// creates the schema if it does not exist.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("history database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source_dir TEXT NOT NULL,
			dest_dir TEXT NOT NULL,
			started_at TEXT,
			finished_at TEXT,
			extracted INTEGER NOT NULL DEFAULT 0,
			invalid INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			files INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS archives (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			stem TEXT,
			path TEXT,
			status TEXT NOT NULL,
			error TEXT,
			skipped INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS outputs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			archive_id INTEGER NOT NULL REFERENCES archives(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			entry TEXT NOT NULL,
			path TEXT NOT NULL,
			size INTEGER NOT NULL,
			overwrote INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_archives_run_id ON archives(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_outputs_archive_id ON outputs(archive_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores a batch result in a single transaction and returns the
// new run ID.
func (s *Store) Record(ctx context.Context, result types.BatchResult) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (source_dir, dest_dir, started_at, finished_at, extracted, invalid, failed, files)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.SourceDir, result.DestDir,
		formatTime(result.StartedAt), formatTime(result.FinishedAt),
		result.Extracted, result.Invalid, result.Failed, result.Files,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	outStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO outputs (archive_id, position, entry, path, size, overwrote)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing output insert: %w", err)
	}
	defer outStmt.Close()

	for i, a := range result.Archives {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO archives (run_id, position, name, stem, path, status, error, skipped)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, i, a.Name, a.Stem, a.Path, string(a.Status), a.Error, a.Skipped,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting archive %s: %w", a.Name, err)
		}
		archiveID, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("reading archive id: %w", err)
		}

		for j, o := range a.Outputs {
			if _, err := outStmt.ExecContext(ctx, archiveID, j, o.Entry, o.Path, o.Size, o.Overwrote); err != nil {
				return 0, fmt.Errorf("inserting output %s: %w", o.Path, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// Runs returns up to limit runs, newest first. A limit of zero or less
// uses the store default.
func (s *Store) Runs(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_dir, dest_dir, started_at, finished_at, extracted, invalid, failed, files
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Run reconstructs the full batch result of a recorded run.
func (s *Store) Run(ctx context.Context, id int64) (types.BatchResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source_dir, dest_dir, started_at, finished_at, extracted, invalid, failed, files
		 FROM runs WHERE id = ?`, id)
	summary, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.BatchResult{}, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return types.BatchResult{}, err
	}

	result := types.BatchResult{
		SourceDir:  summary.SourceDir,
		DestDir:    summary.DestDir,
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
		Extracted:  summary.Extracted,
		Invalid:    summary.Invalid,
		Failed:     summary.Failed,
		Files:      summary.Files,
	}

	archives, ids, err := s.archives(ctx, id)
	if err != nil {
		return types.BatchResult{}, err
	}
	for i := range archives {
		outputs, err := s.outputs(ctx, ids[i])
		if err != nil {
			return types.BatchResult{}, err
		}
		archives[i].Outputs = outputs
	}
	result.Archives = archives
	return result, nil
}

func (s *Store) archives(ctx context.Context, runID int64) ([]types.ArchiveResult, []int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, stem, path, status, error, skipped
		 FROM archives WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("querying archives: %w", err)
	}
	defer rows.Close()

	var (
		archives []types.ArchiveResult
		ids      []int64
	)
	for rows.Next() {
		var (
			a      types.ArchiveResult
			id     int64
			status string
			stem   sql.NullString
			path   sql.NullString
			errMsg sql.NullString
		)
		if err := rows.Scan(&id, &a.Name, &stem, &path, &status, &errMsg, &a.Skipped); err != nil {
			return nil, nil, fmt.Errorf("scanning archive: %w", err)
		}
		a.Stem = stem.String
		a.Path = path.String
		a.Status = types.ArchiveStatus(status)
		a.Error = errMsg.String
		archives = append(archives, a)
		ids = append(ids, id)
	}
	return archives, ids, rows.Err()
}

func (s *Store) outputs(ctx context.Context, archiveID int64) ([]types.OutputFile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entry, path, size, overwrote FROM outputs WHERE archive_id = ? ORDER BY position`, archiveID)
	if err != nil {
		return nil, fmt.Errorf("querying outputs: %w", err)
	}
	defer rows.Close()

	var outputs []types.OutputFile
	for rows.Next() {
		var o types.OutputFile
		if err := rows.Scan(&o.Entry, &o.Path, &o.Size, &o.Overwrote); err != nil {
			return nil, fmt.Errorf("scanning output: %w", err)
		}
		outputs = append(outputs, o)
	}
	return outputs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (RunSummary, error) {
	var (
		r                 RunSummary
		started, finished sql.NullString
	)
	err := sc.Scan(&r.ID, &r.SourceDir, &r.DestDir, &started, &finished,
		&r.Extracted, &r.Invalid, &r.Failed, &r.Files)
	if errors.Is(err, sql.ErrNoRows) {
		return r, err
	}
	if err != nil {
		return r, fmt.Errorf("scanning run: %w", err)
	}
	r.StartedAt = parseTime(started.String)
	r.FinishedAt = parseTime(finished.String)
	return r, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Package history records every utility run in a local SQLite database so
// past backups, restores and migrations can be listed.
package history

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Run statuses.
const (
	StatusRunning  = "running"
	StatusSuccess  = "success"
	StatusFailed   = "failed"
	StatusDeclined = "declined"
)

const timeLayout = "2006-01-02 15:04:05"

// Run is one recorded invocation.
type Run struct {
	ID          string
	Action      string
	File        string
	Format      string
	Status      string
	Error       string
	Details     string
	Tables      int
	Rows        int64
	Warnings    int
	StartedAt   time.Time
	CompletedAt *time.Time
}

// Outcome is what a finished run reports.
type Outcome struct {
	Status   string
	File     string
	Details  string
	Error    string
	Tables   int
	Rows     int64
	Warnings int
}

// Store manages run history in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) history.db in dataDir and brings its
// schema up to date.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "history.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Start records a new running run and returns its id.
func (s *Store) Start(action, file, format string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(`
		INSERT INTO runs (id, action, file, format, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, action, file, format, StatusRunning, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return "", fmt.Errorf("recording run: %w", err)
	}
	return id, nil
}

// Complete stores the outcome of run id.
func (s *Store) Complete(id string, o Outcome) error {
	res, err := s.db.Exec(`
		UPDATE runs SET
			status = ?, file = CASE WHEN ? = '' THEN file ELSE ? END,
			details = ?, error_message = ?, table_count = ?, row_count = ?, warning_count = ?,
			completed_at = ?
		WHERE id = ?
	`, o.Status, o.File, o.File, o.Details, o.Error, o.Tables, o.Rows, o.Warnings,
		time.Now().UTC().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("completing run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("completing run %s: not found", id)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, action, file, format, status, error_message, details,
			table_count, row_count, warning_count, started_at, completed_at
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// Get returns run id, or nil if it does not exist.
func (s *Store) Get(id string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT id, action, file, format, status, error_message, details,
			table_count, row_count, warning_count, started_at, completed_at
		FROM runs WHERE id = ?
	`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

// CleanupOldRuns deletes finished runs completed more than days ago and
// returns how many were removed. Running entries are never deleted.
func (s *Store) CleanupOldRuns(days int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(timeLayout)
	res, err := s.db.Exec(`
		DELETE FROM runs
		WHERE status != ? AND completed_at IS NOT NULL AND completed_at < ?
	`, StatusRunning, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleaning up runs: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var r Run
	var startedAt string
	var completedAt sql.NullString
	if err := sc.Scan(&r.ID, &r.Action, &r.File, &r.Format, &r.Status, &r.Error, &r.Details,
		&r.Tables, &r.Rows, &r.Warnings, &startedAt, &completedAt); err != nil {
		return nil, err
	}
	r.StartedAt, _ = time.Parse(timeLayout, startedAt)
	if completedAt.Valid {
		t, _ := time.Parse(timeLayout, completedAt.String)
		r.CompletedAt = &t
	}
	return &r, nil
}

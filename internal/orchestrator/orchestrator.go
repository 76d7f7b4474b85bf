// Package orchestrator implements the data migration utility: backups of the
// configured database, restores from a backup artifact, and row migration
// from a SQLite file.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/johndauphine/db-utility/internal/backup"
	"github.com/johndauphine/db-utility/internal/database"
	"github.com/johndauphine/db-utility/internal/driver"
	"github.com/johndauphine/db-utility/internal/progress"
	"github.com/johndauphine/db-utility/internal/storage"
)

// BatchSize is the number of rows per INSERT when migrating or restoring.
const BatchSize = 100

// excludedTables are framework bookkeeping tables. They are never backed up,
// cleaned, restored into or migrated.
var excludedTables = map[string]bool{
	"migrations":      true,
	"password_resets": true,
	"failed_jobs":     true,
}

// IsExcluded reports whether table is one of the bookkeeping tables.
func IsExcluded(table string) bool {
	return excludedTables[table]
}

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidFormat = backup.ErrInvalidFormat
	ErrMissingFile   = errors.New("the --file option is required")
	ErrUnknownAction = errors.New("unknown action")
)

// Database is the set of capabilities the utility needs from a database
// connection.
type Database interface {
	ListTables(ctx context.Context) ([]string, error)
	Columns(ctx context.Context, table string) ([]string, error)
	CreateTableStatement(ctx context.Context, table string) (string, error)
	ReadRows(ctx context.Context, table string) (*database.RowSet, error)
	ExecuteStatement(ctx context.Context, stmt string) error
	InsertRows(ctx context.Context, table string, cols []string, rows [][]any) error
	TruncateTable(ctx context.Context, table string) error
	DisableForeignKeys(ctx context.Context) error
	EnableForeignKeys(ctx context.Context) error
	Dialect() driver.Dialect
	Name() string
	Close() error
}

// SourceOpener opens the SQLite file rows are migrated from.
type SourceOpener func(ctx context.Context, path string) (Database, error)

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// Progress receives per-table row progress.
type Progress interface {
	StartTable(table string, total int64)
	Add(n int64)
	EndTable(table string)
}

// Options configures an Orchestrator. Zero values select defaults.
type Options struct {
	// Application is recorded in JSON backup metadata.
	Application string
	Confirmer   Confirmer
	Progress    Progress
	OpenSource  SourceOpener
	Now         func() time.Time
}

// Result summarises one operation.
type Result struct {
	Action Action
	File   string
	Format backup.Format
	Tables int
	Rows   int64
	// Statements counts executed statements of a SQL restore.
	Statements int
	Warnings   int
	Skipped    []string
	Declined   bool
}

// Orchestrator runs utility operations against one destination database.
type Orchestrator struct {
	db         Database
	storage    *storage.Storage
	app        string
	confirmer  Confirmer
	progress   Progress
	openSource SourceOpener
	now        func() time.Time
}

// New creates an orchestrator for db, keeping artifacts in store.
func New(db Database, store *storage.Storage, opts Options) *Orchestrator {
	o := &Orchestrator{
		db:         db,
		storage:    store,
		app:        opts.Application,
		confirmer:  opts.Confirmer,
		progress:   opts.Progress,
		openSource: opts.OpenSource,
		now:        opts.Now,
	}
	if o.app == "" {
		o.app = "Laravel"
	}
	if o.confirmer == nil {
		o.confirmer = declineAll{}
	}
	if o.progress == nil {
		o.progress = progress.Nop{}
	}
	if o.openSource == nil {
		o.openSource = openSQLiteSource
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// Run validates req and dispatches it to the matching operation.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	switch req.Action {
	case ActionBackup:
		return o.Backup(ctx, req.Format, req.Compress)
	case ActionRestore:
		return o.Restore(ctx, req.File, req.Clean, req.Force)
	case ActionMigrateSQLite:
		return o.MigrateFromSQLite(ctx, req.File, req.Clean)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownAction, req.Action)
}

// userTables lists db's tables without the excluded ones.
func userTables(ctx context.Context, db Database) ([]string, error) {
	tables, err := db.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	out := tables[:0]
	for _, t := range tables {
		if !IsExcluded(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func openSQLiteSource(ctx context.Context, path string) (Database, error) {
	return database.OpenSQLite(ctx, path, true)
}

type declineAll struct{}

func (declineAll) Confirm(context.Context, string) (bool, error) { return false, nil }

func preview(stmt string) string {
	stmt = strings.Join(strings.Fields(stmt), " ")
	if len(stmt) > 80 {
		return stmt[:77] + "..."
	}
	return stmt
}

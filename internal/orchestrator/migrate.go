package orchestrator

import (
	"context"
	"fmt"

	"github.com/johndauphine/db-utility/internal/logging"
)

// MigrateFromSQLite copies rows from every non-excluded table of the SQLite
// file at path into the same-named destination table. Tables the destination
// lacks are skipped with a warning. Any database error aborts the run;
// tables already migrated are kept.
func (o *Orchestrator) MigrateFromSQLite(ctx context.Context, path string, clean bool) (*Result, error) {
	if path == "" {
		return nil, ErrMissingFile
	}
	if !o.storage.Exists(path) {
		return nil, fmt.Errorf("sqlite file %s: %w", path, ErrNotFound)
	}

	src, err := o.openSource(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite source: %w", err)
	}
	defer src.Close()

	if clean {
		if err := o.Clean(ctx); err != nil {
			return nil, err
		}
	}

	tables, err := userTables(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("listing source tables: %w", err)
	}
	destTables, err := o.db.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing destination tables: %w", err)
	}
	present := make(map[string]bool, len(destTables))
	for _, t := range destTables {
		present[t] = true
	}

	logging.Info("Migrating %d tables from %s into %s", len(tables), path, o.db.Name())
	result := &Result{Action: ActionMigrateSQLite, File: path}
	for _, table := range tables {
		if !present[table] {
			logging.Warn("Table %s does not exist in %s, skipping", table, o.db.Name())
			result.Warnings++
			result.Skipped = append(result.Skipped, table)
			continue
		}
		n, err := o.migrateTable(ctx, src, table)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			logging.Info("Table %s is empty, skipping", table)
			continue
		}
		result.Tables++
		result.Rows += n
		logging.Info("Migrated %s: %d rows", table, n)
	}
	return result, nil
}

func (o *Orchestrator) migrateTable(ctx context.Context, src Database, table string) (int64, error) {
	rs, err := src.ReadRows(ctx, table)
	if err != nil {
		return 0, err
	}
	if len(rs.Rows) == 0 {
		return 0, nil
	}

	o.progress.StartTable(table, int64(len(rs.Rows)))
	defer o.progress.EndTable(table)

	for start := 0; start < len(rs.Rows); start += BatchSize {
		end := start + BatchSize
		if end > len(rs.Rows) {
			end = len(rs.Rows)
		}
		if err := o.db.InsertRows(ctx, table, rs.Columns, rs.Rows[start:end]); err != nil {
			return int64(start), err
		}
		o.progress.Add(int64(end - start))
	}
	return int64(len(rs.Rows)), nil
}

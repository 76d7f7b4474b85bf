package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"

	"github.com/johndauphine/db-utility/internal/backup"
	"github.com/johndauphine/db-utility/internal/logging"
)

// Restore loads an artifact into the database. Without force the operator
// must confirm first; a declined confirmation returns a Declined result and
// no error.
func (o *Orchestrator) Restore(ctx context.Context, file string, clean, force bool) (*Result, error) {
	path, err := o.storage.Resolve(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("backup file %s: %w", file, ErrNotFound)
		}
		return nil, err
	}

	result := &Result{Action: ActionRestore, File: path}
	if !force {
		question := fmt.Sprintf("Restore %s into %s? Existing data may be overwritten.", path, o.db.Name())
		ok, err := o.confirmer.Confirm(ctx, question)
		if err != nil {
			return nil, fmt.Errorf("confirmation: %w", err)
		}
		if !ok {
			logging.Info("Restore cancelled")
			result.Declined = true
			return result, nil
		}
	}

	content, err := o.readArtifact(path)
	if err != nil {
		return nil, err
	}

	if clean {
		if err := o.Clean(ctx); err != nil {
			return nil, err
		}
	}

	result.Format = backup.DetectFormat(content)
	logging.Info("Restoring %s (%s) into %s", path, result.Format, o.db.Name())
	if result.Format == backup.FormatJSON {
		err = o.restoreJSON(ctx, content, result)
	} else {
		err = o.restoreSQL(ctx, string(content), result)
	}
	if err != nil {
		return nil, err
	}

	if result.Warnings > 0 {
		logging.Warn("Restore completed with %d failed statements skipped", result.Warnings)
	} else {
		logging.Info("Restore completed")
	}
	return result, nil
}

// readArtifact returns the artifact content, unpacking single-entry zips.
func (o *Orchestrator) readArtifact(path string) ([]byte, error) {
	isZip, err := o.storage.IsZip(path)
	if err != nil {
		return nil, err
	}
	if !isZip {
		return o.storage.ReadFile(path)
	}
	entry, content, err := o.storage.ReadZipEntry(path)
	if err != nil {
		return nil, err
	}
	logging.Debug("Extracted %s from %s", entry, path)
	return content, nil
}

// restoreSQL executes each statement of a dump. A failing statement is
// logged and skipped; only cancellation stops the run.
func (o *Orchestrator) restoreSQL(ctx context.Context, content string, result *Result) error {
	stmts := backup.SplitStatements(content, o.db.Dialect().BackslashEscapes())
	o.progress.StartTable("statements", int64(len(stmts)))
	defer o.progress.EndTable("statements")

	for _, stmt := range stmts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.db.ExecuteStatement(ctx, stmt); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			result.Warnings++
			logging.Warn("Statement failed: %v [%s]", err, preview(stmt))
		} else {
			result.Statements++
		}
		o.progress.Add(1)
	}
	return nil
}

// restoreJSON inserts every row of every table in the document. Tables must
// already exist; insert failures abort the restore.
func (o *Orchestrator) restoreJSON(ctx context.Context, content []byte, result *Result) (err error) {
	doc, err := backup.ParseDocument(content)
	if err != nil {
		return err
	}

	if ferr := o.db.DisableForeignKeys(ctx); ferr != nil {
		logging.Warn("Could not disable foreign key checks: %v", ferr)
	} else {
		defer func() {
			if ferr := o.db.EnableForeignKeys(ctx); ferr != nil {
				if err == nil {
					err = ferr
				} else {
					logging.Warn("Could not re-enable foreign key checks: %v", ferr)
				}
			}
		}()
	}

	for _, table := range doc.TableNames() {
		if IsExcluded(table) {
			logging.Debug("Skipping excluded table %s", table)
			continue
		}
		snap := doc.Tables[table]
		if len(snap.Data) == 0 {
			continue
		}

		o.progress.StartTable(table, int64(len(snap.Data)))
		err := o.insertObjects(ctx, table, snap)
		o.progress.EndTable(table)
		if err != nil {
			return err
		}
		result.Tables++
		result.Rows += int64(len(snap.Data))
		logging.Info("Restored %s: %d rows", table, len(snap.Data))
	}
	return nil
}

// insertObjects inserts row objects in batches. Consecutive rows with the
// same key set share a column list.
func (o *Orchestrator) insertObjects(ctx context.Context, table string, snap backup.TableSnapshot) error {
	var (
		cols  []string
		batch [][]any
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := o.db.InsertRows(ctx, table, cols, batch); err != nil {
			return err
		}
		o.progress.Add(int64(len(batch)))
		batch = batch[:0]
		return nil
	}

	for _, obj := range snap.Data {
		rowCols := objectColumns(snap.Structure, obj)
		if !slices.Equal(cols, rowCols) || len(batch) == BatchSize {
			if err := flush(); err != nil {
				return err
			}
			cols = rowCols
		}
		row := make([]any, len(cols))
		for i, c := range cols {
			row[i] = obj[c]
		}
		batch = append(batch, row)
	}
	return flush()
}

// objectColumns orders obj's keys by structure, followed by any keys the
// structure does not list, sorted.
func objectColumns(structure []string, obj map[string]any) []string {
	cols := make([]string, 0, len(obj))
	listed := make(map[string]bool, len(structure))
	for _, c := range structure {
		listed[c] = true
		if _, ok := obj[c]; ok {
			cols = append(cols, c)
		}
	}
	var extra []string
	for k := range obj {
		if !listed[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(cols, extra...)
}

package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/johndauphine/db-utility/internal/backup"
	"github.com/johndauphine/db-utility/internal/logging"
	"github.com/johndauphine/db-utility/internal/storage"
)

// Backup writes every non-excluded table to a new artifact under the backups
// directory. A failure leaves any partially written file in place.
func (o *Orchestrator) Backup(ctx context.Context, format backup.Format, compress bool) (*Result, error) {
	format, err := backup.ParseFormat(string(format))
	if err != nil {
		return nil, err
	}

	tables, err := userTables(ctx, o.db)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}

	createdAt := o.now()
	logging.Info("Backing up %d tables from %s as %s", len(tables), o.db.Name(), format)

	result := &Result{Action: ActionBackup, Format: format}
	var content []byte
	switch format {
	case backup.FormatJSON:
		content, err = o.dumpJSON(ctx, tables, createdAt, result)
	default:
		content, err = o.dumpSQL(ctx, tables, createdAt, result)
	}
	if err != nil {
		return nil, err
	}

	name := backup.FileName(createdAt, format.Extension())
	if compress {
		result.File, err = o.writeCompressed(name, content)
	} else {
		result.File = o.storage.Path(storage.BackupsDir, name)
		err = o.storage.WriteFile(result.File, content)
	}
	if err != nil {
		return nil, err
	}

	logging.Info("Backup created: %s (%d tables, %d rows)", result.File, result.Tables, result.Rows)
	return result, nil
}

func (o *Orchestrator) dumpSQL(ctx context.Context, tables []string, createdAt time.Time, result *Result) ([]byte, error) {
	w := backup.NewSQLWriter(o.db.Dialect(), o.db.Name(), createdAt)
	for _, table := range tables {
		ddl, err := o.db.CreateTableStatement(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("reading structure of %s: %w", table, err)
		}
		rs, err := o.db.ReadRows(ctx, table)
		if err != nil {
			return nil, err
		}
		w.WriteTable(table, ddl, rs.Columns, rs.Rows)
		o.countTable(result, table, len(rs.Rows))
	}
	return []byte(w.String()), nil
}

func (o *Orchestrator) dumpJSON(ctx context.Context, tables []string, createdAt time.Time, result *Result) ([]byte, error) {
	doc := backup.NewDocument(o.app, createdAt)
	for _, table := range tables {
		rs, err := o.db.ReadRows(ctx, table)
		if err != nil {
			return nil, err
		}
		doc.AddTable(table, rs.Columns, rs.Rows)
		o.countTable(result, table, len(rs.Rows))
	}
	return doc.Marshal()
}

func (o *Orchestrator) countTable(result *Result, table string, rows int) {
	result.Tables++
	result.Rows += int64(rows)
	logging.Debug("Backed up %s: %d rows", table, rows)
}

// writeCompressed stages content under a unique temp name, packs it into a
// single-entry zip in the backups directory and removes the staging file.
func (o *Orchestrator) writeCompressed(name string, content []byte) (string, error) {
	tmp := o.storage.TempPath(name)
	if err := o.storage.WriteFile(tmp, content); err != nil {
		return "", err
	}
	defer func() {
		if err := o.storage.Remove(tmp); err != nil {
			logging.Warn("Could not remove temporary file: %v", err)
		}
	}()

	dst := o.storage.Path(storage.BackupsDir, strings.TrimSuffix(name, filepath.Ext(name))+".zip")
	if err := o.storage.Zip(tmp, dst, name); err != nil {
		return "", fmt.Errorf("creating archive: %w", err)
	}
	return dst, nil
}

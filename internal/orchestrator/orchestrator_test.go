package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johndauphine/db-utility/internal/backup"
	"github.com/johndauphine/db-utility/internal/database"
	"github.com/johndauphine/db-utility/internal/storage"
)

var fixedNow = func() time.Time { return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC) }

const schema = `
CREATE TABLE accounts (id INTEGER PRIMARY KEY, name TEXT NOT NULL, balance DECIMAL(12,2));
CREATE TABLE vouchers (id INTEGER PRIMARY KEY, account_id INTEGER REFERENCES accounts(id), memo TEXT);
CREATE TABLE migrations (id INTEGER PRIMARY KEY, migration TEXT)`

type stubConfirmer struct {
	answer bool
	asked  int
}

func (c *stubConfirmer) Confirm(context.Context, string) (bool, error) {
	c.asked++
	return c.answer, nil
}

// recordingDB records the size and first id of every insert batch.
type recordingDB struct {
	*database.DB
	batches  []int
	firstIDs []any
	tables   []string
}

func (r *recordingDB) InsertRows(ctx context.Context, table string, cols []string, rows [][]any) error {
	r.batches = append(r.batches, len(rows))
	r.firstIDs = append(r.firstIDs, rows[0][0])
	r.tables = append(r.tables, table)
	return r.DB.InsertRows(ctx, table, cols, rows)
}

func openDB(t *testing.T, ddl string) *database.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, filepath.Join(t.TempDir(), "app.sqlite"), false)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	for _, stmt := range backup.SplitStatements(ddl, false) {
		require.NoError(t, db.ExecuteStatement(ctx, stmt), stmt)
	}
	return db
}

func exec(t *testing.T, db *database.DB, stmts ...string) {
	t.Helper()
	for _, stmt := range stmts {
		require.NoError(t, db.ExecuteStatement(context.Background(), stmt), stmt)
	}
}

func seed(t *testing.T, db *database.DB) {
	exec(t, db,
		`INSERT INTO accounts VALUES (1, 'Cash', 1250.5), (2, 'O''Brien; Co', NULL), (3, 'Bank \ Main', 0.25)`,
		`INSERT INTO vouchers VALUES (10, 1, 'opening balance'), (11, 2, NULL), (12, 3, '-- not a comment')`,
		`INSERT INTO migrations VALUES (1, '2024_01_01_create_accounts')`,
	)
}

func rowsOf(t *testing.T, db Database, table string) [][]any {
	t.Helper()
	rs, err := db.ReadRows(context.Background(), table)
	require.NoError(t, err)
	return rs.Rows
}

func newOrchestrator(t *testing.T, db Database, opts Options) (*Orchestrator, *storage.Storage) {
	t.Helper()
	store := storage.NewOS(t.TempDir())
	if opts.Now == nil {
		opts.Now = fixedNow
	}
	return New(db, store, opts), store
}

func TestBackupJSONRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := openDB(t, schema)
	seed(t, src)

	o, store := newOrchestrator(t, src, Options{Application: "Ledger"})
	res, err := o.Backup(ctx, backup.FormatJSON, false)
	require.NoError(t, err)
	assert.Equal(t, store.Path("backups", "backup_2026-03-14_09-26-53.json"), res.File)
	assert.Equal(t, 2, res.Tables)
	assert.EqualValues(t, 6, res.Rows)

	content, err := store.ReadFile(res.File)
	require.NoError(t, err)
	doc, err := backup.ParseDocument(content)
	require.NoError(t, err)
	assert.Equal(t, "Ledger", doc.Metadata.Application)
	assert.Equal(t, []string{"accounts", "vouchers"}, doc.TableNames())

	dst := openDB(t, schema)
	restorer := New(dst, store, Options{})
	rres, err := restorer.Restore(ctx, res.File, false, true)
	require.NoError(t, err)
	assert.Equal(t, backup.FormatJSON, rres.Format)
	assert.EqualValues(t, 6, rres.Rows)

	for _, table := range []string{"accounts", "vouchers"} {
		assert.ElementsMatch(t, rowsOf(t, src, table), rowsOf(t, dst, table), table)
	}
	assert.Empty(t, rowsOf(t, dst, "migrations"))
}

func TestBackupSQLRestoreIntoEmptyDatabase(t *testing.T) {
	ctx := context.Background()
	src := openDB(t, schema)
	seed(t, src)

	o, store := newOrchestrator(t, src, Options{})
	res, err := o.Backup(ctx, backup.FormatSQL, false)
	require.NoError(t, err)
	assert.Equal(t, store.Path("backups", "backup_2026-03-14_09-26-53.sql"), res.File)

	dst := openDB(t, "")
	rres, err := New(dst, store, Options{}).Restore(ctx, res.File, false, true)
	require.NoError(t, err)
	assert.Equal(t, backup.FormatSQL, rres.Format)
	assert.Zero(t, rres.Warnings)

	tables, err := dst.ListTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"accounts", "vouchers"}, tables)

	for _, table := range []string{"accounts", "vouchers"} {
		srcCols, err := src.Columns(ctx, table)
		require.NoError(t, err)
		dstCols, err := dst.Columns(ctx, table)
		require.NoError(t, err)
		assert.Equal(t, srcCols, dstCols)
		assert.Equal(t, rowsOf(t, src, table), rowsOf(t, dst, table), table)
	}
}

func TestBackupCompressed(t *testing.T) {
	ctx := context.Background()
	src := openDB(t, schema)
	seed(t, src)

	o, store := newOrchestrator(t, src, Options{})
	res, err := o.Backup(ctx, backup.FormatJSON, true)
	require.NoError(t, err)
	assert.Equal(t, store.Path("backups", "backup_2026-03-14_09-26-53.zip"), res.File)

	entry, content, err := store.ReadZipEntry(res.File)
	require.NoError(t, err)
	assert.Equal(t, "backup_2026-03-14_09-26-53.json", entry)
	assert.Equal(t, backup.FormatJSON, backup.DetectFormat(content))

	leftovers, _ := os.ReadDir(store.Path(storage.TempDir))
	assert.Empty(t, leftovers, "temp file should be removed")

	dst := openDB(t, schema)
	_, err = New(dst, store, Options{}).Restore(ctx, filepath.Base(res.File), false, true)
	require.NoError(t, err)
	assert.ElementsMatch(t, rowsOf(t, src, "accounts"), rowsOf(t, dst, "accounts"))
}

func TestRestoreDetectsFormatFromContent(t *testing.T) {
	ctx := context.Background()
	dst := openDB(t, schema)
	o, store := newOrchestrator(t, dst, Options{})

	jsonAsSQL := store.Path("backups", "looks_like.sql")
	require.NoError(t, store.WriteFile(jsonAsSQL, []byte(`
  {"metadata": {"created_at": "2026-03-14T09:26:53Z", "version": "1.0", "application": "Ledger"},
   "tables": {"accounts": {"structure": ["id", "name", "balance"],
                           "data": [{"id": 7, "name": "Petty cash", "balance": "12.50"}]}}}`)))
	res, err := o.Restore(ctx, jsonAsSQL, false, true)
	require.NoError(t, err)
	assert.Equal(t, backup.FormatJSON, res.Format)

	sqlAsJSON := store.Path("backups", "looks_like.json")
	require.NoError(t, store.WriteFile(sqlAsJSON, []byte(
		"-- dump\nINSERT INTO vouchers VALUES (20, 7, 'a;b');\n")))
	res, err = o.Restore(ctx, sqlAsJSON, false, true)
	require.NoError(t, err)
	assert.Equal(t, backup.FormatSQL, res.Format)
	assert.Equal(t, 1, res.Statements)

	assert.Equal(t, [][]any{{int64(7), "Petty cash", 12.5}}, rowsOf(t, dst, "accounts"))
	assert.Equal(t, [][]any{{int64(20), int64(7), "a;b"}}, rowsOf(t, dst, "vouchers"))
}

func TestRestoreSQLSkipsFailingStatements(t *testing.T) {
	ctx := context.Background()
	dst := openDB(t, schema)
	o, store := newOrchestrator(t, dst, Options{})

	file := store.Path("backups", "partial.sql")
	require.NoError(t, store.WriteFile(file, []byte(`
INSERT INTO accounts VALUES (1, 'Cash', 1);
INSERT INTO ledgers VALUES (1);
INSERT INTO accounts VALUES (1, 'Duplicate', 2);
INSERT INTO accounts VALUES (2, 'Bank', 3);
`)))
	res, err := o.Restore(ctx, file, false, true)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Warnings)
	assert.Equal(t, 2, res.Statements)
	assert.Len(t, rowsOf(t, dst, "accounts"), 2)
}

func TestRestoreJSONInvalidFormat(t *testing.T) {
	ctx := context.Background()
	dst := openDB(t, schema)
	o, store := newOrchestrator(t, dst, Options{})

	file := store.Path("backups", "broken.json")
	require.NoError(t, store.WriteFile(file, []byte(`{"metadata": {"version": "1.0"}}`)))
	_, err := o.Restore(ctx, file, false, true)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestRestoreJSONInsertFailureIsFatal(t *testing.T) {
	ctx := context.Background()
	dst := openDB(t, schema)
	o, store := newOrchestrator(t, dst, Options{})

	file := store.Path("backups", "missing_table.json")
	require.NoError(t, store.WriteFile(file, []byte(`{"metadata": {}, "tables": {
		"ledgers": {"structure": ["id"], "data": [{"id": 1}]},
		"accounts": {"structure": ["id", "name"], "data": [{"id": 1, "name": "Cash"}]}}}`)))
	_, err := o.Restore(ctx, file, false, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledgers")
	assert.Empty(t, rowsOf(t, dst, "accounts"))
}

func TestRestoreJSONMixedKeySets(t *testing.T) {
	ctx := context.Background()
	dst := openDB(t, schema)
	o, store := newOrchestrator(t, dst, Options{})

	file := store.Path("backups", "sparse.json")
	require.NoError(t, store.WriteFile(file, []byte(`{"metadata": {}, "tables": {
		"accounts": {"structure": ["id", "name", "balance"], "data": [
			{"id": 1, "name": "Cash"},
			{"balance": 2.5, "name": "Bank", "id": 2},
			{"id": 3, "name": "Card"}]},
		"migrations": {"structure": ["id"], "data": [{"id": 9}]}}}`)))
	res, err := o.Restore(ctx, file, false, true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Tables)
	assert.ElementsMatch(t, [][]any{
		{int64(1), "Cash", nil},
		{int64(2), "Bank", 2.5},
		{int64(3), "Card", nil},
	}, rowsOf(t, dst, "accounts"))
	assert.Empty(t, rowsOf(t, dst, "migrations"))
}

func TestRestoreConfirmation(t *testing.T) {
	ctx := context.Background()
	dst := openDB(t, schema)
	seed(t, dst)

	confirm := &stubConfirmer{answer: false}
	o, store := newOrchestrator(t, dst, Options{Confirmer: confirm})
	file := store.Path("backups", "wipe.sql")
	require.NoError(t, store.WriteFile(file, []byte("DELETE FROM vouchers;\nDELETE FROM accounts;")))

	res, err := o.Restore(ctx, file, true, false)
	require.NoError(t, err)
	assert.True(t, res.Declined)
	assert.Equal(t, 1, confirm.asked)
	assert.Len(t, rowsOf(t, dst, "accounts"), 3)
	assert.Len(t, rowsOf(t, dst, "vouchers"), 3)

	confirm.answer = true
	res, err = o.Restore(ctx, file, false, false)
	require.NoError(t, err)
	assert.False(t, res.Declined)
	assert.Empty(t, rowsOf(t, dst, "accounts"))
}

func TestRestoreMissingFile(t *testing.T) {
	dst := openDB(t, schema)
	confirm := &stubConfirmer{answer: true}
	o, _ := newOrchestrator(t, dst, Options{Confirmer: confirm})

	_, err := o.Restore(context.Background(), "nope.sql", false, false)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, confirm.asked)
}

func TestRestoreWithClean(t *testing.T) {
	ctx := context.Background()
	dst := openDB(t, schema)
	seed(t, dst)
	o, store := newOrchestrator(t, dst, Options{})

	file := store.Path("backups", "one.sql")
	require.NoError(t, store.WriteFile(file, []byte("INSERT INTO accounts VALUES (1, 'Only', 1);")))
	_, err := o.Restore(ctx, file, true, true)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{int64(1), "Only", int64(1)}}, rowsOf(t, dst, "accounts"))
	assert.Empty(t, rowsOf(t, dst, "vouchers"))
	assert.Len(t, rowsOf(t, dst, "migrations"), 1)
}

func createSource(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "legacy.sqlite")
	ctx := context.Background()
	src, err := database.OpenSQLite(ctx, path, false)
	require.NoError(t, err)
	defer src.Close()

	exec(t, src,
		`CREATE TABLE accounts (id INTEGER PRIMARY KEY, name TEXT NOT NULL, balance DECIMAL(12,2))`,
		`CREATE TABLE vouchers (id INTEGER PRIMARY KEY, account_id INTEGER, memo TEXT)`,
		`CREATE TABLE migrations (id INTEGER PRIMARY KEY, migration TEXT)`,
		`CREATE TABLE audit_log (id INTEGER PRIMARY KEY, entry TEXT)`,
		`INSERT INTO migrations VALUES (1, 'legacy')`,
		`INSERT INTO audit_log VALUES (1, 'created')`,
	)
	for i := 1; i <= 250; i++ {
		exec(t, src, fmt.Sprintf(`INSERT INTO accounts VALUES (%d, 'account %d', %d.25)`, i, i, i))
	}
	return path
}

func TestMigrateFromSQLite(t *testing.T) {
	ctx := context.Background()
	path := createSource(t)

	dst := &recordingDB{DB: openDB(t, schema)}
	o, _ := newOrchestrator(t, dst, Options{})

	res, err := o.MigrateFromSQLite(ctx, path, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Tables)
	assert.EqualValues(t, 250, res.Rows)
	assert.Equal(t, []string{"audit_log"}, res.Skipped)
	assert.Equal(t, 1, res.Warnings)

	assert.Equal(t, []int{100, 100, 50}, dst.batches)
	assert.Equal(t, []any{int64(1), int64(101), int64(201)}, dst.firstIDs)
	assert.Equal(t, []string{"accounts", "accounts", "accounts"}, dst.tables)

	rows := rowsOf(t, dst, "accounts")
	require.Len(t, rows, 250)
	assert.Equal(t, []any{int64(250), "account 250", 250.25}, rows[249])
	assert.Empty(t, rowsOf(t, dst, "migrations"))

	tables, err := dst.ListTables(ctx)
	require.NoError(t, err)
	assert.NotContains(t, tables, "audit_log")
}

func TestMigrateFromSQLiteSourceIsReadOnly(t *testing.T) {
	ctx := context.Background()
	path := createSource(t)

	src, err := database.OpenSQLite(ctx, path, true)
	require.NoError(t, err)
	defer src.Close()
	assert.Error(t, src.ExecuteStatement(ctx, "DELETE FROM accounts"))
}

func TestMigrateFromSQLiteWithClean(t *testing.T) {
	ctx := context.Background()
	path := createSource(t)

	dst := openDB(t, schema)
	seed(t, dst)
	o, _ := newOrchestrator(t, dst, Options{})

	_, err := o.MigrateFromSQLite(ctx, path, true)
	require.NoError(t, err)
	assert.Len(t, rowsOf(t, dst, "accounts"), 250)
	assert.Empty(t, rowsOf(t, dst, "vouchers"))
	assert.Equal(t, [][]any{{int64(1), "2024_01_01_create_accounts"}}, rowsOf(t, dst, "migrations"))
}

func TestMigrateFromSQLiteErrors(t *testing.T) {
	ctx := context.Background()
	dst := openDB(t, schema)
	o, _ := newOrchestrator(t, dst, Options{})

	_, err := o.MigrateFromSQLite(ctx, filepath.Join(t.TempDir(), "absent.sqlite"), false)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = o.MigrateFromSQLite(ctx, "", false)
	assert.ErrorIs(t, err, ErrMissingFile)

	opener := errors.New("locked")
	o = New(dst, storage.NewOS(t.TempDir()), Options{
		OpenSource: func(context.Context, string) (Database, error) { return nil, opener },
	})
	_, err = o.MigrateFromSQLite(ctx, createSource(t), false)
	assert.ErrorIs(t, err, opener)
}

func TestClean(t *testing.T) {
	ctx := context.Background()
	dst := openDB(t, schema)
	seed(t, dst)
	exec(t, dst, "PRAGMA foreign_keys = ON")
	o, _ := newOrchestrator(t, dst, Options{})

	require.NoError(t, o.Clean(ctx))
	assert.Empty(t, rowsOf(t, dst, "accounts"))
	assert.Empty(t, rowsOf(t, dst, "vouchers"))
	assert.Len(t, rowsOf(t, dst, "migrations"), 1)

	// Enforcement is back on afterwards.
	err := dst.ExecuteStatement(ctx, "INSERT INTO vouchers VALUES (1, 999, 'orphan')")
	assert.Error(t, err)
}

func TestRunValidatesBeforeTouchingDatabase(t *testing.T) {
	// A nil database and storage panic on first use.
	o := New(nil, nil, Options{})
	ctx := context.Background()

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"unknown action", Request{Action: "purge"}, ErrUnknownAction},
		{"restore without file", Request{Action: ActionRestore}, ErrMissingFile},
		{"migrate without file", Request{Action: ActionMigrateSQLite, File: "  "}, ErrMissingFile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := o.Run(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := o.Run(ctx, Request{Action: ActionBackup, Format: "xml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("migrate-sqlite")
	require.NoError(t, err)
	assert.Equal(t, ActionMigrateSQLite, a)

	_, err = ParseAction("export")
	require.ErrorIs(t, err, ErrUnknownAction)
	assert.Contains(t, err.Error(), "backup, restore, migrate-sqlite")
}

func TestIsExcluded(t *testing.T) {
	for _, table := range []string{"migrations", "password_resets", "failed_jobs"} {
		assert.True(t, IsExcluded(table), table)
	}
	assert.False(t, IsExcluded("accounts"))
}

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johndauphine/db-utility/internal/database"
	"github.com/johndauphine/db-utility/internal/exitcodes"
	"github.com/johndauphine/db-utility/internal/orchestrator"
)

func TestInvalidInvocationsFailBeforeAnyAccess(t *testing.T) {
	storageDir := filepath.Join(t.TempDir(), "storage")
	// A config path that would fail to load proves configuration was never read.
	base := []string{"db-utility", "--config", filepath.Join(t.TempDir(), "missing.yaml"),
		"--storage-dir", storageDir, "--no-history", "--no-progress"}

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"unknown action", []string{"purge"}, orchestrator.ErrUnknownAction},
		{"restore without file", []string{"restore", "--force"}, orchestrator.ErrMissingFile},
		{"migrate without file", []string{"migrate-sqlite"}, orchestrator.ErrMissingFile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newApp().Run(append(append([]string{}, base...), tt.args...))
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, exitcodes.Failure, exitcodes.FromError(err))
			assert.Equal(t, exitcodes.KindInput, exitcodes.Classify(err))
			assert.NoDirExists(t, storageDir)
		})
	}
}

func TestUnknownFormat(t *testing.T) {
	err := newApp().Run([]string{"db-utility", "--no-history", "backup", "--format", "xml"})
	require.Error(t, err)
	assert.Equal(t, exitcodes.Failure, exitcodes.FromError(err))
}

func TestBackupAndRestoreWithSQLite(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "app.sqlite")
	ctx := context.Background()

	db, err := database.OpenSQLite(ctx, dbPath, false)
	require.NoError(t, err)
	require.NoError(t, db.ExecuteStatement(ctx, `CREATE TABLE accounts (id INTEGER PRIMARY KEY, name TEXT)`))
	require.NoError(t, db.ExecuteStatement(ctx, `INSERT INTO accounts VALUES (1, 'Cash'), (2, 'Bank')`))
	require.NoError(t, db.Close())

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("database:\n  driver: sqlite\n  database: "+dbPath+"\n"), 0600))
	storageDir := filepath.Join(dir, "storage")
	global := []string{"db-utility", "--config", cfgPath, "--env-file", "", "--storage-dir", storageDir,
		"--no-history", "--no-progress", "--verbosity", "error"}

	require.NoError(t, newApp().Run(append(append([]string{}, global...), "backup", "--format", "json", "--compress")))
	archives, err := filepath.Glob(filepath.Join(storageDir, "backups", "backup_*.zip"))
	require.NoError(t, err)
	require.Len(t, archives, 1)

	db, err = database.OpenSQLite(ctx, dbPath, false)
	require.NoError(t, err)
	require.NoError(t, db.ExecuteStatement(ctx, `DELETE FROM accounts`))
	require.NoError(t, db.Close())

	require.NoError(t, newApp().Run(append(append([]string{}, global...),
		"restore", "--file", filepath.Base(archives[0]), "--force")))

	db, err = database.OpenSQLite(ctx, dbPath, true)
	require.NoError(t, err)
	defer db.Close()
	rs, err := db.ReadRows(ctx, "accounts")
	require.NoError(t, err)
	assert.Equal(t, [][]any{{int64(1), "Cash"}, {int64(2), "Bank"}}, rs.Rows)
}

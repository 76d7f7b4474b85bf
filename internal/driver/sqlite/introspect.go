package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/johndauphine/db-utility/internal/driver"
)

// ListTablesQuery lists user tables, skipping SQLite's internal sqlite_* tables.
const ListTablesQuery = "SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'"

// Introspector implements driver.Introspector from sqlite_master.
type Introspector struct{}

func (i *Introspector) ListTables(ctx context.Context, q driver.Queryer) ([]string, error) {
	tables, err := driver.QueryStrings(ctx, q, ListTablesQuery+" ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	return tables, nil
}

// CreateTableStatement returns the statement SQLite stored when the table
// was created.
func (i *Introspector) CreateTableStatement(ctx context.Context, q driver.Queryer, table string) (string, error) {
	var ddl string
	err := q.QueryRowContext(ctx,
		"SELECT sql FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&ddl)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("reading structure of %s: table not present", table)
	}
	if err != nil {
		return "", fmt.Errorf("reading structure of %s: %w", table, err)
	}
	return ddl, nil
}

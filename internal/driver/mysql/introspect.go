package mysql

import (
	"context"
	"fmt"

	"github.com/johndauphine/db-utility/internal/driver"
)

// Introspector implements driver.Introspector using SHOW statements.
type Introspector struct {
	dialect *Dialect
}

// ListTables returns base tables; views are left out because SHOW CREATE
// TABLE on a view yields a CREATE VIEW.
func (i *Introspector) ListTables(ctx context.Context, q driver.Queryer) ([]string, error) {
	tables, err := driver.QueryStrings(ctx, q, "SHOW FULL TABLES WHERE Table_type = 'BASE TABLE'")
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	return tables, nil
}

// CreateTableStatement returns the server's own SHOW CREATE TABLE output.
func (i *Introspector) CreateTableStatement(ctx context.Context, q driver.Queryer, table string) (string, error) {
	var name, ddl string
	err := q.QueryRowContext(ctx, "SHOW CREATE TABLE "+i.dialect.QuoteIdentifier(table)).Scan(&name, &ddl)
	if err != nil {
		return "", fmt.Errorf("reading structure of %s: %w", table, err)
	}
	return ddl, nil
}

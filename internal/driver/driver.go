// Package driver provides pluggable database backend abstractions.
// Each database (MySQL, PostgreSQL, SQLite, SQL Server) implements the Driver
// interface to provide its SQL dialect and schema introspection in one unit,
// keeping backup/restore/migrate logic backend-agnostic.
package driver

import (
	"context"
	"database/sql"
)

// DriverDefaults contains default values for a database driver.
type DriverDefaults struct {
	// Port is the default port (e.g., 3306 for MySQL, 5432 for PostgreSQL).
	// Zero for file-based databases.
	Port int
}

// Driver represents a pluggable database backend.
//
// To add a new database:
// 1. Create a package under internal/driver/<dbname>/
// 2. Implement the Driver interface
// 3. Register via init(): driver.Register(&Driver{})
type Driver interface {
	// Name returns the primary driver name (e.g., "mysql", "postgres").
	Name() string

	// Aliases returns alternative names for this driver.
	// For example, postgres has aliases ["postgresql", "pgsql", "pg"].
	Aliases() []string

	// Defaults returns the default configuration values for this driver.
	Defaults() DriverDefaults

	// SQLDriverName is the database/sql driver name passed to sql.Open.
	SQLDriverName() string

	// Dialect returns the SQL dialect for this database.
	Dialect() Dialect

	// Introspector returns the schema introspection queries for this database.
	Introspector() Introspector
}

// Queryer is the subset of *sql.DB / *sql.Conn used for introspection.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Introspector reads schema metadata in a backend-specific way.
type Introspector interface {
	// ListTables returns the base tables of the current database/schema,
	// in the order the backend reports them.
	ListTables(ctx context.Context, q Queryer) ([]string, error)

	// CreateTableStatement returns a CREATE TABLE statement that recreates
	// the table's columns and primary key. No trailing semicolon.
	CreateTableStatement(ctx context.Context, q Queryer, table string) (string, error)
}

// QueryStrings runs query and scans the first column of every row as a string.
func QueryStrings(ctx context.Context, q Queryer, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []string
	for rows.Next() {
		var name string
		dest := make([]any, len(cols))
		dest[0] = &name
		for i := 1; i < len(dest); i++ {
			dest[i] = new(sql.RawBytes)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

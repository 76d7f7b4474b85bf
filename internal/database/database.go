// Package database provides the handle the utility uses to talk to a
// relational database. It exposes a narrow set of capabilities over
// database/sql and delegates every backend-specific statement to the
// registered driver.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/johndauphine/db-utility/internal/config"
	"github.com/johndauphine/db-utility/internal/driver"
	_ "github.com/johndauphine/db-utility/internal/driver/mssql"
	_ "github.com/johndauphine/db-utility/internal/driver/mysql"
	_ "github.com/johndauphine/db-utility/internal/driver/postgres"
	_ "github.com/johndauphine/db-utility/internal/driver/sqlite"
)

// RowSet is the full content of one table, columns in table order.
type RowSet struct {
	Columns []string
	Rows    [][]any
}

// DB is a database handle bound to one driver.
type DB struct {
	db      *sql.DB
	drv     driver.Driver
	dialect driver.Dialect
	intro   driver.Introspector
	name    string
}

// Open connects to the database described by cfg.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	d, err := driver.Get(cfg.Driver)
	if err != nil {
		return nil, err
	}
	dsn := d.Dialect().BuildDSN(cfg.Host, cfg.Port, cfg.Database, cfg.User, cfg.Password, cfg.DSNOptions())
	return open(ctx, d, dsn, cfg.Database)
}

// OpenSQLite opens a SQLite file directly. The migration source is opened
// with readOnly set so nothing can be written to it.
func OpenSQLite(ctx context.Context, path string, readOnly bool) (*DB, error) {
	d, err := driver.Get("sqlite")
	if err != nil {
		return nil, err
	}
	dsn := d.Dialect().BuildDSN("", 0, path, "", "", map[string]any{"read_only": readOnly})
	return open(ctx, d, dsn, path)
}

func open(ctx context.Context, d driver.Driver, dsn, name string) (*DB, error) {
	db, err := sql.Open(d.SQLDriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("opening connection: %w", err)
	}

	// Foreign key toggles are session scoped, so every statement has to run
	// on the same connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s database: %w", d.Name(), err)
	}

	return &DB{
		db:      db,
		drv:     d,
		dialect: d.Dialect(),
		intro:   d.Introspector(),
		name:    name,
	}, nil
}

// Close closes the connection.
func (h *DB) Close() error {
	return h.db.Close()
}

// DB returns the underlying database connection.
func (h *DB) DB() *sql.DB {
	return h.db
}

// Dialect returns the SQL dialect of the connected backend.
func (h *DB) Dialect() driver.Dialect {
	return h.dialect
}

// Name returns the database name (or file path for SQLite).
func (h *DB) Name() string {
	return h.name
}

// ListTables returns the base tables of the connected database.
func (h *DB) ListTables(ctx context.Context) ([]string, error) {
	return h.intro.ListTables(ctx, h.db)
}

// CreateTableStatement returns the statement that recreates table.
func (h *DB) CreateTableStatement(ctx context.Context, table string) (string, error) {
	return h.intro.CreateTableStatement(ctx, h.db, table)
}

// Columns returns the column names of table in table order.
func (h *DB) Columns(ctx context.Context, table string) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s WHERE 1=0", h.dialect.QuoteIdentifier(table)))
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	return cols, nil
}

// ReadRows reads every row of table. Values are normalised so they
// serialise faithfully to SQL and JSON.
func (h *DB) ReadRows(ctx context.Context, table string) (*RowSet, error) {
	rows, err := h.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s", h.dialect.QuoteIdentifier(table)))
	if err != nil {
		return nil, fmt.Errorf("reading rows of %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading rows of %s: %w", table, err)
	}
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("reading column types of %s: %w", table, err)
	}
	kinds := make([]valueKind, len(colTypes))
	for i, ct := range colTypes {
		kinds[i] = kindOf(ct.DatabaseTypeName())
	}

	rs := &RowSet{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row of %s: %w", table, err)
		}
		for i, v := range values {
			values[i] = normalize(v, kinds[i])
		}
		rs.Rows = append(rs.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading rows of %s: %w", table, err)
	}
	return rs, nil
}

// ExecuteStatement runs a single SQL statement.
func (h *DB) ExecuteStatement(ctx context.Context, stmt string) error {
	_, err := h.db.ExecContext(ctx, stmt)
	return err
}

// InsertRows inserts rows into table with multi-row parameterised INSERTs.
// Rows are split across statements only when the backend's bind parameter
// limit would be exceeded.
func (h *DB) InsertRows(ctx context.Context, table string, cols []string, rows [][]any) error {
	if len(rows) == 0 || len(cols) == 0 {
		return nil
	}

	perStmt := h.dialect.MaxParameters() / len(cols)
	if perStmt < 1 {
		return fmt.Errorf("table %s has %d columns, more than %s allows in one statement",
			table, len(cols), h.drv.Name())
	}

	for start := 0; start < len(rows); start += perStmt {
		end := start + perStmt
		if end > len(rows) {
			end = len(rows)
		}
		query, args := h.buildInsert(table, cols, rows[start:end])
		if _, err := h.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting into %s: %w", table, err)
		}
	}
	return nil
}

func (h *DB) buildInsert(table string, cols []string, rows [][]any) (string, []any) {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = h.dialect.QuoteIdentifier(c)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("INSERT INTO %s (%s) VALUES ",
		h.dialect.QuoteIdentifier(table), strings.Join(quoted, ", ")))

	args := make([]any, 0, len(rows)*len(cols))
	placeholders := make([]string, len(cols))
	for r, row := range rows {
		if r > 0 {
			sb.WriteString(", ")
		}
		for c := range cols {
			args = append(args, bindValue(row[c]))
			placeholders[c] = h.dialect.ParameterPlaceholder(len(args))
		}
		sb.WriteString("(" + strings.Join(placeholders, ", ") + ")")
	}
	return sb.String(), args
}

// TruncateTable removes every row from table.
func (h *DB) TruncateTable(ctx context.Context, table string) error {
	if _, err := h.db.ExecContext(ctx, h.dialect.Truncate(table)); err != nil {
		return fmt.Errorf("truncating %s: %w", table, err)
	}
	return nil
}

// DisableForeignKeys suspends foreign key enforcement for the session.
func (h *DB) DisableForeignKeys(ctx context.Context) error {
	if _, err := h.db.ExecContext(ctx, h.dialect.DisableForeignKeys()); err != nil {
		return fmt.Errorf("disabling foreign key checks: %w", err)
	}
	return nil
}

// EnableForeignKeys restores foreign key enforcement for the session.
func (h *DB) EnableForeignKeys(ctx context.Context) error {
	if _, err := h.db.ExecContext(ctx, h.dialect.EnableForeignKeys()); err != nil {
		return fmt.Errorf("enabling foreign key checks: %w", err)
	}
	return nil
}

package driver

// Dialect abstracts database-specific SQL syntax differences.
// Each database driver provides its own Dialect implementation.
type Dialect interface {
	// DBType returns the database type (e.g., "mysql", "postgres").
	DBType() string

	// QuoteIdentifier quotes an identifier (table, column name).
	// MySQL: `identifier`
	// PostgreSQL/SQLite: "identifier"
	// MSSQL: [identifier]
	QuoteIdentifier(name string) string

	// QuoteString renders s as a string literal.
	QuoteString(s string) string

	// BackslashEscapes reports whether a backslash escapes the next character
	// inside literals produced by QuoteString.
	BackslashEscapes() bool

	// ParameterPlaceholder returns the parameter placeholder for the given
	// 1-based index.
	// MySQL/SQLite: ?
	// PostgreSQL: $1, $2, $3
	// MSSQL: @p1, @p2, @p3
	ParameterPlaceholder(index int) string

	// MaxParameters is the number of bind parameters one statement may carry.
	MaxParameters() int

	// BuildDSN builds a connection string for this database.
	BuildDSN(host string, port int, database, user, password string, opts map[string]any) string

	// DisableForeignKeys returns the statement that suspends foreign key
	// enforcement for the current session.
	DisableForeignKeys() string

	// EnableForeignKeys undoes DisableForeignKeys.
	EnableForeignKeys() string

	// DropTableIfExists returns a DROP TABLE IF EXISTS statement.
	DropTableIfExists(table string) string

	// Truncate returns the statement that empties table.
	Truncate(table string) string
}

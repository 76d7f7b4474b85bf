package postgres

import (
	"fmt"
	"net/url"

	"github.com/lib/pq"
)

// Dialect implements driver.Dialect for PostgreSQL.
type Dialect struct{}

func (d *Dialect) DBType() string { return "postgres" }

func (d *Dialect) QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}

// QuoteString produces a standard literal, or an escape string literal with doubled
// backslashes when s contains one.
func (d *Dialect) QuoteString(s string) string {
	return pq.QuoteLiteral(s)
}

func (d *Dialect) BackslashEscapes() bool { return true }

func (d *Dialect) ParameterPlaceholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

func (d *Dialect) MaxParameters() int { return 65535 }

func (d *Dialect) BuildDSN(host string, port int, database, user, password string, opts map[string]any) string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, password),
		Host:   fmt.Sprintf("%s:%d", host, port),
		Path:   "/" + database,
	}

	params := url.Values{}
	if sslMode, ok := opts["sslmode"].(string); ok && sslMode != "" {
		params.Set("sslmode", sslMode)
	} else {
		params.Set("sslmode", "prefer")
	}
	if searchPath, ok := opts["search_path"].(string); ok && searchPath != "" {
		params.Set("search_path", searchPath)
	}
	u.RawQuery = params.Encode()
	return u.String()
}

// DisableForeignKeys switches the session to replica mode, which skips FK
// triggers. Requires superuser or table owner rights.
func (d *Dialect) DisableForeignKeys() string {
	return "SET session_replication_role = 'replica'"
}

func (d *Dialect) EnableForeignKeys() string {
	return "SET session_replication_role = 'origin'"
}

func (d *Dialect) DropTableIfExists(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", d.QuoteIdentifier(table))
}

func (d *Dialect) Truncate(table string) string {
	return fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", d.QuoteIdentifier(table))
}

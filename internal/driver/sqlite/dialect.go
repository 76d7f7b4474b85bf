package sqlite

import (
	"fmt"
	"net/url"
	"strings"
)

// Dialect implements driver.Dialect for SQLite.
type Dialect struct{}

func (d *Dialect) DBType() string { return "sqlite" }

func (d *Dialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d *Dialect) QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (d *Dialect) BackslashEscapes() bool { return false }

func (d *Dialect) ParameterPlaceholder(_ int) string { return "?" }

func (d *Dialect) MaxParameters() int { return 32766 }

// BuildDSN ignores the network fields; database is the file path.
// opts["read_only"] opens the file without write access. The path is
// percent-encoded so '?', '#' and '%' stay part of the file name.
func (d *Dialect) BuildDSN(_ string, _ int, database, _, _ string, opts map[string]any) string {
	path := (&url.URL{Path: database}).EscapedPath()
	if readOnly, ok := opts["read_only"].(bool); ok && readOnly {
		return fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path)
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
}

func (d *Dialect) DisableForeignKeys() string { return "PRAGMA foreign_keys = OFF" }

func (d *Dialect) EnableForeignKeys() string { return "PRAGMA foreign_keys = ON" }

func (d *Dialect) DropTableIfExists(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", d.QuoteIdentifier(table))
}

// Truncate uses DELETE; SQLite has no TRUNCATE statement.
func (d *Dialect) Truncate(table string) string {
	return fmt.Sprintf("DELETE FROM %s", d.QuoteIdentifier(table))
}

package mssql

import (
	"fmt"
	"net/url"
	"strings"
)

// Dialect implements driver.Dialect for SQL Server.
type Dialect struct{}

func (d *Dialect) DBType() string { return "mssql" }

func (d *Dialect) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// QuoteString emits a national literal so non-ASCII data survives a restore
// into nvarchar columns.
func (d *Dialect) QuoteString(s string) string {
	return "N'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (d *Dialect) BackslashEscapes() bool { return false }

func (d *Dialect) ParameterPlaceholder(index int) string {
	return fmt.Sprintf("@p%d", index)
}

// MaxParameters stays under the 2100 RPC parameter limit.
func (d *Dialect) MaxParameters() int { return 2000 }

func (d *Dialect) BuildDSN(host string, port int, database, user, password string, opts map[string]any) string {
	encodedUser := url.QueryEscape(user)
	encodedPassword := url.QueryEscape(password)
	encodedDatabase := url.QueryEscape(database)

	dsn := fmt.Sprintf("sqlserver://%s:%s@%s:%d?database=%s",
		encodedUser, encodedPassword, host, port, encodedDatabase)

	if encrypt, ok := opts["encrypt"].(bool); ok {
		if encrypt {
			dsn += "&encrypt=true"
		} else {
			dsn += "&encrypt=false"
		}
	}
	if trustCert, ok := opts["trustServerCertificate"].(bool); ok && trustCert {
		dsn += "&TrustServerCertificate=true"
	}
	if appName, ok := opts["app_name"].(string); ok && appName != "" {
		dsn += "&app+name=" + url.QueryEscape(appName)
	}

	return dsn
}

func (d *Dialect) DisableForeignKeys() string {
	return "EXEC sp_MSforeachtable 'ALTER TABLE ? NOCHECK CONSTRAINT ALL'"
}

func (d *Dialect) EnableForeignKeys() string {
	return "EXEC sp_MSforeachtable 'ALTER TABLE ? WITH CHECK CHECK CONSTRAINT ALL'"
}

func (d *Dialect) DropTableIfExists(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", d.QuoteIdentifier(table))
}

// Truncate uses DELETE because TRUNCATE is refused on any table referenced by
// a foreign key, even a disabled one.
func (d *Dialect) Truncate(table string) string {
	return fmt.Sprintf("DELETE FROM %s", d.QuoteIdentifier(table))
}

package mysql

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	gomysql "github.com/go-sql-driver/mysql"
)

// Dialect implements driver.Dialect for MySQL.
type Dialect struct{}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	"\x00", `\0`,
)

func (d *Dialect) DBType() string { return "mysql" }

func (d *Dialect) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// QuoteString wraps s in single quotes, backslash-escaping quote characters,
// backslashes and NUL bytes.
func (d *Dialect) QuoteString(s string) string {
	return "'" + literalEscaper.Replace(s) + "'"
}

func (d *Dialect) BackslashEscapes() bool { return true }

func (d *Dialect) ParameterPlaceholder(_ int) string { return "?" }

func (d *Dialect) MaxParameters() int { return 65535 }

func (d *Dialect) BuildDSN(host string, port int, database, user, password string, opts map[string]any) string {
	cfg := gomysql.NewConfig()
	cfg.User = user
	cfg.Passwd = password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	cfg.DBName = database
	if charset, ok := opts["charset"].(string); ok && charset != "" {
		cfg.Params = map[string]string{"charset": charset}
	}
	return cfg.FormatDSN()
}

func (d *Dialect) DisableForeignKeys() string { return "SET FOREIGN_KEY_CHECKS = 0" }

func (d *Dialect) EnableForeignKeys() string { return "SET FOREIGN_KEY_CHECKS = 1" }

func (d *Dialect) DropTableIfExists(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", d.QuoteIdentifier(table))
}

func (d *Dialect) Truncate(table string) string {
	return fmt.Sprintf("TRUNCATE TABLE %s", d.QuoteIdentifier(table))
}

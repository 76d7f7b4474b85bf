package backup

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/johndauphine/db-utility/internal/driver"
)

// SQLWriter builds a SQL dump: a comment header, the foreign key disable
// directive, one DROP/CREATE/INSERT block per table and the enable directive.
type SQLWriter struct {
	dialect driver.Dialect
	sb      strings.Builder
	closed  bool
}

// NewSQLWriter starts a dump of database taken at createdAt.
func NewSQLWriter(d driver.Dialect, database string, createdAt time.Time) *SQLWriter {
	w := &SQLWriter{dialect: d}
	w.sb.WriteString("-- Database Backup\n")
	w.sb.WriteString(fmt.Sprintf("-- Generated: %s\n", createdAt.Format("2006-01-02 15:04:05")))
	w.sb.WriteString(fmt.Sprintf("-- Database: %s\n", database))
	w.sb.WriteString(fmt.Sprintf("-- Driver: %s\n\n", d.DBType()))
	w.sb.WriteString(d.DisableForeignKeys() + ";\n\n")
	return w
}

// WriteTable appends the block for one table. createStmt is written as is;
// an empty table contributes no INSERT.
func (w *SQLWriter) WriteTable(table, createStmt string, cols []string, rows [][]any) {
	d := w.dialect
	w.sb.WriteString(fmt.Sprintf("-- Table: %s\n", table))
	w.sb.WriteString(d.DropTableIfExists(table) + ";\n")
	w.sb.WriteString(strings.TrimRight(strings.TrimSpace(createStmt), ";") + ";\n\n")

	if len(rows) == 0 {
		return
	}

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.QuoteIdentifier(c)
	}
	w.sb.WriteString(fmt.Sprintf("INSERT INTO %s (%s) VALUES\n", d.QuoteIdentifier(table), strings.Join(quoted, ", ")))

	values := make([]string, len(cols))
	for r, row := range rows {
		for i := range cols {
			values[i] = FormatValue(d, row[i])
		}
		w.sb.WriteString("(" + strings.Join(values, ", ") + ")")
		if r < len(rows)-1 {
			w.sb.WriteString(",\n")
		}
	}
	w.sb.WriteString(";\n\n")
}

// String closes the dump with the enable directive and returns it.
func (w *SQLWriter) String() string {
	if !w.closed {
		w.sb.WriteString(w.dialect.EnableForeignKeys() + ";\n")
		w.closed = true
	}
	return w.sb.String()
}

// FormatValue renders v as a SQL literal. Only Go numeric values are left
// unquoted, so numeric-looking strings keep their exact text.
func FormatValue(d driver.Dialect, v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case json.Number:
		return val.String()
	case bool:
		// '1'/'0' is accepted by every supported boolean or bit column.
		if val {
			return d.QuoteString("1")
		}
		return d.QuoteString("0")
	case string:
		return d.QuoteString(val)
	case []byte:
		return d.QuoteString(string(val))
	case time.Time:
		return d.QuoteString(val.Format("2006-01-02 15:04:05"))
	}
	return d.QuoteString(fmt.Sprint(v))
}

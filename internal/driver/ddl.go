package driver

import (
	"fmt"
	"strings"
)

// ColumnDef describes one column for BuildCreateTable.
type ColumnDef struct {
	Name     string
	Type     string // fully formatted type, e.g. "varchar(255)"
	Nullable bool
	Default  string // raw default expression; empty for none
	Extra    string // appended after the type, e.g. "IDENTITY(1,1)"
}

// BuildCreateTable renders a CREATE TABLE statement for backends that have
// no native "show create table". Only columns and the primary key are
// reproduced.
func BuildCreateTable(d Dialect, table string, cols []ColumnDef, pk []string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("CREATE TABLE %s (\n", d.QuoteIdentifier(table)))

	for i, col := range cols {
		if i > 0 {
			sb.WriteString(",\n")
		}
		sb.WriteString(fmt.Sprintf("    %s %s", d.QuoteIdentifier(col.Name), col.Type))
		if col.Extra != "" {
			sb.WriteString(" " + col.Extra)
		}
		if col.Nullable {
			sb.WriteString(" NULL")
		} else {
			sb.WriteString(" NOT NULL")
		}
		if col.Default != "" {
			sb.WriteString(" DEFAULT " + col.Default)
		}
	}

	if len(pk) > 0 {
		quoted := make([]string, len(pk))
		for i, c := range pk {
			quoted[i] = d.QuoteIdentifier(c)
		}
		sb.WriteString(fmt.Sprintf(",\n    PRIMARY KEY (%s)", strings.Join(quoted, ", ")))
	}

	sb.WriteString("\n)")
	return sb.String()
}

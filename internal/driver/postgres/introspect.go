package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/johndauphine/db-utility/internal/driver"
)

// Introspector implements driver.Introspector from the system catalogs of
// the connection's current schema.
type Introspector struct {
	dialect *Dialect
}

func (i *Introspector) ListTables(ctx context.Context, q driver.Queryer) ([]string, error) {
	tables, err := driver.QueryStrings(ctx, q, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_type = 'BASE TABLE' AND table_schema = current_schema()
		ORDER BY table_name
	`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	return tables, nil
}

// CreateTableStatement rebuilds the table definition. Serial columns are
// emitted as serial/bigserial so the owned sequence is recreated with the
// table.
func (i *Introspector) CreateTableStatement(ctx context.Context, q driver.Queryer, table string) (string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT
			a.attname,
			format_type(a.atttypid, a.atttypmod),
			NOT a.attnotnull,
			COALESCE(pg_get_expr(d.adbin, d.adrelid), '')
		FROM pg_attribute a
		JOIN pg_class c ON c.oid = a.attrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		LEFT JOIN pg_attrdef d ON d.adrelid = a.attrelid AND d.adnum = a.attnum
		WHERE n.nspname = current_schema() AND c.relname = $1
			AND a.attnum > 0 AND NOT a.attisdropped
		ORDER BY a.attnum
	`, table)
	if err != nil {
		return "", fmt.Errorf("reading structure of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []driver.ColumnDef
	for rows.Next() {
		var c driver.ColumnDef
		if err := rows.Scan(&c.Name, &c.Type, &c.Nullable, &c.Default); err != nil {
			return "", fmt.Errorf("scanning column of %s: %w", table, err)
		}
		if strings.HasPrefix(c.Default, "nextval(") {
			switch c.Type {
			case "integer":
				c.Type, c.Default = "serial", ""
			case "bigint":
				c.Type, c.Default = "bigserial", ""
			case "smallint":
				c.Type, c.Default = "smallserial", ""
			}
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("reading structure of %s: %w", table, err)
	}
	if len(cols) == 0 {
		return "", fmt.Errorf("reading structure of %s: table not present", table)
	}

	pk, err := i.primaryKey(ctx, q, table)
	if err != nil {
		return "", err
	}

	return driver.BuildCreateTable(i.dialect, table, cols, pk), nil
}

func (i *Introspector) primaryKey(ctx context.Context, q driver.Queryer, table string) ([]string, error) {
	pk, err := driver.QueryStrings(ctx, q, `
		SELECT a.attname
		FROM pg_index x
		JOIN pg_attribute a ON a.attrelid = x.indrelid AND a.attnum = ANY(x.indkey)
		JOIN pg_class c ON c.oid = x.indrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE x.indisprimary AND n.nspname = current_schema() AND c.relname = $1
		ORDER BY array_position(x.indkey, a.attnum)
	`, table)
	if err != nil {
		return nil, fmt.Errorf("reading primary key of %s: %w", table, err)
	}
	return pk, nil
}

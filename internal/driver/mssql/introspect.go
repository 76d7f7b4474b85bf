package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/johndauphine/db-utility/internal/driver"
)

// Introspector implements driver.Introspector from INFORMATION_SCHEMA,
// scoped to the login's default schema.
type Introspector struct {
	dialect *Dialect
}

func (i *Introspector) ListTables(ctx context.Context, q driver.Queryer) ([]string, error) {
	tables, err := driver.QueryStrings(ctx, q, `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_TYPE = 'BASE TABLE' AND TABLE_SCHEMA = SCHEMA_NAME()
		ORDER BY TABLE_NAME
	`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	return tables, nil
}

func (i *Introspector) CreateTableStatement(ctx context.Context, q driver.Queryer, table string) (string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT
			c.COLUMN_NAME,
			c.DATA_TYPE,
			c.CHARACTER_MAXIMUM_LENGTH,
			c.NUMERIC_PRECISION,
			c.NUMERIC_SCALE,
			c.IS_NULLABLE,
			c.COLUMN_DEFAULT,
			COLUMNPROPERTY(OBJECT_ID(QUOTENAME(c.TABLE_SCHEMA) + '.' + QUOTENAME(c.TABLE_NAME)), c.COLUMN_NAME, 'IsIdentity')
		FROM INFORMATION_SCHEMA.COLUMNS c
		WHERE c.TABLE_SCHEMA = SCHEMA_NAME() AND c.TABLE_NAME = @p1
		ORDER BY c.ORDINAL_POSITION
	`, table)
	if err != nil {
		return "", fmt.Errorf("reading structure of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []driver.ColumnDef
	for rows.Next() {
		var (
			name, dataType, nullable string
			maxLen, precision, scale sql.NullInt64
			def                      sql.NullString
			identity                 sql.NullInt64
		)
		if err := rows.Scan(&name, &dataType, &maxLen, &precision, &scale, &nullable, &def, &identity); err != nil {
			return "", fmt.Errorf("scanning column of %s: %w", table, err)
		}
		col := driver.ColumnDef{
			Name:     name,
			Type:     formatType(dataType, maxLen, precision, scale),
			Nullable: nullable == "YES",
			Default:  def.String,
		}
		if identity.Valid && identity.Int64 == 1 {
			col.Extra = "IDENTITY(1,1)"
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("reading structure of %s: %w", table, err)
	}
	if len(cols) == 0 {
		return "", fmt.Errorf("reading structure of %s: table not present", table)
	}

	pk, err := driver.QueryStrings(ctx, q, `
		SELECT k.COLUMN_NAME
		FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
		JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE k
			ON k.CONSTRAINT_NAME = tc.CONSTRAINT_NAME AND k.TABLE_SCHEMA = tc.TABLE_SCHEMA
		WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY'
			AND tc.TABLE_SCHEMA = SCHEMA_NAME() AND tc.TABLE_NAME = @p1
		ORDER BY k.ORDINAL_POSITION
	`, table)
	if err != nil {
		return "", fmt.Errorf("reading primary key of %s: %w", table, err)
	}

	return driver.BuildCreateTable(i.dialect, table, cols, pk), nil
}

// formatType renders an INFORMATION_SCHEMA type with its length or precision.
func formatType(dataType string, maxLen, precision, scale sql.NullInt64) string {
	t := strings.ToLower(dataType)
	switch t {
	case "varchar", "nvarchar", "varbinary", "char", "nchar", "binary":
		if !maxLen.Valid {
			return t
		}
		if maxLen.Int64 == -1 {
			return t + "(max)"
		}
		return fmt.Sprintf("%s(%d)", t, maxLen.Int64)
	case "decimal", "numeric":
		if precision.Valid {
			return fmt.Sprintf("%s(%d,%d)", t, precision.Int64, scale.Int64)
		}
	}
	return t
}

package database

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

type valueKind int

const (
	kindOther valueKind = iota
	kindInteger
	kindDecimal
)

// kindOf classifies a driver-reported column type name.
func kindOf(typeName string) valueKind {
	t := strings.ToUpper(typeName)
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = t[:i]
	}
	t = strings.TrimPrefix(t, "UNSIGNED ")
	switch t {
	case "INT", "INTEGER", "TINYINT", "SMALLINT", "MEDIUMINT", "BIGINT",
		"INT2", "INT4", "INT8", "SERIAL", "BIGSERIAL", "YEAR":
		return kindInteger
	case "DECIMAL", "NUMERIC", "FLOAT", "DOUBLE", "REAL", "FLOAT4", "FLOAT8", "MONEY", "SMALLMONEY":
		return kindDecimal
	}
	return kindOther
}

// normalize converts a scanned value into int64, float64, json.Number,
// string, bool, or nil. Decimals become json.Number so their exact text
// survives both dump formats.
func normalize(v any, kind valueKind) any {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		s := string(val)
		switch kind {
		case kindInteger:
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return n
			}
			if _, err := strconv.ParseUint(s, 10, 64); err == nil {
				return json.Number(s)
			}
		case kindDecimal:
			if _, err := strconv.ParseFloat(s, 64); err == nil {
				return json.Number(s)
			}
		}
		return s
	case time.Time:
		return formatTime(val)
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case float32:
		return float64(val)
	}
	return v
}

// formatTime renders t in the form MySQL and SQLite store datetimes in,
// keeping the offset only when it is not UTC.
func formatTime(t time.Time) string {
	layout := "2006-01-02 15:04:05.999999"
	if _, offset := t.Zone(); offset != 0 {
		layout += "-07:00"
	}
	return t.Format(layout)
}

// bindValue converts values decoded from a JSON artifact into types every
// driver accepts as a query argument.
func bindValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		return val.String()
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return nil
		}
		return string(b)
	}
	return v
}

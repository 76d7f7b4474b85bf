// Package backup defines the two backup artifact formats: a plain SQL dump
// and a JSON document of table snapshots.
package backup

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Format is the artifact encoding.
type Format string

const (
	FormatSQL  Format = "sql"
	FormatJSON Format = "json"
)

// ErrInvalidFormat is returned for artifacts that cannot be interpreted.
var ErrInvalidFormat = errors.New("invalid format")

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatSQL, "":
		return FormatSQL, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported format %q (want sql or json)", s)
}

// Extension returns the file extension for the format, without the dot.
func (f Format) Extension() string {
	return string(f)
}

var utf8BOM = []byte("\xef\xbb\xbf")

// DetectFormat inspects artifact content: JSON if the trimmed content starts
// with '{', SQL otherwise. The file name plays no part.
func DetectFormat(content []byte) Format {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(content, utf8BOM))
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSON
	}
	return FormatSQL
}

// FileName returns the artifact name for a backup taken at t.
func FileName(t time.Time, ext string) string {
	return fmt.Sprintf("backup_%s.%s", t.Format("2006-01-02_15-04-05"), ext)
}

package backup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// DocumentVersion is written to every JSON artifact.
const DocumentVersion = "1.0"

// Metadata describes when and by what a JSON artifact was produced.
type Metadata struct {
	CreatedAt   string `json:"created_at"`
	Version     string `json:"version"`
	Application string `json:"application"`
}

// TableSnapshot is one table's columns and rows at backup time.
type TableSnapshot struct {
	Structure []string         `json:"structure"`
	Data      []map[string]any `json:"data"`
}

// Document is the JSON artifact.
type Document struct {
	Metadata Metadata                 `json:"metadata"`
	Tables   map[string]TableSnapshot `json:"tables"`

	order []string
}

// NewDocument returns an empty document stamped with createdAt.
func NewDocument(application string, createdAt time.Time) *Document {
	return &Document{
		Metadata: Metadata{
			CreatedAt:   createdAt.Format(time.RFC3339),
			Version:     DocumentVersion,
			Application: application,
		},
		Tables: make(map[string]TableSnapshot),
	}
}

// AddTable stores a snapshot of table. Each row becomes an object keyed by
// column name.
func (d *Document) AddTable(table string, cols []string, rows [][]any) {
	data := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		obj := make(map[string]any, len(cols))
		for i, c := range cols {
			obj[c] = row[i]
		}
		data = append(data, obj)
	}
	if _, exists := d.Tables[table]; !exists {
		d.order = append(d.order, table)
	}
	d.Tables[table] = TableSnapshot{Structure: cols, Data: data}
}

// TableNames returns the tables in the order they were added or appear in
// the parsed document.
func (d *Document) TableNames() []string {
	return d.order
}

// Marshal encodes the document as indented JSON.
func (d *Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encoding backup document: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseDocument decodes a JSON artifact. Numbers are kept as json.Number so
// integers and decimals restore with their original text.
func ParseDocument(content []byte) (*Document, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if !gjson.ValidBytes(content) {
		return nil, fmt.Errorf("%w: backup is not valid JSON", ErrInvalidFormat)
	}
	tables := gjson.GetBytes(content, "tables")
	if !tables.Exists() || !tables.IsObject() {
		return nil, fmt.Errorf("%w: missing tables", ErrInvalidFormat)
	}

	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	tables.ForEach(func(key, _ gjson.Result) bool {
		doc.order = append(doc.order, key.String())
		return true
	})
	return &doc, nil
}

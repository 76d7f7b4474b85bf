package postgres

import (
	"net/url"
	"testing"

	"github.com/johndauphine/db-utility/internal/driver"
)

func TestBuildDSNEncodesCredentials(t *testing.T) {
	d := &Dialect{}
	dsn := d.BuildDSN("localhost", 5432, "ledger", "user@corp", "P@ss:w/rd?", map[string]any{
		"sslmode":     "disable",
		"search_path": "accounting",
	})

	u, err := url.Parse(dsn)
	if err != nil {
		t.Fatalf("url.Parse(%q) error: %v", dsn, err)
	}
	if u.User.Username() != "user@corp" {
		t.Errorf("username = %q", u.User.Username())
	}
	if pw, _ := u.User.Password(); pw != "P@ss:w/rd?" {
		t.Errorf("password = %q", pw)
	}
	if u.Path != "/ledger" || u.Host != "localhost:5432" {
		t.Errorf("host/path = %s %s", u.Host, u.Path)
	}
	if u.Query().Get("sslmode") != "disable" || u.Query().Get("search_path") != "accounting" {
		t.Errorf("query = %s", u.RawQuery)
	}
}

func TestBuildDSNDefaultsSSLMode(t *testing.T) {
	d := &Dialect{}
	u, err := url.Parse(d.BuildDSN("h", 5432, "db", "u", "p", nil))
	if err != nil {
		t.Fatal(err)
	}
	if u.Query().Get("sslmode") != "prefer" {
		t.Errorf("sslmode = %q, want prefer", u.Query().Get("sslmode"))
	}
}

func TestQuoting(t *testing.T) {
	d := &Dialect{}
	tests := []struct {
		in, want string
	}{
		{"plain", `'plain'`},
		{"O'Brien", `'O''Brien'`},
		{`C:\temp`, ` E'C:\\temp'`},
	}
	for _, tt := range tests {
		if got := d.QuoteString(tt.in); got != tt.want {
			t.Errorf("QuoteString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := d.QuoteIdentifier(`Voucher"Lines`); got != `"Voucher""Lines"` {
		t.Errorf("QuoteIdentifier() = %s", got)
	}
}

func TestBuildCreateTable(t *testing.T) {
	d := &Dialect{}
	ddl := driver.BuildCreateTable(d, "vouchers", []driver.ColumnDef{
		{Name: "id", Type: "bigserial"},
		{Name: "amount", Type: "numeric(12,2)", Default: "0"},
		{Name: "memo", Type: "text", Nullable: true},
	}, []string{"id"})

	want := "CREATE TABLE \"vouchers\" (\n" +
		"    \"id\" bigserial NOT NULL,\n" +
		"    \"amount\" numeric(12,2) NOT NULL DEFAULT 0,\n" +
		"    \"memo\" text NULL,\n" +
		"    PRIMARY KEY (\"id\")\n" +
		")"
	if ddl != want {
		t.Errorf("BuildCreateTable() =\n%s\nwant\n%s", ddl, want)
	}
}

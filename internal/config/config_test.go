package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// clearDBEnv blanks the Laravel variables so the host environment cannot leak
// into a test.
func clearDBEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_NAME", "DB_CONNECTION", "DB_HOST", "DB_PORT", "DB_DATABASE",
		"DB_USERNAME", "DB_PASSWORD", "DB_CHARSET", "DB_SCHEMA", "DB_SSLMODE",
		"DB_UTILITY_STORAGE", "DB_UTILITY_DATA_DIR", "SLACK_WEBHOOK_URL",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoadFromEnvFile(t *testing.T) {
	clearDBEnv(t)
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", `APP_NAME="Ledger"
DB_CONNECTION=mysql
DB_HOST=db.internal
DB_PORT=3307
DB_DATABASE=accounting
DB_USERNAME=forge
DB_PASSWORD="s3cr;et"
`)

	cfg, err := LoadWithOptions("", LoadOptions{EnvFile: envFile})
	if err != nil {
		t.Fatalf("LoadWithOptions() error: %v", err)
	}

	if cfg.App.Name != "Ledger" {
		t.Errorf("App.Name = %q, want Ledger", cfg.App.Name)
	}
	db := cfg.Database
	if db.Driver != "mysql" || db.Host != "db.internal" || db.Port != 3307 {
		t.Errorf("unexpected connection: %+v", db)
	}
	if db.Database != "accounting" || db.User != "forge" || db.Password != "s3cr;et" {
		t.Errorf("unexpected credentials: %+v", db)
	}
	if db.Charset != "utf8mb4" {
		t.Errorf("Charset = %q, want utf8mb4", db.Charset)
	}
}

func TestProcessEnvOverridesEnvFile(t *testing.T) {
	clearDBEnv(t)
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "DB_DATABASE=from_file\nDB_HOST=file-host\n")
	t.Setenv("DB_DATABASE", "from_process")

	cfg, err := LoadWithOptions("", LoadOptions{EnvFile: envFile})
	if err != nil {
		t.Fatalf("LoadWithOptions() error: %v", err)
	}
	if cfg.Database.Database != "from_process" {
		t.Errorf("Database = %q, want from_process", cfg.Database.Database)
	}
	if cfg.Database.Host != "file-host" {
		t.Errorf("Host = %q, want file-host", cfg.Database.Host)
	}
}

func TestEmptyProcessEnvKeepsEnvFile(t *testing.T) {
	clearDBEnv(t)
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "DB_DATABASE=from_file\nDB_HOST=file-host\n")
	t.Setenv("DB_HOST", "")

	cfg, err := LoadWithOptions("", LoadOptions{EnvFile: envFile})
	if err != nil {
		t.Fatalf("LoadWithOptions() error: %v", err)
	}
	if cfg.Database.Host != "file-host" || cfg.Database.Database != "from_file" {
		t.Errorf("empty process variables replaced env file values: %+v", cfg.Database)
	}
}

func TestYAMLTakesPrecedenceOverEnv(t *testing.T) {
	clearDBEnv(t)
	t.Setenv("DB_DATABASE", "env_db")
	t.Setenv("DB_PASSWORD", "env-pass")
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
database:
  driver: pgsql
  database: yaml_db
  password: ${DB_PASSWORD}
storage:
  dir: /var/lib/app/storage
`)

	cfg, err := LoadWithOptions(path, LoadOptions{SuppressWarnings: true})
	if err != nil {
		t.Fatalf("LoadWithOptions() error: %v", err)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Driver = %q, want postgres", cfg.Database.Driver)
	}
	if cfg.Database.Database != "yaml_db" {
		t.Errorf("Database = %q, want yaml_db", cfg.Database.Database)
	}
	if cfg.Database.Password != "env-pass" {
		t.Errorf("Password = %q, want expanded env-pass", cfg.Database.Password)
	}
	if cfg.Database.Port != 5432 || cfg.Database.Schema != "public" || cfg.Database.SSLMode != "prefer" {
		t.Errorf("postgres defaults not applied: %+v", cfg.Database)
	}
	if cfg.Storage.Dir != "/var/lib/app/storage" {
		t.Errorf("Storage.Dir = %q", cfg.Storage.Dir)
	}
}

func TestDefaults(t *testing.T) {
	clearDBEnv(t)
	cfg, err := LoadBytes([]byte("database:\n  database: app\n"))
	if err != nil {
		t.Fatalf("LoadBytes() error: %v", err)
	}
	if cfg.Database.Driver != "mysql" {
		t.Errorf("Driver = %q, want mysql", cfg.Database.Driver)
	}
	if cfg.Database.Host != "127.0.0.1" || cfg.Database.Port != 3306 {
		t.Errorf("Host/Port = %s:%d", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.App.Name != "Laravel" {
		t.Errorf("App.Name = %q", cfg.App.Name)
	}
	if cfg.Storage.Dir != filepath.Join("storage", "app") {
		t.Errorf("Storage.Dir = %q", cfg.Storage.Dir)
	}
	if !strings.HasSuffix(cfg.Storage.DataDir, ".db-utility") {
		t.Errorf("Storage.DataDir = %q", cfg.Storage.DataDir)
	}
}

func TestSQLiteSkipsHostDefaults(t *testing.T) {
	clearDBEnv(t)
	cfg, err := LoadBytes([]byte("database:\n  driver: sqlite3\n  database: /tmp/app.sqlite\n"))
	if err != nil {
		t.Fatalf("LoadBytes() error: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.Host != "" || cfg.Database.Port != 0 {
		t.Errorf("sqlite should not get host/port defaults: %+v", cfg.Database)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing database",
			yaml:    "database:\n  driver: mysql\n",
			wantErr: "database.database is required",
		},
		{
			name:    "unknown driver",
			yaml:    "database:\n  driver: oracle\n  database: x\n",
			wantErr: "database.driver must be one of",
		},
		{
			name:    "slack without webhook",
			yaml:    "database:\n  database: x\nslack:\n  enabled: true\n",
			wantErr: "slack.webhook_url is required",
		},
		{
			name:    "bad yaml",
			yaml:    "database: [",
			wantErr: "parsing config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearDBEnv(t)
			_, err := LoadBytes([]byte(tt.yaml))
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestInvalidPortInEnv(t *testing.T) {
	clearDBEnv(t)
	t.Setenv("DB_DATABASE", "app")
	t.Setenv("DB_PORT", "three-three-oh-six")

	_, err := LoadBytes(nil)
	if err == nil || !strings.Contains(err.Error(), "DB_PORT must be a number") {
		t.Fatalf("expected DB_PORT error, got %v", err)
	}
}

func TestSlackWebhookFromEnvEnablesNotifications(t *testing.T) {
	clearDBEnv(t)
	t.Setenv("DB_DATABASE", "app")
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.test/T000")

	cfg, err := LoadBytes(nil)
	if err != nil {
		t.Fatalf("LoadBytes() error: %v", err)
	}
	if !cfg.Slack.Enabled {
		t.Error("expected slack to be enabled from SLACK_WEBHOOK_URL")
	}
}

func TestCanonicalDriver(t *testing.T) {
	tests := map[string]string{
		"mysql":      "mysql",
		"MariaDB":    "mysql",
		"pgsql":      "postgres",
		"postgresql": "postgres",
		"sqlite3":    "sqlite",
		"sqlsrv":     "mssql",
		"sqlserver":  "mssql",
		"oracle":     "oracle",
	}
	for in, want := range tests {
		if got := CanonicalDriver(in); got != want {
			t.Errorf("CanonicalDriver(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDSNOptions(t *testing.T) {
	mssql := DatabaseConfig{Driver: "mssql", Encrypt: "disable", TrustServerCert: true}
	opts := mssql.DSNOptions()
	if opts["encrypt"] != false || opts["trustServerCertificate"] != true {
		t.Errorf("mssql options = %v", opts)
	}

	pg := DatabaseConfig{Driver: "postgres", SSLMode: "require", Schema: "ledger"}
	opts = pg.DSNOptions()
	if opts["sslmode"] != "require" || opts["search_path"] != "ledger" {
		t.Errorf("postgres options = %v", opts)
	}
}

func TestSanitized(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Password: "secret"},
		Slack:    SlackConfig{WebhookURL: "https://hooks.slack.test/T000"},
	}
	s := cfg.Sanitized()
	if s.Database.Password != "[REDACTED]" || s.Slack.WebhookURL != "[REDACTED]" {
		t.Errorf("Sanitized() did not redact: %+v", s)
	}
	if cfg.Database.Password != "secret" {
		t.Error("Sanitized() must not modify the original")
	}
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := expandTilde("~/backups"); got != filepath.Join(home, "backups") {
		t.Errorf("expandTilde(~/backups) = %q", got)
	}
	if got := expandTilde("/abs"); got != "/abs" {
		t.Errorf("expandTilde(/abs) = %q", got)
	}
}

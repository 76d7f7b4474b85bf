package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// expandTilde expands ~ or ~/ at the start of a path to the user's home directory
func expandTilde(path string) string {
	if path == "" {
		return path
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// Config holds all configuration for the utility
type Config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Slack    SlackConfig    `yaml:"slack"`
}

// AppConfig holds application metadata written into backups.
type AppConfig struct {
	Name string `yaml:"name"`
}

// DatabaseConfig holds the connection settings of the database the utility
// operates on.
type DatabaseConfig struct {
	Driver          string `yaml:"driver"` // mysql (default), postgres, sqlite, sqlserver
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	Database        string `yaml:"database"` // database name, or file path for sqlite
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	Schema          string `yaml:"schema"`            // PostgreSQL: default public
	Charset         string `yaml:"charset"`           // MySQL: default utf8mb4
	SSLMode         string `yaml:"ssl_mode"`          // PostgreSQL: disable, prefer, require (default: prefer)
	Encrypt         string `yaml:"encrypt"`           // MSSQL: true, false, disable (default: true)
	TrustServerCert bool   `yaml:"trust_server_cert"` // MSSQL
}

// StorageConfig controls where backups and scratch files live.
type StorageConfig struct {
	Dir     string `yaml:"dir"`      // root holding backups/ and temp/ (default: storage/app)
	DataDir string `yaml:"data_dir"` // run history (default: ~/.db-utility)
}

// SlackConfig holds Slack notification settings
type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url"`
	Channel    string `yaml:"channel"`
	Username   string `yaml:"username"`
	Enabled    bool   `yaml:"enabled"`
}

// LoadOptions controls configuration loading behavior.
type LoadOptions struct {
	// EnvFile is a dotenv file whose DB_* and APP_* variables fill fields
	// the YAML file leaves unset. Missing files are ignored.
	EnvFile string

	SuppressWarnings bool
}

// LoadWithOptions reads configuration with options. An empty path skips the
// YAML file and configures everything from the environment.
func LoadWithOptions(path string, opts LoadOptions) (*Config, error) {
	if !opts.SuppressWarnings {
		for _, f := range []string{path, opts.EnvFile} {
			if f != "" {
				if warning := checkFilePermissions(f); warning != "" {
					fmt.Fprint(os.Stderr, warning)
				}
			}
		}
	}

	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	env, err := readEnv(opts.EnvFile)
	if err != nil {
		return nil, err
	}

	return load(data, env)
}

// checkFilePermissions returns a warning when a file holding credentials is
// readable by other users, or "" when it is private or missing.
func checkFilePermissions(path string) string {
	detail, fix, insecure := insecurePermissions(path)
	if !insecure {
		return ""
	}
	return fmt.Sprintf("WARNING: %s %s and may expose DB_PASSWORD.\n         %s\n\n", path, detail, fix)
}

// LoadBytes reads configuration from YAML bytes and the process environment.
func LoadBytes(data []byte) (*Config, error) {
	env, err := readEnv("")
	if err != nil {
		return nil, err
	}
	return load(data, env)
}

func load(data []byte, env map[string]string) (*Config, error) {
	var cfg Config
	if len(data) > 0 {
		expanded := os.Expand(string(data), func(key string) string { return env[key] })
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := cfg.applyEnv(env); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// readEnv merges the dotenv file with the process environment. A non-empty
// process value wins; an empty one leaves the dotenv value in place.
func readEnv(envFile string) (map[string]string, error) {
	env := map[string]string{}
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			fileEnv, err := godotenv.Read(envFile)
			if err != nil {
				return nil, fmt.Errorf("parsing env file %s: %w", envFile, err)
			}
			for k, v := range fileEnv {
				env[k] = v
			}
		}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && v != "" {
			env[k] = v
		}
	}
	return env, nil
}

func (c *Config) applyEnv(env map[string]string) error {
	setString := func(dst *string, key string) {
		if *dst == "" {
			*dst = env[key]
		}
	}

	setString(&c.App.Name, "APP_NAME")
	setString(&c.Database.Driver, "DB_CONNECTION")
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.Database, "DB_DATABASE")
	setString(&c.Database.User, "DB_USERNAME")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Charset, "DB_CHARSET")
	setString(&c.Database.Schema, "DB_SCHEMA")
	setString(&c.Database.SSLMode, "DB_SSLMODE")
	setString(&c.Storage.Dir, "DB_UTILITY_STORAGE")
	setString(&c.Storage.DataDir, "DB_UTILITY_DATA_DIR")

	if c.Database.Port == 0 && env["DB_PORT"] != "" {
		port, err := strconv.Atoi(env["DB_PORT"])
		if err != nil {
			return fmt.Errorf("DB_PORT must be a number, got %q", env["DB_PORT"])
		}
		c.Database.Port = port
	}

	if c.Slack.WebhookURL == "" && env["SLACK_WEBHOOK_URL"] != "" {
		c.Slack.WebhookURL = env["SLACK_WEBHOOK_URL"]
		c.Slack.Enabled = true
	}
	return nil
}

// CanonicalDriver maps a driver name or alias (including Laravel's
// DB_CONNECTION values) to the canonical driver name. Unknown names are
// returned lowercased.
func CanonicalDriver(name string) string {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "mysql", "mariadb":
		return "mysql"
	case "postgres", "postgresql", "pgsql", "pg":
		return "postgres"
	case "sqlite", "sqlite3":
		return "sqlite"
	case "mssql", "sqlserver", "sqlsrv":
		return "mssql"
	default:
		return n
	}
}

func defaultPort(driver string) int {
	switch driver {
	case "mysql":
		return 3306
	case "postgres":
		return 5432
	case "mssql":
		return 1433
	default:
		return 0
	}
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "Laravel"
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	c.Database.Driver = CanonicalDriver(c.Database.Driver)

	if c.Database.Driver == "sqlite" {
		c.Database.Database = expandTilde(c.Database.Database)
	} else {
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = defaultPort(c.Database.Driver)
		}
	}

	switch c.Database.Driver {
	case "mysql":
		if c.Database.Charset == "" {
			c.Database.Charset = "utf8mb4"
		}
	case "postgres":
		if c.Database.Schema == "" {
			c.Database.Schema = "public"
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "prefer"
		}
	case "mssql":
		if c.Database.Encrypt == "" {
			c.Database.Encrypt = "true"
		}
	}

	if c.Storage.Dir == "" {
		c.Storage.Dir = filepath.Join("storage", "app")
	} else {
		c.Storage.Dir = expandTilde(c.Storage.Dir)
	}
	if c.Storage.DataDir == "" {
		home, _ := os.UserHomeDir()
		c.Storage.DataDir = filepath.Join(home, ".db-utility")
	} else {
		c.Storage.DataDir = expandTilde(c.Storage.DataDir)
	}
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite", "mssql":
	default:
		return fmt.Errorf("database.driver must be one of mysql, postgres, sqlite, sqlserver; got '%s'", c.Database.Driver)
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database.database is required (or set DB_DATABASE)")
	}
	if c.Database.Port < 0 || c.Database.Port > 65535 {
		return fmt.Errorf("database.port out of range: %d", c.Database.Port)
	}
	if c.Slack.Enabled && c.Slack.WebhookURL == "" {
		return fmt.Errorf("slack.webhook_url is required when slack.enabled is true")
	}
	return nil
}

// DSNOptions returns driver-specific connection options for the dialect's
// BuildDSN.
func (d DatabaseConfig) DSNOptions() map[string]any {
	opts := map[string]any{}
	switch d.Driver {
	case "mysql":
		opts["charset"] = d.Charset
	case "postgres":
		opts["sslmode"] = d.SSLMode
		opts["search_path"] = d.Schema
	case "mssql":
		opts["encrypt"] = d.Encrypt != "false" && d.Encrypt != "disable"
		opts["trustServerCertificate"] = d.TrustServerCert
	}
	return opts
}

// Sanitized returns a copy of the config with sensitive fields redacted
func (c *Config) Sanitized() *Config {
	sanitized := *c

	if sanitized.Database.Password != "" {
		sanitized.Database.Password = "[REDACTED]"
	}
	if sanitized.Slack.WebhookURL != "" {
		sanitized.Slack.WebhookURL = "[REDACTED]"
	}

	return &sanitized
}

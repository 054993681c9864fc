package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "config.yaml"

// Config holds all configuration for beacon-tracker.
// Configuration can come from a YAML file or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, client secrets) must only come from environment variables.
type Config struct {
	Log LogConfig `yaml:"log"`

	Datasource DatasourceConfig `yaml:"datasource"`

	MSSQL    MSSQLConfig    `yaml:"mssql"`
	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`

	// Archive is optional; an empty bucket disables uploads.
	Archive ArchiveConfig `yaml:"archive"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"BEACON_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"BEACON_LOG_FORMAT" env-default:"console"` // "console" or "json"
}

// DatasourceConfig selects which adapter serves the tracking data.
type DatasourceConfig struct {
	Type string `yaml:"type" env:"BEACON_DATASOURCE" env-default:"mssql"`
}

// MSSQLConfig holds the SQL Server connection for the T3 production database.
type MSSQLConfig struct {
	Host                   string `yaml:"host" env:"BEACON_MSSQL_HOST" env-default:"localhost"`
	Port                   int    `yaml:"port" env:"BEACON_MSSQL_PORT" env-default:"1433"`
	Database               string `yaml:"database" env:"BEACON_MSSQL_DATABASE" env-default:"T3Production"`
	User                   string `yaml:"user" env:"BEACON_MSSQL_USER" env-default:""`
	Password               string `yaml:"-" env:"BEACON_MSSQL_PASSWORD"` // Secret - not in YAML
	AuthMethod             string `yaml:"auth_method" env:"BEACON_MSSQL_AUTH_METHOD" env-default:"sql"`
	TenantID               string `yaml:"tenant_id" env:"BEACON_MSSQL_TENANT_ID" env-default:""`
	ClientID               string `yaml:"client_id" env:"BEACON_MSSQL_CLIENT_ID" env-default:""`
	ClientSecret           string `yaml:"-" env:"BEACON_MSSQL_CLIENT_SECRET"` // Secret - not in YAML
	Encrypt                bool   `yaml:"encrypt" env:"BEACON_MSSQL_ENCRYPT" env-default:"true"`
	TrustServerCertificate bool   `yaml:"trust_server_certificate" env:"BEACON_MSSQL_TRUST_SERVER_CERTIFICATE" env-default:"false"`
	ConnectionTimeout      int    `yaml:"connection_timeout" env:"BEACON_MSSQL_CONNECTION_TIMEOUT" env-default:"30"`
}

// PostgresConfig holds the connection to the PostgreSQL mirror.
type PostgresConfig struct {
	Host     string `yaml:"host" env:"BEACON_PG_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"BEACON_PG_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"BEACON_PG_USER" env-default:"beacon"`
	Password string `yaml:"-" env:"BEACON_PG_PASSWORD"` // Secret - not in YAML
	Database string `yaml:"database" env:"BEACON_PG_DATABASE" env-default:"t3production"`
	Schema   string `yaml:"schema" env:"BEACON_PG_SCHEMA" env-default:"public"`
	SSLMode  string `yaml:"ssl_mode" env:"BEACON_PG_SSLMODE" env-default:"require"`
}

// SQLiteConfig points at an offline snapshot file.
type SQLiteConfig struct {
	Path string `yaml:"path" env:"BEACON_SQLITE_PATH" env-default:"t3production.db"`
}

// ArchiveConfig configures the S3 report archive.
type ArchiveConfig struct {
	Bucket    string `yaml:"bucket" env:"BEACON_ARCHIVE_BUCKET" env-default:""`
	Region    string `yaml:"region" env:"BEACON_ARCHIVE_REGION" env-default:"us-west-2"`
	Endpoint  string `yaml:"endpoint" env:"BEACON_ARCHIVE_ENDPOINT" env-default:""`
	Prefix    string `yaml:"prefix" env:"BEACON_ARCHIVE_PREFIX" env-default:"reports"`
	PathStyle bool   `yaml:"path_style" env:"BEACON_ARCHIVE_PATH_STYLE" env-default:"false"`

	// Optional static credentials; the default AWS chain applies when empty.
	AccessKeyID     string `yaml:"-" env:"BEACON_ARCHIVE_ACCESS_KEY_ID"`     // Secret - not in YAML
	SecretAccessKey string `yaml:"-" env:"BEACON_ARCHIVE_SECRET_ACCESS_KEY"` // Secret - not in YAML
}

// Enabled reports whether a bucket is configured.
func (c ArchiveConfig) Enabled() bool {
	return c.Bucket != ""
}

// Load reads configuration from path with environment variable overrides.
// A missing file is not an error: the configuration then comes from the
// environment and defaults alone.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	cfg := &Config{}

	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	case errors.Is(statErr, os.ErrNotExist):
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to stat %s: %w", path, statErr)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the fields that cannot be defaulted.
func (c *Config) Validate() error {
	// Adapter availability is checked against the registry when the
	// datasource is opened.
	c.Datasource.Type = strings.ToLower(strings.TrimSpace(c.Datasource.Type))
	if c.Datasource.Type == "" {
		return fmt.Errorf("datasource type is required")
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format %q (must be console or json)", c.Log.Format)
	}

	return nil
}

// DatasourceParams returns the adapter config map for the selected datasource.
func (c *Config) DatasourceParams() map[string]any {
	switch c.Datasource.Type {
	case "postgres":
		return map[string]any{
			"host":     c.Postgres.Host,
			"port":     c.Postgres.Port,
			"user":     c.Postgres.User,
			"password": c.Postgres.Password,
			"database": c.Postgres.Database,
			"schema":   c.Postgres.Schema,
			"ssl_mode": c.Postgres.SSLMode,
		}
	case "sqlite":
		return map[string]any{
			"path": c.SQLite.Path,
		}
	default:
		params := map[string]any{
			"host":                     c.MSSQL.Host,
			"port":                     c.MSSQL.Port,
			"database":                 c.MSSQL.Database,
			"auth_method":              c.MSSQL.AuthMethod,
			"encrypt":                  c.MSSQL.Encrypt,
			"trust_server_certificate": c.MSSQL.TrustServerCertificate,
			"connection_timeout":       c.MSSQL.ConnectionTimeout,
		}
		if c.MSSQL.AuthMethod == "service_principal" {
			params["tenant_id"] = c.MSSQL.TenantID
			params["client_id"] = c.MSSQL.ClientID
			params["client_secret"] = c.MSSQL.ClientSecret
		} else {
			params["user"] = c.MSSQL.User
			params["password"] = c.MSSQL.Password
		}
		return params
	}
}

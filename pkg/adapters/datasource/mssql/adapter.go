package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/microsoft/go-mssqldb"         // SQL Server driver
	_ "github.com/microsoft/go-mssqldb/azuread" // Azure AD support

	"github.com/backcountry-access/beacon-tracker/pkg/adapters/datasource"
	"github.com/backcountry-access/beacon-tracker/pkg/config"
	"github.com/backcountry-access/beacon-tracker/pkg/logging"
)

// Adapter provides SQL Server connectivity for the tracking database.
// The connection is opened per adapter and released by Close; there is no
// shared pool.
type Adapter struct {
	config *Config
	db     *sql.DB
}

// NewAdapter creates a SQL Server adapter with the given config.
// Supports two authentication methods:
//  1. SQL Authentication (username/password)
//  2. Service Principal (Azure AD with client credentials)
func NewAdapter(ctx context.Context, cfg *Config) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	driver, connStr, err := connectionString(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, connStr)
	if err != nil {
		return nil, fmt.Errorf("open %s connection to %s: %w", cfg.AuthMethod, logging.SanitizeConnectionString(connStr), err)
	}

	// One user action runs one query pipeline; a single connection is enough.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connection test failed for %s: %w", logging.SanitizeConnectionString(connStr), err)
	}

	return &Adapter{
		config: cfg,
		db:     db,
	}, nil
}

// connectionQuery holds the query parameters shared by every auth method.
func connectionQuery(cfg *Config) url.Values {
	query := url.Values{}
	query.Add("database", cfg.Database)

	// The tracking database is only ever read.
	query.Add("ApplicationIntent", "ReadOnly")

	if cfg.Encrypt {
		query.Add("encrypt", "true")
	} else {
		query.Add("encrypt", "false")
	}

	if cfg.TrustServerCertificate {
		query.Add("TrustServerCertificate", "true")
	}

	if cfg.ConnectionTimeout > 0 {
		query.Add("connection timeout", fmt.Sprintf("%d", cfg.ConnectionTimeout))
	}

	if cfg.AppName != "" {
		query.Add("app name", cfg.AppName)
	}

	return query
}

// buildSQLAuthConnectionString builds a sqlserver:// URL with URL-escaped credentials.
func buildSQLAuthConnectionString(cfg *Config) string {
	host := config.ResolveHostForDocker(cfg.Host)

	return fmt.Sprintf("sqlserver://%s:%s@%s:%d?%s",
		url.QueryEscape(cfg.Username),
		url.QueryEscape(cfg.Password),
		host,
		cfg.Port,
		connectionQuery(cfg).Encode(),
	)
}

// connectionString picks the driver and DSN for the configured auth method.
func connectionString(cfg *Config) (driver, connStr string, err error) {
	switch cfg.AuthMethod {
	case AuthSQL:
		return "sqlserver", buildSQLAuthConnectionString(cfg), nil
	case AuthServicePrincipal:
		return "azuresql", buildServicePrincipalConnectionString(cfg), nil
	}
	return "", "", fmt.Errorf("unsupported auth method: %s", cfg.AuthMethod)
}

// buildServicePrincipalConnectionString uses the fedauth parameter understood
// by the azuresql driver.
func buildServicePrincipalConnectionString(cfg *Config) string {
	query := connectionQuery(cfg)
	query.Add("fedauth", "ActiveDirectoryServicePrincipal")
	query.Add("user id", cfg.ClientID)
	query.Add("password", cfg.ClientSecret)
	query.Add("tenant id", cfg.TenantID)

	return fmt.Sprintf("sqlserver://%s:%d?%s",
		config.ResolveHostForDocker(cfg.Host),
		cfg.Port,
		query.Encode(),
	)
}

// TestConnection verifies the database is reachable with valid credentials
// and that the session landed in the configured database.
func (a *Adapter) TestConnection(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	var currentDB string
	if err := a.db.QueryRowContext(ctx, "SELECT DB_NAME()").Scan(&currentDB); err != nil {
		return fmt.Errorf("test query failed: %w", err)
	}

	// SQL Server database names are case-insensitive under the default collation
	if !strings.EqualFold(currentDB, a.config.Database) {
		return fmt.Errorf("connected to wrong database: expected %q but connected to %q", a.config.Database, currentDB)
	}

	return nil
}

// Close releases the connection.
func (a *Adapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// DB returns the underlying *sql.DB for use by the record querier.
func (a *Adapter) DB() *sql.DB {
	return a.db
}

// Ensure Adapter implements ConnectionTester at compile time.
var _ datasource.ConnectionTester = (*Adapter)(nil)

package mssql

import (
	"fmt"
)

// Authentication methods.
const (
	AuthSQL              = "sql"
	AuthServicePrincipal = "service_principal"
)

// Connection defaults for the T3 production server.
const (
	DefaultPort              = 1433
	DefaultConnectionTimeout = 30 // seconds
	DefaultAppName           = "beacon-tracker"
)

// Config holds the connection settings for the tracking database.
type Config struct {
	Host     string
	Port     int
	Database string

	AuthMethod string // AuthSQL or AuthServicePrincipal

	// SQL authentication
	Username string
	Password string

	// Azure AD service principal
	TenantID     string
	ClientID     string
	ClientSecret string

	Encrypt                bool
	TrustServerCertificate bool
	ConnectionTimeout      int
	AppName                string
}

// FromMap builds a Config from the datasource params. Without an explicit
// auth_method, a client_id selects the service principal and a user name
// selects SQL authentication.
func FromMap(params map[string]any) (*Config, error) {
	cfg := &Config{
		Host:              stringParam(params, "host"),
		Port:              intParam(params, "port", DefaultPort),
		Database:          stringParam(params, "database"),
		AuthMethod:        stringParam(params, "auth_method"),
		Encrypt:           encryptParam(params, true),
		ConnectionTimeout: intParam(params, "connection_timeout", DefaultConnectionTimeout),
		AppName:           stringParam(params, "app_name"),
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("database is required")
	}
	if trust, ok := params["trust_server_certificate"].(bool); ok {
		cfg.TrustServerCertificate = trust
	}
	if cfg.AppName == "" {
		cfg.AppName = DefaultAppName
	}

	user := stringParam(params, "username")
	if user == "" {
		user = stringParam(params, "user")
	}

	if cfg.AuthMethod == "" {
		switch {
		case stringParam(params, "client_id") != "":
			cfg.AuthMethod = AuthServicePrincipal
		case user != "":
			cfg.AuthMethod = AuthSQL
		default:
			return nil, fmt.Errorf("could not auto-detect auth method; no credentials provided")
		}
	}

	switch cfg.AuthMethod {
	case AuthSQL:
		if _, ok := params["user"].(string); !ok && user == "" {
			return nil, fmt.Errorf("username is required for SQL authentication")
		}
		cfg.Username = user
		cfg.Password = stringParam(params, "password")
	case AuthServicePrincipal:
		for _, key := range []string{"tenant_id", "client_id", "client_secret"} {
			if _, ok := params[key].(string); !ok {
				return nil, fmt.Errorf("%s is required for service principal authentication", key)
			}
		}
		cfg.TenantID = stringParam(params, "tenant_id")
		cfg.ClientID = stringParam(params, "client_id")
		cfg.ClientSecret = stringParam(params, "client_secret")
	default:
		return nil, fmt.Errorf("invalid auth method: %s (must be %s or %s)", cfg.AuthMethod, AuthSQL, AuthServicePrincipal)
	}

	return cfg, nil
}

// Validate checks the fields the selected auth method needs.
func (c *Config) Validate() error {
	switch {
	case c.Host == "":
		return fmt.Errorf("host is required")
	case c.Database == "":
		return fmt.Errorf("database is required")
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	switch c.AuthMethod {
	case AuthSQL:
		if c.Username == "" {
			return fmt.Errorf("username is required for SQL authentication")
		}
	case AuthServicePrincipal:
		missing := ""
		switch {
		case c.TenantID == "":
			missing = "tenant_id"
		case c.ClientID == "":
			missing = "client_id"
		case c.ClientSecret == "":
			missing = "client_secret"
		}
		if missing != "" {
			return fmt.Errorf("%s is required for service principal", missing)
		}
	default:
		return fmt.Errorf("invalid auth method: %s", c.AuthMethod)
	}
	return nil
}

func stringParam(params map[string]any, key string) string {
	s, _ := params[key].(string)
	return s
}

// intParam accepts ints from YAML/env and float64 from JSON.
func intParam(params map[string]any, key string, def int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// encryptParam accepts a bool or the driver's "true"/"false"/"strict" text.
func encryptParam(params map[string]any, def bool) bool {
	switch v := params["encrypt"].(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "strict"
	}
	return def
}

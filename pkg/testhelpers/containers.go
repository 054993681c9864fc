package testhelpers

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// PostgresImage mirrors the production tracking database on PostgreSQL.
	PostgresImage = "postgres:16-alpine"

	// MSSQLImage is the SQL Server image used for adapter integration tests.
	MSSQLImage = "mcr.microsoft.com/mssql/server:2022-latest"

	testPassword = "Beacon_test_Pa55"
)

// TestDB describes a running database container.
type TestDB struct {
	Container testcontainers.Container
	Host      string
	Port      int
	User      string
	Password  string
	Database  string
}

// Params returns the datasource config map for the container.
func (db *TestDB) Params() map[string]any {
	return map[string]any{
		"host":     db.Host,
		"port":     db.Port,
		"user":     db.User,
		"password": db.Password,
		"database": db.Database,
	}
}

var (
	sharedPostgres     *TestDB
	sharedPostgresOnce sync.Once
	sharedPostgresErr  error

	sharedMSSQL     *TestDB
	sharedMSSQLOnce sync.Once
	sharedMSSQLErr  error
)

// GetPostgres returns a shared PostgreSQL container for integration tests.
// The container is created once and reused across all tests in the run.
func GetPostgres(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedPostgresOnce.Do(func() {
		sharedPostgres, sharedPostgresErr = setupPostgres()
	})

	if sharedPostgresErr != nil {
		t.Fatalf("Failed to setup postgres container: %v", sharedPostgresErr)
	}

	return sharedPostgres
}

// GetMSSQL returns a shared SQL Server container for integration tests.
func GetMSSQL(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedMSSQLOnce.Do(func() {
		sharedMSSQL, sharedMSSQLErr = setupMSSQL()
	})

	if sharedMSSQLErr != nil {
		t.Fatalf("Failed to setup mssql container: %v", sharedMSSQLErr)
	}

	return sharedMSSQL
}

func setupPostgres() (*TestDB, error) {
	req := testcontainers.ContainerRequest{
		Image:        PostgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "t3production",
			"POSTGRES_USER":     "beacon",
			"POSTGRES_PASSWORD": testPassword,
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	return startContainer(req, "5432", "beacon", "t3production")
}

func setupMSSQL() (*TestDB, error) {
	req := testcontainers.ContainerRequest{
		Image:        MSSQLImage,
		ExposedPorts: []string{"1433/tcp"},
		Env: map[string]string{
			"ACCEPT_EULA":       "Y",
			"MSSQL_SA_PASSWORD": testPassword,
		},
		WaitingFor: wait.ForLog("SQL Server is now ready for client connections").
			WithStartupTimeout(120 * time.Second),
	}

	return startContainer(req, "1433", "sa", "master")
}

func startContainer(req testcontainers.ContainerRequest, port, user, database string) (*TestDB, error) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	portNum, err := strconv.Atoi(mapped.Port())
	if err != nil {
		return nil, fmt.Errorf("invalid mapped port %q: %w", mapped.Port(), err)
	}

	return &TestDB{
		Container: container,
		Host:      host,
		Port:      portNum,
		User:      user,
		Password:  testPassword,
		Database:  database,
	}, nil
}

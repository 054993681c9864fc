package testhelpers

import (
	"database/sql"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	_ "modernc.org/sqlite" // SQLite driver
)

// trackingSchema is a reduced copy of the T3 production schema: the nine
// stage tables plus the two lookup tables.
var trackingSchema = []string{
	`CREATE TABLE assemblyKittingTable (
		transactionID INTEGER PRIMARY KEY, transactionTime DATETIME NOT NULL,
		serialNumberUnit TEXT NOT NULL, serialNumberDigital TEXT, serialNumberAnalog TEXT,
		employeeID INTEGER, workstationID TEXT
	)`,
	`CREATE TABLE DFTestingTable (
		transactionID INTEGER PRIMARY KEY, transactionTime DATETIME NOT NULL,
		serialNumber TEXT NOT NULL, employeeID INTEGER,
		VL TEXT, AL TEXT, VX TEXT, AX TEXT, VY TEXT, AY TEXT, VN TEXT,
		failureCode INTEGER, failureDescription TEXT
	)`,
	`CREATE TABLE calibrationTable (
		transactionID INTEGER PRIMARY KEY, transactionTime DATETIME NOT NULL,
		serialNumber TEXT NOT NULL, employeeID INTEGER, stepResults TEXT,
		failureCode INTEGER, failureDescription TEXT
	)`,
	`CREATE TABLE finalTestTable (
		transactionID INTEGER PRIMARY KEY, transactionTime DATETIME NOT NULL,
		serialNumber TEXT NOT NULL, employeeID INTEGER,
		LOERRORCodes TEXT, XERRORCodes TEXT, YERRORCodes TEXT,
		failureCode INTEGER, failureDescription TEXT
	)`,
	`CREATE TABLE closeCaseTable (
		transactionID INTEGER PRIMARY KEY, transactionTime DATETIME NOT NULL,
		serialNumber TEXT NOT NULL, employeeID INTEGER, workstationID TEXT
	)`,
	`CREATE TABLE finalInspectionTable (
		transactionID INTEGER PRIMARY KEY, transactionTime DATETIME NOT NULL,
		serialNumber TEXT NOT NULL, employeeID INTEGER, unitStatus TEXT
	)`,
	`CREATE TABLE packagingTable (
		transactionID INTEGER PRIMARY KEY, transactionTime DATETIME NOT NULL,
		serialNumber TEXT NOT NULL, employeeID INTEGER, scanTime DATETIME
	)`,
	`CREATE TABLE falloutTable (
		transactionID INTEGER PRIMARY KEY, transactionTime DATETIME NOT NULL,
		serialNumberUnit TEXT NOT NULL, employeeID INTEGER,
		failureCode INTEGER, failureDescription TEXT
	)`,
	`CREATE TABLE engineeringReworkTable (
		transactionID INTEGER PRIMARY KEY, transactionTime DATETIME NOT NULL,
		serialNumber TEXT NOT NULL, employeeID INTEGER, unitStatus TEXT
	)`,
	`CREATE TABLE employeeTable (employeeID INTEGER PRIMARY KEY, employeeName TEXT NOT NULL)`,
	`CREATE TABLE failureModeTable (failureCode INTEGER PRIMARY KEY, failureDescription TEXT NOT NULL)`,
}

// TrackingSnapshot is an SQLite file laid out like the tracking database.
type TrackingSnapshot struct {
	Path string
	DB   *sql.DB
}

// NewTrackingSnapshot creates an empty tracking database in a temp dir.
// The handle is closed when the test ends.
func NewTrackingSnapshot(t *testing.T) *TrackingSnapshot {
	t.Helper()

	path := filepath.Join(t.TempDir(), "t3production.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("Failed to open snapshot: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	for _, stmt := range trackingSchema {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("Failed to create snapshot schema: %v", err)
		}
	}

	return &TrackingSnapshot{Path: path, DB: db}
}

// Params returns the sqlite datasource config for the snapshot.
func (s *TrackingSnapshot) Params() map[string]any {
	return map[string]any{"path": s.Path}
}

// Insert adds one row to table.
func (s *TrackingSnapshot) Insert(t *testing.T, table string, row map[string]any) {
	t.Helper()

	columns := make([]string, 0, len(row))
	for col := range row {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	placeholders := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		placeholders[i] = "?"
		args[i] = row[col]
	}

	stmt := "INSERT INTO " + table + " (" + strings.Join(columns, ", ") + ") VALUES (" + strings.Join(placeholders, ", ") + ")"
	if _, err := s.DB.Exec(stmt, args...); err != nil {
		t.Fatalf("Failed to insert into %s: %v", table, err)
	}
}

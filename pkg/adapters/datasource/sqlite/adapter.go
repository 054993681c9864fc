package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/backcountry-access/beacon-tracker/pkg/adapters/datasource"
	"github.com/backcountry-access/beacon-tracker/pkg/logging"
	"github.com/backcountry-access/beacon-tracker/pkg/models"
)

const memoryPath = ":memory:"

// Adapter reads an SQLite snapshot of the tracking database. It implements
// both datasource.ConnectionTester and datasource.RecordQuerier.
type Adapter struct {
	config *Config
	db     *sql.DB
}

// NewAdapter opens the snapshot read-only. A missing file is an error, never
// an empty new database. A single connection keeps ":memory:" databases
// consistent across calls.
func NewAdapter(ctx context.Context, cfg *Config) (*Adapter, error) {
	dsn, err := readOnlyDSN(cfg.Path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", cfg.Path, err)
	}

	return &Adapter{config: cfg, db: db}, nil
}

// TestConnection verifies the file is a readable SQLite database.
func (a *Adapter) TestConnection(ctx context.Context) error {
	var count int
	if err := a.db.QueryRowContext(ctx, "SELECT count(*) FROM sqlite_master").Scan(&count); err != nil {
		return fmt.Errorf("read sqlite catalog: %w", err)
	}
	return nil
}

// SelectEqual runs SELECT * FROM table WHERE column = ?.
func (a *Adapter) SelectEqual(ctx context.Context, table, column string, value any) (*datasource.RowSet, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = ?", quoteIdentifier(table), quoteIdentifier(column))

	rows, err := a.db.QueryContext(ctx, query, value)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query %q: %w", logging.SanitizeQuery(query), err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}

	result := &datasource.RowSet{Columns: columns, Rows: make([][]any, 0)}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		for i := range values {
			values[i] = normalizeValue(values[i], columnTypes[i].DatabaseTypeName())
		}
		result.Rows = append(result.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// TableColumns returns the declared columns of table in cid order. Unknown
// tables yield an empty list.
func (a *Adapter) TableColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?) ORDER BY cid", table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		columns = append(columns, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column rows: %w", err)
	}

	return columns, nil
}

// Close releases the database handle.
func (a *Adapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// readOnlyDSN builds a file: URI with mode=ro. ":memory:" is passed through.
func readOnlyDSN(path string) (string, error) {
	if path == memoryPath {
		return path, nil
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("sqlite snapshot %s: %w", path, err)
	}
	// Relative paths would be read as the URI authority.
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve sqlite snapshot %s: %w", path, err)
	}
	abs = filepath.ToSlash(abs)
	if !strings.HasPrefix(abs, "/") {
		abs = "/" + abs
	}
	u := url.URL{Scheme: "file", Path: abs, RawQuery: "mode=ro"}
	return u.String(), nil
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// normalizeValue turns text stored in temporal columns into time.Time and
// any other []byte into a string.
func normalizeValue(val any, declType string) any {
	switch v := val.(type) {
	case string:
		if isTemporalType(declType) {
			if ts, err := models.ParseTimestamp(v); err == nil {
				return ts
			}
		}
	case []byte:
		if isTemporalType(declType) {
			if ts, err := models.ParseTimestamp(v); err == nil {
				return ts
			}
		}
		if !strings.EqualFold(declType, "BLOB") {
			return string(v)
		}
	}
	return val
}

func isTemporalType(declType string) bool {
	switch strings.ToUpper(declType) {
	case "DATE", "DATETIME", "TIMESTAMP", "DATETIME2":
		return true
	}
	return false
}

var (
	_ datasource.ConnectionTester = (*Adapter)(nil)
	_ datasource.RecordQuerier    = (*Adapter)(nil)
)

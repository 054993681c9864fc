package datasource

import "context"

// ConnectionTester tests database connectivity.
// Each implementation owns its connection and must be closed when done.
type ConnectionTester interface {
	// TestConnection verifies the database is reachable with valid credentials.
	// Returns nil if connection is healthy, error otherwise.
	TestConnection(ctx context.Context) error

	// Close releases the database connection.
	Close() error
}

// RecordQuerier reads rows from the manufacturing tracking database.
// Each implementation owns its connection and must be closed when done.
type RecordQuerier interface {
	// SelectEqual returns every row of table whose column equals value.
	// The value is always bound as a parameter. Column names in the result
	// are in the order the database returned them.
	SelectEqual(ctx context.Context, table, column string, value any) (*RowSet, error)

	// TableColumns returns the table's column names in ordinal order,
	// read from the database catalog. An unknown table yields no columns.
	TableColumns(ctx context.Context, table string) ([]string, error)

	// Close releases the database connection.
	Close() error
}

// RowSet holds positional rows and the column names that describe them.
type RowSet struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Len returns the number of rows.
func (r *RowSet) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

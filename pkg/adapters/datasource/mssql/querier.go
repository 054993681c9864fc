package mssql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/backcountry-access/beacon-tracker/pkg/adapters/datasource"
	"github.com/backcountry-access/beacon-tracker/pkg/logging"
)

// RecordQuerier implements datasource.RecordQuerier for SQL Server.
type RecordQuerier struct {
	adapter *Adapter
	db      *sql.DB
}

// NewRecordQuerier connects to SQL Server and returns a record querier that
// owns the connection.
func NewRecordQuerier(ctx context.Context, cfg *Config) (*RecordQuerier, error) {
	adapter, err := NewAdapter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &RecordQuerier{
		adapter: adapter,
		db:      adapter.DB(),
	}, nil
}

// SelectEqual runs SELECT * FROM table WHERE column = @p1.
func (q *RecordQuerier) SelectEqual(ctx context.Context, table, column string, value any) (*datasource.RowSet, error) {
	schema, name := parseSchemaTable(table)
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = @p1",
		buildFullyQualifiedName(schema, name), quoteName(column))

	rows, err := q.db.QueryContext(ctx, query, sql.Named("p1", value))
	if err != nil {
		return nil, fmt.Errorf("failed to execute query %q: %w", logging.SanitizeQuery(query), err)
	}
	defer rows.Close()

	columnNames, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}

	result := &datasource.RowSet{Columns: columnNames, Rows: make([][]any, 0)}
	for rows.Next() {
		values := make([]any, len(columnNames))
		valuePtrs := make([]any, len(columnNames))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
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

// TableColumns reads the table's columns from INFORMATION_SCHEMA in ordinal order.
func (q *RecordQuerier) TableColumns(ctx context.Context, table string) ([]string, error) {
	schema, name := parseSchemaTable(table)

	rows, err := q.db.QueryContext(ctx, `
	SELECT COLUMN_NAME
	FROM INFORMATION_SCHEMA.COLUMNS
	WHERE TABLE_SCHEMA = @schema AND TABLE_NAME = @table
	ORDER BY ORDINAL_POSITION`,
		sql.Named("schema", schema),
		sql.Named("table", name),
	)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column rows: %w", err)
	}

	return columns, nil
}

// Close releases the connection.
func (q *RecordQuerier) Close() error {
	return q.adapter.Close()
}

// Ensure RecordQuerier implements datasource.RecordQuerier at compile time.
var _ datasource.RecordQuerier = (*RecordQuerier)(nil)

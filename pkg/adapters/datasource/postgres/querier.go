package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/backcountry-access/beacon-tracker/pkg/adapters/datasource"
	"github.com/backcountry-access/beacon-tracker/pkg/logging"
)

// RecordQuerier implements datasource.RecordQuerier for the PostgreSQL mirror.
type RecordQuerier struct {
	adapter *Adapter
	pool    *pgxpool.Pool
	schema  string
}

// NewRecordQuerier connects to PostgreSQL and returns a querier that owns the pool.
func NewRecordQuerier(ctx context.Context, cfg *Config) (*RecordQuerier, error) {
	adapter, err := NewAdapter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	schema := cfg.Schema
	if schema == "" {
		schema = DefaultSchema
	}

	return &RecordQuerier{
		adapter: adapter,
		pool:    adapter.pool,
		schema:  schema,
	}, nil
}

// SelectEqual runs SELECT * FROM table WHERE column = $1.
// Identifiers are quoted so the mixed-case table names of the source survive.
func (q *RecordQuerier) SelectEqual(ctx context.Context, table, column string, value any) (*datasource.RowSet, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = $1",
		pgx.Identifier{q.schema, table}.Sanitize(),
		pgx.Identifier{column}.Sanitize())

	rows, err := q.pool.Query(ctx, query, value)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query %q: %w", logging.SanitizeQuery(query), err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = fd.Name
	}

	result := &datasource.RowSet{Columns: columns, Rows: make([][]any, 0)}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}

		for i := range values {
			values[i] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows of %q: %w", logging.SanitizeQuery(query), err)
	}

	return result, nil
}

// TableColumns reads the table's columns from information_schema in ordinal order.
func (q *RecordQuerier) TableColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := q.pool.Query(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`, q.schema, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}

	columns, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect column rows: %w", err)
	}

	return columns, nil
}

// Close releases the pool.
func (q *RecordQuerier) Close() error {
	return q.adapter.Close()
}

// normalizeValue maps pgx wire types that have no plain Go analogue.
func normalizeValue(val any) any {
	switch v := val.(type) {
	case pgtype.Numeric:
		if !v.Valid {
			return nil
		}
		f, err := v.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case [16]byte:
		return uuid.UUID(v).String()
	}
	return val
}

// Ensure RecordQuerier implements datasource.RecordQuerier at compile time.
var _ datasource.RecordQuerier = (*RecordQuerier)(nil)

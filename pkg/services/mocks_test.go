package services

import (
	"context"
	"errors"

	"github.com/backcountry-access/beacon-tracker/pkg/adapters/datasource"
)

// mockQuerier serves canned tables keyed by name.
type mockQuerier struct {
	catalogs   map[string][]string
	results    map[string]*datasource.RowSet
	catalogErr error
	selectErr  map[string]error
	closed     bool

	// Capture inputs for verification
	selects []selectCall
}

type selectCall struct {
	table  string
	column string
	value  any
}

func (m *mockQuerier) SelectEqual(ctx context.Context, table, column string, value any) (*datasource.RowSet, error) {
	m.selects = append(m.selects, selectCall{table: table, column: column, value: value})
	if err := m.selectErr[table]; err != nil {
		return nil, err
	}
	if rs, ok := m.results[table]; ok {
		return rs, nil
	}
	return &datasource.RowSet{Columns: m.catalogs[table]}, nil
}

func (m *mockQuerier) TableColumns(ctx context.Context, table string) ([]string, error) {
	if m.catalogErr != nil {
		return nil, m.catalogErr
	}
	if cols, ok := m.catalogs[table]; ok {
		return cols, nil
	}
	return []string{"transactionID", "transactionTime", "serialNumber"}, nil
}

func (m *mockQuerier) Close() error {
	m.closed = true
	return nil
}

// mockAdapterFactory hands out the same querier on every call.
type mockAdapterFactory struct {
	querier    *mockQuerier
	querierErr error
	tester     *mockTester
	opened     int

	// transientFailures fail with a retryable error before succeeding.
	transientFailures int
}

func (f *mockAdapterFactory) NewConnectionTester(ctx context.Context, dsType string, config map[string]any) (datasource.ConnectionTester, error) {
	if f.tester == nil {
		return nil, errors.New("no tester")
	}
	return f.tester, nil
}

func (f *mockAdapterFactory) NewRecordQuerier(ctx context.Context, dsType string, config map[string]any) (datasource.RecordQuerier, error) {
	if f.querierErr != nil {
		return nil, f.querierErr
	}
	if f.transientFailures > 0 {
		f.transientFailures--
		return nil, errors.New("dial tcp 10.0.0.5:1433: connect: connection refused")
	}
	f.opened++
	return f.querier, nil
}

func (f *mockAdapterFactory) ListTypes() []datasource.DatasourceAdapterInfo {
	return nil
}

type mockTester struct {
	err    error
	closed bool
}

func (m *mockTester) TestConnection(ctx context.Context) error { return m.err }

func (m *mockTester) Close() error {
	m.closed = true
	return nil
}

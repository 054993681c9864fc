package datasource

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockConnectionTester for testing factory
type mockConnectionTester struct {
	config map[string]any
}

func (m *mockConnectionTester) TestConnection(ctx context.Context) error {
	return nil
}

func (m *mockConnectionTester) Close() error {
	return nil
}

// mockRecordQuerier for testing factory
type mockRecordQuerier struct {
	config map[string]any
}

func (m *mockRecordQuerier) SelectEqual(ctx context.Context, table, column string, value any) (*RowSet, error) {
	return &RowSet{Columns: []string{column}, Rows: [][]any{{value}}}, nil
}

func (m *mockRecordQuerier) TableColumns(ctx context.Context, table string) ([]string, error) {
	return []string{"serialNumber"}, nil
}

func (m *mockRecordQuerier) Close() error {
	return nil
}

func registerMockAdapter(t *testing.T, dsType string) {
	t.Helper()

	Register(DatasourceAdapterRegistration{
		Info: DatasourceAdapterInfo{
			Type:        dsType,
			DisplayName: "Mock",
			Description: "Test adapter",
		},
		Factory: func(ctx context.Context, config map[string]any) (ConnectionTester, error) {
			return &mockConnectionTester{config: config}, nil
		},
		RecordQuerierFactory: func(ctx context.Context, config map[string]any) (RecordQuerier, error) {
			if _, ok := config["fail"]; ok {
				return nil, errors.New("refused")
			}
			return &mockRecordQuerier{config: config}, nil
		},
	})

	t.Cleanup(func() {
		registryMu.Lock()
		delete(registry, dsType)
		registryMu.Unlock()
	})
}

func TestFactory_NewRecordQuerier_PassesConfig(t *testing.T) {
	registerMockAdapter(t, "mock_querier")
	factory := NewDatasourceAdapterFactory()

	config := map[string]any{"path": "t3.db"}
	querier, err := factory.NewRecordQuerier(context.Background(), "mock_querier", config)
	require.NoError(t, err)
	defer querier.Close()

	mock, ok := querier.(*mockRecordQuerier)
	require.True(t, ok, "expected *mockRecordQuerier")
	assert.Equal(t, "t3.db", mock.config["path"])

	rows, err := querier.SelectEqual(context.Background(), "finalTestTable", "serialNumber", "A1")
	require.NoError(t, err)
	assert.Equal(t, 1, rows.Len())
}

func TestFactory_NewRecordQuerier_FactoryError(t *testing.T) {
	registerMockAdapter(t, "mock_failing")
	factory := NewDatasourceAdapterFactory()

	_, err := factory.NewRecordQuerier(context.Background(), "mock_failing", map[string]any{"fail": true})
	assert.EqualError(t, err, "refused")
}

func TestFactory_NewConnectionTester(t *testing.T) {
	registerMockAdapter(t, "mock_tester")
	factory := NewDatasourceAdapterFactory()

	tester, err := factory.NewConnectionTester(context.Background(), "mock_tester", nil)
	require.NoError(t, err)
	assert.NoError(t, tester.TestConnection(context.Background()))
}

func TestFactory_UnsupportedType(t *testing.T) {
	factory := NewDatasourceAdapterFactory()

	_, err := factory.NewConnectionTester(context.Background(), "oracle", nil)
	assert.ErrorContains(t, err, "unsupported datasource type: oracle")

	_, err = factory.NewRecordQuerier(context.Background(), "oracle", nil)
	assert.ErrorContains(t, err, "record queries not supported for type: oracle")
}

func TestRegisteredAdapters_Sorted(t *testing.T) {
	registerMockAdapter(t, "zz_mock")
	registerMockAdapter(t, "aa_mock")

	types := RegisteredAdapters()
	require.GreaterOrEqual(t, len(types), 2)
	for i := 1; i < len(types); i++ {
		assert.LessOrEqual(t, types[i-1].Type, types[i].Type)
	}
	assert.True(t, IsRegistered("aa_mock"))
	assert.False(t, IsRegistered("oracle"))
}

func TestRowSet_LenNil(t *testing.T) {
	var rs *RowSet
	assert.Equal(t, 0, rs.Len())
}

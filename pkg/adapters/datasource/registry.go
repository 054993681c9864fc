package datasource

import (
	"context"
	"sort"
	"sync"
)

// DatasourceAdapterInfo describes a registered adapter.
type DatasourceAdapterInfo struct {
	Type        string `json:"type"`         // "mssql", "postgres", "sqlite"
	DisplayName string `json:"display_name"` // "Microsoft SQL Server"
	Description string `json:"description"`
}

// DatasourceAdapterRegistration contains info + factories for creating adapters.
type DatasourceAdapterRegistration struct {
	Info                 DatasourceAdapterInfo
	Factory              func(ctx context.Context, config map[string]any) (ConnectionTester, error)
	RecordQuerierFactory func(ctx context.Context, config map[string]any) (RecordQuerier, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]DatasourceAdapterRegistration)
)

// Register is called by each adapter's init() function.
func Register(reg DatasourceAdapterRegistration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Type] = reg
}

// RegisteredAdapters returns info for all registered adapters, sorted by type.
func RegisteredAdapters() []DatasourceAdapterInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]DatasourceAdapterInfo, 0, len(registry))
	for _, reg := range registry {
		result = append(result, reg.Info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Type < result[j].Type })
	return result
}

// GetFactory returns the connection tester factory for a datasource type.
// Returns nil if type is not registered.
func GetFactory(dsType string) func(ctx context.Context, config map[string]any) (ConnectionTester, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if reg, ok := registry[dsType]; ok {
		return reg.Factory
	}
	return nil
}

// GetRecordQuerierFactory returns the record querier factory for a datasource type.
// Returns nil if type is not registered.
func GetRecordQuerierFactory(dsType string) func(ctx context.Context, config map[string]any) (RecordQuerier, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if reg, ok := registry[dsType]; ok {
		return reg.RecordQuerierFactory
	}
	return nil
}

// IsRegistered checks if an adapter type is available.
func IsRegistered(dsType string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[dsType]
	return ok
}

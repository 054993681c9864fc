package postgres

import (
	"context"

	"github.com/backcountry-access/beacon-tracker/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.DatasourceAdapterRegistration{
		Info: datasource.DatasourceAdapterInfo{
			Type:        "postgres",
			DisplayName: "PostgreSQL",
			Description: "Read-only PostgreSQL mirror of the tracking database",
		},
		Factory: func(ctx context.Context, config map[string]any) (datasource.ConnectionTester, error) {
			cfg, err := FromMap(config)
			if err != nil {
				return nil, err
			}
			return NewAdapter(ctx, cfg)
		},
		RecordQuerierFactory: func(ctx context.Context, config map[string]any) (datasource.RecordQuerier, error) {
			cfg, err := FromMap(config)
			if err != nil {
				return nil, err
			}
			return NewRecordQuerier(ctx, cfg)
		},
	})
}

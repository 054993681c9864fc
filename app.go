package main

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/backcountry-access/beacon-tracker/pkg/adapters/datasource"
	"github.com/backcountry-access/beacon-tracker/pkg/config"
	"github.com/backcountry-access/beacon-tracker/pkg/report/archive"
	"github.com/backcountry-access/beacon-tracker/pkg/services"
)

// app wires the services for one command invocation.
type app struct {
	cfg     *config.Config
	factory datasource.DatasourceAdapterFactory
	adapter datasource.DatasourceAdapterInfo
	tracker services.TrackerService
	lookups services.LookupService
	logger  *zap.Logger
}

func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	factory := datasource.NewDatasourceAdapterFactory()
	info, err := adapterInfo(factory, cfg.Datasource.Type)
	if err != nil {
		return nil, err
	}

	params := cfg.DatasourceParams()
	return &app{
		cfg:     cfg,
		factory: factory,
		adapter: info,
		tracker: services.NewTrackerService(factory, cfg.Datasource.Type, params, logger),
		lookups: services.NewLookupService(factory, cfg.Datasource.Type, params, logger),
		logger:  logger,
	}, nil
}

// adapterInfo finds dsType among the adapters compiled into the binary.
func adapterInfo(factory datasource.DatasourceAdapterFactory, dsType string) (datasource.DatasourceAdapterInfo, error) {
	types := factory.ListTypes()
	for _, info := range types {
		if info.Type == dsType {
			return info, nil
		}
	}

	available := make([]string, 0, len(types))
	for _, info := range types {
		available = append(available, fmt.Sprintf("  %s (%s): %s", info.Type, info.DisplayName, info.Description))
	}
	return datasource.DatasourceAdapterInfo{}, fmt.Errorf("unsupported datasource type %q; available types:\n%s",
		dsType, strings.Join(available, "\n"))
}

// archiveStore opens the report archive. bucket overrides the configured
// bucket when non-empty.
func (a *app) archiveStore(ctx context.Context, bucket string) (*archive.Store, error) {
	ac := a.cfg.Archive
	if bucket != "" {
		ac.Bucket = bucket
	}
	if !ac.Enabled() {
		return nil, fmt.Errorf("archive not configured: set archive.bucket or BEACON_ARCHIVE_BUCKET")
	}
	return archive.New(ctx, archive.Config{
		Bucket:          ac.Bucket,
		Region:          ac.Region,
		Endpoint:        ac.Endpoint,
		Prefix:          ac.Prefix,
		PathStyle:       ac.PathStyle,
		AccessKeyID:     ac.AccessKeyID,
		SecretAccessKey: ac.SecretAccessKey,
	}, a.logger)
}

package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/backcountry-access/beacon-tracker/pkg/adapters/datasource"
	"github.com/backcountry-access/beacon-tracker/pkg/apperrors"
	"github.com/backcountry-access/beacon-tracker/pkg/logging"
	"github.com/backcountry-access/beacon-tracker/pkg/models"
	"github.com/backcountry-access/beacon-tracker/pkg/retry"
)

// TrackerService builds the chronological manufacturing history of a unit.
type TrackerService interface {
	// BuildReport fetches every stage table for serialNumber and returns the
	// records sorted by transactionTime. Zero matches yield an empty report.
	BuildReport(ctx context.Context, serialNumber string) (*models.Report, error)

	// TestConnection verifies the configured datasource is reachable.
	TestConnection(ctx context.Context) error
}

type trackerService struct {
	adapterFactory datasource.DatasourceAdapterFactory
	dsType         string
	dsConfig       map[string]any
	retryCfg       *retry.Config
	fetcher        *Fetcher
	logger         *zap.Logger
}

// NewTrackerService creates a tracker service reading from the given datasource.
func NewTrackerService(
	adapterFactory datasource.DatasourceAdapterFactory,
	dsType string,
	dsConfig map[string]any,
	logger *zap.Logger,
) TrackerService {
	return &trackerService{
		adapterFactory: adapterFactory,
		dsType:         dsType,
		dsConfig:       dsConfig,
		retryCfg:       retry.DefaultConfig(),
		fetcher:        NewFetcher(logger),
		logger:         logger.Named("tracker"),
	}
}

var _ TrackerService = (*trackerService)(nil)

func (s *trackerService) BuildReport(ctx context.Context, serialNumber string) (*models.Report, error) {
	serial := models.NormalizeSerialNumber(serialNumber)
	if serial == "" {
		return nil, fmt.Errorf("%w: empty serial number", apperrors.ErrInvalidSerialNumber)
	}

	logger := s.logger.With(
		zap.String("query_id", uuid.NewString()),
		zap.String("serial_number", serial),
	)

	querier, err := s.openQuerier(ctx)
	if err != nil {
		logger.Error("Failed to open datasource", zap.String("type", s.dsType), logging.Error(err))
		return nil, &apperrors.DataAccessError{Op: "connect " + s.dsType, Err: err}
	}
	defer func() {
		if err := querier.Close(); err != nil {
			logger.Warn("Failed to close datasource", logging.Error(err))
		}
	}()

	var records []models.StageRecord
	for _, table := range models.StageTables {
		rows, err := s.fetcher.Fetch(ctx, querier, table, serial)
		if err != nil {
			logger.Error("Stage table fetch failed", zap.String("table", string(table)), logging.Error(err))
			return nil, err
		}

		tableRecords, err := s.fetcher.Normalize(rows)
		if err != nil {
			logger.Error("Stage table rows do not match catalog", zap.String("table", string(table)), zap.Error(err))
			return nil, err
		}
		records = append(records, tableRecords...)
	}

	if err := models.SortChronologically(records); err != nil {
		return nil, err
	}

	logger.Info("Built beacon report", zap.Int("records", len(records)))
	return models.NewReport(serial, records), nil
}

func (s *trackerService) TestConnection(ctx context.Context) error {
	tester, err := s.adapterFactory.NewConnectionTester(ctx, s.dsType, s.dsConfig)
	if err != nil {
		return &apperrors.DataAccessError{Op: "connect " + s.dsType, Err: err}
	}
	defer tester.Close()

	if err := tester.TestConnection(ctx); err != nil {
		return &apperrors.DataAccessError{Op: "test connection", Err: err}
	}

	s.logger.Info("Datasource connection OK", zap.String("type", s.dsType))
	return nil
}

// openQuerier connects to the datasource, retrying transient failures.
func (s *trackerService) openQuerier(ctx context.Context) (datasource.RecordQuerier, error) {
	return retry.DoWithResult(ctx, s.retryCfg, func() (datasource.RecordQuerier, error) {
		return s.adapterFactory.NewRecordQuerier(ctx, s.dsType, s.dsConfig)
	})
}

package services

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/backcountry-access/beacon-tracker/pkg/adapters/datasource"
	"github.com/backcountry-access/beacon-tracker/pkg/apperrors"
	"github.com/backcountry-access/beacon-tracker/pkg/jsonutil"
	"github.com/backcountry-access/beacon-tracker/pkg/logging"
	"github.com/backcountry-access/beacon-tracker/pkg/models"
	"github.com/backcountry-access/beacon-tracker/pkg/retry"
)

// LookupService resolves reference codes stored on stage records.
type LookupService interface {
	// EmployeeName returns employeeTable.employeeName for employeeID.
	EmployeeName(ctx context.Context, employeeID any) (string, error)

	// FailureDescription returns failureModeTable.failureDescription for failureCode.
	FailureDescription(ctx context.Context, failureCode any) (string, error)
}

type lookupService struct {
	adapterFactory datasource.DatasourceAdapterFactory
	dsType         string
	dsConfig       map[string]any
	retryCfg       *retry.Config
	logger         *zap.Logger
}

// NewLookupService creates a lookup service. Each lookup opens and closes its
// own connection.
func NewLookupService(
	adapterFactory datasource.DatasourceAdapterFactory,
	dsType string,
	dsConfig map[string]any,
	logger *zap.Logger,
) LookupService {
	return &lookupService{
		adapterFactory: adapterFactory,
		dsType:         dsType,
		dsConfig:       dsConfig,
		retryCfg:       retry.DefaultConfig(),
		logger:         logger.Named("lookup"),
	}
}

var _ LookupService = (*lookupService)(nil)

func (s *lookupService) EmployeeName(ctx context.Context, employeeID any) (string, error) {
	return s.lookup(ctx, models.EmployeeTable, models.FieldEmployeeID, employeeID, models.FieldEmployeeName)
}

func (s *lookupService) FailureDescription(ctx context.Context, failureCode any) (string, error) {
	return s.lookup(ctx, models.FailureModeTable, models.FieldFailureCode, failureCode, models.FieldFailureDescription)
}

// lookup returns column want of the first row where key equals value.
func (s *lookupService) lookup(ctx context.Context, table, key string, value any, want string) (string, error) {
	querier, err := s.openQuerier(ctx)
	if err != nil {
		return "", &apperrors.DataAccessError{Op: "connect " + s.dsType, Err: err}
	}
	defer querier.Close()

	result, err := querier.SelectEqual(ctx, table, key, value)
	if err != nil {
		s.logger.Error("Lookup failed", zap.String("table", table), logging.Error(err))
		return "", &apperrors.DataAccessError{Table: table, Op: "select", Err: err}
	}

	if result.Len() == 0 {
		return "", &apperrors.NotFoundError{Table: table, Key: key, Value: fmt.Sprint(value)}
	}

	idx := slices.Index(result.Columns, want)
	if idx < 0 {
		return "", &apperrors.SchemaMismatchError{Table: table, Column: want, Reason: "column missing from row"}
	}

	name := jsonutil.FlexibleStringValue(result.Rows[0][idx])
	s.logger.Debug("Resolved lookup",
		zap.String("table", table),
		zap.String("key", fmt.Sprint(value)),
		zap.String("value", name))
	return name, nil
}

func (s *lookupService) openQuerier(ctx context.Context) (datasource.RecordQuerier, error) {
	return retry.DoWithResult(ctx, s.retryCfg, func() (datasource.RecordQuerier, error) {
		return s.adapterFactory.NewRecordQuerier(ctx, s.dsType, s.dsConfig)
	})
}

package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/backcountry-access/beacon-tracker/pkg/adapters/datasource"
	"github.com/backcountry-access/beacon-tracker/pkg/apperrors"
	"github.com/backcountry-access/beacon-tracker/pkg/models"
)

var errTableNotFound = errors.New("table has no columns in catalog")

// TableRows is the raw result of one stage-table fetch.
type TableRows struct {
	Table   models.StageTable
	Catalog []string // ordered column names from the catalog
	Result  *datasource.RowSet
}

// Fetcher runs the per-table serial number query and normalizes its rows.
type Fetcher struct {
	logger *zap.Logger
}

// NewFetcher creates a Fetcher.
func NewFetcher(logger *zap.Logger) *Fetcher {
	return &Fetcher{logger: logger.Named("fetcher")}
}

// Fetch selects every row of table whose serial column equals serialNumber.
// The catalog is read independently of whether any row matched.
func (f *Fetcher) Fetch(ctx context.Context, querier datasource.RecordQuerier, table models.StageTable, serialNumber string) (*TableRows, error) {
	catalog, err := querier.TableColumns(ctx, string(table))
	if err != nil {
		return nil, &apperrors.DataAccessError{Table: string(table), Op: "read catalog", Err: err}
	}
	if len(catalog) == 0 {
		return nil, &apperrors.DataAccessError{Table: string(table), Op: "read catalog", Err: errTableNotFound}
	}

	result, err := querier.SelectEqual(ctx, string(table), table.SerialColumn(), serialNumber)
	if err != nil {
		return nil, &apperrors.DataAccessError{Table: string(table), Op: "select", Err: err}
	}

	f.logger.Debug("Fetched stage table",
		zap.String("table", string(table)),
		zap.String("serial_column", table.SerialColumn()),
		zap.Int("rows", result.Len()))

	return &TableRows{Table: table, Catalog: catalog, Result: result}, nil
}

// Normalize converts each fetched row into a StageRecord.
func (f *Fetcher) Normalize(rows *TableRows) ([]models.StageRecord, error) {
	if rows.Result.Len() == 0 {
		return nil, nil
	}

	records := make([]models.StageRecord, 0, rows.Result.Len())
	for _, values := range rows.Result.Rows {
		rec, err := models.NewStageRecord(rows.Table, rows.Catalog, rows.Result.Columns, values)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

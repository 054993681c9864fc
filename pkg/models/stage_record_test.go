package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backcountry-access/beacon-tracker/pkg/apperrors"
)

func TestNewStageRecord(t *testing.T) {
	at := time.Date(2015, 1, 1, 10, 0, 0, 0, time.UTC)
	columns := []string{"transactionID", "serialNumber", "transactionTime", "employeeID"}

	rec, err := NewStageRecord(CalibrationTable, columns, columns, []any{int64(7), "A1B2C3", at, int64(12)})
	require.NoError(t, err)

	assert.Equal(t, "calibrationTable", rec[FieldDBTable])
	assert.Equal(t, CalibrationTable, rec.Table())
	assert.Equal(t, int64(7), rec["transactionID"])
	assert.Equal(t, at, rec["transactionTime"], "temporal values stay time.Time")
	assert.Len(t, rec, len(columns)+1)

	sn, ok := rec.SerialNumber()
	assert.True(t, ok)
	assert.Equal(t, "A1B2C3", sn)
}

func TestNewStageRecord_ArityMismatch(t *testing.T) {
	columns := []string{"serialNumber", "transactionTime"}

	_, err := NewStageRecord(FinalTestTable, columns, columns, []any{"A1B2C3"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrSchemaMismatch))
}

func TestNewStageRecord_CatalogColumnMissing(t *testing.T) {
	catalog := []string{"serialNumber", "transactionTime", "scanTime"}
	result := []string{"serialNumber", "transactionTime"}

	_, err := NewStageRecord(FinalTestTable, catalog, result, []any{"A1B2C3", "2015-01-01T10:00:00"})
	require.Error(t, err)

	var mismatch *apperrors.SchemaMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "scanTime", mismatch.Column)
}

func TestNewStageRecord_DuplicateColumn(t *testing.T) {
	result := []string{"serialNumber", "serialNumber"}

	_, err := NewStageRecord(FinalTestTable, nil, result, []any{"A", "B"})
	assert.True(t, errors.Is(err, apperrors.ErrSchemaMismatch))
}

func TestNewStageRecord_ReservedColumn(t *testing.T) {
	result := []string{"db_table"}

	_, err := NewStageRecord(FinalTestTable, nil, result, []any{"spoofed"})
	assert.True(t, errors.Is(err, apperrors.ErrSchemaMismatch))
}

func TestStageRecord_TransactionTimeMissing(t *testing.T) {
	rec := StageRecord{FieldDBTable: "packagingTable"}

	_, err := rec.TransactionTime()
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrMissingField))
}

func TestStageRecord_SerialNumberUsesUnitColumn(t *testing.T) {
	rec := StageRecord{
		FieldDBTable:          "assemblyKittingTable",
		FieldSerialNumberUnit: "TOP123",
		FieldSerialNumber:     "BOARD9",
	}

	sn, ok := rec.SerialNumber()
	assert.True(t, ok)
	assert.Equal(t, "TOP123", sn)
}

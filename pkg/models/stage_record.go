package models

import (
	"fmt"
	"time"

	"github.com/backcountry-access/beacon-tracker/pkg/apperrors"
)

// StageRecord is one normalized row from a stage table: every native column
// plus the injected db_table key.
type StageRecord map[string]any

// NewStageRecord zips one row's values with its result columns and checks the
// result against the table's catalog columns. Values are passed through
// unchanged.
func NewStageRecord(table StageTable, catalog, resultColumns []string, values []any) (StageRecord, error) {
	if len(values) != len(resultColumns) {
		return nil, &apperrors.SchemaMismatchError{
			Table:  string(table),
			Reason: fmt.Sprintf("row has %d values for %d columns", len(values), len(resultColumns)),
		}
	}

	rec := make(StageRecord, len(resultColumns)+1)
	for i, col := range resultColumns {
		if col == FieldDBTable {
			return nil, &apperrors.SchemaMismatchError{Table: string(table), Column: col, Reason: "reserved column name"}
		}
		if _, dup := rec[col]; dup {
			return nil, &apperrors.SchemaMismatchError{Table: string(table), Column: col, Reason: "column returned twice"}
		}
		rec[col] = values[i]
	}

	for _, col := range catalog {
		if _, ok := rec[col]; !ok {
			return nil, &apperrors.SchemaMismatchError{Table: string(table), Column: col, Reason: "column missing from row"}
		}
	}

	rec[FieldDBTable] = string(table)
	return rec, nil
}

// Table returns the record's source table.
func (r StageRecord) Table() StageTable {
	name, _ := r[FieldDBTable].(string)
	return StageTable(name)
}

// TransactionTime returns the record's transactionTime as a time.Time.
func (r StageRecord) TransactionTime() (time.Time, error) {
	v, ok := r[FieldTransactionTime]
	if !ok {
		return time.Time{}, &apperrors.MissingFieldError{Table: string(r.Table()), Field: FieldTransactionTime}
	}
	t, err := ParseTimestamp(v)
	if err != nil {
		return time.Time{}, &apperrors.MissingFieldError{Table: string(r.Table()), Field: FieldTransactionTime, Err: err}
	}
	return t, nil
}

// SerialNumber returns the unit serial number held by the record, using the
// identifier column of its source table.
func (r StageRecord) SerialNumber() (string, bool) {
	v, ok := r[r.Table().SerialColumn()]
	if !ok || v == nil {
		return "", false
	}
	switch sv := v.(type) {
	case string:
		return sv, sv != ""
	case []byte:
		return string(sv), len(sv) > 0
	default:
		return fmt.Sprint(sv), true
	}
}

// Clone returns a shallow copy of the record.
func (r StageRecord) Clone() StageRecord {
	out := make(StageRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

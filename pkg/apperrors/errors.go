package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrDataAccess          = errors.New("data access failed")
	ErrSchemaMismatch      = errors.New("schema mismatch")
	ErrMissingField        = errors.New("missing field")
	ErrReportParse         = errors.New("report parse failed")
	ErrReportFormat        = errors.New("invalid report format")
	ErrInvalidSerialNumber = errors.New("invalid serial number")
)

// DataAccessError reports a connectivity or query failure against a table.
type DataAccessError struct {
	Table string
	Op    string
	Err   error
}

func (e *DataAccessError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *DataAccessError) Unwrap() error { return e.Err }

func (e *DataAccessError) Is(target error) bool { return target == ErrDataAccess }

// SchemaMismatchError reports a row that does not line up with its table's columns.
type SchemaMismatchError struct {
	Table  string
	Column string
	Reason string
}

func (e *SchemaMismatchError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("schema mismatch in %s: %s", e.Table, e.Reason)
	}
	return fmt.Sprintf("schema mismatch in %s.%s: %s", e.Table, e.Column, e.Reason)
}

func (e *SchemaMismatchError) Is(target error) bool { return target == ErrSchemaMismatch }

// MissingFieldError reports a required field that is absent or unusable.
type MissingFieldError struct {
	Table string
	Field string
	Err   error
}

func (e *MissingFieldError) Error() string {
	msg := fmt.Sprintf("record from %s has no usable %s", e.Table, e.Field)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MissingFieldError) Unwrap() error { return e.Err }

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

// ReportParseError reports a report document that is not valid JSON.
type ReportParseError struct {
	Source string
	Err    error
}

func (e *ReportParseError) Error() string {
	return fmt.Sprintf("parse report %s: %v", e.Source, e.Err)
}

func (e *ReportParseError) Unwrap() error { return e.Err }

func (e *ReportParseError) Is(target error) bool { return target == ErrReportParse }

// ReportFormatError reports valid JSON that is not shaped like a report.
type ReportFormatError struct {
	Source string
	Index  int // -1 when the problem is the document itself
	Reason string
}

func (e *ReportFormatError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("report %s: %s", e.Source, e.Reason)
	}
	return fmt.Sprintf("report %s: record %d: %s", e.Source, e.Index, e.Reason)
}

func (e *ReportFormatError) Is(target error) bool { return target == ErrReportFormat }

// NotFoundError reports a lookup miss. Callers are expected to recover from it.
type NotFoundError struct {
	Table string
	Key   string
	Value string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s row with %s=%s", e.Table, e.Key, e.Value)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

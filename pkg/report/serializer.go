// Package report reads and writes beacon reports as JSON arrays of stage
// records.
package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/backcountry-access/beacon-tracker/pkg/apperrors"
	"github.com/backcountry-access/beacon-tracker/pkg/jsonutil"
	"github.com/backcountry-access/beacon-tracker/pkg/models"
)

// Encode renders the report as a JSON array, one object per record in
// report order. Timestamps become their canonical text.
func Encode(r *models.Report) ([]byte, error) {
	records := r.Records()
	out := make([]map[string]any, len(records))
	for i, rec := range records {
		obj := make(map[string]any, len(rec))
		for key, val := range rec {
			obj[key] = encodeValue(val)
		}
		out[i] = obj
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode report %s: %w", r.SerialNumber(), err)
	}
	return data, nil
}

func encodeValue(v any) any {
	switch val := v.(type) {
	case nil, bool, string, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return val
	case time.Time:
		return models.FormatTimestamp(val)
	case *time.Time:
		if val == nil {
			return nil
		}
		return models.FormatTimestamp(*val)
	case []byte:
		return string(val)
	case []any, map[string]any:
		return val
	}
	return jsonutil.FlexibleStringValue(v)
}

// Save writes the report to path atomically: the JSON goes to a temp file in
// the same directory which is synced and renamed over path. On failure the
// temp file is removed and path is left untouched.
func Save(path string, r *models.Report) (err error) {
	data, err := Encode(r)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-report-*")
	if err != nil {
		return fmt.Errorf("save report %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("save report %s: %w", path, err)
	}
	// CreateTemp makes 0600 files; reports are shared like any other file.
	if err = tmp.Chmod(reportMode(path)); err != nil {
		return fmt.Errorf("save report %s: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("save report %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("save report %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save report %s: %w", path, err)
	}
	return nil
}

// reportMode keeps the permissions of a report being replaced.
func reportMode(path string) os.FileMode {
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		return info.Mode().Perm()
	}
	return 0o644
}

// Load reads and validates a report file.
func Load(path string) (*models.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load report %s: %w", path, err)
	}
	return Decode(path, data)
}

// Decode parses a report. source names the origin in error messages.
func Decode(source string, data []byte) (*models.Report, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &apperrors.ReportParseError{Source: source, Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &apperrors.ReportParseError{Source: source, Err: errors.New("trailing data after report")}
	}

	elems, ok := doc.([]any)
	if !ok {
		return nil, &apperrors.ReportFormatError{Source: source, Index: -1, Reason: fmt.Sprintf("expected a JSON array, got %s", jsonKind(doc))}
	}
	if len(elems) == 0 {
		return nil, &apperrors.ReportFormatError{Source: source, Index: -1, Reason: "report has no records"}
	}

	records := make([]models.StageRecord, len(elems))
	for i, elem := range elems {
		rec, err := decodeRecord(source, i, elem)
		if err != nil {
			return nil, err
		}
		records[i] = rec
	}

	serial, ok := records[0].SerialNumber()
	if !ok {
		table := records[0].Table()
		return nil, &apperrors.ReportFormatError{Source: source, Index: 0, Reason: fmt.Sprintf("missing %s", table.SerialColumn())}
	}

	return models.NewReport(serial, records), nil
}

func decodeRecord(source string, index int, elem any) (models.StageRecord, error) {
	obj, ok := elem.(map[string]any)
	if !ok {
		return nil, &apperrors.ReportFormatError{Source: source, Index: index, Reason: fmt.Sprintf("expected an object, got %s", jsonKind(elem))}
	}

	rec := make(models.StageRecord, len(obj))
	for key, val := range obj {
		v, err := decodeValue(val)
		if err != nil {
			return nil, &apperrors.ReportFormatError{Source: source, Index: index, Reason: fmt.Sprintf("%s: %v", key, err)}
		}
		rec[key] = v
	}

	name, ok := rec[models.FieldDBTable].(string)
	if !ok {
		return nil, &apperrors.ReportFormatError{Source: source, Index: index, Reason: "missing db_table"}
	}
	if _, known := models.ParseStageTable(name); !known {
		return nil, &apperrors.ReportFormatError{Source: source, Index: index, Reason: fmt.Sprintf("unknown db_table %q", name)}
	}
	if _, err := rec.TransactionTime(); err != nil {
		return nil, &apperrors.ReportFormatError{Source: source, Index: index, Reason: err.Error()}
	}

	return rec, nil
}

// decodeValue converts json.Number leaves to int64 or float64.
func decodeValue(v any) (any, error) {
	switch val := v.(type) {
	case json.Number:
		return jsonutil.NumberValue(val)
	case []any:
		for i := range val {
			d, err := decodeValue(val[i])
			if err != nil {
				return nil, err
			}
			val[i] = d
		}
		return val, nil
	case map[string]any:
		for k := range val {
			d, err := decodeValue(val[k])
			if err != nil {
				return nil, err
			}
			val[k] = d
		}
		return val, nil
	}
	return v, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}

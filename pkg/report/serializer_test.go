package report

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backcountry-access/beacon-tracker/pkg/apperrors"
	"github.com/backcountry-access/beacon-tracker/pkg/models"
)

func sampleReport() *models.Report {
	return models.NewReport("A1B2C3", []models.StageRecord{
		{
			"db_table":         "assemblyKittingTable",
			"transactionID":    int64(10),
			"transactionTime":  time.Date(2015, 1, 1, 8, 0, 0, 0, time.UTC),
			"serialNumberUnit": "A1B2C3",
			"employeeID":       int64(42),
			"workstationID":    []byte("WS-3"),
		},
		{
			"db_table":           "DFTestingTable",
			"transactionID":      int64(11),
			"transactionTime":    time.Date(2015, 1, 1, 9, 30, 0, 250000000, time.UTC),
			"serialNumber":       "A1B2C3",
			"VL":                 1.25,
			"AL":                 "pass",
			"failureCode":        int64(0),
			"failureDescription": nil,
			"retest":             false,
		},
	})
}

func TestEncode_CanonicalValues(t *testing.T) {
	data, err := Encode(sampleReport())
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, `"transactionTime":"2015-01-01T08:00:00"`)
	assert.Contains(t, text, `"transactionTime":"2015-01-01T09:30:00.25"`)
	assert.Contains(t, text, `"workstationID":"WS-3"`)
	assert.Contains(t, text, `"VL":1.25`)
	assert.Contains(t, text, `"failureDescription":null`)
	assert.Contains(t, text, `"retest":false`)
}

func TestEncode_OffsetTimestamp(t *testing.T) {
	mst := time.FixedZone("MST", -7*3600)
	r := models.NewReport("A1B2C3", []models.StageRecord{{
		"db_table":        "packagingTable",
		"serialNumber":    "A1B2C3",
		"transactionTime": time.Date(2015, 1, 1, 8, 0, 0, 0, mst),
	}})

	data, err := Encode(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"transactionTime":"2015-01-01T08:00:00-07:00"`)
}

func TestSaveLoad_RoundTripIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.json")
	second := filepath.Join(dir, "second.json")

	require.NoError(t, Save(first, sampleReport()))

	loaded, err := Load(first)
	require.NoError(t, err)
	assert.Equal(t, "A1B2C3", loaded.SerialNumber())
	require.Equal(t, 2, loaded.Len())

	require.NoError(t, Save(second, loaded))
	reloaded, err := Load(second)
	require.NoError(t, err)

	if diff := cmp.Diff(loaded.Records(), reloaded.Records()); diff != "" {
		t.Errorf("round trip changed records (-first +second):\n%s", diff)
	}

	firstBytes, err := os.ReadFile(first)
	require.NoError(t, err)
	secondBytes, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(firstBytes), string(secondBytes))
}

func TestLoad_NumberTypes(t *testing.T) {
	r, err := Decode("inline", []byte(`[{"db_table":"calibrationTable","serialNumber":"A1B2C3",
		"transactionTime":"2015-01-01T10:00:00","transactionID":7,"offset":0.5,"big":1e3}]`))
	require.NoError(t, err)

	rec := r.Records()[0]
	assert.Equal(t, int64(7), rec["transactionID"])
	assert.Equal(t, 0.5, rec["offset"])
	assert.Equal(t, int64(1000), rec["big"])
}

func TestLoad_SerialColumnFromFirstRecord(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{
			name: "kitting keys on unit serial",
			data: `[{"db_table":"assemblyKittingTable","serialNumberUnit":"UNIT42","serialNumber":"DIGI","transactionTime":"2015-01-01T07:00:00"}]`,
			want: "UNIT42",
		},
		{
			name: "fallout keys on unit serial",
			data: `[{"db_table":"falloutTable","serialNumberUnit":"UNIT42","transactionTime":"2015-01-01T07:00:00"}]`,
			want: "UNIT42",
		},
		{
			name: "other stages key on serialNumber",
			data: `[{"db_table":"finalTestTable","serialNumber":"A1B2C3","serialNumberUnit":"X","transactionTime":"2015-01-01T07:00:00"}]`,
			want: "A1B2C3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Decode("inline", []byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.SerialNumber())
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		sentinel  error
		wantIndex int
	}{
		{"malformed json", `[{"db_table":`, apperrors.ErrReportParse, 0},
		{"trailing data", `[] []`, apperrors.ErrReportParse, 0},
		{"empty array", `[]`, apperrors.ErrReportFormat, -1},
		{"not an array", `{"db_table":"packagingTable"}`, apperrors.ErrReportFormat, -1},
		{"element not an object", `[42]`, apperrors.ErrReportFormat, 0},
		{"missing db_table", `[{"serialNumber":"A1B2C3","transactionTime":"2015-01-01T07:00:00"}]`, apperrors.ErrReportFormat, 0},
		{"unknown db_table", `[{"db_table":"shippingTable","serialNumber":"A1B2C3","transactionTime":"2015-01-01T07:00:00"}]`, apperrors.ErrReportFormat, 0},
		{"missing transactionTime", `[{"db_table":"packagingTable","serialNumber":"A1B2C3"}]`, apperrors.ErrReportFormat, 0},
		{"missing serial on first record", `[{"db_table":"packagingTable","transactionTime":"2015-01-01T07:00:00"}]`, apperrors.ErrReportFormat, 0},
		{
			"bad second record",
			`[{"db_table":"packagingTable","serialNumber":"A1B2C3","transactionTime":"2015-01-01T07:00:00"},{"db_table":"packagingTable"}]`,
			apperrors.ErrReportFormat, 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode("report.json", []byte(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)

			var formatErr *apperrors.ReportFormatError
			if errors.As(err, &formatErr) {
				assert.Equal(t, tt.wantIndex, formatErr.Index)
				assert.Equal(t, "report.json", formatErr.Source)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSave_LeavesNoTempFileOnFailure(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(target, 0o755))

	// Renaming a file over a directory fails.
	err := Save(target, sampleReport())
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "sub", entries[0].Name())
}

func TestSave_ReplacesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	require.NoError(t, Save(path, sampleReport()))

	r, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())
}

func TestSave_FileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	dir := t.TempDir()

	fresh := filepath.Join(dir, "fresh.json")
	require.NoError(t, Save(fresh, sampleReport()))
	info, err := os.Stat(fresh)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	existing := filepath.Join(dir, "existing.json")
	require.NoError(t, os.WriteFile(existing, []byte("stale"), 0o600))
	require.NoError(t, os.Chmod(existing, 0o640))
	require.NoError(t, Save(existing, sampleReport()))
	info, err = os.Stat(existing)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestSave_MissingDirectory(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "nope", "report.json"), sampleReport())
	assert.Error(t, err)
}

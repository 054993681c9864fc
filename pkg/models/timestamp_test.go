package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp_Layouts(t *testing.T) {
	want := time.Date(2015, 1, 1, 10, 0, 0, 0, time.UTC)

	inputs := []any{
		want,
		&want,
		"2015-01-01T10:00:00",
		"2015-01-01 10:00:00",
		"2015-01-01T10:00:00Z",
		[]byte("2015-01-01 10:00:00"),
	}
	for _, in := range inputs {
		got, err := ParseTimestamp(in)
		require.NoError(t, err, "%v", in)
		assert.True(t, want.Equal(got), "%v parsed as %v", in, got)
	}
}

func TestParseTimestamp_Rejects(t *testing.T) {
	for _, in := range []any{nil, 42, "yesterday", ""} {
		_, err := ParseTimestamp(in)
		assert.Error(t, err, "%v", in)
	}
}

func TestFormatTimestamp(t *testing.T) {
	utc := time.Date(2015, 1, 1, 9, 30, 15, 250000000, time.UTC)
	assert.Equal(t, "2015-01-01T09:30:15.25", FormatTimestamp(utc))

	whole := time.Date(2015, 1, 1, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "2015-01-01T09:00:00", FormatTimestamp(whole))

	mountain := time.FixedZone("MST", -7*3600)
	offset := time.Date(2015, 1, 1, 9, 0, 0, 0, mountain)
	assert.Equal(t, "2015-01-01T09:00:00-07:00", FormatTimestamp(offset))
}

func TestFormatTimestamp_ParsesBack(t *testing.T) {
	orig := time.Date(2016, 3, 14, 15, 9, 26, 535000000, time.UTC)
	back, err := ParseTimestamp(FormatTimestamp(orig))
	require.NoError(t, err)
	assert.True(t, orig.Equal(back))
}

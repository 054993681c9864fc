package models

import (
	"fmt"
	"time"
)

// CanonicalTimeLayout is the text form of zone-less timestamps in saved reports.
// SQL Server datetime and datetime2 carry no offset and arrive as UTC.
const CanonicalTimeLayout = "2006-01-02T15:04:05.999999999"

// timestampLayouts are accepted when a timestamp arrives as text: the
// canonical layout, RFC 3339 and the space-separated forms emitted by
// SQL drivers and older report files.
var timestampLayouts = []string{
	CanonicalTimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02",
}

// FormatTimestamp renders t in its canonical text form.
func FormatTimestamp(t time.Time) string {
	if t.Location() == time.UTC {
		return t.Format(CanonicalTimeLayout)
	}
	return t.Format(time.RFC3339Nano)
}

// ParseTimestamp converts a time value, or its text form, to a time.Time.
func ParseTimestamp(v any) (time.Time, error) {
	switch tv := v.(type) {
	case time.Time:
		return tv, nil
	case *time.Time:
		if tv == nil {
			return time.Time{}, fmt.Errorf("nil timestamp")
		}
		return *tv, nil
	case string:
		return parseTimestampText(tv)
	case []byte:
		return parseTimestampText(string(tv))
	case nil:
		return time.Time{}, fmt.Errorf("null timestamp")
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
	}
}

func parseTimestampText(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

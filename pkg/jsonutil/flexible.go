package jsonutil

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// NumberValue converts a decoded JSON number to int64 when it is integral and
// fits, otherwise to float64.
func NumberValue(n json.Number) (any, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}

	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", n.String(), err)
	}
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return int64(f), nil
	}
	return f, nil
}

// FlexibleStringValue renders a scalar column value as text. Numbers stored
// as floats print without a trailing ".0" when integral. Returns empty string
// for nil.
func FlexibleStringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case float32:
		return formatFloat(float64(val), 32)
	case float64:
		return formatFloat(val, 64)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case fmt.Stringer:
		return val.String()
	}
	return fmt.Sprintf("%v", v)
}

func formatFloat(f float64, bits int) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, bits)
}

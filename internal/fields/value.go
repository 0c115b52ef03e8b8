// Package fields reads and coerces values out of schema-less records.
// Every accessor degrades instead of failing: missing fields read as empty
// strings, unparsable numbers and dates read as negative infinity.
package fields

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// NegInf is the sort key for values that cannot be parsed.
var NegInf = math.Inf(-1)

// numberPrefix matches the leading numeric part of a string, the way a
// permissive float parser reads "12.5kg" as 12.5.
var numberPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// String coerces a value to its display string. Nil reads as "".
func String(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case json.Number:
		return x.String()
	case time.Time:
		return x.Format(time.RFC3339)
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = String(item)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(x, ",")
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// Number parses a value permissively. Values with no numeric prefix read as
// NegInf so they sort first ascending and last descending.
func Number(v any) float64 {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) {
			return NegInf
		}
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case int32:
		return float64(x)
	case json.Number:
		return Number(x.String())
	case time.Time:
		return float64(x.UnixMilli())
	case string:
		s := strings.TrimSpace(x)
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) {
			return f
		}
		if m := numberPrefix.FindString(s); m != "" {
			if f, err := strconv.ParseFloat(m, 64); err == nil {
				return f
			}
		}
		return NegInf
	default:
		return NegInf
	}
}

// timestampLayouts are tried in order when parsing date strings.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

// Timestamp interprets a value as a point in time. Strings without a zone are
// read in loc; numbers are Unix milliseconds. The second result is false for
// missing or unparsable values.
func Timestamp(v any, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	switch x := v.(type) {
	case time.Time:
		return x, !x.IsZero()
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return *x, !x.IsZero()
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(x)).In(loc), true
	case int:
		return time.UnixMilli(int64(x)).In(loc), true
	case int64:
		return time.UnixMilli(x).In(loc), true
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(n).In(loc), true
	case string:
		return ParseTime(x, loc)
	default:
		return time.Time{}, false
	}
}

// ParseTime parses a date or date-time string using the supported layouts.
func ParseTime(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SortKey returns the Unix millisecond key of a date value, or NegInf.
func SortKey(v any, loc *time.Location) float64 {
	t, ok := Timestamp(v, loc)
	if !ok {
		return NegInf
	}
	return float64(t.UnixMilli())
}

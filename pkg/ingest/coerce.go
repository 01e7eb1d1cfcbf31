package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/dd0wney/cluso-telco/pkg/validation"
)

// timestampLayouts are tried in order. Layouts without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"02/01/2006 15:04:05",
	"02-01-2006 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses s with the known layouts. It returns the zero time
// and false when s is empty or matches none of them.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// ParseFloat returns nil for empty or non-numeric input.
func ParseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseInt returns nil for empty or non-integer input. Integral floats such
// as "443.0" are accepted.
func ParseInt(s string) *int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
		v := int64(f)
		return &v
	}
	return nil
}

// ValidIP returns s when it is an IPv4 or IPv6 literal, otherwise "".
func ValidIP(s string) string {
	s = strings.TrimSpace(s)
	if !validation.IsIP(s) {
		return ""
	}
	return s
}

// coercions counts fields replaced by a null sentinel, per column.
type coercions map[string]int

func (c coercions) note(col, raw string, ok bool) {
	if !ok && strings.TrimSpace(raw) != "" {
		c[col]++
	}
}

func (c coercions) total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

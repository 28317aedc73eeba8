package celltype

import (
	"strings"
	"time"
)

// DateLayouts are the calendar-date layouts recognized during inference, in
// priority order. Month-first wins over day-first when both would parse.
var DateLayouts = []string{
	"1/2/2006",
	"1-2-2006",
	"2/1/2006",
	"2-1-2006",
	"2006-01-02",
	"20060102",
}

// TimeLayouts are the date-time layouts recognized during inference.
var TimeLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
}

// parseLayouts is the wider set accepted when converting values of a
// date-like column. Inference stays strict; parsing is lenient.
var parseLayouts = append(append(append([]string{}, TimeLayouts...), DateLayouts...),
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"January 2 2006",
	"January 2, 2006",
	"Jan 2, 2006",
)

// ParseDate parses s against DateLayouts.
func ParseDate(s string) (time.Time, bool) {
	return parseWith(DateLayouts, s)
}

// ParseTime parses s against TimeLayouts.
func ParseTime(s string) (time.Time, bool) {
	return parseWith(TimeLayouts, s)
}

// ParseAny parses s against every supported date and time layout.
func ParseAny(s string) (time.Time, bool) {
	return parseWith(parseLayouts, s)
}

func parseWith(layouts []string, s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// EpochMillis converts t to epoch milliseconds as a float64.
func EpochMillis(t time.Time) float64 {
	return float64(t.UnixMilli())
}

// FromEpochMillis converts epoch milliseconds back into a UTC time.
func FromEpochMillis(ms float64) time.Time {
	return time.UnixMilli(int64(ms)).UTC()
}

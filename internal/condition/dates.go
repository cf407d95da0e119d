package condition

import (
	"strings"
	"time"
	_ "time/tzdata"
)

// ReferenceZone is the zone naive date strings are read in and day
// boundaries are computed in.
const ReferenceZone = "Asia/Shanghai"

// InstantLayout is how instants are rendered on the wire.
const InstantLayout = "2006-01-02T15:04:05.000Z"

var naiveLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
}

// ReferenceLocation loads ReferenceZone, falling back to a fixed +08:00
// offset.
func ReferenceLocation() *time.Location {
	loc, err := time.LoadLocation(ReferenceZone)
	if err != nil {
		return time.FixedZone("CST", 8*60*60)
	}
	return loc
}

// ParseInstant reads an RFC 3339 instant, or a naive date or date-time
// taken as wall-clock time in loc. Unparseable input reports false.
func ParseInstant(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// StartOfDay returns 00:00:00.000 of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// EndOfDay returns 23:59:59.999 of t's calendar day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	if t.IsZero() {
		return t
	}
	return StartOfDay(t, loc).AddDate(0, 0, 1).Add(-time.Millisecond)
}

// FormatInstant renders t in UTC with millisecond precision.
func FormatInstant(t time.Time) string {
	return t.UTC().Format(InstantLayout)
}

// Package temporal parses the timestamp shapes observed in source reports and
// decides local business-hours membership. Classification fails closed: a
// timestamp with no time-of-day, or a row with no resolved timezone, is never
// claimed to be a business-hours event.
package temporal

import (
	"strings"
	"time"
)

// Window is the local weekday work window, hours in [Start, End).
type Window struct {
	Start int
	End   int
}

func DefaultWindow() Window {
	return Window{Start: 9, End: 18}
}

// Timestamp is a parsed source timestamp. HasTime is false for date-only
// inputs, which carry no time-of-day signal. HasZone is true only when the
// raw text carried an offset; everything else is a naive wall-clock reading
// taken at the site, and Time holds its fields without a meaningful zone.
type Timestamp struct {
	Time    time.Time
	HasTime bool
	HasZone bool
}

var zonedLayouts = []string{
	time.RFC3339,
}

// Report tables write local wall time with no offset. These layouts parse the
// clock fields as-is; the zone is attached later, once the site resolves.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
}

var dateOnlyLayouts = []string{
	"01/02/2006",
	"1/2/2006",
	"2006-01-02",
}

// Parse converts a raw timestamp string into a Timestamp. The second return
// is false when no known layout matched; callers drop to their fail-open or
// fail-closed policy rather than erroring out.
func Parse(raw string) (Timestamp, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Timestamp{}, false
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Timestamp{Time: t.UTC(), HasTime: true, HasZone: true}, true
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Timestamp{Time: t, HasTime: true}, true
		}
	}
	for _, layout := range dateOnlyLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Timestamp{Time: t, HasTime: false}, true
		}
	}
	return Timestamp{}, false
}

// localize places ts in loc. Zoned instants convert; naive wall clocks are
// reinterpreted in loc with their fields unchanged.
func localize(ts Timestamp, loc *time.Location) time.Time {
	if ts.HasZone {
		return ts.Time.In(loc)
	}
	y, m, d := ts.Time.Date()
	return time.Date(y, m, d, ts.Time.Hour(), ts.Time.Minute(), ts.Time.Second(), 0, loc)
}

// IsBusinessHours reports whether ts falls on a weekday inside the local work
// window for the given IANA zone. Date-only timestamps and empty or invalid
// zones always classify negative.
func IsBusinessHours(ts Timestamp, zone string, w Window) bool {
	if !ts.HasTime || zone == "" {
		return false
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return false
	}
	local := localize(ts, loc)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	h := local.Hour()
	return h >= w.Start && h < w.End
}

// ToLocalString renders ts in the given zone, or "" when the zone is unknown.
// Date-only timestamps render without a clock component.
func ToLocalString(ts Timestamp, zone string) string {
	if zone == "" {
		return ""
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return ""
	}
	if !ts.HasTime {
		// No time-of-day to convert; shifting midnight across zones would
		// move the date itself.
		return ts.Time.Format("2006-01-02")
	}
	return localize(ts, loc).Format("2006-01-02 15:04 MST")
}

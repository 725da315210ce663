package isoduration

import (
	"math"
	"time"

	"github.com/sosodev/duration"
)

// Upper bounds per designator in nanoseconds. Years and months use the
// longest calendar lengths so the range check never under-counts.
const (
	nsPerSecond = float64(time.Second)
	nsPerMinute = float64(time.Minute)
	nsPerHour   = float64(time.Hour)
	nsPerDay    = 24 * nsPerHour
	nsPerWeek   = 7 * nsPerDay
	nsPerMonth  = 31 * nsPerDay
	nsPerYear   = 366 * nsPerDay
)

// Parse converts an ISO-8601 duration such as "PT1H2M3S" to a time.Duration.
// The second return value is false when the string does not parse, is
// negative, or does not fit in a time.Duration.
func Parse(s string) (time.Duration, bool) {
	d, err := duration.Parse(s)
	if err != nil || d.Negative {
		return 0, false
	}

	ns := d.Years*nsPerYear + d.Months*nsPerMonth + d.Weeks*nsPerWeek +
		d.Days*nsPerDay + d.Hours*nsPerHour + d.Minutes*nsPerMinute + d.Seconds*nsPerSecond
	if ns < 0 || ns >= math.MaxInt64 || math.IsNaN(ns) {
		return 0, false
	}
	return d.ToTimeDuration(), true
}

// IsPositive reports whether s parses to a non-zero duration. The catalog
// reports "P0D"/"PT0S" for videos that are still processing.
func IsPositive(s string) bool {
	d, ok := Parse(s)
	return ok && d > 0
}

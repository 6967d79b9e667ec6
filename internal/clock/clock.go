// Package clock isolates the time arithmetic used by the reminder lifecycle
// and the background sweeps so boundary conditions can be tested with fixed
// instants instead of real timers.
package clock

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Clock returns the current instant. Production code passes time.Now;
// tests pass a closure over a fixed time.
type Clock func() time.Time

var ErrInvalidTimeFormat = errors.New("invalid time format")

var timeOfDayRe = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

// Combine builds an absolute UTC instant from a calendar date (YYYY-MM-DD)
// and a 24-hour HH:MM time of day interpreted in a fixed UTC offset.
func Combine(date, timeOfDay string, utcOffsetMinutes int) (time.Time, error) {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}

	timeOfDay = strings.TrimSpace(timeOfDay)
	if !timeOfDayRe.MatchString(timeOfDay) {
		return time.Time{}, ErrInvalidTimeFormat
	}
	parts := strings.SplitN(timeOfDay, ":", 2)
	hh, _ := strconv.Atoi(parts[0])
	mm, _ := strconv.Atoi(parts[1])

	loc := time.FixedZone("", utcOffsetMinutes*60)
	return time.Date(d.Year(), d.Month(), d.Day(), hh, mm, 0, 0, loc).UTC(), nil
}

// MinutesUntil reports the rounded number of minutes from now until target.
// Negative when target is in the past.
func MinutesUntil(now, target time.Time) int {
	return int(target.Sub(now).Round(time.Minute) / time.Minute)
}

func IsPast(now, target time.Time) bool {
	return target.Before(now)
}

// WindowContains reports whether target-now falls within [lower, upper].
// The sweeps use it to select candidates instead of re-deriving the
// comparison per call site.
func WindowContains(now, target time.Time, lower, upper time.Duration) bool {
	d := target.Sub(now)
	return d >= lower && d <= upper
}

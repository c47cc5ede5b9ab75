package recur

import (
	"time"

	"github.com/teambition/rrule-go"
)

// Weekly projects up to max occurrences of "weekday at hour:00" forward
// from now, one week apart. The anchor is the next calendar day matching
// weekday (possibly today); candidates that are not strictly after now
// are dropped, so a same-day template whose hour already elapsed yields
// max-1 occurrences.
//
// Pure function of its inputs: no I/O, no error cases.
func Weekly(now time.Time, weekday time.Weekday, hour int, max int) []time.Time {
	if max < 1 {
		return nil
	}

	daysUntil := (int(weekday) - int(now.Weekday()) + 7) % 7
	anchor := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location()).
		AddDate(0, 0, daysUntil)

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.WEEKLY,
		Count:   max,
		Dtstart: anchor,
	})
	if err != nil {
		// Unreachable with a valid anchor, but the contract is "never fail".
		return nil
	}

	out := make([]time.Time, 0, max)
	for _, t := range r.All() {
		if t.After(now) {
			out = append(out, t)
		}
	}
	return out
}

// Offset computes the single occurrence "offsetDays from now at hour:00".
// The second return value is false when the candidate is not strictly in
// the future.
func Offset(now time.Time, offsetDays, hour int) (time.Time, bool) {
	t := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location()).
		AddDate(0, 0, offsetDays)
	if !t.After(now) {
		return time.Time{}, false
	}
	return t, true
}

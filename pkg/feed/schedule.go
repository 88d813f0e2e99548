package feed

import (
	"fmt"
	"time"

	"github.com/umputun/feedwatch/pkg/calendar"
)

// NextUpdateDate returns when the channel is expected to refresh next.
// The base is the last build date, then the update base, then now. An unrecognized
// period is treated as yearly.
func NextUpdateDate(ch Channel, now time.Time) (calendar.Date, error) {
	if ch.UpdateFrequency == UnparsableFrequency {
		return calendar.Date{}, fmt.Errorf("next update of %q: %w", ch.AtomLink, ErrUnparsableFrequency)
	}

	base := calendar.FromTime(now)
	switch {
	case ch.LastBuildDate != nil && ch.LastBuildDate.IsValid():
		base = *ch.LastBuildDate
	case ch.UpdateBase != nil && ch.UpdateBase.IsValid():
		base = *ch.UpdateBase
	}

	var next calendar.Date
	var err error
	switch ch.UpdatePeriod {
	case Hourly:
		next, err = calendar.AddHours(base, ch.UpdateFrequency)
	case Daily:
		next, err = calendar.AddDays(base, ch.UpdateFrequency)
	case Weekly:
		next, err = calendar.AddWeeks(base, ch.UpdateFrequency)
	case Monthly:
		next, err = calendar.AddMonths(base, ch.UpdateFrequency)
	default:
		next, err = calendar.AddYears(base, ch.UpdateFrequency)
	}
	if err != nil {
		return calendar.Date{}, fmt.Errorf("next update of %q: %w", ch.AtomLink, err)
	}
	return next, nil
}

// IsUpdateDue reports whether the next update of the channel is at or before now.
// A channel whose next update can't be computed is never due.
func IsUpdateDue(ch Channel, now time.Time) bool {
	next, err := NextUpdateDate(ch, now)
	if err != nil {
		return false
	}
	return !calendar.IsAfter(next, calendar.FromTime(now))
}

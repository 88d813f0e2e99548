// Package calendar implements UTC calendar arithmetic over dates carrying an explicit validity flag.
// An invalid date is never silently propagated: every arithmetic operation on it returns ErrInvalidDate.
package calendar

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ErrInvalidDate is returned by any operation invoked on an invalid date
var ErrInvalidDate = errors.New("invalid date")

// maxMillis is the largest distance from the unix epoch a date may have, in milliseconds
const maxMillis int64 = 8_640_000_000_000_000

// maxYear bounds the year component accepted by UTC before normalization
const maxYear = 300_000

// isoLayout is the serialized form of a date, UTC with millisecond precision
const isoLayout = "2006-01-02T15:04:05.000Z"

// Date is a UTC instant with millisecond precision. The zero value is an invalid date.
type Date struct {
	ms    int64
	valid bool
}

// FromUnixMilli makes a date from milliseconds since the unix epoch
func FromUnixMilli(ms int64) Date {
	if ms > maxMillis || ms < -maxMillis {
		return Date{}
	}
	return Date{ms: ms, valid: true}
}

// FromTime makes a date from t, truncated to milliseconds
func FromTime(t time.Time) Date {
	if y := t.Year(); y > maxYear || y < -maxYear {
		return Date{}
	}
	return FromUnixMilli(t.UnixMilli())
}

// Now returns the current instant
func Now() Date {
	return FromTime(time.Now())
}

// UTC builds a date from calendar components. Month is zero based (0 is January).
// Components outside their natural range roll over into the next larger unit,
// so month 12 is January of the following year and day 32 of January is February 1.
func UTC(year, month, day, hour, minute, second, millisecond int) Date {
	if year > maxYear || year < -maxYear || month > 12*maxYear || month < -12*maxYear {
		return Date{}
	}
	t := time.Date(year, time.Month(month+1), day, hour, minute, second, 0, time.UTC)
	t = t.Add(time.Duration(millisecond) * time.Millisecond)
	return FromTime(t)
}

// Parse reads a date from text such as RFC 1123 ("Mon, 02 Jan 2006 15:04:05 GMT") or RFC 3339.
// Text without zone information is read as UTC. Unparsable text yields an invalid date.
func Parse(s string) Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return Date{}
	}
	return FromTime(t)
}

// IsValid reports whether d represents a real instant
func (d Date) IsValid() bool {
	return d.valid
}

// Time returns d as a UTC time; the zero time for an invalid date
func (d Date) Time() time.Time {
	if !d.valid {
		return time.Time{}
	}
	return time.UnixMilli(d.ms).UTC()
}

// UnixMilli returns milliseconds since the unix epoch, 0 for an invalid date
func (d Date) UnixMilli() int64 {
	if !d.valid {
		return 0
	}
	return d.ms
}

// Year returns the UTC calendar year
func (d Date) Year() int { return d.Time().Year() }

// Month returns the zero based UTC month, 0 for January
func (d Date) Month() int { return int(d.Time().Month()) - 1 }

// Day returns the UTC day of the month
func (d Date) Day() int { return d.Time().Day() }

// Hour returns the UTC hour
func (d Date) Hour() int { return d.Time().Hour() }

// Minute returns the UTC minute
func (d Date) Minute() int { return d.Time().Minute() }

// Second returns the UTC second
func (d Date) Second() int { return d.Time().Second() }

// Millisecond returns the millisecond within the second
func (d Date) Millisecond() int { return d.Time().Nanosecond() / int(time.Millisecond) }

// Equal reports whether both dates are invalid or both denote the same instant
func (d Date) Equal(other Date) bool {
	if d.valid != other.valid {
		return false
	}
	return !d.valid || d.ms == other.ms
}

// ISO returns d in RFC 3339 form with milliseconds, or an empty string for an invalid date
func (d Date) ISO() string {
	if !d.valid {
		return ""
	}
	return d.Time().Format(isoLayout)
}

// String implements fmt.Stringer
func (d Date) String() string {
	if !d.valid {
		return "Invalid Date"
	}
	return d.ISO()
}

// MarshalJSON writes a valid date as its ISO string and an invalid one as null
func (d Date) MarshalJSON() ([]byte, error) {
	if !d.valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.ISO())
}

// UnmarshalJSON reads a date string; null and unparsable text give an invalid date
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("unmarshal date: %w", err)
	}
	*d = Parse(s)
	return nil
}

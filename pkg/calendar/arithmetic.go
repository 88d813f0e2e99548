package calendar

import (
	"errors"
	"fmt"
)

// ErrMonthOutOfRange is returned for a month index outside 0-11
var ErrMonthOutOfRange = errors.New("month index out of range")

var monthDays = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// AddHours returns d shifted by n hours
func AddHours(d Date, n int) (Date, error) {
	return shift(d, 0, 0, 0, n)
}

// AddDays returns d shifted by n calendar days, time of day kept
func AddDays(d Date, n int) (Date, error) {
	return shift(d, 0, 0, n, 0)
}

// AddWeeks returns d shifted by n weeks
func AddWeeks(d Date, n int) (Date, error) {
	return shift(d, 0, 0, 7*n, 0)
}

// AddMonths returns d shifted by n months. The day of month is kept and rolls
// over when the target month is shorter, so January 31 plus one month is early March.
func AddMonths(d Date, n int) (Date, error) {
	return shift(d, 0, n, 0, 0)
}

// AddMonth is AddMonths(d, 1)
func AddMonth(d Date) (Date, error) {
	return AddMonths(d, 1)
}

// AddYears returns d shifted by n years; February 29 rolls into March 1 of a non-leap year
func AddYears(d Date, n int) (Date, error) {
	return shift(d, n, 0, 0, 0)
}

// shift adds to the calendar components of d and normalizes the result
func shift(d Date, years, months, days, hours int) (Date, error) {
	if !d.IsValid() {
		return Date{}, ErrInvalidDate
	}
	res := UTC(d.Year()+years, d.Month()+months, d.Day()+days, d.Hour()+hours, d.Minute(), d.Second(), d.Millisecond())
	if !res.IsValid() {
		return Date{}, fmt.Errorf("shift %s: %w", d, ErrInvalidDate)
	}
	return res, nil
}

// IsLeapYear reports whether year is divisible by 4.
// Century years are not special-cased, 1900 and 2100 count as leap years here.
func IsLeapYear(year int) bool {
	return year%4 == 0
}

// DaysInMonth returns the number of days in the zero based month
func DaysInMonth(month int, leap bool) (int, error) {
	if month < 0 || month > 11 {
		return 0, fmt.Errorf("days in month %d: %w", month, ErrMonthOutOfRange)
	}
	if month == 1 && leap {
		return 29, nil
	}
	return monthDays[month], nil
}

// DaysInYear returns 366 for a leap year, 365 otherwise
func DaysInYear(year int) int {
	if IsLeapYear(year) {
		return 366
	}
	return 365
}

// CountDaysInMonthRange sums the days of months consecutive months starting with the month of start
func CountDaysInMonthRange(start Date, months int) (int, error) {
	if !start.IsValid() {
		return 0, ErrInvalidDate
	}
	year, month := start.Year(), start.Month()
	total := 0
	for range max(months, 0) {
		days, err := DaysInMonth(month, IsLeapYear(year))
		if err != nil {
			return 0, err
		}
		total += days
		if month++; month > 11 {
			month = 0
			year++
		}
	}
	return total, nil
}

// CountDaysInYearRange sums the days of years consecutive years starting with the year of start.
// An invalid start counts as zero days.
func CountDaysInYearRange(start Date, years int) int {
	if !start.IsValid() || years <= 0 {
		return 0
	}
	total := 0
	for _, y := range NumericRangeInclusive(start.Year(), start.Year()+years-1) {
		total += DaysInYear(y)
	}
	return total
}

// IsBefore reports whether a is strictly earlier than b. Invalid dates are never ordered.
func IsBefore(a, b Date) bool {
	return a.IsValid() && b.IsValid() && a.ms < b.ms
}

// IsAfter reports whether a is strictly later than b. Invalid dates are never ordered.
func IsAfter(a, b Date) bool {
	return a.IsValid() && b.IsValid() && a.ms > b.ms
}

// CountDaysBetween returns the number of calendar days separating a and b, regardless of order.
// Time of day is ignored once the dates are ordered; equal instants are zero days apart.
func CountDaysBetween(a, b Date) (int, error) {
	if !a.IsValid() || !b.IsValid() {
		return 0, ErrInvalidDate
	}
	if !IsBefore(a, b) && !IsAfter(a, b) {
		return 0, nil
	}
	start, end := a, b
	if IsAfter(a, b) {
		start, end = b, a
	}

	years, err := CountYearsBetween(start, end)
	if err != nil {
		return 0, err
	}
	span := end.Month() - start.Month() + 1 + 12*years
	total, err := CountDaysInMonthRange(start, span)
	if err != nil {
		return 0, err
	}
	endMonthDays, err := DaysInMonth(end.Month(), IsLeapYear(end.Year()))
	if err != nil {
		return 0, err
	}
	// drop the leading part of the first month and the tail of the last one
	return total - start.Day() - (endMonthDays - end.Day()), nil
}

// CountYearsBetween returns the absolute difference of the calendar years of a and b
func CountYearsBetween(a, b Date) (int, error) {
	if !a.IsValid() || !b.IsValid() {
		return 0, ErrInvalidDate
	}
	diff := a.Year() - b.Year()
	if diff < 0 {
		diff = -diff
	}
	return diff, nil
}

// NumericRangeInclusive returns the integers from start to end inclusive, ascending.
// The bounds may be given in either order.
func NumericRangeInclusive(start, end int) []int {
	if start > end {
		start, end = end, start
	}
	res := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		res = append(res, i)
	}
	return res
}

// Package calendar implements working-day arithmetic over a Monday–Friday week.
// Saturdays and Sundays are the only non-working days; there is no holiday
// calendar. All functions are pure and compare dates by calendar day in the
// location of the first argument.
package calendar

import (
	"errors"
	"time"
)

// ErrInvalidArgument is returned when a day count is zero or negative.
var ErrInvalidArgument = errors.New("invalid argument")

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// IsBusinessDay reports whether t falls Monday through Friday.
func IsBusinessDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}

// NextBusinessDay returns the first business day on or after t.
func NextBusinessDay(t time.Time) time.Time {
	day := Day(t)
	for !IsBusinessDay(day) {
		day = day.AddDate(0, 0, 1)
	}
	return day
}

// CountBusinessDays counts the weekdays in [start, end], both ends inclusive.
// An inverted range counts zero.
func CountBusinessDays(start, end time.Time) int {
	from := Day(start)
	to := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, start.Location())
	if to.Before(from) {
		return 0
	}

	count := 0
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if IsBusinessDay(day) {
			count++
		}
	}
	return count
}

// AdvanceToEndDate rolls start forward to the first business day and returns
// the date on which requiredWorkingDays business days have been counted.
// The zero time is returned with any error.
func AdvanceToEndDate(start time.Time, requiredWorkingDays int) (time.Time, error) {
	if requiredWorkingDays <= 0 {
		return time.Time{}, ErrInvalidArgument
	}

	day := NextBusinessDay(start)
	counted := 1
	for counted < requiredWorkingDays {
		day = day.AddDate(0, 0, 1)
		if IsBusinessDay(day) {
			counted++
		}
	}
	return day, nil
}

package recurrence

import (
	"time"

	"ledgerly/internal/models"
)

// daysIn returns the number of calendar days in the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// dayResolver resolves the day of the month for one policy. Each policy gets
// its own resolver so the month-length edge cases are independently testable.
type dayResolver func(r Rule, year int, month time.Month) int

var dayResolvers = map[models.DayOfMonthType]dayResolver{
	models.DayOfMonthFixed:        resolveFixedDay,
	models.DayOfMonthLastDay:      resolveLastDay,
	models.DayOfMonthFirstWeekday: resolveFirstWeekday,
	models.DayOfMonthLastWeekday:  resolveLastWeekday,
	models.DayOfMonthFirstOfWeek:  resolveFirstOfWeek,
	models.DayOfMonthLastOfWeek:   resolveLastOfWeek,
}

// resolveDay applies the rule's day policy within the given month. An empty
// policy behaves like FIXED on the anchor's day.
func resolveDay(r Rule, year int, month time.Month) time.Time {
	resolver, ok := dayResolvers[r.DayPolicy]
	if !ok {
		resolver = resolveFixedDay
	}
	return time.Date(year, month, resolver(r, year, month), 0, 0, 0, 0, time.UTC)
}

// resolveFixedDay uses the configured (or anchor) day, clamped to the last
// day of months too short to contain it.
func resolveFixedDay(r Rule, year int, month time.Month) int {
	day := r.Anchor.Day()
	if r.DayOfMonth != nil {
		day = *r.DayOfMonth
	}
	if last := daysIn(year, month); day > last {
		return last
	}
	return day
}

func resolveLastDay(_ Rule, year int, month time.Month) int {
	return daysIn(year, month)
}

// resolveFirstWeekday returns the first Monday-Friday of the month.
func resolveFirstWeekday(_ Rule, year int, month time.Month) int {
	switch time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday() {
	case time.Saturday:
		return 3
	case time.Sunday:
		return 2
	default:
		return 1
	}
}

// resolveLastWeekday returns the last Monday-Friday of the month.
func resolveLastWeekday(_ Rule, year int, month time.Month) int {
	last := daysIn(year, month)
	switch time.Date(year, month, last, 0, 0, 0, 0, time.UTC).Weekday() {
	case time.Saturday:
		return last - 1
	case time.Sunday:
		return last - 2
	default:
		return last
	}
}

// resolveFirstOfWeek returns the first occurrence of the rule's weekday in
// the month.
func resolveFirstOfWeek(r Rule, year int, month time.Month) int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday()
	return 1 + int((*r.Weekday-first+7)%7)
}

// resolveLastOfWeek returns the last occurrence of the rule's weekday in the
// month.
func resolveLastOfWeek(r Rule, year int, month time.Month) int {
	last := daysIn(year, month)
	lastWeekday := time.Date(year, month, last, 0, 0, 0, 0, time.UTC).Weekday()
	return last - int((lastWeekday-*r.Weekday+7)%7)
}

package recurrence

import (
	"time"

	"ledgerly/internal/models"
)

// hardIterationLimit bounds the expansion loop against pathological input.
// The window cap keeps any legitimate expansion far below this.
const hardIterationLimit = 100000

// Expand computes every occurrence of the rule inside [from, to], ascending.
// The Nth generated date is the anchor advanced by N*interval periods, so an
// "every 2 months" rule lands on the same alternating months regardless of
// where the window starts. Dates before the anchor or after the rule's end
// date are never produced.
func Expand(r Rule, from, to time.Time) ([]time.Time, error) {
	if err := Validate(r); err != nil {
		return nil, err
	}

	from = DateOnly(from)
	to = DateOnly(to)
	if from.After(to) {
		return nil, ErrWindowInverted
	}
	if to.Sub(from) > MaxWindowDays*24*time.Hour {
		return nil, ErrWindowTooLarge
	}

	lower := DateOnly(r.Anchor)
	if from.After(lower) {
		lower = from
	}
	upper := to
	if r.End != nil {
		if end := DateOnly(*r.End); end.Before(upper) {
			upper = end
		}
	}

	var dates []time.Time
	for n := 0; n < hardIterationLimit; n++ {
		occ := nth(r, n)
		if occ.After(upper) {
			break
		}
		if occ.Before(lower) {
			continue
		}
		dates = append(dates, occ)
	}
	return dates, nil
}

// nth returns the date of the Nth occurrence, counting the anchor period as
// zero.
func nth(r Rule, n int) time.Time {
	anchor := DateOnly(r.Anchor)

	switch r.Period {
	case models.PeriodTypeDaily:
		return anchor.AddDate(0, 0, n*r.Interval)
	case models.PeriodTypeWeekly:
		return anchor.AddDate(0, 0, n*r.Interval*7)
	case models.PeriodTypeFortnightly:
		return anchor.AddDate(0, 0, n*r.Interval*14)
	case models.PeriodTypeMonthly:
		// Explicit month arithmetic: AddDate would normalize Jan 31 + 1
		// month into March.
		months := int(anchor.Month()) - 1 + n*r.Interval
		year := anchor.Year() + months/12
		month := time.Month(months%12 + 1)
		return resolveDay(r, year, month)
	case models.PeriodTypeAnnually:
		year := anchor.Year() + n*r.Interval
		day := anchor.Day()
		if last := daysIn(year, anchor.Month()); day > last {
			day = last // Feb 29 anchors land on Feb 28 in common years
		}
		return time.Date(year, anchor.Month(), day, 0, 0, 0, 0, time.UTC)
	default:
		return anchor
	}
}

// Next returns the first occurrence at or after asOf, or false when the rule
// is exhausted (every remaining date is past its end).
func Next(r Rule, asOf time.Time) (time.Time, bool) {
	if err := Validate(r); err != nil {
		return time.Time{}, false
	}

	asOf = DateOnly(asOf)
	for n := 0; n < hardIterationLimit; n++ {
		occ := nth(r, n)
		if r.End != nil && occ.After(DateOnly(*r.End)) {
			return time.Time{}, false
		}
		if !occ.Before(asOf) {
			return occ, true
		}
	}
	return time.Time{}, false
}

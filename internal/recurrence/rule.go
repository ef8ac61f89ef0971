// Package recurrence expands recurring-template definitions into concrete
// calendar dates. All functions are pure: identical inputs always produce
// identical output, and all date math happens on date-only UTC values so the
// caller's timezone cannot shift an occurrence across midnight.
package recurrence

import (
	"errors"
	"time"

	"ledgerly/internal/models"
)

// MaxWindowDays caps the size of an expansion window. Windows larger than
// this are rejected before any computation to bound cost.
const MaxWindowDays = 5 * 366

var (
	ErrUnknownPeriod      = errors.New("unknown period type")
	ErrInvalidInterval    = errors.New("interval must be at least 1")
	ErrPolicyNeedsMonthly = errors.New("day-of-month policy requires a monthly period")
	ErrMissingDayOfMonth  = errors.New("fixed day policy requires day_of_month")
	ErrInvalidDayOfMonth  = errors.New("day_of_month must be between 1 and 31")
	ErrMissingWeekday     = errors.New("weekday policy requires day_of_week")
	ErrInvalidWeekday     = errors.New("day_of_week must be between 0 (Sunday) and 6 (Saturday)")
	ErrWindowInverted     = errors.New("window start is after window end")
	ErrWindowTooLarge     = errors.New("window exceeds the maximum size")
)

// Rule is the recurrence definition of a template, decoupled from the
// persistence model so the resolver can be exercised without a database.
type Rule struct {
	Anchor     time.Time
	Period     models.PeriodType
	Interval   int
	DayOfMonth *int
	DayPolicy  models.DayOfMonthType // empty means fixed on the anchor's day
	Weekday    *time.Weekday
	End        *time.Time
}

// Validate rejects invalid recurrence configurations so the resolver never
// receives one. Called at template create/update time.
func Validate(r Rule) error {
	if r.Interval < 1 {
		return ErrInvalidInterval
	}

	switch r.Period {
	case models.PeriodTypeDaily, models.PeriodTypeWeekly, models.PeriodTypeFortnightly,
		models.PeriodTypeMonthly, models.PeriodTypeAnnually:
	default:
		return ErrUnknownPeriod
	}

	if r.DayPolicy == "" {
		return nil
	}
	if r.Period != models.PeriodTypeMonthly {
		return ErrPolicyNeedsMonthly
	}

	switch r.DayPolicy {
	case models.DayOfMonthFixed:
		if r.DayOfMonth == nil {
			return ErrMissingDayOfMonth
		}
		if *r.DayOfMonth < 1 || *r.DayOfMonth > 31 {
			return ErrInvalidDayOfMonth
		}
	case models.DayOfMonthFirstOfWeek, models.DayOfMonthLastOfWeek:
		if r.Weekday == nil {
			return ErrMissingWeekday
		}
		if *r.Weekday < time.Sunday || *r.Weekday > time.Saturday {
			return ErrInvalidWeekday
		}
	case models.DayOfMonthLastDay, models.DayOfMonthFirstWeekday, models.DayOfMonthLastWeekday:
		// No extra fields required.
	default:
		return ErrUnknownPeriod
	}
	return nil
}

// RuleFromTemplate builds a Rule from a persisted template's recurrence
// fields.
func RuleFromTemplate(t *models.RecurringTemplate) Rule {
	r := Rule{
		Anchor:     t.FirstOccurrence,
		Period:     t.PeriodType,
		Interval:   t.Interval,
		DayOfMonth: t.DayOfMonth,
		End:        t.EndDate,
	}
	if t.DayOfMonthType != nil {
		r.DayPolicy = *t.DayOfMonthType
	}
	if t.DayOfWeek != nil {
		w := time.Weekday(*t.DayOfWeek)
		r.Weekday = &w
	}
	return r
}

// DateOnly strips the time component, pinning the value to midnight UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

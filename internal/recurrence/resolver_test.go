package recurrence

import (
	"errors"
	"testing"
	"time"

	"ledgerly/internal/models"
)

func assertDates(t *testing.T, got []time.Time, want ...time.Time) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d dates, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("date %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestExpand(t *testing.T) {
	t.Run("daily", func(t *testing.T) {
		r := Rule{Anchor: date(2024, time.January, 1), Period: models.PeriodTypeDaily, Interval: 1}
		got, err := Expand(r, date(2024, time.January, 1), date(2024, time.January, 3))
		if err != nil {
			t.Fatal(err)
		}
		assertDates(t, got,
			date(2024, time.January, 1),
			date(2024, time.January, 2),
			date(2024, time.January, 3))
	})

	t.Run("weekly", func(t *testing.T) {
		r := Rule{Anchor: date(2024, time.January, 3), Period: models.PeriodTypeWeekly, Interval: 1}
		got, err := Expand(r, date(2024, time.January, 1), date(2024, time.January, 31))
		if err != nil {
			t.Fatal(err)
		}
		assertDates(t, got,
			date(2024, time.January, 3),
			date(2024, time.January, 10),
			date(2024, time.January, 17),
			date(2024, time.January, 24),
			date(2024, time.January, 31))
	})

	t.Run("fortnightly", func(t *testing.T) {
		r := Rule{Anchor: date(2024, time.January, 5), Period: models.PeriodTypeFortnightly, Interval: 1}
		got, err := Expand(r, date(2024, time.January, 1), date(2024, time.February, 5))
		if err != nil {
			t.Fatal(err)
		}
		assertDates(t, got,
			date(2024, time.January, 5),
			date(2024, time.January, 19),
			date(2024, time.February, 2))
	})

	t.Run("monthly_day_31_clamps_to_month_end", func(t *testing.T) {
		r := Rule{Anchor: date(2024, time.January, 31), Period: models.PeriodTypeMonthly, Interval: 1}
		got, err := Expand(r, date(2024, time.January, 1), date(2024, time.April, 30))
		if err != nil {
			t.Fatal(err)
		}
		assertDates(t, got,
			date(2024, time.January, 31),
			date(2024, time.February, 29),
			date(2024, time.March, 31),
			date(2024, time.April, 30))
	})

	t.Run("every_two_months_stays_on_anchor_grid", func(t *testing.T) {
		r := Rule{Anchor: date(2024, time.January, 15), Period: models.PeriodTypeMonthly, Interval: 2}
		// Window starts in February, an off-grid month.
		got, err := Expand(r, date(2024, time.February, 1), date(2024, time.May, 31))
		if err != nil {
			t.Fatal(err)
		}
		assertDates(t, got,
			date(2024, time.March, 15),
			date(2024, time.May, 15))
	})

	t.Run("annual_feb_29_clamps_in_common_years", func(t *testing.T) {
		r := Rule{Anchor: date(2024, time.February, 29), Period: models.PeriodTypeAnnually, Interval: 1}
		got, err := Expand(r, date(2024, time.January, 1), date(2026, time.December, 31))
		if err != nil {
			t.Fatal(err)
		}
		assertDates(t, got,
			date(2024, time.February, 29),
			date(2025, time.February, 28),
			date(2026, time.February, 28))
	})

	t.Run("window_before_anchor_is_empty", func(t *testing.T) {
		r := Rule{Anchor: date(2024, time.June, 1), Period: models.PeriodTypeDaily, Interval: 1}
		got, err := Expand(r, date(2024, time.January, 1), date(2024, time.January, 31))
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 0 {
			t.Errorf("expected no dates before anchor, got %v", got)
		}
	})

	t.Run("end_date_caps_expansion", func(t *testing.T) {
		end := date(2024, time.January, 5)
		r := Rule{Anchor: date(2024, time.January, 1), Period: models.PeriodTypeDaily, Interval: 1, End: &end}
		got, err := Expand(r, date(2024, time.January, 1), date(2024, time.January, 31))
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 5 {
			t.Errorf("expected 5 dates up to end, got %d", len(got))
		}
	})

	t.Run("inverted_window", func(t *testing.T) {
		r := Rule{Anchor: date(2024, time.January, 1), Period: models.PeriodTypeDaily, Interval: 1}
		_, err := Expand(r, date(2024, time.February, 1), date(2024, time.January, 1))
		if !errors.Is(err, ErrWindowInverted) {
			t.Fatalf("expected ErrWindowInverted, got %v", err)
		}
	})

	t.Run("oversized_window", func(t *testing.T) {
		r := Rule{Anchor: date(2020, time.January, 1), Period: models.PeriodTypeDaily, Interval: 1}
		_, err := Expand(r, date(2020, time.January, 1), date(2026, time.January, 1))
		if !errors.Is(err, ErrWindowTooLarge) {
			t.Fatalf("expected ErrWindowTooLarge, got %v", err)
		}
	})

	t.Run("invalid_rule_rejected", func(t *testing.T) {
		r := Rule{Anchor: date(2024, time.January, 1), Period: models.PeriodTypeDaily, Interval: 0}
		_, err := Expand(r, date(2024, time.January, 1), date(2024, time.January, 31))
		if !errors.Is(err, ErrInvalidInterval) {
			t.Fatalf("expected ErrInvalidInterval, got %v", err)
		}
	})
}

func TestExpandDayPolicies(t *testing.T) {
	monthly := func(policy models.DayOfMonthType, opts ...func(*Rule)) Rule {
		r := Rule{
			Anchor:    date(2024, time.January, 1),
			Period:    models.PeriodTypeMonthly,
			Interval:  1,
			DayPolicy: policy,
		}
		for _, opt := range opts {
			opt(&r)
		}
		return r
	}

	t.Run("first_of_week_monday", func(t *testing.T) {
		r := monthly(models.DayOfMonthFirstOfWeek, func(r *Rule) { r.Weekday = weekdayPtr(time.Monday) })
		got, err := Expand(r, date(2024, time.January, 1), date(2024, time.March, 31))
		if err != nil {
			t.Fatal(err)
		}
		assertDates(t, got,
			date(2024, time.January, 1),
			date(2024, time.February, 5),
			date(2024, time.March, 4))
	})

	t.Run("last_of_week_friday", func(t *testing.T) {
		r := monthly(models.DayOfMonthLastOfWeek, func(r *Rule) { r.Weekday = weekdayPtr(time.Friday) })
		got, err := Expand(r, date(2024, time.February, 1), date(2024, time.February, 29))
		if err != nil {
			t.Fatal(err)
		}
		assertDates(t, got, date(2024, time.February, 23))
	})

	t.Run("last_day", func(t *testing.T) {
		r := monthly(models.DayOfMonthLastDay)
		got, err := Expand(r, date(2024, time.January, 1), date(2024, time.March, 31))
		if err != nil {
			t.Fatal(err)
		}
		assertDates(t, got,
			date(2024, time.January, 31),
			date(2024, time.February, 29),
			date(2024, time.March, 31))
	})

	t.Run("first_weekday_skips_weekend_starts", func(t *testing.T) {
		r := monthly(models.DayOfMonthFirstWeekday)
		// June 2024 starts on a Saturday, September on a Sunday.
		got, err := Expand(r, date(2024, time.June, 1), date(2024, time.June, 30))
		if err != nil {
			t.Fatal(err)
		}
		assertDates(t, got, date(2024, time.June, 3))

		got, err = Expand(r, date(2024, time.September, 1), date(2024, time.September, 30))
		if err != nil {
			t.Fatal(err)
		}
		assertDates(t, got, date(2024, time.September, 2))
	})

	t.Run("last_weekday_skips_weekend_ends", func(t *testing.T) {
		r := monthly(models.DayOfMonthLastWeekday)
		// March 2024 ends on a Sunday, November on a Saturday.
		got, err := Expand(r, date(2024, time.March, 1), date(2024, time.March, 31))
		if err != nil {
			t.Fatal(err)
		}
		assertDates(t, got, date(2024, time.March, 29))

		got, err = Expand(r, date(2024, time.November, 1), date(2024, time.November, 30))
		if err != nil {
			t.Fatal(err)
		}
		assertDates(t, got, date(2024, time.November, 29))
	})

	t.Run("fixed_day_overrides_anchor_day", func(t *testing.T) {
		r := monthly(models.DayOfMonthFixed, func(r *Rule) { r.DayOfMonth = intPtr(15) })
		got, err := Expand(r, date(2024, time.January, 1), date(2024, time.February, 29))
		if err != nil {
			t.Fatal(err)
		}
		assertDates(t, got,
			date(2024, time.January, 15),
			date(2024, time.February, 15))
	})
}

func TestNext(t *testing.T) {
	t.Run("before_anchor_returns_anchor", func(t *testing.T) {
		r := Rule{Anchor: date(2024, time.June, 1), Period: models.PeriodTypeMonthly, Interval: 1}
		got, ok := Next(r, date(2024, time.January, 15))
		if !ok {
			t.Fatal("expected an occurrence")
		}
		if !got.Equal(date(2024, time.June, 1)) {
			t.Errorf("expected anchor, got %v", got)
		}
	})

	t.Run("on_occurrence_returns_same_day", func(t *testing.T) {
		r := Rule{Anchor: date(2024, time.January, 1), Period: models.PeriodTypeMonthly, Interval: 1}
		got, ok := Next(r, date(2024, time.March, 1))
		if !ok {
			t.Fatal("expected an occurrence")
		}
		if !got.Equal(date(2024, time.March, 1)) {
			t.Errorf("expected 2024-03-01, got %v", got)
		}
	})

	t.Run("mid_cycle_steps_forward", func(t *testing.T) {
		r := Rule{Anchor: date(2024, time.January, 1), Period: models.PeriodTypeMonthly, Interval: 1}
		got, ok := Next(r, date(2024, time.March, 15))
		if !ok {
			t.Fatal("expected an occurrence")
		}
		if !got.Equal(date(2024, time.April, 1)) {
			t.Errorf("expected 2024-04-01, got %v", got)
		}
	})

	t.Run("exhausted_rule", func(t *testing.T) {
		end := date(2024, time.June, 1)
		r := Rule{Anchor: date(2024, time.January, 1), Period: models.PeriodTypeMonthly, Interval: 1, End: &end}
		_, ok := Next(r, date(2024, time.July, 1))
		if ok {
			t.Error("expected no occurrence past the end date")
		}
	})

	t.Run("invalid_rule", func(t *testing.T) {
		r := Rule{Anchor: date(2024, time.January, 1), Period: "hourly", Interval: 1}
		_, ok := Next(r, date(2024, time.January, 1))
		if ok {
			t.Error("expected no occurrence for invalid rule")
		}
	})
}

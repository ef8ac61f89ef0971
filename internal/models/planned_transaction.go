package models

import "time"

// PeriodType is the unit of recurrence for a template.
type PeriodType string

const (
	PeriodTypeDaily       PeriodType = "daily"
	PeriodTypeWeekly      PeriodType = "weekly"
	PeriodTypeFortnightly PeriodType = "fortnightly"
	PeriodTypeMonthly     PeriodType = "monthly"
	PeriodTypeAnnually    PeriodType = "annually"
)

// DayOfMonthType selects how monthly templates resolve the day within a month.
type DayOfMonthType string

const (
	DayOfMonthFixed        DayOfMonthType = "fixed"
	DayOfMonthLastDay      DayOfMonthType = "last_day"
	DayOfMonthFirstWeekday DayOfMonthType = "first_weekday"
	DayOfMonthLastWeekday  DayOfMonthType = "last_weekday"
	DayOfMonthFirstOfWeek  DayOfMonthType = "first_of_week"
	DayOfMonthLastOfWeek   DayOfMonthType = "last_of_week"
)

// RecurringTemplate defines a recurring planned transaction. Concrete
// occurrences are computed on demand from the recurrence fields; they are
// never stored unless the user customizes or skips a specific date.
type RecurringTemplate struct {
	Base
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	AccountID   uint            `gorm:"not null" json:"account_id"`
	CategoryID  *uint           `json:"category_id,omitempty"`
	Type        TransactionType `gorm:"not null" json:"type"`
	Amount      int64           `gorm:"type:bigint;not null" json:"amount"`
	Description string          `json:"description"`

	// Recurrence definition
	FirstOccurrence time.Time       `gorm:"not null" json:"first_occurrence"`
	PeriodType      PeriodType      `gorm:"not null" json:"period_type"`
	Interval        int             `gorm:"not null;default:1" json:"interval"`
	DayOfMonth      *int            `json:"day_of_month,omitempty"`
	DayOfMonthType  *DayOfMonthType `json:"day_of_month_type,omitempty"`
	DayOfWeek       *int            `json:"day_of_week,omitempty"` // 0 = Sunday .. 6 = Saturday
	EndDate         *time.Time      `json:"end_date,omitempty"`
	IsActive        bool            `gorm:"default:true" json:"is_active"`

	// Matching configuration
	AutoMatchEnabled bool  `gorm:"default:true" json:"auto_match_enabled"`
	SkipReview       bool  `gorm:"default:false" json:"skip_review"`
	MatchTolerance   int64 `gorm:"type:bigint;default:0" json:"match_tolerance"` // cents; 0 = not configured
	MatchWindowDays  int   `gorm:"default:3" json:"match_window_days"`

	// Relationships
	Account   Account              `gorm:"foreignKey:AccountID" json:"account"`
	Category  *Category            `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Overrides []PlannedTransaction `gorm:"foreignKey:TemplateID" json:"overrides,omitempty"`
}

// OverrideKind distinguishes a customized occurrence from a skipped one.
type OverrideKind string

const (
	OverrideKindCustomized OverrideKind = "customized"
	OverrideKindSkipped    OverrideKind = "skipped"
)

// PlannedTransaction is a persisted planned occurrence. With a TemplateID it
// is an override keyed by (template_id, expected_date) that supersedes the
// computed occurrence for that date; without one it is a one-off planned
// transaction.
type PlannedTransaction struct {
	Base
	UserID       uint            `gorm:"not null;index" json:"user_id"`
	TemplateID   *uint           `gorm:"index:idx_override_key" json:"template_id,omitempty"`
	ExpectedDate time.Time       `gorm:"not null;index:idx_override_key" json:"expected_date"`
	Kind         OverrideKind    `gorm:"not null;default:'customized'" json:"kind"`
	// OriginalDate is set when a customization moved the occurrence off the
	// date the template would generate; it records the superseded slot so the
	// virtual occurrence for that slot stays suppressed.
	OriginalDate *time.Time      `json:"original_date,omitempty"`
	AccountID    uint            `gorm:"not null" json:"account_id"`
	CategoryID   *uint           `json:"category_id,omitempty"`
	Type         TransactionType `gorm:"not null" json:"type"`
	Amount       int64           `gorm:"type:bigint;not null" json:"amount"`
	Description  string          `json:"description"`

	// Relationships
	Template *RecurringTemplate `gorm:"foreignKey:TemplateID" json:"template,omitempty"`
	Account  Account            `gorm:"foreignKey:AccountID" json:"account"`
	Category *Category          `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// SlotDate is the template-generated date this row supersedes: the original
// date when the occurrence was moved, otherwise its expected date.
func (p *PlannedTransaction) SlotDate() time.Time {
	if p.OriginalDate != nil {
		return *p.OriginalDate
	}
	return p.ExpectedDate
}

package models

import "time"

// MatchMethod records how a match was made.
type MatchMethod string

const (
	MatchMethodAuto         MatchMethod = "auto"
	MatchMethodAutoReviewed MatchMethod = "auto_reviewed"
	MatchMethodManual       MatchMethod = "manual"
)

// MatchStatus is the lifecycle state of a match record. A dismissed record is
// terminal for that suggestion; a later suggestion creates a fresh row.
type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "pending"
	MatchStatusConfirmed MatchStatus = "confirmed"
	MatchStatusDismissed MatchStatus = "dismissed"
)

// Active reports whether this status blocks new matches for either side of
// the pair.
func (s MatchStatus) Active() bool {
	return s == MatchStatusPending || s == MatchStatusConfirmed
}

// TransactionMatch links a settled transaction to a planned occurrence.
// OccurrenceID is either a persisted planned-transaction ID or a
// virtual_{templateId}_{date} key.
type TransactionMatch struct {
	Base
	UserID        uint        `gorm:"not null;index" json:"user_id"`
	TransactionID uint        `gorm:"not null;index" json:"transaction_id"`
	OccurrenceID  string      `gorm:"not null;index" json:"occurrence_id"`
	TemplateID    *uint       `json:"template_id,omitempty"`
	ExpectedDate  time.Time   `gorm:"not null" json:"expected_date"`
	Score         int         `gorm:"not null" json:"score"`
	Method        MatchMethod `gorm:"not null" json:"method"`
	Status        MatchStatus `gorm:"not null;default:'pending'" json:"status"`

	// Relationships
	Transaction Transaction        `gorm:"foreignKey:TransactionID" json:"transaction"`
	Template    *RecurringTemplate `gorm:"foreignKey:TemplateID" json:"template,omitempty"`
}

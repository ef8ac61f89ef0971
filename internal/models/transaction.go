package models

import "time"

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeTransfer TransactionType = "transfer"
)

// MatchState is the denormalized match status carried on a transaction so
// listings can show it without joining against transaction_matches.
type MatchState string

const (
	MatchStateUnmatched MatchState = "unmatched"
	MatchStatePending   MatchState = "pending"
	MatchStateMatched   MatchState = "matched"
)

// Transaction represents a settled financial transaction in the system
type Transaction struct {
	Base
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	AccountID   uint            `gorm:"not null" json:"account_id"`
	CategoryID  *uint           `json:"category_id,omitempty"`
	Type        TransactionType `gorm:"not null" json:"type"`
	Amount      int64           `gorm:"type:bigint;not null" json:"amount"`
	Description string          `json:"description"`
	Date        time.Time       `gorm:"not null;index" json:"date"`

	// For transfers
	ToAccountID *uint `json:"to_account_id,omitempty"`

	// Match linkage, written when a match is confirmed and cleared on unmatch.
	MatchState MatchState `gorm:"not null;default:'unmatched'" json:"match_state"`

	// Relationships
	Account   Account   `gorm:"foreignKey:AccountID" json:"account"`
	ToAccount *Account  `gorm:"foreignKey:ToAccountID" json:"to_account,omitempty"`
	Category  *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

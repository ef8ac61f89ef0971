package models

// AccountType represents the type of account
type AccountType string

const (
	AccountTypeCash       AccountType = "cash"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeCreditCard AccountType = "credit_card"
)

// Account represents a financial account in the system
type Account struct {
	Base
	UserID      uint        `gorm:"not null;index" json:"user_id"`
	Name        string      `gorm:"not null" json:"name"`
	Type        AccountType `gorm:"not null" json:"type"`
	Description string      `json:"description"`
	Balance     int64       `gorm:"type:bigint;not null;default:0" json:"balance"`
	Currency    string      `gorm:"not null;default:'USD'" json:"currency"`
	IsActive    bool        `gorm:"default:true" json:"is_active"`

	// For credit cards
	CreditLimit int64 `gorm:"type:bigint" json:"credit_limit,omitempty"`

	// Relationships
	Transactions []Transaction        `gorm:"foreignKey:AccountID" json:"transactions,omitempty"`
	Templates    []RecurringTemplate  `gorm:"foreignKey:AccountID" json:"templates,omitempty"`
	Planned      []PlannedTransaction `gorm:"foreignKey:AccountID" json:"planned,omitempty"`
}

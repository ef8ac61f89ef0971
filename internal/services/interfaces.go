package services

import (
	"time"

	"gorm.io/gorm"

	"ledgerly/internal/matching"
	"ledgerly/internal/models"
	"ledgerly/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID uint, tokenHash string) error
	GetRefreshTokenHash(userID uint) (string, error)
}

// AccountUpdateFields holds optional account update parameters.
type AccountUpdateFields struct {
	Name        *string
	Description *string
	IsActive    *bool
	CreditLimit *int64
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateCashAccount(userID uint, name, description, currency string, initialBalance int64) (*models.Account, error)
	CreateSavingsAccount(userID uint, name, description, currency string, initialBalance int64) (*models.Account, error)
	CreateCreditCardAccount(userID uint, name, description, currency string, creditLimit int64) (*models.Account, error)
	GetUserAccounts(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(userID, accountID uint) (*models.Account, error)
	UpdateAccount(userID, accountID uint, fields AccountUpdateFields) (*models.Account, error)
	UpdateAccountBalance(tx *gorm.DB, account *models.Account, transactionType models.TransactionType, amount int64) error
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID uint, name string, categoryType models.CategoryType, description, icon, color string, parentID *uint) (*models.Category, error)
	GetUserCategories(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetUserCategoriesByType(userID uint, categoryType models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID uint) (*models.Category, error)
	UpdateCategory(userID, categoryID uint, name, description, icon, color string, parentID *uint) (*models.Category, error)
	DeleteCategory(userID, categoryID uint) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	AccountID  *uint
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *uint
	MinAmount  *int64
	MaxAmount  *int64
	MatchState *models.MatchState
}

// TransactionUpdateFields holds optional transaction update parameters.
// CategoryID is a double pointer: nil means no change, a pointer to nil
// clears the category.
type TransactionUpdateFields struct {
	AccountID   *uint
	CategoryID  **uint
	Type        *models.TransactionType
	Amount      *int64
	Description *string
	Date        *time.Time
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(userID, accountID uint, categoryID *uint, transactionType models.TransactionType, amount int64, description string, date time.Time) (*models.Transaction, error)
	CreateTransfer(userID, fromAccountID, toAccountID uint, amount int64, description string, date time.Time) (*models.Transaction, error)
	GetAccountTransactions(userID, accountID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetUserTransactions(userID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID uint) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID uint, fields TransactionUpdateFields) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID uint) error
	GetSpendingByCategory(userID uint, from, to time.Time) (*SpendingByCategoryResponse, error)
	GetMonthlySummary(userID uint, months int) ([]MonthlySummaryItem, error)
	GetDailySpending(userID uint, from, to time.Time) ([]DailySpendingItem, error)
}

// TemplateFields holds the full set of recurring-template parameters for
// create and update operations.
type TemplateFields struct {
	AccountID        uint
	CategoryID       *uint
	Type             models.TransactionType
	Amount           int64
	Description      string
	FirstOccurrence  time.Time
	PeriodType       models.PeriodType
	Interval         int
	DayOfMonth       *int
	DayOfMonthType   *models.DayOfMonthType
	DayOfWeek        *int
	EndDate          *time.Time
	AutoMatchEnabled *bool
	SkipReview       *bool
	MatchTolerance   *int64
	MatchWindowDays  *int
}

// OverrideFields holds the customizable fields of a planned occurrence.
type OverrideFields struct {
	Amount      *int64
	Date        *time.Time
	CategoryID  *uint
	AccountID   *uint
	Description *string
}

// OccurrenceListing is the result of expanding a template window: the
// effective occurrences plus the count of malformed overrides that were
// excluded rather than failing the whole computation.
type OccurrenceListing struct {
	Occurrences       []models.Occurrence `json:"occurrences"`
	MalformedSkipped  int                 `json:"malformed_skipped"`
	SkippedDatesCount int                 `json:"skipped_dates_count"`
}

// PlannedServicer defines the contract for recurring templates and their
// planned occurrences.
type PlannedServicer interface {
	CreateTemplate(userID uint, fields TemplateFields) (*models.RecurringTemplate, error)
	GetUserTemplates(userID uint, page pagination.PageRequest, isActive *bool) (*pagination.PageResponse[models.RecurringTemplate], error)
	GetTemplateByID(userID, templateID uint) (*models.RecurringTemplate, error)
	UpdateTemplate(userID, templateID uint, fields TemplateFields) (*models.RecurringTemplate, error)
	DeleteTemplate(userID, templateID uint) error

	ComputeOccurrences(userID, templateID uint, from, to time.Time) (*OccurrenceListing, error)
	NextOccurrence(userID, templateID uint, asOf time.Time) (*models.Occurrence, error)

	CustomizeOccurrence(userID, templateID uint, expectedDate time.Time, fields OverrideFields) (*models.PlannedTransaction, error)
	SkipOccurrence(userID, templateID uint, expectedDate time.Time) (*models.PlannedTransaction, error)
	DeleteOverride(userID, overrideID uint) error
	ResolveOccurrence(userID uint, occurrenceID string) (*models.Occurrence, error)
}

// AutoMatchSummary reports the outcome of a batch auto-match run. Per-item
// failures are collected here instead of aborting the batch.
type AutoMatchSummary struct {
	Processed int      `json:"processed"`
	Matched   int      `json:"matched"`
	Pending   int      `json:"pending"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors"`
}

// MatchServicer defines the contract for the match lifecycle: candidate
// search, scoring, and the pending/confirmed/dismissed state machine.
type MatchServicer interface {
	SuggestMatches(userID, transactionID uint) ([]matching.Candidate, error)
	ScoreCandidate(userID, transactionID uint, occurrenceID string) (*matching.Result, error)
	ConfirmMatch(userID, transactionID uint, occurrenceID string, method models.MatchMethod) (*models.TransactionMatch, error)
	DismissMatch(userID, transactionID uint, occurrenceID string) (*models.TransactionMatch, error)
	Unmatch(userID, matchID uint) error
	GetMatches(userID uint, page pagination.PageRequest, status *models.MatchStatus) (*pagination.PageResponse[models.TransactionMatch], error)
	AutoMatch(userID uint, transactionIDs []uint) (*AutoMatchSummary, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]any)
}

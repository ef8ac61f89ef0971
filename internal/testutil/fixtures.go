package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"ledgerly/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

func mustCreate(t *testing.T, db *gorm.DB, record interface{}) {
	t.Helper()
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("failed to create %T fixture: %v", record, err)
	}
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithEmail(t, db, fmt.Sprintf("user%d@test.com", nextID()))
}

// CreateTestUserWithEmail creates a user with the given email. The
// password is always "password123", hashed at bcrypt.MinCost to keep
// test runs fast.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{Email: email, Password: string(hash), IsActive: true}
	mustCreate(t, db, user)
	return user
}

// CreateTestCashAccount creates a cash account with zero balance.
func CreateTestCashAccount(t *testing.T, db *gorm.DB, userID uint) *models.Account {
	t.Helper()
	return CreateTestCashAccountWithBalance(t, db, userID, 0)
}

// CreateTestCashAccountWithBalance creates a cash account with the given balance (in cents).
func CreateTestCashAccountWithBalance(t *testing.T, db *gorm.DB, userID uint, balance int64) *models.Account {
	t.Helper()
	account := &models.Account{
		UserID:   userID,
		Name:     fmt.Sprintf("Test Account %d", nextID()),
		Type:     models.AccountTypeCash,
		Balance:  balance,
		Currency: "USD",
		IsActive: true,
	}
	mustCreate(t, db, account)
	return account
}

// CreateTestSavingsAccount creates a savings account.
func CreateTestSavingsAccount(t *testing.T, db *gorm.DB, userID uint) *models.Account {
	t.Helper()
	account := &models.Account{
		UserID:   userID,
		Name:     fmt.Sprintf("Test Savings Account %d", nextID()),
		Type:     models.AccountTypeSavings,
		Currency: "USD",
		IsActive: true,
	}
	mustCreate(t, db, account)
	return account
}

// CreateTestCreditCardAccount creates a credit card account with the
// given balance owed and a $5000 limit.
func CreateTestCreditCardAccount(t *testing.T, db *gorm.DB, userID uint, balance int64) *models.Account {
	t.Helper()
	account := &models.Account{
		UserID:      userID,
		Name:        fmt.Sprintf("Test Credit Card %d", nextID()),
		Type:        models.AccountTypeCreditCard,
		Balance:     balance,
		Currency:    "USD",
		IsActive:    true,
		CreditLimit: 500000,
	}
	mustCreate(t, db, account)
	return account
}

// CreateTestCategory creates a category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID uint, categoryType models.CategoryType) *models.Category {
	t.Helper()
	category := &models.Category{
		UserID: userID,
		Name:   fmt.Sprintf("Test Category %d", nextID()),
		Type:   categoryType,
	}
	mustCreate(t, db, category)
	return category
}

// CreateTestTransaction creates a transaction of the given type and amount (in cents).
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, accountID uint, txType models.TransactionType, amount int64) *models.Transaction {
	t.Helper()
	return CreateTestTransactionOn(t, db, userID, accountID, txType, amount, time.Now())
}

// CreateTestTransactionOn creates a transaction dated on the given day.
func CreateTestTransactionOn(t *testing.T, db *gorm.DB, userID, accountID uint, txType models.TransactionType, amount int64, date time.Time) *models.Transaction {
	t.Helper()
	tx := &models.Transaction{
		UserID:    userID,
		AccountID: accountID,
		Type:      txType,
		Amount:    amount,
		Date:      date,
	}
	mustCreate(t, db, tx)
	return tx
}

// CreateTestTemplate creates a monthly expense template anchored on the given
// first occurrence.
func CreateTestTemplate(t *testing.T, db *gorm.DB, userID, accountID uint, amount int64, firstOccurrence time.Time) *models.RecurringTemplate {
	t.Helper()
	template := &models.RecurringTemplate{
		UserID:           userID,
		AccountID:        accountID,
		Type:             models.TransactionTypeExpense,
		Amount:           amount,
		Description:      fmt.Sprintf("Test Template %d", nextID()),
		FirstOccurrence:  firstOccurrence,
		PeriodType:       models.PeriodTypeMonthly,
		Interval:         1,
		IsActive:         true,
		AutoMatchEnabled: true,
		MatchWindowDays:  3,
	}
	mustCreate(t, db, template)
	return template
}

// CreateTestOverride creates a customized override row for a template slot.
func CreateTestOverride(t *testing.T, db *gorm.DB, template *models.RecurringTemplate, expectedDate time.Time, amount int64) *models.PlannedTransaction {
	t.Helper()
	override := &models.PlannedTransaction{
		UserID:       template.UserID,
		TemplateID:   &template.ID,
		ExpectedDate: expectedDate,
		Kind:         models.OverrideKindCustomized,
		AccountID:    template.AccountID,
		CategoryID:   template.CategoryID,
		Type:         template.Type,
		Amount:       amount,
		Description:  template.Description,
	}
	mustCreate(t, db, override)
	return override
}

// CreateTestOneOff creates a planned transaction not tied to any template.
func CreateTestOneOff(t *testing.T, db *gorm.DB, userID, accountID uint, txType models.TransactionType, amount int64, expectedDate time.Time) *models.PlannedTransaction {
	t.Helper()
	planned := &models.PlannedTransaction{
		UserID:       userID,
		ExpectedDate: expectedDate,
		Kind:         models.OverrideKindCustomized,
		AccountID:    accountID,
		Type:         txType,
		Amount:       amount,
		Description:  fmt.Sprintf("Test Planned %d", nextID()),
	}
	mustCreate(t, db, planned)
	return planned
}

package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "ledgerly/internal/errors"
	"ledgerly/internal/models"
	"ledgerly/internal/pagination"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db             *gorm.DB
	accountService AccountServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, accountService AccountServicer) TransactionServicer {
	return &transactionService{
		db:             db,
		accountService: accountService,
	}
}

// CreateTransaction records an income or expense against one of the
// user's accounts and moves the account balance accordingly.
func (s *transactionService) CreateTransaction(
	userID uint,
	accountID uint,
	categoryID *uint,
	transactionType models.TransactionType,
	amount int64,
	description string,
	date time.Time,
) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if accountID == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account ID is required")
	}
	if date.IsZero() {
		date = time.Now()
	}

	account, err := s.accountService.GetAccountByID(userID, accountID)
	if err != nil {
		return nil, err
	}

	var result *models.Transaction
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		result, txErr = s.createTransactionWithDB(tx, userID, account, categoryID, transactionType, amount, description, date)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// createTransactionWithDB writes the transaction row and rebalances the
// account inside the caller's database transaction.
func (s *transactionService) createTransactionWithDB(
	tx *gorm.DB,
	userID uint,
	account *models.Account,
	categoryID *uint,
	transactionType models.TransactionType,
	amount int64,
	description string,
	date time.Time,
) (*models.Transaction, error) {
	transaction := &models.Transaction{
		UserID:      userID,
		AccountID:   account.ID,
		CategoryID:  categoryID,
		Type:        transactionType,
		Amount:      amount,
		Description: description,
		Date:        date,
	}

	if err := tx.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.accountService.UpdateAccountBalance(tx, account, transactionType, amount); err != nil {
		return nil, err
	}
	return transaction, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", *f.ToDate)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.MinAmount != nil {
		q = q.Where("amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("amount <= ?", *f.MaxAmount)
	}
	if f.MatchState != nil {
		q = q.Where("match_state = ?", *f.MatchState)
	}
	return q
}

// listTransactions counts and fetches one page of an already-filtered
// transaction query, newest first.
func listTransactions(base *gorm.DB, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Order("date DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetAccountTransactions retrieves a paginated, filtered list of transactions for a specific account.
func (s *transactionService) GetAccountTransactions(userID, accountID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	// Ownership check before touching any transaction rows.
	if _, err := s.accountService.GetAccountByID(userID, accountID); err != nil {
		return nil, err
	}

	page.Defaults()
	base := applyTransactionFilters(
		s.db.Model(&models.Transaction{}).Where("user_id = ? AND account_id = ?", userID, accountID),
		filter)
	return listTransactions(base, page)
}

// GetUserTransactions retrieves a paginated, filtered list of all the user's transactions.
func (s *transactionService) GetUserTransactions(userID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()
	base := applyTransactionFilters(
		s.db.Model(&models.Transaction{}).Where("user_id = ?", userID),
		filter)
	if filter.AccountID != nil {
		base = base.Where("account_id = ?", *filter.AccountID)
	}
	return listTransactions(base, page)
}

// GetTransactionByID retrieves one of the user's transactions.
func (s *transactionService) GetTransactionByID(userID, transactionID uint) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// DeleteTransaction removes a transaction and undoes its effect on the
// affected account balances.
func (s *transactionService) DeleteTransaction(userID, transactionID uint) error {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}
	account, err := s.accountService.GetAccountByID(userID, transaction.AccountID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		// Any active matches on this transaction die with it.
		if err := tx.Model(&models.TransactionMatch{}).
			Where("transaction_id = ? AND status IN ?", transaction.ID,
				[]models.MatchStatus{models.MatchStatusPending, models.MatchStatusConfirmed}).
			Update("status", models.MatchStatusDismissed).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		switch transaction.Type {
		case models.TransactionTypeIncome:
			return s.accountService.UpdateAccountBalance(tx, account, models.TransactionTypeExpense, transaction.Amount)
		case models.TransactionTypeExpense:
			return s.accountService.UpdateAccountBalance(tx, account, models.TransactionTypeIncome, transaction.Amount)
		case models.TransactionTypeTransfer:
			if transaction.ToAccountID == nil {
				return apperrors.ErrInvalidTransactionType
			}
			toAccount, err := s.accountService.GetAccountByID(userID, *transaction.ToAccountID)
			if err != nil {
				return err
			}
			if err := s.accountService.UpdateAccountBalance(tx, account, models.TransactionTypeIncome, transaction.Amount); err != nil {
				return err
			}
			return s.accountService.UpdateAccountBalance(tx, toAccount, models.TransactionTypeExpense, transaction.Amount)
		default:
			return apperrors.ErrInvalidTransactionType
		}
	})
}

// CreateTransfer moves funds between two of the user's accounts as a single
// transfer transaction.
func (s *transactionService) CreateTransfer(
	userID uint,
	fromAccountID uint,
	toAccountID uint,
	amount int64,
	description string,
	date time.Time,
) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if fromAccountID == toAccountID {
		return nil, apperrors.ErrSameAccountTransfer
	}
	if date.IsZero() {
		date = time.Now()
	}

	fromAccount, err := s.accountService.GetAccountByID(userID, fromAccountID)
	if err != nil {
		return nil, err
	}
	toAccount, err := s.accountService.GetAccountByID(userID, toAccountID)
	if err != nil {
		return nil, err
	}

	// Credit cards may go further into debt; everything else needs funds.
	if fromAccount.Type != models.AccountTypeCreditCard && fromAccount.Balance < amount {
		return nil, apperrors.ErrInsufficientBalance
	}

	transaction := &models.Transaction{
		UserID:      userID,
		AccountID:   fromAccount.ID,
		ToAccountID: &toAccount.ID,
		Type:        models.TransactionTypeTransfer,
		Amount:      amount,
		Description: description,
		Date:        date,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.accountService.UpdateAccountBalance(tx, fromAccount, models.TransactionTypeExpense, amount); err != nil {
			return err
		}
		return s.accountService.UpdateAccountBalance(tx, toAccount, models.TransactionTypeIncome, amount)
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// UpdateTransaction edits an income or expense transaction, rebalancing the
// affected accounts. Transfers cannot be edited; delete and recreate instead.
func (s *transactionService) UpdateTransaction(userID, transactionID uint, fields TransactionUpdateFields) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}

	if transaction.Type == models.TransactionTypeTransfer {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidTransactionType, "transfer transactions cannot be edited")
	}
	if fields.Type != nil && *fields.Type == models.TransactionTypeTransfer {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidTransactionType, "cannot change a transaction into a transfer")
	}
	if fields.Amount != nil && *fields.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}

	oldAccount, err := s.accountService.GetAccountByID(userID, transaction.AccountID)
	if err != nil {
		return nil, err
	}

	newAccount := oldAccount
	if fields.AccountID != nil && *fields.AccountID != transaction.AccountID {
		newAccount, err = s.accountService.GetAccountByID(userID, *fields.AccountID)
		if err != nil {
			return nil, err
		}
	}

	newType := transaction.Type
	if fields.Type != nil {
		newType = *fields.Type
	}
	newAmount := transaction.Amount
	if fields.Amount != nil {
		newAmount = *fields.Amount
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Reverse the old effect before applying the new one.
		reverseType := models.TransactionTypeExpense
		if transaction.Type == models.TransactionTypeExpense {
			reverseType = models.TransactionTypeIncome
		}
		if err := s.accountService.UpdateAccountBalance(tx, oldAccount, reverseType, transaction.Amount); err != nil {
			return err
		}
		if err := s.accountService.UpdateAccountBalance(tx, newAccount, newType, newAmount); err != nil {
			return err
		}

		transaction.AccountID = newAccount.ID
		transaction.Type = newType
		transaction.Amount = newAmount
		if fields.CategoryID != nil {
			transaction.CategoryID = *fields.CategoryID
		}
		if fields.Description != nil {
			transaction.Description = *fields.Description
		}
		if fields.Date != nil {
			transaction.Date = *fields.Date
		}

		if err := tx.Save(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

package services

import (
	"sort"
	"time"

	apperrors "ledgerly/internal/errors"
	"ledgerly/internal/models"
)

// uncategorizedColor is the chart color used for expenses with no category.
const uncategorizedColor = "#9CA3AF"

// SpendingByCategoryItem is one category's expense total within a date range.
type SpendingByCategoryItem struct {
	CategoryID    *uint  `json:"category_id,omitempty"`
	CategoryName  string `json:"category_name"`
	CategoryColor string `json:"category_color"`
	Total         int64  `json:"total"`
}

// SpendingByCategoryResponse is the category spending breakdown for a range.
type SpendingByCategoryResponse struct {
	TotalSpent int64                    `json:"total_spent"`
	Items      []SpendingByCategoryItem `json:"items"`
}

// MonthlySummaryItem is one month's income and expense totals.
type MonthlySummaryItem struct {
	Month    string `json:"month"` // formatted as 2006-01
	Income   int64  `json:"income"`
	Expenses int64  `json:"expenses"`
}

// DailySpendingItem is one day's expense total.
type DailySpendingItem struct {
	Date  string `json:"date"` // formatted as 2006-01-02
	Total int64  `json:"total"`
}

// GetSpendingByCategory returns expense totals grouped by category for the
// given range, sorted by total descending. Uncategorized expenses are grouped
// under a synthetic "Uncategorized" item.
func (s *transactionService) GetSpendingByCategory(userID uint, from, to time.Time) (*SpendingByCategoryResponse, error) {
	var transactions []models.Transaction
	err := s.db.
		Where("user_id = ? AND type = ? AND date BETWEEN ? AND ?",
			userID, models.TransactionTypeExpense, from, to).
		Find(&transactions).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// Aggregation happens in Go so the query stays portable across the
	// postgres and sqlite dialects.
	totals := make(map[uint]int64)
	var uncategorized int64
	var totalSpent int64
	for _, tx := range transactions {
		totalSpent += tx.Amount
		if tx.CategoryID == nil {
			uncategorized += tx.Amount
			continue
		}
		totals[*tx.CategoryID] += tx.Amount
	}

	items := make([]SpendingByCategoryItem, 0, len(totals)+1)
	if len(totals) > 0 {
		ids := make([]uint, 0, len(totals))
		for id := range totals {
			ids = append(ids, id)
		}
		var categories []models.Category
		if err := s.db.Where("id IN ?", ids).Find(&categories).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for _, cat := range categories {
			id := cat.ID
			items = append(items, SpendingByCategoryItem{
				CategoryID:    &id,
				CategoryName:  cat.Name,
				CategoryColor: cat.Color,
				Total:         totals[cat.ID],
			})
		}
	}
	if uncategorized > 0 {
		items = append(items, SpendingByCategoryItem{
			CategoryName:  "Uncategorized",
			CategoryColor: uncategorizedColor,
			Total:         uncategorized,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Total > items[j].Total
	})

	return &SpendingByCategoryResponse{TotalSpent: totalSpent, Items: items}, nil
}

// GetMonthlySummary returns income and expense totals for the last n months
// in chronological order, ending with the current month. Months with no
// activity are included with zero totals.
func (s *transactionService) GetMonthlySummary(userID uint, months int) ([]MonthlySummaryItem, error) {
	if months < 1 {
		months = 1
	}

	now := time.Now().UTC()
	firstMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)

	var transactions []models.Transaction
	err := s.db.
		Where("user_id = ? AND type IN ? AND date >= ?",
			userID, []models.TransactionType{models.TransactionTypeIncome, models.TransactionTypeExpense}, firstMonth).
		Find(&transactions).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	income := make(map[string]int64)
	expenses := make(map[string]int64)
	for _, tx := range transactions {
		key := tx.Date.UTC().Format("2006-01")
		if tx.Type == models.TransactionTypeIncome {
			income[key] += tx.Amount
		} else {
			expenses[key] += tx.Amount
		}
	}

	result := make([]MonthlySummaryItem, 0, months)
	for i := 0; i < months; i++ {
		key := firstMonth.AddDate(0, i, 0).Format("2006-01")
		result = append(result, MonthlySummaryItem{
			Month:    key,
			Income:   income[key],
			Expenses: expenses[key],
		})
	}
	return result, nil
}

// GetDailySpending returns the expense total for every day in the range,
// inclusive, with zero totals for days without expenses.
func (s *transactionService) GetDailySpending(userID uint, from, to time.Time) ([]DailySpendingItem, error) {
	var transactions []models.Transaction
	err := s.db.
		Where("user_id = ? AND type = ? AND date BETWEEN ? AND ?",
			userID, models.TransactionTypeExpense, from, to).
		Find(&transactions).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	totals := make(map[string]int64)
	for _, tx := range transactions {
		totals[tx.Date.UTC().Format("2006-01-02")] += tx.Amount
	}

	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)

	var result []DailySpendingItem
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		result = append(result, DailySpendingItem{Date: key, Total: totals[key]})
	}
	return result, nil
}

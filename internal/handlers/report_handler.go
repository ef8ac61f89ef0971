package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "ledgerly/internal/errors"
)

// reportRange resolves the from/to query parameters for report endpoints.
// When both are absent the range defaults to the current calendar month.
func reportRange(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := now

	if v := c.Query("from"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return from, to, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid from format, use RFC3339 or YYYY-MM-DD")
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return from, to, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid to format, use RFC3339 or YYYY-MM-DD")
		}
		to = t
	}
	if to.Before(from) {
		return from, to, apperrors.WithMessage(apperrors.ErrInvalidInput, "to must not be before from")
	}
	return from, to, nil
}

// GetSpendingByCategory handles the spending-by-category report
// @Summary     Spending by category
// @Description Get total expense amounts grouped by category for a date range
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       from query string false "Start date (RFC3339 or YYYY-MM-DD, default first of current month)"
// @Param       to   query string false "End date (RFC3339 or YYYY-MM-DD, default now)"
// @Success     200 {object} services.SpendingByCategoryResponse "Spending breakdown"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/spending-by-category [get]
func (h *TransactionHandler) GetSpendingByCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	from, to, err := reportRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.GetSpendingByCategory(userID, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetMonthlySummary handles the monthly income/expense summary report
// @Summary     Monthly summary
// @Description Get per-month income and expense totals for the last N months
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       months query int false "Number of months to include (default 6, max 36)"
// @Success     200 {object} map[string][]services.MonthlySummaryItem "Monthly totals"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/monthly-summary [get]
func (h *TransactionHandler) GetMonthlySummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	months := 6
	if v := c.Query("months"); v != "" {
		n, parseErr := strconv.Atoi(v)
		if parseErr != nil || n < 1 || n > 36 {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "months must be between 1 and 36"))
			return
		}
		months = n
	}

	result, err := h.transactionService.GetMonthlySummary(userID, months)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"months": result})
}

// GetDailySpending handles the daily spending report
// @Summary     Daily spending
// @Description Get per-day expense totals for a date range
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       from query string false "Start date (RFC3339 or YYYY-MM-DD, default first of current month)"
// @Param       to   query string false "End date (RFC3339 or YYYY-MM-DD, default now)"
// @Success     200 {object} map[string][]services.DailySpendingItem "Daily totals"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/daily-spending [get]
func (h *TransactionHandler) GetDailySpending(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	from, to, err := reportRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.GetDailySpending(userID, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"days": result})
}

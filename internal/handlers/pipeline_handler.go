package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "ledgerly/internal/errors"
	"ledgerly/internal/logger"
	"ledgerly/internal/models"
	"ledgerly/internal/services"
)

// PipelineHandler handles machine-to-machine ingest requests, authenticated
// by API key rather than a user token.
type PipelineHandler struct {
	transactionService services.TransactionServicer
	matchService       services.MatchServicer
}

// NewPipelineHandler creates a new PipelineHandler.
func NewPipelineHandler(transactionService services.TransactionServicer, matchService services.MatchServicer) *PipelineHandler {
	return &PipelineHandler{transactionService: transactionService, matchService: matchService}
}

// ImportTransactionItem is a single transaction in an ingest batch.
type ImportTransactionItem struct {
	AccountID   uint                   `json:"account_id" binding:"required"`
	CategoryID  *uint                  `json:"category_id"`
	Type        models.TransactionType `json:"type" binding:"required,transaction_type"`
	Amount      int64                  `json:"amount" binding:"required,gt=0"`
	Description string                 `json:"description" binding:"max=500"`
	Date        string                 `json:"date" binding:"required"`
}

// ImportTransactionsRequest represents a bank-feed ingest batch for one user.
type ImportTransactionsRequest struct {
	UserID       uint                    `json:"user_id" binding:"required"`
	Transactions []ImportTransactionItem `json:"transactions" binding:"required,min=1,max=500"`
	AutoMatch    bool                    `json:"auto_match"`
}

// ImportTransactionsResponse summarizes an ingest run.
type ImportTransactionsResponse struct {
	Imported int                        `json:"imported"`
	Failed   int                        `json:"failed"`
	Errors   []string                   `json:"errors,omitempty"`
	Matching *services.AutoMatchSummary `json:"matching,omitempty"`
}

// ImportTransactions handles a bank-feed ingest batch
// @Summary     Import transactions
// @Description Ingest a batch of transactions for a user, optionally running auto-matching against planned occurrences afterwards. Authenticated by X-API-Key.
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Param       X-API-Key header string                    true "Pipeline API key"
// @Param       request   body   ImportTransactionsRequest true "Ingest batch"
// @Success     200 {object} ImportTransactionsResponse "Ingest summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /pipeline/transactions [post]
func (h *PipelineHandler) ImportTransactions(c *gin.Context) {
	var req ImportTransactionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	resp := ImportTransactionsResponse{}
	var imported []uint
	for i, item := range req.Transactions {
		date, err := parseFlexibleTime(item.Date)
		if err != nil {
			resp.Failed++
			resp.Errors = append(resp.Errors, fmt.Sprintf("item %d: invalid date", i))
			continue
		}

		tx, err := h.transactionService.CreateTransaction(
			req.UserID, item.AccountID, item.CategoryID,
			item.Type, item.Amount, item.Description, date,
		)
		if err != nil {
			resp.Failed++
			resp.Errors = append(resp.Errors, fmt.Sprintf("item %d: %v", i, err))
			continue
		}
		resp.Imported++
		imported = append(imported, tx.ID)
	}

	if req.AutoMatch && len(imported) > 0 {
		summary, err := h.matchService.AutoMatch(req.UserID, imported)
		if err != nil {
			logger.Get().Errorw("auto-match after ingest failed", "user_id", req.UserID, "error", err)
		} else {
			resp.Matching = summary
		}
	}

	c.JSON(http.StatusOK, resp)
}

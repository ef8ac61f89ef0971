package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "ledgerly/internal/errors"
	"ledgerly/internal/models"
	"ledgerly/internal/pagination"
	"ledgerly/internal/services"
)

// MatchHandler handles transaction-to-occurrence matching requests.
type MatchHandler struct {
	matchService services.MatchServicer
	auditService services.AuditServicer
}

// NewMatchHandler creates a new MatchHandler.
func NewMatchHandler(matchService services.MatchServicer, auditService services.AuditServicer) *MatchHandler {
	return &MatchHandler{matchService: matchService, auditService: auditService}
}

// ConfirmMatchRequest represents the request payload for confirming a match
type ConfirmMatchRequest struct {
	TransactionID uint   `json:"transaction_id" binding:"required"`
	OccurrenceID  string `json:"occurrence_id" binding:"required"`
}

// DismissMatchRequest represents the request payload for dismissing a suggestion
type DismissMatchRequest struct {
	TransactionID uint   `json:"transaction_id" binding:"required"`
	OccurrenceID  string `json:"occurrence_id" binding:"required"`
}

// AutoMatchRequest represents the request payload for a batch auto-match run.
// With no transaction IDs the run covers the user's unmatched transactions.
type AutoMatchRequest struct {
	TransactionIDs []uint `json:"transaction_ids"`
}

// GetSuggestions handles candidate search for a transaction
// @Summary     Get match suggestions
// @Description Score a transaction against nearby planned occurrences and return ranked candidates
// @Tags        matches
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Transaction ID"
// @Success     200 {array} matching.Candidate "Ranked candidates"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id}/suggestions [get]
func (h *MatchHandler) GetSuggestions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	candidates, err := h.matchService.SuggestMatches(userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"candidates": candidates})
}

// ConfirmMatch handles confirming a transaction-occurrence match
// @Summary     Confirm a match
// @Description Confirm a match between a transaction and a planned occurrence. A pending suggestion for the pair is promoted; otherwise a manual match is created.
// @Tags        matches
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ConfirmMatchRequest true "Pair to confirm"
// @Success     200 {object} models.TransactionMatch "Confirmed match"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction or occurrence not found"
// @Failure     409 {object} ErrorResponse "Transaction or occurrence already matched"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /matches/confirm [post]
func (h *MatchHandler) ConfirmMatch(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ConfirmMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	match, err := h.matchService.ConfirmMatch(userID, req.TransactionID, req.OccurrenceID, models.MatchMethodManual)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CONFIRM_MATCH", "transaction_match", match.ID, c.ClientIP(),
		map[string]interface{}{"transaction_id": req.TransactionID, "occurrence_id": req.OccurrenceID})

	c.JSON(http.StatusOK, gin.H{"match": match})
}

// DismissMatch handles rejecting a suggestion
// @Summary     Dismiss a suggestion
// @Description Dismiss a suggested pairing so it is never suggested again
// @Tags        matches
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body DismissMatchRequest true "Pair to dismiss"
// @Success     200 {object} models.TransactionMatch "Dismissed match"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction or occurrence not found"
// @Failure     409 {object} ErrorResponse "Match is confirmed, unmatch it instead"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /matches/dismiss [post]
func (h *MatchHandler) DismissMatch(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req DismissMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	match, err := h.matchService.DismissMatch(userID, req.TransactionID, req.OccurrenceID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DISMISS_MATCH", "transaction_match", match.ID, c.ClientIP(),
		map[string]interface{}{"transaction_id": req.TransactionID, "occurrence_id": req.OccurrenceID})

	c.JSON(http.StatusOK, gin.H{"match": match})
}

// Unmatch handles undoing a confirmed match
// @Summary     Unmatch
// @Description Undo a confirmed match. The transaction returns to the unmatched state and the pair may be suggested again.
// @Tags        matches
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Match ID"
// @Success     200 {object} MessageResponse "Match removed"
// @Failure     400 {object} ErrorResponse "Invalid match ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Match not found or not confirmed"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /matches/{id}/unmatch [post]
func (h *MatchHandler) Unmatch(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	matchID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.matchService.Unmatch(userID, matchID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UNMATCH", "transaction_match", matchID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Match removed successfully"})
}

// GetMatches handles listing the user's matches
// @Summary     Get matches
// @Description Get a paginated list of the user's matches, optionally filtered by status
// @Tags        matches
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Param       status    query string false "Filter by status (pending, confirmed, dismissed)"
// @Success     200 {object} pagination.PageResponse[models.TransactionMatch] "Paginated matches"
// @Failure     400 {object} ErrorResponse "Invalid status"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /matches [get]
func (h *MatchHandler) GetMatches(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var status *models.MatchStatus
	if v := c.Query("status"); v != "" {
		s := models.MatchStatus(v)
		switch s {
		case models.MatchStatusPending, models.MatchStatusConfirmed, models.MatchStatusDismissed:
			status = &s
		default:
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid status, must be pending, confirmed, or dismissed"))
			return
		}
	}

	result, err := h.matchService.GetMatches(userID, page, status)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// AutoMatch handles a batch auto-match run
// @Summary     Auto-match transactions
// @Description Score a batch of transactions against templates with auto-matching enabled. High-confidence pairs on skip-review templates are confirmed; the rest become pending suggestions.
// @Tags        matches
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body AutoMatchRequest true "Transactions to process (empty for all unmatched)"
// @Success     200 {object} services.AutoMatchSummary "Batch summary"
// @Failure     400 {object} ErrorResponse "Batch too large"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /matches/auto [post]
func (h *MatchHandler) AutoMatch(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AutoMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	summary, err := h.matchService.AutoMatch(userID, req.TransactionIDs)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "AUTO_MATCH", "transaction_match", 0, c.ClientIP(),
		map[string]interface{}{"processed": summary.Processed, "matched": summary.Matched, "pending": summary.Pending})

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

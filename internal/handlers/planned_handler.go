package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "ledgerly/internal/errors"
	"ledgerly/internal/models"
	"ledgerly/internal/pagination"
	"ledgerly/internal/services"
)

// PlannedHandler handles recurring templates and planned occurrences.
type PlannedHandler struct {
	plannedService services.PlannedServicer
	auditService   services.AuditServicer
}

// NewPlannedHandler creates a new PlannedHandler.
func NewPlannedHandler(plannedService services.PlannedServicer, auditService services.AuditServicer) *PlannedHandler {
	return &PlannedHandler{plannedService: plannedService, auditService: auditService}
}

// CreateTemplateRequest represents the request payload for creating a recurring template
type CreateTemplateRequest struct {
	AccountID        uint                    `json:"account_id" binding:"required"`
	CategoryID       *uint                   `json:"category_id"`
	Type             models.TransactionType  `json:"type" binding:"required,transaction_type"`
	Amount           int64                   `json:"amount" binding:"required,gt=0"`
	Description      string                  `json:"description" binding:"max=500"`
	FirstOccurrence  string                  `json:"first_occurrence" binding:"required"`
	PeriodType       models.PeriodType       `json:"period_type" binding:"required,period_type"`
	Interval         int                     `json:"interval" binding:"omitempty,gte=1"`
	DayOfMonth       *int                    `json:"day_of_month" binding:"omitempty,gte=1,lte=31"`
	DayOfMonthType   *models.DayOfMonthType  `json:"day_of_month_type" binding:"omitempty,day_of_month_type"`
	DayOfWeek        *int                    `json:"day_of_week" binding:"omitempty,day_of_week"`
	EndDate          *string                 `json:"end_date"`
	AutoMatchEnabled *bool                   `json:"auto_match_enabled"`
	SkipReview       *bool                   `json:"skip_review"`
	MatchTolerance   *int64                  `json:"match_tolerance" binding:"omitempty,gte=0"`
	MatchWindowDays  *int                    `json:"match_window_days" binding:"omitempty,gte=0,lte=31"`
}

// UpdateTemplateRequest represents the request payload for updating a recurring template
type UpdateTemplateRequest struct {
	AccountID        uint                   `json:"account_id"`
	CategoryID       *uint                  `json:"category_id"`
	Type             models.TransactionType `json:"type" binding:"omitempty,transaction_type"`
	Amount           int64                  `json:"amount" binding:"omitempty,gt=0"`
	Description      string                 `json:"description" binding:"max=500"`
	FirstOccurrence  *string                `json:"first_occurrence"`
	PeriodType       models.PeriodType      `json:"period_type" binding:"omitempty,period_type"`
	Interval         int                    `json:"interval" binding:"omitempty,gte=1"`
	DayOfMonth       *int                   `json:"day_of_month" binding:"omitempty,gte=1,lte=31"`
	DayOfMonthType   *models.DayOfMonthType `json:"day_of_month_type" binding:"omitempty,day_of_month_type"`
	DayOfWeek        *int                   `json:"day_of_week" binding:"omitempty,day_of_week"`
	EndDate          *string                `json:"end_date"`
	AutoMatchEnabled *bool                  `json:"auto_match_enabled"`
	SkipReview       *bool                  `json:"skip_review"`
	MatchTolerance   *int64                 `json:"match_tolerance" binding:"omitempty,gte=0"`
	MatchWindowDays  *int                   `json:"match_window_days" binding:"omitempty,gte=0,lte=31"`
}

// CustomizeOccurrenceRequest represents the request payload for editing a
// single occurrence of a template.
type CustomizeOccurrenceRequest struct {
	ExpectedDate string  `json:"expected_date" binding:"required"`
	Amount       *int64  `json:"amount" binding:"omitempty,gt=0"`
	Date         *string `json:"date"`
	CategoryID   *uint   `json:"category_id"`
	AccountID    *uint   `json:"account_id"`
	Description  *string `json:"description" binding:"omitempty,max=500"`
}

// SkipOccurrenceRequest represents the request payload for skipping a single occurrence.
type SkipOccurrenceRequest struct {
	ExpectedDate string `json:"expected_date" binding:"required"`
}

// CreateTemplate handles the creation of a new recurring template
// @Summary     Create a recurring template
// @Description Create a recurring planned transaction template
// @Tags        planned
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTemplateRequest true "Template details"
// @Success     201 {object} models.RecurringTemplate "Template created"
// @Failure     400 {object} ErrorResponse "Invalid input or recurrence configuration"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account or category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /planned/templates [post]
func (h *PlannedHandler) CreateTemplate(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	fields, err := templateFieldsFromRequest(
		req.AccountID, req.CategoryID, req.Type, req.Amount, req.Description,
		&req.FirstOccurrence, req.PeriodType, req.Interval,
		req.DayOfMonth, req.DayOfMonthType, req.DayOfWeek, req.EndDate,
		req.AutoMatchEnabled, req.SkipReview, req.MatchTolerance, req.MatchWindowDays,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}

	template, err := h.plannedService.CreateTemplate(userID, fields)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_TEMPLATE", "recurring_template", template.ID, c.ClientIP(),
		map[string]interface{}{"period_type": req.PeriodType, "amount": req.Amount})

	c.JSON(http.StatusCreated, gin.H{"template": template})
}

// GetTemplates handles the retrieval of recurring templates
// @Summary     Get recurring templates
// @Description Get a paginated list of the user's recurring templates
// @Tags        planned
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Param       is_active query bool   false "Filter by active state"
// @Success     200 {object} pagination.PageResponse[models.RecurringTemplate] "Paginated templates"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /planned/templates [get]
func (h *PlannedHandler) GetTemplates(c *gin.Context) {
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

	var isActive *bool
	switch c.Query("is_active") {
	case "":
	case "true":
		v := true
		isActive = &v
	case "false":
		v := false
		isActive = &v
	default:
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid is_active, must be true or false"))
		return
	}

	result, err := h.plannedService.GetUserTemplates(userID, page, isActive)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTemplateByID handles the retrieval of a specific template
// @Summary     Get template by ID
// @Description Get a specific recurring template by ID
// @Tags        planned
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Template ID"
// @Success     200 {object} models.RecurringTemplate "Template details"
// @Failure     400 {object} ErrorResponse "Invalid template ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Template not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /planned/templates/{id} [get]
func (h *PlannedHandler) GetTemplateByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	templateID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	template, err := h.plannedService.GetTemplateByID(userID, templateID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"template": template})
}

// UpdateTemplate handles updating an existing template
// @Summary     Update template
// @Description Update a recurring template. The merged recurrence configuration is re-validated.
// @Tags        planned
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                   true "Template ID"
// @Param       request body UpdateTemplateRequest true "Fields to update"
// @Success     200 {object} models.RecurringTemplate "Updated template"
// @Failure     400 {object} ErrorResponse "Invalid input or recurrence configuration"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Template not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /planned/templates/{id} [put]
func (h *PlannedHandler) UpdateTemplate(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	templateID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	fields, err := templateFieldsFromRequest(
		req.AccountID, req.CategoryID, req.Type, req.Amount, req.Description,
		req.FirstOccurrence, req.PeriodType, req.Interval,
		req.DayOfMonth, req.DayOfMonthType, req.DayOfWeek, req.EndDate,
		req.AutoMatchEnabled, req.SkipReview, req.MatchTolerance, req.MatchWindowDays,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}

	template, err := h.plannedService.UpdateTemplate(userID, templateID, fields)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_TEMPLATE", "recurring_template", templateID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"template": template})
}

// DeleteTemplate handles the deletion of a template
// @Summary     Delete template
// @Description Delete a recurring template along with its overrides. Pending matches against its occurrences are dismissed.
// @Tags        planned
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Template ID"
// @Success     200 {object} MessageResponse "Template deleted"
// @Failure     400 {object} ErrorResponse "Invalid template ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Template not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /planned/templates/{id} [delete]
func (h *PlannedHandler) DeleteTemplate(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	templateID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.plannedService.DeleteTemplate(userID, templateID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_TEMPLATE", "recurring_template", templateID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Template deleted successfully"})
}

// GetOccurrences handles expanding a template over a date window
// @Summary     Get template occurrences
// @Description Expand a template over [from, to] and merge with overrides into the effective occurrence list
// @Tags        planned
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id   path  int    true  "Template ID"
// @Param       from query string true  "Window start (RFC3339 or YYYY-MM-DD)"
// @Param       to   query string true  "Window end (RFC3339 or YYYY-MM-DD)"
// @Success     200 {object} services.OccurrenceListing "Effective occurrences"
// @Failure     400 {object} ErrorResponse "Invalid window or recurrence configuration"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Template not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /planned/templates/{id}/occurrences [get]
func (h *PlannedHandler) GetOccurrences(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	templateID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	from, err := parseFlexibleTime(c.Query("from"))
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid from date, use RFC3339 or YYYY-MM-DD"))
		return
	}
	to, err := parseFlexibleTime(c.Query("to"))
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid to date, use RFC3339 or YYYY-MM-DD"))
		return
	}

	listing, err := h.plannedService.ComputeOccurrences(userID, templateID, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, listing)
}

// GetNextOccurrence handles finding the next occurrence of a template
// @Summary     Get next occurrence
// @Description Get the first occurrence of a template at or after the given date (default today). Returns null when the template is inactive or exhausted.
// @Tags        planned
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  int    true  "Template ID"
// @Param       as_of query string false "Reference date (RFC3339 or YYYY-MM-DD, default today)"
// @Success     200 {object} models.Occurrence "Next occurrence, or null"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Template not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /planned/templates/{id}/next [get]
func (h *PlannedHandler) GetNextOccurrence(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	templateID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	asOf := time.Now()
	if v := c.Query("as_of"); v != "" {
		asOf, err = parseFlexibleTime(v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid as_of date, use RFC3339 or YYYY-MM-DD"))
			return
		}
	}

	occurrence, err := h.plannedService.NextOccurrence(userID, templateID, asOf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"occurrence": occurrence})
}

// CustomizeOccurrence handles editing a single occurrence of a template
// @Summary     Customize occurrence
// @Description Override a single generated occurrence with new amount, date, category, account, or description
// @Tags        planned
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                        true "Template ID"
// @Param       request body CustomizeOccurrenceRequest true "Occurrence changes"
// @Success     200 {object} models.PlannedTransaction "Override"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Template or occurrence not found"
// @Failure     409 {object} ErrorResponse "Target date already has an override"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /planned/templates/{id}/occurrences/customize [post]
func (h *PlannedHandler) CustomizeOccurrence(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	templateID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CustomizeOccurrenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	expectedDate, err := parseFlexibleTime(req.ExpectedDate)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid expected_date, use RFC3339 or YYYY-MM-DD"))
		return
	}

	fields := services.OverrideFields{
		Amount:      req.Amount,
		CategoryID:  req.CategoryID,
		AccountID:   req.AccountID,
		Description: req.Description,
	}
	if req.Date != nil && *req.Date != "" {
		moved, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid date, use RFC3339 or YYYY-MM-DD"))
			return
		}
		fields.Date = &moved
	}

	override, err := h.plannedService.CustomizeOccurrence(userID, templateID, expectedDate, fields)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CUSTOMIZE_OCCURRENCE", "planned_transaction", override.ID, c.ClientIP(),
		map[string]interface{}{"template_id": templateID, "expected_date": req.ExpectedDate})

	c.JSON(http.StatusOK, gin.H{"override": override})
}

// SkipOccurrence handles suppressing a single occurrence of a template
// @Summary     Skip occurrence
// @Description Skip a single generated occurrence. The date disappears from the effective list without ending the series.
// @Tags        planned
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                   true "Template ID"
// @Param       request body SkipOccurrenceRequest true "Occurrence to skip"
// @Success     200 {object} models.PlannedTransaction "Skip override"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Template or occurrence not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /planned/templates/{id}/occurrences/skip [post]
func (h *PlannedHandler) SkipOccurrence(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	templateID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SkipOccurrenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	expectedDate, err := parseFlexibleTime(req.ExpectedDate)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid expected_date, use RFC3339 or YYYY-MM-DD"))
		return
	}

	override, err := h.plannedService.SkipOccurrence(userID, templateID, expectedDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "SKIP_OCCURRENCE", "planned_transaction", override.ID, c.ClientIP(),
		map[string]interface{}{"template_id": templateID, "expected_date": req.ExpectedDate})

	c.JSON(http.StatusOK, gin.H{"override": override})
}

// DeleteOverride handles removing a persisted planned occurrence
// @Summary     Delete override
// @Description Delete an override or one-off planned transaction. For overrides this restores the template-generated occurrence.
// @Tags        planned
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Override ID"
// @Success     200 {object} MessageResponse "Override deleted"
// @Failure     400 {object} ErrorResponse "Invalid override ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Override not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /planned/overrides/{id} [delete]
func (h *PlannedHandler) DeleteOverride(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	overrideID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.plannedService.DeleteOverride(userID, overrideID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_OVERRIDE", "planned_transaction", overrideID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Override deleted successfully"})
}

// templateFieldsFromRequest converts the string dates of a template payload
// into service-level fields.
func templateFieldsFromRequest(
	accountID uint,
	categoryID *uint,
	txType models.TransactionType,
	amount int64,
	description string,
	firstOccurrence *string,
	periodType models.PeriodType,
	interval int,
	dayOfMonth *int,
	dayOfMonthType *models.DayOfMonthType,
	dayOfWeek *int,
	endDate *string,
	autoMatchEnabled, skipReview *bool,
	matchTolerance *int64,
	matchWindowDays *int,
) (services.TemplateFields, error) {
	fields := services.TemplateFields{
		AccountID:        accountID,
		CategoryID:       categoryID,
		Type:             txType,
		Amount:           amount,
		Description:      description,
		PeriodType:       periodType,
		Interval:         interval,
		DayOfMonth:       dayOfMonth,
		DayOfMonthType:   dayOfMonthType,
		DayOfWeek:        dayOfWeek,
		AutoMatchEnabled: autoMatchEnabled,
		SkipReview:       skipReview,
		MatchTolerance:   matchTolerance,
		MatchWindowDays:  matchWindowDays,
	}

	if firstOccurrence != nil && *firstOccurrence != "" {
		parsed, err := parseFlexibleTime(*firstOccurrence)
		if err != nil {
			return fields, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid first_occurrence, use RFC3339 or YYYY-MM-DD")
		}
		fields.FirstOccurrence = parsed
	}
	if endDate != nil && *endDate != "" {
		parsed, err := parseFlexibleTime(*endDate)
		if err != nil {
			return fields, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid end_date, use RFC3339 or YYYY-MM-DD")
		}
		fields.EndDate = &parsed
	}

	return fields, nil
}

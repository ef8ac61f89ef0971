package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "ledgerly/internal/errors"
	"ledgerly/internal/models"
	"ledgerly/internal/pagination"
	"ledgerly/internal/recurrence"
)

const defaultMatchWindowDays = 3

// plannedService handles recurring templates and their planned occurrences.
type plannedService struct {
	db             *gorm.DB
	accountService AccountServicer
}

// NewPlannedService creates a new PlannedServicer.
func NewPlannedService(db *gorm.DB, accountService AccountServicer) PlannedServicer {
	return &plannedService{db: db, accountService: accountService}
}

// CreateTemplate creates a recurring template. The recurrence configuration
// is validated here so the resolver never sees an invalid policy.
func (s *plannedService) CreateTemplate(userID uint, fields TemplateFields) (*models.RecurringTemplate, error) {
	if fields.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if _, err := s.accountService.GetAccountByID(userID, fields.AccountID); err != nil {
		return nil, err
	}
	if fields.CategoryID != nil {
		if err := s.checkCategoryOwnership(userID, *fields.CategoryID); err != nil {
			return nil, err
		}
	}

	template := &models.RecurringTemplate{
		UserID:          userID,
		AccountID:       fields.AccountID,
		CategoryID:      fields.CategoryID,
		Type:            fields.Type,
		Amount:          fields.Amount,
		Description:     fields.Description,
		FirstOccurrence: recurrence.DateOnly(fields.FirstOccurrence),
		PeriodType:      fields.PeriodType,
		Interval:        fields.Interval,
		DayOfMonth:      fields.DayOfMonth,
		DayOfMonthType:  fields.DayOfMonthType,
		DayOfWeek:       fields.DayOfWeek,
		EndDate:         fields.EndDate,
		IsActive:        true,
		MatchWindowDays: defaultMatchWindowDays,
	}
	if template.Interval == 0 {
		template.Interval = 1
	}
	template.AutoMatchEnabled = fields.AutoMatchEnabled == nil || *fields.AutoMatchEnabled
	if fields.SkipReview != nil {
		template.SkipReview = *fields.SkipReview
	}
	if fields.MatchTolerance != nil {
		template.MatchTolerance = *fields.MatchTolerance
	}
	if fields.MatchWindowDays != nil {
		template.MatchWindowDays = *fields.MatchWindowDays
	}

	if err := recurrence.Validate(recurrence.RuleFromTemplate(template)); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidRecurrence, err.Error())
	}

	if err := s.db.Create(template).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return template, nil
}

// GetUserTemplates returns a paginated list of the user's templates.
func (s *plannedService) GetUserTemplates(userID uint, page pagination.PageRequest, isActive *bool) (*pagination.PageResponse[models.RecurringTemplate], error) {
	page.Defaults()

	base := s.db.Model(&models.RecurringTemplate{}).Where("user_id = ?", userID)
	if isActive != nil {
		base = base.Where("is_active = ?", *isActive)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var templates []models.RecurringTemplate
	if err := base.Preload("Category").Scopes(pagination.Paginate(page)).Find(&templates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(templates, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetTemplateByID returns a template if it belongs to the user.
func (s *plannedService) GetTemplateByID(userID, templateID uint) (*models.RecurringTemplate, error) {
	var template models.RecurringTemplate
	if err := s.db.Where("id = ? AND user_id = ?", templateID, userID).First(&template).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTemplateNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &template, nil
}

// UpdateTemplate applies the provided fields and re-validates the resulting
// recurrence configuration before persisting.
func (s *plannedService) UpdateTemplate(userID, templateID uint, fields TemplateFields) (*models.RecurringTemplate, error) {
	template, err := s.GetTemplateByID(userID, templateID)
	if err != nil {
		return nil, err
	}

	if fields.AccountID != 0 && fields.AccountID != template.AccountID {
		if _, err := s.accountService.GetAccountByID(userID, fields.AccountID); err != nil {
			return nil, err
		}
		template.AccountID = fields.AccountID
	}
	if fields.CategoryID != nil {
		if err := s.checkCategoryOwnership(userID, *fields.CategoryID); err != nil {
			return nil, err
		}
		template.CategoryID = fields.CategoryID
	}
	if fields.Type != "" {
		template.Type = fields.Type
	}
	if fields.Amount > 0 {
		template.Amount = fields.Amount
	}
	if fields.Description != "" {
		template.Description = fields.Description
	}
	if !fields.FirstOccurrence.IsZero() {
		template.FirstOccurrence = recurrence.DateOnly(fields.FirstOccurrence)
	}
	if fields.PeriodType != "" {
		template.PeriodType = fields.PeriodType
	}
	if fields.Interval > 0 {
		template.Interval = fields.Interval
	}
	if fields.DayOfMonth != nil {
		template.DayOfMonth = fields.DayOfMonth
	}
	if fields.DayOfMonthType != nil {
		template.DayOfMonthType = fields.DayOfMonthType
	}
	if fields.DayOfWeek != nil {
		template.DayOfWeek = fields.DayOfWeek
	}
	if fields.EndDate != nil {
		template.EndDate = fields.EndDate
	}
	if fields.AutoMatchEnabled != nil {
		template.AutoMatchEnabled = *fields.AutoMatchEnabled
	}
	if fields.SkipReview != nil {
		template.SkipReview = *fields.SkipReview
	}
	if fields.MatchTolerance != nil {
		template.MatchTolerance = *fields.MatchTolerance
	}
	if fields.MatchWindowDays != nil {
		template.MatchWindowDays = *fields.MatchWindowDays
	}

	if err := recurrence.Validate(recurrence.RuleFromTemplate(template)); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidRecurrence, err.Error())
	}

	if err := s.db.Save(template).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return template, nil
}

// DeleteTemplate soft-deletes a template together with its overrides and
// dismisses any still-active matches against its occurrences.
func (s *plannedService) DeleteTemplate(userID, templateID uint) error {
	template, err := s.GetTemplateByID(userID, templateID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("template_id = ?", template.ID).Delete(&models.PlannedTransaction{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		// Dismissing the pending matches must also release their
		// transactions, or they stay stuck in the pending state with no
		// match behind it and never re-enter auto-matching.
		var txIDs []uint
		if err := tx.Model(&models.TransactionMatch{}).
			Where("template_id = ? AND status = ?", template.ID, models.MatchStatusPending).
			Pluck("transaction_id", &txIDs).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(&models.TransactionMatch{}).
			Where("template_id = ? AND status = ?", template.ID, models.MatchStatusPending).
			Update("status", models.MatchStatusDismissed).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if len(txIDs) > 0 {
			if err := tx.Model(&models.Transaction{}).Where("id IN ?", txIDs).
				Update("match_state", models.MatchStateUnmatched).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		if err := tx.Delete(template).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// ComputeOccurrences expands the template over [from, to] and merges the
// result with persisted overrides into the effective occurrence list.
func (s *plannedService) ComputeOccurrences(userID, templateID uint, from, to time.Time) (*OccurrenceListing, error) {
	template, err := s.GetTemplateByID(userID, templateID)
	if err != nil {
		return nil, err
	}

	dates, err := recurrence.Expand(recurrence.RuleFromTemplate(template), from, to)
	if err != nil {
		return nil, mapRecurrenceError(err)
	}

	overrides, err := s.loadOverrides(template.ID, recurrence.DateOnly(from), recurrence.DateOnly(to))
	if err != nil {
		return nil, err
	}

	occurrences, malformed, skipped := MergeOccurrences(template, dates, overrides)

	// An override moved past the window edge is loaded for slot
	// bookkeeping but must not appear outside the requested range.
	lo, hi := recurrence.DateOnly(from), recurrence.DateOnly(to)
	inWindow := occurrences[:0]
	for _, occ := range occurrences {
		if occ.ExpectedDate.Before(lo) || occ.ExpectedDate.After(hi) {
			continue
		}
		inWindow = append(inWindow, occ)
	}

	return &OccurrenceListing{
		Occurrences:       inWindow,
		MalformedSkipped:  malformed,
		SkippedDatesCount: skipped,
	}, nil
}

// NextOccurrence returns the first occurrence at or after asOf, or nil when
// the template is inactive or exhausted.
func (s *plannedService) NextOccurrence(userID, templateID uint, asOf time.Time) (*models.Occurrence, error) {
	template, err := s.GetTemplateByID(userID, templateID)
	if err != nil {
		return nil, err
	}
	if !template.IsActive {
		return nil, nil
	}

	date, ok := recurrence.Next(recurrence.RuleFromTemplate(template), asOf)
	if !ok {
		return nil, nil
	}
	occ := virtualOccurrence(template, date)
	return &occ, nil
}

// CustomizeOccurrence creates or updates the override for a template date.
// Missing fields inherit the template's values. Moving the date records the
// original slot so its virtual occurrence stays suppressed.
func (s *plannedService) CustomizeOccurrence(userID, templateID uint, expectedDate time.Time, fields OverrideFields) (*models.PlannedTransaction, error) {
	template, err := s.GetTemplateByID(userID, templateID)
	if err != nil {
		return nil, err
	}
	slot := recurrence.DateOnly(expectedDate)

	var override *models.PlannedTransaction
	err = s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.findOverrideBySlot(tx, template.ID, slot)
		if err != nil {
			return err
		}

		if existing == nil {
			ok, err := s.isGeneratedDate(template, slot)
			if err != nil {
				return err
			}
			if !ok {
				return apperrors.WithMessage(apperrors.ErrOccurrenceNotFound, "date is not an occurrence of this template")
			}
			existing = &models.PlannedTransaction{
				UserID:       userID,
				TemplateID:   &template.ID,
				ExpectedDate: slot,
				Kind:         models.OverrideKindCustomized,
				AccountID:    template.AccountID,
				CategoryID:   template.CategoryID,
				Type:         template.Type,
				Amount:       template.Amount,
				Description:  template.Description,
			}
		}

		existing.Kind = models.OverrideKindCustomized
		if fields.Amount != nil {
			existing.Amount = *fields.Amount
		}
		if fields.CategoryID != nil {
			if err := s.checkCategoryOwnership(userID, *fields.CategoryID); err != nil {
				return err
			}
			existing.CategoryID = fields.CategoryID
		}
		if fields.AccountID != nil {
			if _, err := s.accountService.GetAccountByID(userID, *fields.AccountID); err != nil {
				return err
			}
			existing.AccountID = *fields.AccountID
		}
		if fields.Description != nil {
			existing.Description = *fields.Description
		}
		if fields.Date != nil {
			moved := recurrence.DateOnly(*fields.Date)
			if !moved.Equal(existing.SlotDate()) {
				// The target date must not already be occupied by another
				// override of the same template.
				var clash int64
				if err := tx.Model(&models.PlannedTransaction{}).
					Where("template_id = ? AND expected_date = ? AND id != ?", template.ID, moved, existing.ID).
					Count(&clash).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
				if clash > 0 {
					return apperrors.ErrDuplicateOverride
				}
				slotDate := existing.SlotDate()
				existing.OriginalDate = &slotDate
			}
			existing.ExpectedDate = moved
		}

		if err := tx.Save(existing).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		override = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return override, nil
}

// SkipOccurrence suppresses a single template date. Skipping a virtual date
// materializes a skip override; skipping a customized override flips its
// kind. Deleting the override restores the generated occurrence.
func (s *plannedService) SkipOccurrence(userID, templateID uint, expectedDate time.Time) (*models.PlannedTransaction, error) {
	template, err := s.GetTemplateByID(userID, templateID)
	if err != nil {
		return nil, err
	}
	slot := recurrence.DateOnly(expectedDate)

	var override *models.PlannedTransaction
	err = s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.findOverrideBySlot(tx, template.ID, slot)
		if err != nil {
			return err
		}
		if existing != nil {
			existing.Kind = models.OverrideKindSkipped
			if err := tx.Save(existing).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			override = existing
			return nil
		}

		ok, err := s.isGeneratedDate(template, slot)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.WithMessage(apperrors.ErrOccurrenceNotFound, "date is not an occurrence of this template")
		}

		override = &models.PlannedTransaction{
			UserID:       userID,
			TemplateID:   &template.ID,
			ExpectedDate: slot,
			Kind:         models.OverrideKindSkipped,
			AccountID:    template.AccountID,
			CategoryID:   template.CategoryID,
			Type:         template.Type,
			Amount:       template.Amount,
			Description:  template.Description,
		}
		if err := tx.Create(override).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return override, nil
}

// DeleteOverride removes a persisted occurrence. For a customization or skip
// this restores the template-generated occurrence; for a one-off it removes
// the planned transaction entirely.
func (s *plannedService) DeleteOverride(userID, overrideID uint) error {
	var override models.PlannedTransaction
	if err := s.db.Where("id = ? AND user_id = ?", overrideID, userID).First(&override).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrOccurrenceNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Delete(&override).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ResolveOccurrence turns an occurrence identifier (persisted row ID or
// virtual_{templateId}_{date} key) back into its full occurrence context.
func (s *plannedService) ResolveOccurrence(userID uint, occurrenceID string) (*models.Occurrence, error) {
	if models.IsVirtualID(occurrenceID) {
		templateID, date, err := models.ParseVirtualID(occurrenceID)
		if err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
		}
		template, err := s.GetTemplateByID(userID, templateID)
		if err != nil {
			return nil, err
		}
		ok, err := s.isGeneratedDate(template, date)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperrors.WithMessage(apperrors.ErrOccurrenceNotFound, "date is not an occurrence of this template")
		}
		// An override for the slot supersedes the virtual occurrence.
		existing, err := s.findOverrideBySlot(s.db, template.ID, date)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, apperrors.WithMessage(apperrors.ErrOccurrenceNotFound, "occurrence has been customized or skipped")
		}
		occ := virtualOccurrence(template, date)
		return &occ, nil
	}

	plannedID, err := models.ParsePersistedOccurrenceID(occurrenceID)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	var planned models.PlannedTransaction
	if err := s.db.Preload("Template").Where("id = ? AND user_id = ?", plannedID, userID).First(&planned).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOccurrenceNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if planned.Kind == models.OverrideKindSkipped {
		return nil, apperrors.WithMessage(apperrors.ErrOccurrenceNotFound, "occurrence has been skipped")
	}
	occ := OccurrenceFromPlanned(&planned)
	return &occ, nil
}

func (s *plannedService) checkCategoryOwnership(userID, categoryID uint) error {
	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCategoryNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// loadOverrides fetches override rows whose effective or superseded date
// falls inside the window.
func (s *plannedService) loadOverrides(templateID uint, from, to time.Time) ([]models.PlannedTransaction, error) {
	var overrides []models.PlannedTransaction
	err := s.db.
		Where("template_id = ?", templateID).
		Where("(expected_date BETWEEN ? AND ?) OR (original_date BETWEEN ? AND ?)", from, to, from, to).
		Find(&overrides).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return overrides, nil
}

func (s *plannedService) findOverrideBySlot(tx *gorm.DB, templateID uint, slot time.Time) (*models.PlannedTransaction, error) {
	var override models.PlannedTransaction
	err := tx.
		Where("template_id = ?", templateID).
		Where("(original_date IS NULL AND expected_date = ?) OR original_date = ?", slot, slot).
		First(&override).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &override, nil
}

// isGeneratedDate reports whether the template's recurrence produces the
// given date.
func (s *plannedService) isGeneratedDate(template *models.RecurringTemplate, date time.Time) (bool, error) {
	dates, err := recurrence.Expand(recurrence.RuleFromTemplate(template), date, date)
	if err != nil {
		return false, mapRecurrenceError(err)
	}
	return len(dates) == 1, nil
}

func mapRecurrenceError(err error) error {
	switch {
	case errors.Is(err, recurrence.ErrWindowInverted), errors.Is(err, recurrence.ErrWindowTooLarge):
		return apperrors.WithMessage(apperrors.ErrOutOfRangeWindow, err.Error())
	default:
		return apperrors.WithMessage(apperrors.ErrInvalidRecurrence, err.Error())
	}
}

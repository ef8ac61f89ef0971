package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "ledgerly/internal/errors"
	"ledgerly/internal/matching"
	"ledgerly/internal/models"
	"ledgerly/internal/pagination"
	"ledgerly/internal/recurrence"
)

const (
	maxAutoMatchBatch      = 500
	oneOffSearchWindowDays = 31
)

// matchService links imported transactions to planned occurrences.
type matchService struct {
	db             *gorm.DB
	plannedService PlannedServicer
	cfg            matching.Config
}

// NewMatchService creates a new MatchServicer using the default scoring
// configuration.
func NewMatchService(db *gorm.DB, plannedService PlannedServicer) MatchServicer {
	return &matchService{
		db:             db,
		plannedService: plannedService,
		cfg:            matching.DefaultConfig(),
	}
}

// SuggestMatches scores a transaction against every candidate occurrence
// near its date and returns the ranked results. Occurrences already claimed
// by an active match, and pairs the user previously dismissed, are excluded.
func (s *matchService) SuggestMatches(userID, transactionID uint) ([]matching.Candidate, error) {
	tx, err := s.getUserTransaction(userID, transactionID)
	if err != nil {
		return nil, err
	}

	occurrences, err := s.candidateOccurrences(userID, tx.Date)
	if err != nil {
		return nil, err
	}

	claimed, dismissed, err := s.loadMatchState(userID, tx.ID)
	if err != nil {
		return nil, err
	}

	var candidates []matching.Candidate
	for _, occ := range occurrences {
		if claimed[occ.ID] || dismissed[occ.ID] {
			continue
		}
		result, ok := s.cfg.Score(tx, occ)
		if !ok {
			continue
		}
		candidates = append(candidates, matching.Candidate{
			Occurrence: occ,
			Score:      result.Score,
			Tier:       s.cfg.Tier(result.Score),
			Reasons:    result.Reasons,
		})
	}
	matching.RankCandidates(candidates, tx.Date)
	return candidates, nil
}

// ScoreCandidate scores a single transaction-occurrence pair. Rejected pairs
// come back with a zero score and the rejection reason instead of an error.
func (s *matchService) ScoreCandidate(userID, transactionID uint, occurrenceID string) (*matching.Result, error) {
	tx, err := s.getUserTransaction(userID, transactionID)
	if err != nil {
		return nil, err
	}
	occ, err := s.plannedService.ResolveOccurrence(userID, occurrenceID)
	if err != nil {
		return nil, err
	}
	result, ok := s.cfg.Score(tx, *occ)
	if !ok {
		return &matching.Result{Score: 0, Reasons: result.Reasons}, nil
	}
	return &result, nil
}

// ConfirmMatch records a confirmed link between a transaction and an
// occurrence. A pending suggestion for the pair is promoted in place,
// keeping its original method; otherwise a new match is created with the
// given method. Either side already holding a different active match is a
// conflict.
func (s *matchService) ConfirmMatch(userID, transactionID uint, occurrenceID string, method models.MatchMethod) (*models.TransactionMatch, error) {
	tx, err := s.getUserTransaction(userID, transactionID)
	if err != nil {
		return nil, err
	}
	occ, err := s.plannedService.ResolveOccurrence(userID, occurrenceID)
	if err != nil {
		return nil, err
	}

	var match *models.TransactionMatch
	err = s.db.Transaction(func(dbtx *gorm.DB) error {
		existing, err := findPairMatch(dbtx, userID, tx.ID, occ.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.Status == models.MatchStatusConfirmed {
				match = existing
				return nil
			}
			existing.Status = models.MatchStatusConfirmed
			if err := dbtx.Save(existing).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			match = existing
			return setTransactionMatchState(dbtx, tx.ID, models.MatchStateMatched)
		}

		if err := checkMatchConflict(dbtx, userID, tx.ID, occ.ID); err != nil {
			return err
		}

		result, _ := s.cfg.Score(tx, *occ)
		match = &models.TransactionMatch{
			UserID:        userID,
			TransactionID: tx.ID,
			OccurrenceID:  occ.ID,
			TemplateID:    occ.TemplateID,
			ExpectedDate:  occ.ExpectedDate,
			Score:         result.Score,
			Method:        method,
			Status:        models.MatchStatusConfirmed,
		}
		if err := dbtx.Create(match).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return setTransactionMatchState(dbtx, tx.ID, models.MatchStateMatched)
	})
	if err != nil {
		return nil, err
	}
	return match, nil
}

// DismissMatch rejects a suggestion for a transaction-occurrence pair. An
// existing pending match is marked dismissed; with no pending match a
// dismissed tombstone is created so the pair is never suggested again.
func (s *matchService) DismissMatch(userID, transactionID uint, occurrenceID string) (*models.TransactionMatch, error) {
	tx, err := s.getUserTransaction(userID, transactionID)
	if err != nil {
		return nil, err
	}
	occ, err := s.plannedService.ResolveOccurrence(userID, occurrenceID)
	if err != nil {
		return nil, err
	}

	var match *models.TransactionMatch
	err = s.db.Transaction(func(dbtx *gorm.DB) error {
		existing, err := findPairMatch(dbtx, userID, tx.ID, occ.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.Status == models.MatchStatusConfirmed {
				return apperrors.WithMessage(apperrors.ErrMatchConflict, "match is confirmed; unmatch it instead")
			}
			existing.Status = models.MatchStatusDismissed
			if err := dbtx.Save(existing).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			match = existing
			return setTransactionMatchState(dbtx, tx.ID, models.MatchStateUnmatched)
		}

		result, _ := s.cfg.Score(tx, *occ)
		match = &models.TransactionMatch{
			UserID:        userID,
			TransactionID: tx.ID,
			OccurrenceID:  occ.ID,
			TemplateID:    occ.TemplateID,
			ExpectedDate:  occ.ExpectedDate,
			Score:         result.Score,
			Method:        models.MatchMethodManual,
			Status:        models.MatchStatusDismissed,
		}
		if err := dbtx.Create(match).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return match, nil
}

// Unmatch undoes a confirmed match. The pair may be suggested again later.
func (s *matchService) Unmatch(userID, matchID uint) error {
	return s.db.Transaction(func(dbtx *gorm.DB) error {
		match, err := getUserMatch(dbtx, userID, matchID)
		if err != nil {
			return err
		}
		if match.Status != models.MatchStatusConfirmed {
			return apperrors.WithMessage(apperrors.ErrMatchNotFound, "match is not confirmed")
		}
		if err := dbtx.Delete(match).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return setTransactionMatchState(dbtx, match.TransactionID, models.MatchStateUnmatched)
	})
}

// GetMatches returns a paginated list of the user's matches, optionally
// filtered by status.
func (s *matchService) GetMatches(userID uint, page pagination.PageRequest, status *models.MatchStatus) (*pagination.PageResponse[models.TransactionMatch], error) {
	page.Defaults()

	base := s.db.Model(&models.TransactionMatch{}).Where("user_id = ?", userID)
	if status != nil {
		base = base.Where("status = ?", *status)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var matches []models.TransactionMatch
	if err := base.Order("created_at DESC").Scopes(pagination.Paginate(page)).Find(&matches).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(matches, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// AutoMatch scores a batch of transactions against occurrences of templates
// with auto matching enabled. High-scoring pairs on skip-review templates
// are confirmed outright; the rest become pending suggestions. Per-item
// failures are collected so one bad transaction does not abort the batch.
func (s *matchService) AutoMatch(userID uint, transactionIDs []uint) (*AutoMatchSummary, error) {
	if len(transactionIDs) > maxAutoMatchBatch {
		return nil, apperrors.WithMessage(apperrors.ErrBatchTooLarge,
			fmt.Sprintf("batch size %d exceeds limit of %d", len(transactionIDs), maxAutoMatchBatch))
	}

	transactions, err := s.loadBatch(userID, transactionIDs)
	if err != nil {
		return nil, err
	}

	summary := &AutoMatchSummary{}
	for i := range transactions {
		tx := &transactions[i]
		summary.Processed++

		status, err := s.autoMatchOne(userID, tx)
		if err != nil {
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) && appErr.Code == apperrors.ErrMatchConflict.Code {
				summary.Skipped++
				continue
			}
			summary.Errors = append(summary.Errors, fmt.Sprintf("tx %d: %v", tx.ID, err))
			continue
		}
		switch status {
		case models.MatchStatusConfirmed:
			summary.Matched++
		case models.MatchStatusPending:
			summary.Pending++
		default:
			summary.Skipped++
		}
	}
	return summary, nil
}

// autoMatchOne evaluates a single transaction and returns the status of the
// match it produced, or empty when no candidate qualified.
func (s *matchService) autoMatchOne(userID uint, tx *models.Transaction) (models.MatchStatus, error) {
	occurrences, err := s.candidateOccurrences(userID, tx.Date)
	if err != nil {
		return "", err
	}

	claimed, dismissed, err := s.loadMatchState(userID, tx.ID)
	if err != nil {
		return "", err
	}

	enabled, err := s.autoMatchTemplates(userID)
	if err != nil {
		return "", err
	}

	var candidates []matching.Candidate
	for _, occ := range occurrences {
		if claimed[occ.ID] || dismissed[occ.ID] {
			continue
		}
		// One-offs are never auto matched without review enabled templates.
		if occ.TemplateID != nil && !enabled[*occ.TemplateID] {
			continue
		}
		result, ok := s.cfg.Score(tx, occ)
		if !ok {
			continue
		}
		candidates = append(candidates, matching.Candidate{
			Occurrence: occ,
			Score:      result.Score,
			Tier:       s.cfg.Tier(result.Score),
			Reasons:    result.Reasons,
		})
	}
	if len(candidates) == 0 {
		return "", nil
	}
	matching.RankCandidates(candidates, tx.Date)
	best := candidates[0]

	confirm := best.Score >= s.cfg.AutoConfirmThreshold && s.skipReview(userID, best.Occurrence)

	var status models.MatchStatus
	err = s.db.Transaction(func(dbtx *gorm.DB) error {
		if err := checkMatchConflict(dbtx, userID, tx.ID, best.Occurrence.ID); err != nil {
			return err
		}
		match := &models.TransactionMatch{
			UserID:        userID,
			TransactionID: tx.ID,
			OccurrenceID:  best.Occurrence.ID,
			TemplateID:    best.Occurrence.TemplateID,
			ExpectedDate:  best.Occurrence.ExpectedDate,
			Score:         best.Score,
		}
		if confirm {
			match.Method = models.MatchMethodAuto
			match.Status = models.MatchStatusConfirmed
		} else {
			match.Method = models.MatchMethodAutoReviewed
			match.Status = models.MatchStatusPending
		}
		if err := dbtx.Create(match).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		status = match.Status
		if confirm {
			return setTransactionMatchState(dbtx, tx.ID, models.MatchStateMatched)
		}
		return setTransactionMatchState(dbtx, tx.ID, models.MatchStatePending)
	})
	if err != nil {
		return "", err
	}
	return status, nil
}

// candidateOccurrences collects every occurrence near the given date: the
// expanded windows of each active template plus persisted one-offs.
func (s *matchService) candidateOccurrences(userID uint, date time.Time) ([]models.Occurrence, error) {
	day := recurrence.DateOnly(date)

	var templates []models.RecurringTemplate
	if err := s.db.Where("user_id = ? AND is_active = ?", userID, true).Find(&templates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var occurrences []models.Occurrence
	for i := range templates {
		t := &templates[i]
		window := t.MatchWindowDays
		if window <= 0 {
			window = defaultMatchWindowDays
		}
		listing, err := s.plannedService.ComputeOccurrences(userID, t.ID,
			day.AddDate(0, 0, -window), day.AddDate(0, 0, window))
		if err != nil {
			return nil, err
		}
		occurrences = append(occurrences, listing.Occurrences...)
	}

	var oneOffs []models.PlannedTransaction
	err := s.db.
		Where("user_id = ? AND template_id IS NULL", userID).
		Where("expected_date BETWEEN ? AND ?",
			day.AddDate(0, 0, -oneOffSearchWindowDays),
			day.AddDate(0, 0, oneOffSearchWindowDays)).
		Find(&oneOffs).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for i := range oneOffs {
		occurrences = append(occurrences, OccurrenceFromPlanned(&oneOffs[i]))
	}
	return occurrences, nil
}

// loadMatchState returns the occurrence IDs claimed by any active match and
// the ones this transaction has dismissed.
func (s *matchService) loadMatchState(userID, transactionID uint) (claimed, dismissed map[string]bool, err error) {
	var matches []models.TransactionMatch
	if err := s.db.Where("user_id = ?", userID).Find(&matches).Error; err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	claimed = make(map[string]bool)
	dismissed = make(map[string]bool)
	for _, m := range matches {
		if m.Status.Active() {
			claimed[m.OccurrenceID] = true
		}
		if m.Status == models.MatchStatusDismissed && m.TransactionID == transactionID {
			dismissed[m.OccurrenceID] = true
		}
	}
	return claimed, dismissed, nil
}

func (s *matchService) autoMatchTemplates(userID uint) (map[uint]bool, error) {
	var templates []models.RecurringTemplate
	if err := s.db.Where("user_id = ? AND auto_match_enabled = ?", userID, true).Find(&templates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	enabled := make(map[uint]bool, len(templates))
	for _, t := range templates {
		enabled[t.ID] = true
	}
	return enabled, nil
}

// skipReview reports whether the occurrence's template allows confirming
// without review. One-offs always require review.
func (s *matchService) skipReview(userID uint, occ models.Occurrence) bool {
	if occ.TemplateID == nil {
		return false
	}
	var template models.RecurringTemplate
	if err := s.db.Where("id = ? AND user_id = ?", *occ.TemplateID, userID).First(&template).Error; err != nil {
		return false
	}
	return template.SkipReview
}

func (s *matchService) loadBatch(userID uint, transactionIDs []uint) ([]models.Transaction, error) {
	query := s.db.Where("user_id = ?", userID)
	if len(transactionIDs) > 0 {
		query = query.Where("id IN ?", transactionIDs)
	} else {
		query = query.Where("match_state = ?", models.MatchStateUnmatched).Limit(maxAutoMatchBatch)
	}
	var transactions []models.Transaction
	if err := query.Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, nil
}

func (s *matchService) getUserTransaction(userID, transactionID uint) (*models.Transaction, error) {
	var tx models.Transaction
	if err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &tx, nil
}

func getUserMatch(dbtx *gorm.DB, userID, matchID uint) (*models.TransactionMatch, error) {
	var match models.TransactionMatch
	if err := dbtx.Where("id = ? AND user_id = ?", matchID, userID).First(&match).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMatchNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &match, nil
}

func findPairMatch(dbtx *gorm.DB, userID, transactionID uint, occurrenceID string) (*models.TransactionMatch, error) {
	var match models.TransactionMatch
	err := dbtx.
		Where("user_id = ? AND transaction_id = ? AND occurrence_id = ?", userID, transactionID, occurrenceID).
		Where("status IN ?", []models.MatchStatus{models.MatchStatusPending, models.MatchStatusConfirmed}).
		First(&match).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &match, nil
}

// checkMatchConflict enforces that a transaction and an occurrence each hold
// at most one active match.
func checkMatchConflict(dbtx *gorm.DB, userID, transactionID uint, occurrenceID string) error {
	var count int64
	err := dbtx.Model(&models.TransactionMatch{}).
		Where("user_id = ?", userID).
		Where("status IN ?", []models.MatchStatus{models.MatchStatusPending, models.MatchStatusConfirmed}).
		Where("transaction_id = ? OR occurrence_id = ?", transactionID, occurrenceID).
		Count(&count).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrMatchConflict
	}
	return nil
}

func setTransactionMatchState(dbtx *gorm.DB, transactionID uint, state models.MatchState) error {
	if err := dbtx.Model(&models.Transaction{}).Where("id = ?", transactionID).
		Update("match_state", state).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// Package matching scores settled transactions against planned occurrences.
// Scoring is pure: no state, no clock, no persistence. The reconciler in the
// services layer owns candidate search and the match lifecycle.
package matching

import (
	"fmt"
	"math"
	"time"

	"ledgerly/internal/models"
)

// Config holds the scoring weights and confidence thresholds. These are
// tunable policy, not business law; DefaultConfig gives the values the review
// UI was calibrated against.
type Config struct {
	AmountWeight   int
	DateWeight     int
	CategoryBonus  int
	DirectionBonus int

	// Confidence tiers consumed by review surfaces.
	HighThreshold   int
	MediumThreshold int

	// Minimum score for the auto-match path to confirm without review.
	AutoConfirmThreshold int
}

// DefaultConfig returns the default scoring configuration.
func DefaultConfig() Config {
	return Config{
		AmountWeight:         50,
		DateWeight:           30,
		CategoryBonus:        10,
		DirectionBonus:       10,
		HighThreshold:        90,
		MediumThreshold:      75,
		AutoConfirmThreshold: 90,
	}
}

// Tier buckets a score into the confidence tier shown to reviewers.
func (c Config) Tier(score int) string {
	switch {
	case score >= c.HighThreshold:
		return "high"
	case score >= c.MediumThreshold:
		return "medium"
	default:
		return "low"
	}
}

// Result is the outcome of scoring one transaction/occurrence pair.
type Result struct {
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

// Score rates how likely the transaction settles the candidate occurrence.
// It returns false when the pair is structurally incompatible (type or
// account mismatch, outside the date window, or beyond the configured amount
// tolerance); such candidates are excluded from ranking entirely. Otherwise
// the score is in [0, 100] and monotonically non-increasing as the amount or
// date delta grows.
func (c Config) Score(tx *models.Transaction, occ models.Occurrence) (Result, bool) {
	if tx.Type != occ.Type {
		return Result{Reasons: []string{"transaction type mismatch"}}, false
	}
	if tx.AccountID != occ.AccountID {
		return Result{Reasons: []string{"account mismatch"}}, false
	}

	dayDelta := absDays(tx.Date, occ.ExpectedDate)
	window := occ.MatchWindowDays
	if dayDelta > window {
		return Result{Reasons: []string{fmt.Sprintf("%d day(s) outside the %d-day window", dayDelta-window, window)}}, false
	}

	amountDelta := abs64(tx.Amount - occ.Amount)
	if occ.MatchTolerance > 0 && amountDelta > occ.MatchTolerance {
		return Result{Reasons: []string{fmt.Sprintf("amount differs by %d cents, tolerance is %d", amountDelta, occ.MatchTolerance)}}, false
	}

	var reasons []string
	score := 0

	// Amount proximity, normalized against the tolerance when one is
	// configured, otherwise against the expected amount itself.
	scale := occ.MatchTolerance
	if scale == 0 {
		scale = abs64(occ.Amount)
	}
	switch {
	case amountDelta == 0:
		score += c.AmountWeight
		reasons = append(reasons, "exact amount match")
	case scale > 0 && amountDelta <= scale:
		frac := 1 - float64(amountDelta)/float64(scale)
		score += int(math.Round(float64(c.AmountWeight) * frac))
		reasons = append(reasons, fmt.Sprintf("amount differs by %d cents", amountDelta))
	default:
		reasons = append(reasons, fmt.Sprintf("amount differs by %d cents", amountDelta))
	}

	// Date proximity, normalized against the window.
	switch {
	case dayDelta == 0:
		score += c.DateWeight
		reasons = append(reasons, "on expected date")
	case window > 0:
		frac := 1 - float64(dayDelta)/float64(window)
		score += int(math.Round(float64(c.DateWeight) * frac))
		reasons = append(reasons, fmt.Sprintf("%d day(s) from expected date", dayDelta))
	}

	if tx.CategoryID != nil && occ.CategoryID != nil && *tx.CategoryID == *occ.CategoryID {
		score += c.CategoryBonus
		reasons = append(reasons, "category matches")
	}

	if directionConsistent(tx, occ) {
		score += c.DirectionBonus
		reasons = append(reasons, "transfer direction consistent")
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return Result{Score: score, Reasons: reasons}, true
}

// directionConsistent checks transfer direction. Non-transfer pairs already
// agree on direction through the type check.
func directionConsistent(tx *models.Transaction, occ models.Occurrence) bool {
	if tx.Type != models.TransactionTypeTransfer {
		return true
	}
	return tx.ToAccountID != nil
}

func absDays(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	d := int(au.Sub(bu).Hours() / 24)
	if d < 0 {
		return -d
	}
	return d
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

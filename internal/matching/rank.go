package matching

import (
	"sort"
	"time"

	"ledgerly/internal/models"
)

// Candidate pairs an occurrence with its score for ranking.
type Candidate struct {
	Occurrence models.Occurrence `json:"occurrence"`
	Score      int               `json:"score"`
	Tier       string            `json:"tier"`
	Reasons    []string          `json:"reasons"`
}

// RankCandidates orders candidates best-first. Ties on score break
// deterministically: nearest expected date to the transaction date, then the
// earlier expected date, then the lexicographically smaller occurrence ID.
func RankCandidates(candidates []Candidate, txDate time.Time) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		da := absDays(txDate, a.Occurrence.ExpectedDate)
		db := absDays(txDate, b.Occurrence.ExpectedDate)
		if da != db {
			return da < db
		}
		if !a.Occurrence.ExpectedDate.Equal(b.Occurrence.ExpectedDate) {
			return a.Occurrence.ExpectedDate.Before(b.Occurrence.ExpectedDate)
		}
		return a.Occurrence.ID < b.Occurrence.ID
	})
}

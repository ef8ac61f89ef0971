package matching

import (
	"testing"
	"time"

	"ledgerly/internal/models"
)

func candidate(id string, score int, expected time.Time) Candidate {
	return Candidate{
		Occurrence: models.Occurrence{ID: id, ExpectedDate: expected},
		Score:      score,
	}
}

func assertOrder(t *testing.T, candidates []Candidate, want ...string) {
	t.Helper()
	if len(candidates) != len(want) {
		t.Fatalf("expected %d candidates, got %d", len(want), len(candidates))
	}
	for i, id := range want {
		if candidates[i].Occurrence.ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, candidates[i].Occurrence.ID)
		}
	}
}

func TestRankCandidates(t *testing.T) {
	txDate := date(2024, time.March, 10)

	t.Run("higher_score_first", func(t *testing.T) {
		cands := []Candidate{
			candidate("a", 60, txDate),
			candidate("b", 95, txDate),
			candidate("c", 80, txDate.AddDate(0, 0, 1)),
		}
		RankCandidates(cands, txDate)
		assertOrder(t, cands, "b", "c", "a")
	})

	t.Run("tie_breaks_on_date_proximity", func(t *testing.T) {
		cands := []Candidate{
			candidate("far", 80, txDate.AddDate(0, 0, 3)),
			candidate("near", 80, txDate.AddDate(0, 0, 1)),
		}
		RankCandidates(cands, txDate)
		assertOrder(t, cands, "near", "far")
	})

	t.Run("equal_proximity_prefers_earlier_date", func(t *testing.T) {
		cands := []Candidate{
			candidate("after", 80, txDate.AddDate(0, 0, 2)),
			candidate("before", 80, txDate.AddDate(0, 0, -2)),
		}
		RankCandidates(cands, txDate)
		assertOrder(t, cands, "before", "after")
	})

	t.Run("full_tie_breaks_on_id", func(t *testing.T) {
		cands := []Candidate{
			candidate("virtual_2_2024-03-10", 80, txDate),
			candidate("virtual_1_2024-03-10", 80, txDate),
		}
		RankCandidates(cands, txDate)
		assertOrder(t, cands, "virtual_1_2024-03-10", "virtual_2_2024-03-10")
	})
}

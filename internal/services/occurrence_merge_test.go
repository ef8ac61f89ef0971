package services

import (
	"testing"
	"time"

	"ledgerly/internal/models"
)

func mergeDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mergeTemplate() *models.RecurringTemplate {
	return &models.RecurringTemplate{
		Base:            models.Base{ID: 1},
		UserID:          1,
		AccountID:       2,
		Type:            models.TransactionTypeExpense,
		Amount:          5000,
		Description:     "Rent",
		MatchTolerance:  200,
		MatchWindowDays: 5,
	}
}

func TestMergeOccurrences(t *testing.T) {
	tmpl := mergeTemplate()
	jan := mergeDate(2024, time.January, 1)
	feb := mergeDate(2024, time.February, 1)
	mar := mergeDate(2024, time.March, 1)

	t.Run("all_virtual_when_no_overrides", func(t *testing.T) {
		occs, malformed, skipped := MergeOccurrences(tmpl, []time.Time{jan, feb, mar}, nil)

		if len(occs) != 3 || malformed != 0 || skipped != 0 {
			t.Fatalf("expected 3 clean occurrences, got %d (malformed %d, skipped %d)", len(occs), malformed, skipped)
		}
		for _, occ := range occs {
			if !occ.IsVirtual {
				t.Errorf("expected virtual occurrence, got %s", occ.ID)
			}
			if occ.Amount != 5000 || occ.MatchWindowDays != 5 || occ.MatchTolerance != 200 {
				t.Errorf("occurrence did not inherit template fields: %+v", occ)
			}
		}
		if occs[0].ID != models.VirtualID(1, jan) {
			t.Errorf("unexpected virtual ID: %s", occs[0].ID)
		}
	})

	t.Run("customization_claims_its_slot", func(t *testing.T) {
		override := models.PlannedTransaction{
			Base:         models.Base{ID: 10},
			UserID:       1,
			TemplateID:   &tmpl.ID,
			ExpectedDate: feb,
			Kind:         models.OverrideKindCustomized,
			AccountID:    2,
			Type:         models.TransactionTypeExpense,
			Amount:       7500,
		}

		occs, malformed, skipped := MergeOccurrences(tmpl, []time.Time{jan, feb, mar}, []models.PlannedTransaction{override})

		if len(occs) != 3 || malformed != 0 || skipped != 0 {
			t.Fatalf("expected 3 occurrences, got %d", len(occs))
		}
		// February must appear exactly once, as the override.
		var febOccs []models.Occurrence
		for _, occ := range occs {
			if occ.ExpectedDate.Equal(feb) {
				febOccs = append(febOccs, occ)
			}
		}
		if len(febOccs) != 1 {
			t.Fatalf("expected exactly one February occurrence, got %d", len(febOccs))
		}
		if febOccs[0].IsVirtual || febOccs[0].Amount != 7500 {
			t.Errorf("expected persisted override with amount 7500, got %+v", febOccs[0])
		}
	})

	t.Run("claim_ignores_the_scan_location", func(t *testing.T) {
		// Postgres hands timestamptz values back in local time. The same
		// instant as feb, viewed from CET and from a negative offset.
		cet := time.FixedZone("CET", 3600)
		nyc := time.FixedZone("EST", -5*3600)

		for name, scanned := range map[string]time.Time{
			"positive_offset": feb.In(cet),
			"negative_offset": feb.In(nyc),
		} {
			override := models.PlannedTransaction{
				Base:         models.Base{ID: 16},
				TemplateID:   &tmpl.ID,
				ExpectedDate: scanned,
				Kind:         models.OverrideKindCustomized,
				AccountID:    2,
				Type:         models.TransactionTypeExpense,
				Amount:       7500,
			}

			occs, _, _ := MergeOccurrences(tmpl, []time.Time{jan, feb, mar}, []models.PlannedTransaction{override})

			var febCount, virtualFeb int
			for _, occ := range occs {
				if occ.ExpectedDate.Equal(feb) {
					febCount++
					if occ.IsVirtual {
						virtualFeb++
					}
				}
			}
			if febCount != 1 || virtualFeb != 0 {
				t.Errorf("%s: February appears %d times (%d virtual), want exactly one override",
					name, febCount, virtualFeb)
			}
		}
	})

	t.Run("skip_removes_the_slot", func(t *testing.T) {
		override := models.PlannedTransaction{
			Base:         models.Base{ID: 11},
			TemplateID:   &tmpl.ID,
			ExpectedDate: feb,
			Kind:         models.OverrideKindSkipped,
			AccountID:    2,
			Type:         models.TransactionTypeExpense,
			Amount:       5000,
		}

		occs, malformed, skipped := MergeOccurrences(tmpl, []time.Time{jan, feb, mar}, []models.PlannedTransaction{override})

		if len(occs) != 2 {
			t.Fatalf("expected 2 occurrences after skip, got %d", len(occs))
		}
		if skipped != 1 || malformed != 0 {
			t.Errorf("expected skipped=1 malformed=0, got %d/%d", skipped, malformed)
		}
		for _, occ := range occs {
			if occ.ExpectedDate.Equal(feb) {
				t.Error("skipped date must not appear")
			}
		}
	})

	t.Run("moved_override_suppresses_its_original_slot", func(t *testing.T) {
		moved := mergeDate(2024, time.February, 5)
		override := models.PlannedTransaction{
			Base:         models.Base{ID: 12},
			TemplateID:   &tmpl.ID,
			ExpectedDate: moved,
			OriginalDate: &feb,
			Kind:         models.OverrideKindCustomized,
			AccountID:    2,
			Type:         models.TransactionTypeExpense,
			Amount:       5000,
		}

		occs, _, _ := MergeOccurrences(tmpl, []time.Time{jan, feb, mar}, []models.PlannedTransaction{override})

		if len(occs) != 3 {
			t.Fatalf("expected 3 occurrences, got %d", len(occs))
		}
		for _, occ := range occs {
			if occ.ExpectedDate.Equal(feb) {
				t.Error("original slot of a moved override must stay suppressed")
			}
		}
		if !occs[1].ExpectedDate.Equal(moved) {
			t.Errorf("expected moved occurrence on %v, got %v", moved, occs[1].ExpectedDate)
		}
	})

	t.Run("malformed_rows_are_counted_not_fatal", func(t *testing.T) {
		overrides := []models.PlannedTransaction{
			{Base: models.Base{ID: 13}, TemplateID: &tmpl.ID, ExpectedDate: feb, Kind: models.OverrideKindCustomized, Type: models.TransactionTypeExpense, Amount: 0},
			{Base: models.Base{ID: 14}, TemplateID: &tmpl.ID, ExpectedDate: mar, Kind: models.OverrideKindCustomized, Type: "", Amount: 5000},
			{Base: models.Base{ID: 15}, TemplateID: &tmpl.ID, Kind: models.OverrideKindCustomized, Type: models.TransactionTypeExpense, Amount: 5000},
		}

		occs, malformed, skipped := MergeOccurrences(tmpl, []time.Time{jan, feb, mar}, overrides)

		if malformed != 3 {
			t.Errorf("expected 3 malformed rows, got %d", malformed)
		}
		if skipped != 0 {
			t.Errorf("expected 0 skipped, got %d", skipped)
		}
		// Malformed rows claim nothing, so all generated dates survive.
		if len(occs) != 3 {
			t.Errorf("expected 3 virtual occurrences, got %d", len(occs))
		}
	})

	t.Run("result_sorted_ascending", func(t *testing.T) {
		occs, _, _ := MergeOccurrences(tmpl, []time.Time{mar, jan, feb}, nil)

		for i := 1; i < len(occs); i++ {
			if occs[i].ExpectedDate.Before(occs[i-1].ExpectedDate) {
				t.Fatalf("occurrences out of order: %v before %v", occs[i].ExpectedDate, occs[i-1].ExpectedDate)
			}
		}
	})
}

func TestOccurrenceFromPlanned(t *testing.T) {
	t.Run("one_off_uses_default_window", func(t *testing.T) {
		planned := &models.PlannedTransaction{
			Base:         models.Base{ID: 20},
			ExpectedDate: mergeDate(2024, time.June, 15),
			Kind:         models.OverrideKindCustomized,
			AccountID:    3,
			Type:         models.TransactionTypeIncome,
			Amount:       12000,
		}

		occ := OccurrenceFromPlanned(planned)

		if occ.ID != "20" {
			t.Errorf("expected persisted ID \"20\", got %s", occ.ID)
		}
		if occ.IsVirtual {
			t.Error("persisted occurrence must not be virtual")
		}
		if occ.MatchWindowDays != defaultMatchWindowDays || occ.MatchTolerance != 0 {
			t.Errorf("expected default matching settings, got window %d tolerance %d", occ.MatchWindowDays, occ.MatchTolerance)
		}
	})

	t.Run("override_inherits_template_matching_settings", func(t *testing.T) {
		tmpl := mergeTemplate()
		planned := &models.PlannedTransaction{
			Base:         models.Base{ID: 21},
			TemplateID:   &tmpl.ID,
			Template:     tmpl,
			ExpectedDate: mergeDate(2024, time.June, 1),
			Kind:         models.OverrideKindCustomized,
			AccountID:    2,
			Type:         models.TransactionTypeExpense,
			Amount:       5000,
		}

		occ := OccurrenceFromPlanned(planned)

		if occ.MatchTolerance != 200 || occ.MatchWindowDays != 5 {
			t.Errorf("expected template matching settings, got tolerance %d window %d", occ.MatchTolerance, occ.MatchWindowDays)
		}
	})
}

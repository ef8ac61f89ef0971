package services

import (
	"sort"
	"time"

	"ledgerly/internal/models"
	"ledgerly/internal/recurrence"
)

// slotKey normalizes a slot date for claim bookkeeping. Dates scanned
// back from the database can carry an arbitrary location (the postgres
// driver decodes timestamptz into local time), and raw time.Time map
// keys compare the location pointer too. Converting to UTC first and
// then truncating makes the same instant always produce the same key.
func slotKey(t time.Time) time.Time {
	return recurrence.DateOnly(t.UTC())
}

// MergeOccurrences combines template-generated dates with persisted override
// rows into the effective occurrence list. An override claims the generated
// slot it supersedes, so a date never appears both as a virtual occurrence
// and as an override. Skip overrides remove the slot without emitting
// anything. Rows missing a usable date, amount, or type are dropped and
// counted rather than failing the whole listing.
func MergeOccurrences(template *models.RecurringTemplate, dates []time.Time, overrides []models.PlannedTransaction) (occurrences []models.Occurrence, malformed, skippedDates int) {
	claimed := make(map[time.Time]bool, len(overrides))

	for i := range overrides {
		o := &overrides[i]
		if o.ExpectedDate.IsZero() || o.Amount == 0 || o.Type == "" {
			malformed++
			continue
		}
		claimed[slotKey(o.SlotDate())] = true
		if o.Kind == models.OverrideKindSkipped {
			skippedDates++
			continue
		}
		occurrences = append(occurrences, OccurrenceFromPlanned(o))
	}

	for _, date := range dates {
		if claimed[slotKey(date)] {
			continue
		}
		occurrences = append(occurrences, virtualOccurrence(template, date))
	}

	sort.SliceStable(occurrences, func(i, j int) bool {
		return occurrences[i].ExpectedDate.Before(occurrences[j].ExpectedDate)
	})
	return occurrences, malformed, skippedDates
}

// virtualOccurrence projects a template onto a generated date.
func virtualOccurrence(template *models.RecurringTemplate, date time.Time) models.Occurrence {
	return models.Occurrence{
		ID:              models.VirtualID(template.ID, date),
		TemplateID:      &template.ID,
		ExpectedDate:    date,
		Amount:          template.Amount,
		Type:            template.Type,
		AccountID:       template.AccountID,
		CategoryID:      template.CategoryID,
		Description:     template.Description,
		IsVirtual:       true,
		MatchTolerance:  template.MatchTolerance,
		MatchWindowDays: template.MatchWindowDays,
	}
}

// OccurrenceFromPlanned converts a persisted planned transaction into an
// occurrence. Matching settings come from the owning template; one-offs fall
// back to the defaults.
func OccurrenceFromPlanned(p *models.PlannedTransaction) models.Occurrence {
	occ := models.Occurrence{
		ID:              models.PersistedOccurrenceID(p.ID),
		TemplateID:      p.TemplateID,
		ExpectedDate:    p.ExpectedDate,
		Amount:          p.Amount,
		Type:            p.Type,
		AccountID:       p.AccountID,
		CategoryID:      p.CategoryID,
		Description:     p.Description,
		MatchWindowDays: defaultMatchWindowDays,
	}
	if p.Template != nil {
		occ.MatchTolerance = p.Template.MatchTolerance
		occ.MatchWindowDays = p.Template.MatchWindowDays
	}
	return occ
}

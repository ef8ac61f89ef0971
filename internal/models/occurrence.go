package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// virtualIDPrefix is part of the public wire contract: consumers parse these
// IDs back into (templateID, date), so the format must stay stable.
const virtualIDPrefix = "virtual_"

// Occurrence is the effective planned occurrence handed to forecasting and
// matching. It is either computed from a template (virtual) or backed by a
// persisted PlannedTransaction row; both variants share the same read-only
// field set so consumers need no type-specific branching.
type Occurrence struct {
	ID           string          `json:"id"`
	TemplateID   *uint           `json:"template_id,omitempty"`
	ExpectedDate time.Time       `json:"expected_date"`
	Amount       int64           `json:"amount"`
	Type         TransactionType `json:"type"`
	AccountID    uint            `json:"account_id"`
	CategoryID   *uint           `json:"category_id,omitempty"`
	Description  string          `json:"description"`
	IsVirtual    bool            `json:"is_virtual"`

	// Matching configuration inherited from the template (or defaults for
	// one-off planned transactions).
	MatchTolerance  int64 `json:"match_tolerance"`
	MatchWindowDays int   `json:"match_window_days"`
}

// VirtualID builds the wire identifier for a computed occurrence:
// virtual_{templateID}_{ISO-date}.
func VirtualID(templateID uint, date time.Time) string {
	return fmt.Sprintf("%s%d_%s", virtualIDPrefix, templateID, date.Format("2006-01-02"))
}

// IsVirtualID reports whether an occurrence identifier refers to a computed
// occurrence rather than a persisted planned transaction.
func IsVirtualID(id string) bool {
	return strings.HasPrefix(id, virtualIDPrefix)
}

// ParseVirtualID parses a virtual occurrence identifier back into its
// template ID and date.
func ParseVirtualID(id string) (uint, time.Time, error) {
	rest, ok := strings.CutPrefix(id, virtualIDPrefix)
	if !ok {
		return 0, time.Time{}, fmt.Errorf("not a virtual occurrence id: %q", id)
	}
	parts := strings.SplitN(rest, "_", 2)
	if len(parts) != 2 {
		return 0, time.Time{}, fmt.Errorf("malformed virtual occurrence id: %q", id)
	}
	templateID, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("malformed template id in %q: %w", id, err)
	}
	date, err := time.ParseInLocation("2006-01-02", parts[1], time.UTC)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("malformed date in %q: %w", id, err)
	}
	return uint(templateID), date, nil
}

// PersistedOccurrenceID builds the identifier for a persisted planned
// transaction row.
func PersistedOccurrenceID(plannedID uint) string {
	return strconv.FormatUint(uint64(plannedID), 10)
}

// ParsePersistedOccurrenceID parses a persisted occurrence identifier.
func ParsePersistedOccurrenceID(id string) (uint, error) {
	v, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("malformed occurrence id: %q", id)
	}
	return uint(v), nil
}

package models

import (
	"testing"
	"time"
)

func TestVirtualIDRoundTrip(t *testing.T) {
	expected := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	id := VirtualID(42, expected)

	if id != "virtual_42_2024-03-15" {
		t.Fatalf("unexpected virtual ID format: %s", id)
	}
	if !IsVirtualID(id) {
		t.Error("expected IsVirtualID to be true")
	}

	templateID, date, err := ParseVirtualID(id)
	if err != nil {
		t.Fatal(err)
	}
	if templateID != 42 {
		t.Errorf("expected template ID 42, got %d", templateID)
	}
	if !date.Equal(expected) {
		t.Errorf("expected date %v, got %v", expected, date)
	}
}

func TestParseVirtualIDMalformed(t *testing.T) {
	cases := []string{
		"12",
		"virtual_",
		"virtual_42",
		"virtual_abc_2024-03-15",
		"virtual_42_15-03-2024",
		"virtual_42_not-a-date",
	}
	for _, id := range cases {
		if _, _, err := ParseVirtualID(id); err == nil {
			t.Errorf("expected error for %q", id)
		}
	}
}

func TestPersistedOccurrenceID(t *testing.T) {
	id := PersistedOccurrenceID(17)
	if id != "17" {
		t.Fatalf("expected \"17\", got %q", id)
	}
	if IsVirtualID(id) {
		t.Error("persisted ID should not look virtual")
	}

	parsed, err := ParsePersistedOccurrenceID(id)
	if err != nil {
		t.Fatal(err)
	}
	if parsed != 17 {
		t.Errorf("expected 17, got %d", parsed)
	}

	if _, err := ParsePersistedOccurrenceID("virtual_1_2024-01-01"); err == nil {
		t.Error("expected error parsing a virtual ID as persisted")
	}
}

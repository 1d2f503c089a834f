package enums

import "testing"

func TestEventStatusTransitions(t *testing.T) {
	tests := []struct {
		from    EventStatus
		to      EventStatus
		allowed bool
	}{
		{EventStatusInquiry, EventStatusConfirmed, true},
		{EventStatusInquiry, EventStatusCancelled, true},
		{EventStatusInquiry, EventStatusInProgress, false},
		{EventStatusInquiry, EventStatusCompleted, false},
		{EventStatusConfirmed, EventStatusInProgress, true},
		{EventStatusConfirmed, EventStatusCompleted, true},
		{EventStatusConfirmed, EventStatusCancelled, true},
		{EventStatusConfirmed, EventStatusInquiry, false},
		{EventStatusInProgress, EventStatusCompleted, true},
		{EventStatusInProgress, EventStatusCancelled, true},
		{EventStatusInProgress, EventStatusConfirmed, false},
		{EventStatusCompleted, EventStatusConfirmed, false},
		{EventStatusCompleted, EventStatusCancelled, false},
		{EventStatusCancelled, EventStatusConfirmed, false},
		{EventStatusCancelled, EventStatusInquiry, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
			t.Fatalf("%s -> %s: expected allowed=%v got %v", tt.from, tt.to, tt.allowed, got)
		}
	}
}

func TestEventStatusTerminal(t *testing.T) {
	for _, s := range []EventStatus{EventStatusCompleted, EventStatusCancelled} {
		if !s.IsTerminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
	for _, s := range []EventStatus{EventStatusInquiry, EventStatusConfirmed, EventStatusInProgress} {
		if s.IsTerminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
}

func TestParseEventStatusRejectsUnknown(t *testing.T) {
	if _, err := ParseEventStatus("archived"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

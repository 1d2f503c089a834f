package enums

import "fmt"

// EventStatus tracks the lifecycle of a booked event.
type EventStatus string

const (
	EventStatusInquiry    EventStatus = "inquiry"
	EventStatusConfirmed  EventStatus = "confirmed"
	EventStatusInProgress EventStatus = "in_progress"
	EventStatusCompleted  EventStatus = "completed"
	EventStatusCancelled  EventStatus = "cancelled"
)

var validEventStatuses = []EventStatus{
	EventStatusInquiry,
	EventStatusConfirmed,
	EventStatusInProgress,
	EventStatusCompleted,
	EventStatusCancelled,
}

// eventStatusTransitions is the reachability table for manual and
// system-triggered status changes. Terminal states have no entries.
var eventStatusTransitions = map[EventStatus][]EventStatus{
	EventStatusInquiry:    {EventStatusConfirmed, EventStatusCancelled},
	EventStatusConfirmed:  {EventStatusInProgress, EventStatusCompleted, EventStatusCancelled},
	EventStatusInProgress: {EventStatusCompleted, EventStatusCancelled},
}

// String implements fmt.Stringer.
func (s EventStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known EventStatus.
func (s EventStatus) IsValid() bool {
	for _, candidate := range validEventStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s EventStatus) IsTerminal() bool {
	return s == EventStatusCompleted || s == EventStatusCancelled
}

// CanTransitionTo reports whether target is reachable from s.
func (s EventStatus) CanTransitionTo(target EventStatus) bool {
	for _, candidate := range eventStatusTransitions[s] {
		if candidate == target {
			return true
		}
	}
	return false
}

// ParseEventStatus converts raw input into an EventStatus.
func ParseEventStatus(value string) (EventStatus, error) {
	for _, candidate := range validEventStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event status %q", value)
}

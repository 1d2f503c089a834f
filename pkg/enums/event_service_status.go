package enums

import "fmt"

// EventServiceStatus tracks the state of one booking line on an event.
type EventServiceStatus string

const (
	EventServiceStatusPending   EventServiceStatus = "pending"
	EventServiceStatusConfirmed EventServiceStatus = "confirmed"
	EventServiceStatusDelivered EventServiceStatus = "delivered"
	EventServiceStatusCancelled EventServiceStatus = "cancelled"
)

var validEventServiceStatuses = []EventServiceStatus{
	EventServiceStatusPending,
	EventServiceStatusConfirmed,
	EventServiceStatusDelivered,
	EventServiceStatusCancelled,
}

// String implements fmt.Stringer.
func (s EventServiceStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known EventServiceStatus.
func (s EventServiceStatus) IsValid() bool {
	for _, candidate := range validEventServiceStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CountsTowardCost reports whether the line contributes to the event's
// total cost. Cancelled lines are excluded.
func (s EventServiceStatus) CountsTowardCost() bool {
	return s != EventServiceStatusCancelled
}

// ParseEventServiceStatus converts raw input into an EventServiceStatus.
func ParseEventServiceStatus(value string) (EventServiceStatus, error) {
	for _, candidate := range validEventServiceStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event service status %q", value)
}

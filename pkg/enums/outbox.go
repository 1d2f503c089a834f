package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateEvent        OutboxAggregateType = "event"
	AggregateEventService OutboxAggregateType = "event_service"
	AggregatePayment      OutboxAggregateType = "payment"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateEvent,
	AggregateEventService,
	AggregatePayment,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventEventCreated       OutboxEventType = "event_created"
	EventEventStatusChanged OutboxEventType = "event_status_changed"
	EventEventDeleted       OutboxEventType = "event_deleted"
	EventServiceBooked      OutboxEventType = "service_booked"
	EventServiceCancelled   OutboxEventType = "service_cancelled"
	EventBudgetOverrun      OutboxEventType = "budget_overrun"
	EventPaymentRecorded    OutboxEventType = "payment_recorded"
	EventPaymentDeleted     OutboxEventType = "payment_deleted"
)

var validOutboxEventTypes = []OutboxEventType{
	EventEventCreated,
	EventEventStatusChanged,
	EventEventDeleted,
	EventServiceBooked,
	EventServiceCancelled,
	EventBudgetOverrun,
	EventPaymentRecorded,
	EventPaymentDeleted,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

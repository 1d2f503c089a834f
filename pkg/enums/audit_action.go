package enums

import "fmt"

// AuditAction names the mutating operation an activity log entry records.
type AuditAction string

const (
	AuditActionEventCreated     AuditAction = "event_created"
	AuditActionEventUpdated     AuditAction = "event_updated"
	AuditActionEventDeleted     AuditAction = "event_deleted"
	AuditActionStatusUpdated    AuditAction = "status_updated"
	AuditActionServiceAdded     AuditAction = "service_added"
	AuditActionServiceCancelled AuditAction = "service_cancelled"
	AuditActionPaymentReceived  AuditAction = "payment_received"
	AuditActionPaymentUpdated   AuditAction = "payment_updated"
	AuditActionPaymentDeleted   AuditAction = "payment_deleted"
)

var validAuditActions = []AuditAction{
	AuditActionEventCreated,
	AuditActionEventUpdated,
	AuditActionEventDeleted,
	AuditActionStatusUpdated,
	AuditActionServiceAdded,
	AuditActionServiceCancelled,
	AuditActionPaymentReceived,
	AuditActionPaymentUpdated,
	AuditActionPaymentDeleted,
}

// String implements fmt.Stringer.
func (a AuditAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AuditAction.
func (a AuditAction) IsValid() bool {
	for _, candidate := range validAuditActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuditAction converts raw input into an AuditAction.
func ParseAuditAction(value string) (AuditAction, error) {
	for _, candidate := range validAuditActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit action %q", value)
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rosewood-events/rosewood-backend/pkg/enums"
	"github.com/rosewood-events/rosewood-backend/pkg/money"
)

// Payment is a ledger row against an event. Amount and Type are immutable
// after creation; corrections touch method, notes and payment date only.
type Payment struct {
	ID              uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	EventID         uuid.UUID           `gorm:"column:event_id;type:uuid;not null;index"`
	Amount          money.Amount        `gorm:"column:amount;type:numeric(12,2);not null"`
	Method          enums.PaymentMethod `gorm:"column:method;type:payment_method;not null"`
	Type            enums.PaymentType   `gorm:"column:type;type:payment_type;not null"`
	ReferenceNumber string              `gorm:"column:reference_number;not null;uniqueIndex"`
	Status          enums.PaymentStatus `gorm:"column:status;type:payment_row_status;not null;default:'completed'"`
	Notes           *string             `gorm:"column:notes"`
	RecordedBy      uuid.UUID           `gorm:"column:recorded_by;type:uuid;not null"`
	PaymentDate     time.Time           `gorm:"column:payment_date;not null"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

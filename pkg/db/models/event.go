package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rosewood-events/rosewood-backend/pkg/enums"
	"github.com/rosewood-events/rosewood-backend/pkg/money"
)

// Event is the booking aggregate root. Services and payments hang off it and
// every cost-affecting mutation locks this row first.
type Event struct {
	ID           uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ClientID     uuid.UUID         `gorm:"column:client_id;type:uuid;not null;index"`
	EventTypeID  uuid.UUID         `gorm:"column:event_type_id;type:uuid;not null"`
	Name         string            `gorm:"column:name;not null"`
	EventDate    time.Time         `gorm:"column:event_date;type:date;not null;index"`
	EventTime    *string           `gorm:"column:event_time"`
	Venue        *string           `gorm:"column:venue"`
	GuestCount   int               `gorm:"column:guest_count;not null;default:50"`
	Budget       *money.Amount     `gorm:"column:budget;type:numeric(12,2)"`
	SpecialNotes *string           `gorm:"column:special_notes"`
	Status       enums.EventStatus `gorm:"column:status;type:event_status;not null;default:'inquiry'"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

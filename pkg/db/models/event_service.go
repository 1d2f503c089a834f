package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rosewood-events/rosewood-backend/pkg/enums"
	"github.com/rosewood-events/rosewood-backend/pkg/money"
)

// EventService links a catalog service onto an event at an agreed price.
// AgreedPrice is frozen at booking time; later catalog price changes never
// reprice existing bookings.
type EventService struct {
	ID          uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	EventID     uuid.UUID                `gorm:"column:event_id;type:uuid;not null;index:idx_event_services_event_service,priority:1"`
	ServiceID   uuid.UUID                `gorm:"column:service_id;type:uuid;not null;index:idx_event_services_event_service,priority:2"`
	Quantity    int                      `gorm:"column:quantity;not null;default:1"`
	AgreedPrice money.Amount             `gorm:"column:agreed_price;type:numeric(12,2);not null"`
	Status      enums.EventServiceStatus `gorm:"column:status;type:event_service_status;not null;default:'pending'"`
	AddedBy     uuid.UUID                `gorm:"column:added_by;type:uuid;not null"`
	CreatedAt   time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

// Subtotal is the line contribution to total event cost.
func (es EventService) Subtotal() money.Amount {
	return es.AgreedPrice.MulInt(int64(es.Quantity))
}

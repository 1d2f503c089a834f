package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rosewood-events/rosewood-backend/pkg/money"
)

// CatalogService is an offerable line item with a reference base price.
type CatalogService struct {
	ID        uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string       `gorm:"column:name;not null"`
	Category  string       `gorm:"column:category;not null;index"`
	BasePrice money.Amount `gorm:"column:base_price;type:numeric(12,2);not null"`
	UnitType  string       `gorm:"column:unit_type;not null;default:'per_event'"`
	IsActive  bool         `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rosewood-events/rosewood-backend/pkg/db/models"
)

// Repository manages reads against the catalog tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindService(ctx context.Context, id uuid.UUID) (*models.CatalogService, error)
	FindEventType(ctx context.Context, id uuid.UUID) (*models.EventType, error)
	ListActiveServices(ctx context.Context, category string) ([]models.CatalogService, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindService(ctx context.Context, id uuid.UUID) (*models.CatalogService, error) {
	var svc models.CatalogService
	if err := r.db.WithContext(ctx).First(&svc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *repository) FindEventType(ctx context.Context, id uuid.UUID) (*models.EventType, error) {
	var et models.EventType
	if err := r.db.WithContext(ctx).First(&et, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &et, nil
}

func (r *repository) ListActiveServices(ctx context.Context, category string) ([]models.CatalogService, error) {
	query := r.db.WithContext(ctx).Where("is_active = ?", true)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	var services []models.CatalogService
	if err := query.Order("category ASC").Order("name ASC").Find(&services).Error; err != nil {
		return nil, err
	}
	return services, nil
}

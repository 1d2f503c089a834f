package booking

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rosewood-events/rosewood-backend/pkg/db/models"
	"github.com/rosewood-events/rosewood-backend/pkg/enums"
)

// Repository manages persistence for event service lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, line *models.EventService) error
	Find(ctx context.Context, id uuid.UUID) (*models.EventService, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.EventService, error)
	HasActiveLine(ctx context.Context, eventID, serviceID uuid.UUID) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.EventServiceStatus) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a booking repository bound to the provided database.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, line *models.EventService) error {
	return r.db.WithContext(ctx).Create(line).Error
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.EventService, error) {
	var line models.EventService
	if err := r.db.WithContext(ctx).First(&line, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.EventService, error) {
	var lines []models.EventService
	if err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repository) HasActiveLine(ctx context.Context, eventID, serviceID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.EventService{}).
		Where("event_id = ? AND service_id = ? AND status <> ?",
			eventID, serviceID, enums.EventServiceStatusCancelled).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.EventServiceStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.EventService{}).
		Where("id = ?", id).
		Update("status", status).Error
}

package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rosewood-events/rosewood-backend/pkg/db/models"
	"github.com/rosewood-events/rosewood-backend/pkg/enums"
)

// Repository manages persistence for activity log entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.ActivityLog) error
	List(ctx context.Context, filter ListFilter) ([]models.ActivityLog, error)
}

// ListFilter narrows activity queries. Zero values mean no filtering.
type ListFilter struct {
	RecordID  uuid.UUID
	ActorID   uuid.UUID
	Action    enums.AuditAction
	TableName string
	Since     time.Time
	Limit     int
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an audit repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.ActivityLog, error) {
	query := r.db.WithContext(ctx).Model(&models.ActivityLog{})
	if filter.RecordID != uuid.Nil {
		query = query.Where("record_id = ?", filter.RecordID)
	}
	if filter.ActorID != uuid.Nil {
		query = query.Where("actor_id = ?", filter.ActorID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.TableName != "" {
		query = query.Where("table_name = ?", filter.TableName)
	}
	if !filter.Since.IsZero() {
		query = query.Where("created_at >= ?", filter.Since)
	}
	var entries []models.ActivityLog
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(filter.Limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

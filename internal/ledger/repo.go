package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rosewood-events/rosewood-backend/pkg/db"
	"github.com/rosewood-events/rosewood-backend/pkg/db/models"
	"github.com/rosewood-events/rosewood-backend/pkg/enums"
	"github.com/rosewood-events/rosewood-backend/pkg/pagination"
)

// Repository manages persistence for events and the reads that back the
// derived financial summary.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.Event) error
	Find(ctx context.Context, id uuid.UUID) (*models.Event, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Event, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteCascade(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter) ([]models.Event, error)
	ListUpcoming(ctx context.Context, clientID uuid.UUID, from time.Time, days int, limit int) ([]models.Event, error)
	ActiveServices(ctx context.Context, eventID uuid.UUID) ([]models.EventService, error)
	CompletedPayments(ctx context.Context, eventID uuid.UUID) ([]models.Payment, error)
	HasCompletedPayments(ctx context.Context, eventID uuid.UUID) (bool, error)
}

// ListFilter narrows event listings. A nil cursor starts from the newest row.
type ListFilter struct {
	ClientID uuid.UUID
	Status   enums.EventStatus
	Search   string
	DateFrom *time.Time
	DateTo   *time.Time
	Cursor   *pagination.Cursor
	Limit    int
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an event repository bound to the provided database.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// FindForUpdate takes the event row lock. Callers must be inside a transaction;
// every cost-affecting mutation goes through this read first.
func (r *repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := db.ForUpdate(r.db.WithContext(ctx)).First(&event, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// DeleteCascade removes the event plus its service lines and activity rows.
// Payments are never deleted here; the service layer refuses deletion while
// completed payments exist.
func (r *repository) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("event_id = ?", id).
		Delete(&models.EventService{}).Error; err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).
		Where("record_id = ?", id).
		Delete(&models.ActivityLog{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&models.Event{}, "id = ?", id).Error
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Event, error) {
	query := r.db.WithContext(ctx).Model(&models.Event{})
	if filter.ClientID != uuid.Nil {
		query = query.Where("client_id = ?", filter.ClientID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(
			"LOWER(name) LIKE LOWER(?) OR LOWER(venue) LIKE LOWER(?)",
			pattern, pattern,
		)
	}
	if filter.DateFrom != nil {
		query = query.Where("event_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("event_date <= ?", *filter.DateTo)
	}
	if filter.Cursor != nil {
		query = query.Where(
			"(created_at, id) < (?, ?)",
			filter.Cursor.CreatedAt, filter.Cursor.ID,
		)
	}

	var events []models.Event
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(filter.Limit).
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) ListUpcoming(ctx context.Context, clientID uuid.UUID, from time.Time, days int, limit int) ([]models.Event, error) {
	until := from.AddDate(0, 0, days)
	query := r.db.WithContext(ctx).
		Where("event_date >= ? AND event_date < ?", from, until).
		Where("status NOT IN ?", []enums.EventStatus{
			enums.EventStatusCompleted,
			enums.EventStatusCancelled,
		})
	if clientID != uuid.Nil {
		query = query.Where("client_id = ?", clientID)
	}

	var events []models.Event
	if err := query.
		Order("event_date ASC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) ActiveServices(ctx context.Context, eventID uuid.UUID) ([]models.EventService, error) {
	var services []models.EventService
	if err := r.db.WithContext(ctx).
		Where("event_id = ? AND status <> ?", eventID, enums.EventServiceStatusCancelled).
		Order("created_at ASC").
		Find(&services).Error; err != nil {
		return nil, err
	}
	return services, nil
}

func (r *repository) CompletedPayments(ctx context.Context, eventID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	if err := r.db.WithContext(ctx).
		Where("event_id = ? AND status = ?", eventID, enums.PaymentStatusCompleted).
		Order("payment_date ASC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repository) HasCompletedPayments(ctx context.Context, eventID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("event_id = ? AND status = ?", eventID, enums.PaymentStatusCompleted).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

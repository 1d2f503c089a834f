package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rosewood-events/rosewood-backend/pkg/db/models"
	pkgerrors "github.com/rosewood-events/rosewood-backend/pkg/errors"
	"github.com/rosewood-events/rosewood-backend/pkg/money"
)

type fakeRepository struct {
	findServiceFn   func(ctx context.Context, id uuid.UUID) (*models.CatalogService, error)
	findEventTypeFn func(ctx context.Context, id uuid.UUID) (*models.EventType, error)
	listFn          func(ctx context.Context, category string) ([]models.CatalogService, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepository) FindService(ctx context.Context, id uuid.UUID) (*models.CatalogService, error) {
	if f.findServiceFn != nil {
		return f.findServiceFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindEventType(ctx context.Context, id uuid.UUID) (*models.EventType, error) {
	if f.findEventTypeFn != nil {
		return f.findEventTypeFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) ListActiveServices(ctx context.Context, category string) ([]models.CatalogService, error) {
	if f.listFn != nil {
		return f.listFn(ctx, category)
	}
	return nil, nil
}

func TestRequireActiveService(t *testing.T) {
	id := uuid.New()
	repo := &fakeRepository{
		findServiceFn: func(ctx context.Context, got uuid.UUID) (*models.CatalogService, error) {
			if got != id {
				t.Fatalf("unexpected id %s", got)
			}
			return &models.CatalogService{
				ID:        id,
				Name:      "Premium Catering",
				Category:  "catering",
				BasePrice: money.FromInt(25000),
				IsActive:  true,
			}, nil
		},
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	got, err := svc.RequireActiveService(context.Background(), nil, id)
	if err != nil {
		t.Fatalf("RequireActiveService error: %v", err)
	}
	if got.Name != "Premium Catering" {
		t.Fatalf("unexpected service %+v", got)
	}
}

func TestRequireActiveServiceInactive(t *testing.T) {
	repo := &fakeRepository{
		findServiceFn: func(ctx context.Context, id uuid.UUID) (*models.CatalogService, error) {
			return &models.CatalogService{ID: id, IsActive: false}, nil
		},
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	_, err = svc.RequireActiveService(context.Background(), nil, uuid.New())
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for inactive service, got %v", err)
	}
}

func TestRequireActiveServiceMissing(t *testing.T) {
	svc, err := NewService(&fakeRepository{})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	_, err = svc.RequireActiveService(context.Background(), nil, uuid.New())
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}

	_, err = svc.RequireActiveService(context.Background(), nil, uuid.Nil)
	appErr = pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR for nil id, got %v", err)
	}
}

func TestRequireActiveEventType(t *testing.T) {
	repo := &fakeRepository{
		findEventTypeFn: func(ctx context.Context, id uuid.UUID) (*models.EventType, error) {
			return &models.EventType{ID: id, Name: "Wedding", IsActive: true}, nil
		},
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	got, err := svc.RequireActiveEventType(context.Background(), nil, uuid.New())
	if err != nil {
		t.Fatalf("RequireActiveEventType error: %v", err)
	}
	if got.Name != "Wedding" {
		t.Fatalf("unexpected event type %+v", got)
	}
}

package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rosewood-events/rosewood-backend/pkg/db/models"
	pkgerrors "github.com/rosewood-events/rosewood-backend/pkg/errors"
)

// Service exposes catalog lookups to the booking and event flows.
type Service interface {
	RequireActiveService(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.CatalogService, error)
	RequireActiveEventType(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.EventType, error)
	ListServices(ctx context.Context, category string) ([]models.CatalogService, error)
}

type service struct {
	repo Repository
}

// NewService wires a catalog service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

// RequireActiveService loads the catalog row and rejects unknown or retired
// services. Inactive rows read as not found so retired services cannot be
// booked onto new events.
func (s *service) RequireActiveService(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.CatalogService, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service id required")
	}
	svc, err := s.repo.WithTx(tx).FindService(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog service")
	}
	if !svc.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service is no longer offered")
	}
	return svc, nil
}

func (s *service) RequireActiveEventType(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.EventType, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event type id required")
	}
	et, err := s.repo.WithTx(tx).FindEventType(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event type not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event type")
	}
	if !et.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event type is no longer offered")
	}
	return et, nil
}

func (s *service) ListServices(ctx context.Context, category string) ([]models.CatalogService, error) {
	services, err := s.repo.ListActiveServices(ctx, category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list catalog services")
	}
	return services, nil
}

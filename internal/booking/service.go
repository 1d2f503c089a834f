package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rosewood-events/rosewood-backend/internal/audit"
	"github.com/rosewood-events/rosewood-backend/internal/budget"
	"github.com/rosewood-events/rosewood-backend/internal/catalog"
	"github.com/rosewood-events/rosewood-backend/internal/ledger"
	"github.com/rosewood-events/rosewood-backend/pkg/db/models"
	"github.com/rosewood-events/rosewood-backend/pkg/enums"
	pkgerrors "github.com/rosewood-events/rosewood-backend/pkg/errors"
	"github.com/rosewood-events/rosewood-backend/pkg/logger"
	"github.com/rosewood-events/rosewood-backend/pkg/metrics"
	"github.com/rosewood-events/rosewood-backend/pkg/money"
	"github.com/rosewood-events/rosewood-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines service line operations on an event.
type Service interface {
	AddService(ctx context.Context, input AddServiceInput) (*AddServiceResult, error)
	ListServices(ctx context.Context, actor ledger.Actor, eventID uuid.UUID) (*ServiceListing, error)
	CancelService(ctx context.Context, input CancelServiceInput) (*models.EventService, error)
}

type service struct {
	repo    Repository
	events  ledger.Repository
	tx      txRunner
	outbox  outboxPublisher
	catalog catalog.Service
	audit   audit.Service
	logg    *logger.Logger
	metrics *metrics.LedgerMetrics
}

// AddServiceInput books a catalog service onto an event. AgreedPrice nil
// means the catalog base price is frozen into the line.
type AddServiceInput struct {
	Actor       ledger.Actor
	EventID     uuid.UUID
	ServiceID   uuid.UUID
	Quantity    int
	AgreedPrice *money.Amount
}

// AddServiceResult carries the booked line plus the advisory budget check.
type AddServiceResult struct {
	Line   models.EventService `json:"line"`
	Budget budget.Check        `json:"budget"`
}

// ServiceListing is the per-event line view with subtotals.
type ServiceListing struct {
	Lines     []ServiceLine `json:"lines"`
	TotalCost money.Amount  `json:"total_cost"`
}

// ServiceLine pairs a booked line with its derived subtotal.
type ServiceLine struct {
	models.EventService
	Subtotal money.Amount `json:"subtotal"`
}

// CancelServiceInput cancels a single line on an event.
type CancelServiceInput struct {
	Actor     ledger.Actor
	EventID   uuid.UUID
	ServiceID uuid.UUID
}

// ServiceBookedEvent is emitted when a line lands on an event.
type ServiceBookedEvent struct {
	EventID     uuid.UUID    `json:"event_id"`
	ServiceID   uuid.UUID    `json:"service_id"`
	LineID      uuid.UUID    `json:"line_id"`
	Quantity    int          `json:"quantity"`
	AgreedPrice money.Amount `json:"agreed_price"`
}

// ServiceCancelledEvent is emitted when a line is cancelled.
type ServiceCancelledEvent struct {
	EventID   uuid.UUID `json:"event_id"`
	ServiceID uuid.UUID `json:"service_id"`
	LineID    uuid.UUID `json:"line_id"`
}

// BudgetOverrunEvent is emitted when a booking pushes cost past the budget.
type BudgetOverrunEvent struct {
	EventID uuid.UUID    `json:"event_id"`
	Budget  money.Amount `json:"budget"`
	Total   money.Amount `json:"total"`
	Excess  money.Amount `json:"excess"`
}

// NewService builds the booking service with the required dependencies.
// Logger and metrics may be nil; the service then runs without them.
func NewService(repo Repository, events ledger.Repository, tx txRunner, ob outboxPublisher, cat catalog.Service, aud audit.Service, logg *logger.Logger, m *metrics.LedgerMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("booking repository required")
	}
	if events == nil {
		return nil, fmt.Errorf("event repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if cat == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if aud == nil {
		return nil, fmt.Errorf("audit service required")
	}
	return &service{repo: repo, events: events, tx: tx, outbox: ob, catalog: cat, audit: aud, logg: logg, metrics: m}, nil
}

func (s *service) observe(op string, start time.Time, err error) {
	s.metrics.ObserveTxDuration(op, time.Since(start))
	if err != nil {
		s.metrics.IncFailure(op)
		return
	}
	s.metrics.IncSuccess(op)
}

func (s *service) AddService(ctx context.Context, input AddServiceInput) (*AddServiceResult, error) {
	if input.EventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	if input.ServiceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service id required")
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var result *AddServiceResult
	start := time.Now()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		events := s.events.WithTx(tx)
		event, err := events.FindForUpdate(ctx, input.EventID)
		if err != nil {
			return mapEventErr(err)
		}
		if err := ledger.RequireVisible(input.Actor, event); err != nil {
			return err
		}
		if event.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "services cannot be booked on completed or cancelled events")
		}

		catalogService, err := s.catalog.RequireActiveService(ctx, tx, input.ServiceID)
		if err != nil {
			return err
		}

		repo := s.repo.WithTx(tx)
		exists, err := repo.HasActiveLine(ctx, event.ID, input.ServiceID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check duplicate service")
		}
		if exists {
			return pkgerrors.New(
				pkgerrors.CodeConflict,
				"service is already booked on this event",
			).WithDetails(map[string]any{"service_id": input.ServiceID})
		}

		// Quantity and price validate after the state and duplicate
		// checks so conflicts on stale events win over bad input.
		if input.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}

		// The catalog price is frozen into the line at booking time.
		// An explicitly negotiated price must be strictly positive; a
		// zero line would book the service for free.
		price := catalogService.BasePrice
		if input.AgreedPrice != nil {
			if !input.AgreedPrice.IsPositive() {
				return pkgerrors.New(pkgerrors.CodeValidation, "agreed price must be positive")
			}
			price = *input.AgreedPrice
		}

		line := models.EventService{
			EventID:     event.ID,
			ServiceID:   input.ServiceID,
			Quantity:    input.Quantity,
			AgreedPrice: price,
			Status:      enums.EventServiceStatusPending,
			AddedBy:     input.Actor.UserID,
		}
		if err := repo.Create(ctx, &line); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create service line")
		}

		existing, err := events.ActiveServices(ctx, event.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service lines")
		}
		projected := money.Zero
		for _, l := range existing {
			projected = projected.Add(l.Subtotal())
		}
		check := budget.Evaluate(event.Budget, projected)

		if err := s.audit.Record(ctx, tx, audit.RecordInput{
			ActorID:   input.Actor.UserID,
			Action:    enums.AuditActionServiceAdded,
			TableName: "event_services",
			RecordID:  line.ID,
			New:       line,
			Origin:    input.Actor.Origin,
		}); err != nil {
			return err
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventServiceBooked,
			AggregateType: enums.AggregateEventService,
			AggregateID:   line.ID,
			Version:       1,
			Actor:         actorRef(input.Actor),
			Data: ServiceBookedEvent{
				EventID:     event.ID,
				ServiceID:   line.ServiceID,
				LineID:      line.ID,
				Quantity:    line.Quantity,
				AgreedPrice: line.AgreedPrice,
			},
		}); err != nil {
			return err
		}

		if check.Overrun {
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventBudgetOverrun,
				AggregateType: enums.AggregateEvent,
				AggregateID:   event.ID,
				Version:       1,
				Actor:         actorRef(input.Actor),
				Data: BudgetOverrunEvent{
					EventID: event.ID,
					Budget:  check.Budget,
					Total:   check.Total,
					Excess:  check.Excess,
				},
			}); err != nil {
				return err
			}
		}

		result = &AddServiceResult{Line: line, Budget: check}
		return nil
	})
	s.observe("add_service", start, err)
	if err != nil {
		return nil, err
	}

	// The overrun never blocks the booking; it is surfaced to the
	// caller, logged, and emitted for downstream consumers.
	if result.Budget.Overrun && s.logg != nil {
		warnCtx := s.logg.WithFields(ctx, map[string]any{
			"event_id": input.EventID,
			"budget":   result.Budget.Budget.String(),
			"total":    result.Budget.Total.String(),
			"excess":   result.Budget.Excess.String(),
		})
		s.logg.Warn(warnCtx, "service booking exceeds declared budget")
	}
	return result, nil
}

func (s *service) ListServices(ctx context.Context, actor ledger.Actor, eventID uuid.UUID) (*ServiceListing, error) {
	if eventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	event, err := s.events.Find(ctx, eventID)
	if err != nil {
		return nil, mapEventErr(err)
	}
	if err := ledger.RequireVisible(actor, event); err != nil {
		return nil, err
	}

	lines, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list service lines")
	}

	listing := &ServiceListing{TotalCost: money.Zero}
	for _, line := range lines {
		subtotal := money.Zero
		if line.Status.CountsTowardCost() {
			subtotal = line.Subtotal()
			listing.TotalCost = listing.TotalCost.Add(subtotal)
		}
		listing.Lines = append(listing.Lines, ServiceLine{EventService: line, Subtotal: subtotal})
	}
	return listing, nil
}

func (s *service) CancelService(ctx context.Context, input CancelServiceInput) (*models.EventService, error) {
	if input.EventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	if input.ServiceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service line id required")
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var cancelled *models.EventService
	start := time.Now()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		events := s.events.WithTx(tx)
		event, err := events.FindForUpdate(ctx, input.EventID)
		if err != nil {
			return mapEventErr(err)
		}
		if err := ledger.RequireVisible(input.Actor, event); err != nil {
			return err
		}
		if event.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "services cannot be cancelled on completed or cancelled events")
		}

		repo := s.repo.WithTx(tx)
		line, err := repo.Find(ctx, input.ServiceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "service line not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service line")
		}
		if line.EventID != event.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "service line does not belong to event")
		}
		if line.Status == enums.EventServiceStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "service line is already cancelled")
		}

		before := *line
		if err := repo.UpdateStatus(ctx, line.ID, enums.EventServiceStatusCancelled); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel service line")
		}
		line.Status = enums.EventServiceStatusCancelled

		if err := s.audit.Record(ctx, tx, audit.RecordInput{
			ActorID:   input.Actor.UserID,
			Action:    enums.AuditActionServiceCancelled,
			TableName: "event_services",
			RecordID:  line.ID,
			Old:       before,
			New:       line,
			Origin:    input.Actor.Origin,
		}); err != nil {
			return err
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventServiceCancelled,
			AggregateType: enums.AggregateEventService,
			AggregateID:   line.ID,
			Version:       1,
			Actor:         actorRef(input.Actor),
			Data: ServiceCancelledEvent{
				EventID:   event.ID,
				ServiceID: line.ServiceID,
				LineID:    line.ID,
			},
		}); err != nil {
			return err
		}

		cancelled = line
		return nil
	})
	s.observe("cancel_service", start, err)
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

func mapEventErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
}

func actorRef(actor ledger.Actor) *outbox.ActorRef {
	return &outbox.ActorRef{
		UserID: actor.UserID,
		Role:   string(actor.Role),
	}
}

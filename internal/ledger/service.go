package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rosewood-events/rosewood-backend/internal/audit"
	"github.com/rosewood-events/rosewood-backend/internal/catalog"
	"github.com/rosewood-events/rosewood-backend/pkg/db/models"
	"github.com/rosewood-events/rosewood-backend/pkg/enums"
	pkgerrors "github.com/rosewood-events/rosewood-backend/pkg/errors"
	"github.com/rosewood-events/rosewood-backend/pkg/metrics"
	"github.com/rosewood-events/rosewood-backend/pkg/money"
	"github.com/rosewood-events/rosewood-backend/pkg/outbox"
	"github.com/rosewood-events/rosewood-backend/pkg/pagination"
)

const (
	defaultGuestCount   = 50
	upcomingMaxRows     = 10
	upcomingDefaultDays = 7
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Actor identifies who is performing an operation and from where.
type Actor struct {
	UserID uuid.UUID
	Role   enums.Role
	Origin string
}

// Service defines the event lifecycle operations.
type Service interface {
	CreateEvent(ctx context.Context, input CreateEventInput) (*models.Event, error)
	GetEvent(ctx context.Context, actor Actor, id uuid.UUID) (*EventDetail, error)
	UpdateEvent(ctx context.Context, input UpdateEventInput) (*models.Event, error)
	ListEvents(ctx context.Context, input ListEventsInput) (*EventPage, error)
	UpcomingEvents(ctx context.Context, actor Actor, days int) ([]UpcomingEvent, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Event, error)
	DeleteEvent(ctx context.Context, actor Actor, id uuid.UUID) error
	GetFinancials(ctx context.Context, actor Actor, id uuid.UUID) (*Financials, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	catalog catalog.Service
	audit   audit.Service
	metrics *metrics.LedgerMetrics
}

// CreateEventInput captures a new booking inquiry.
type CreateEventInput struct {
	Actor        Actor
	ClientID     uuid.UUID
	EventTypeID  uuid.UUID
	Name         string
	EventDate    time.Time
	EventTime    *string
	Venue        *string
	GuestCount   int
	Budget       *money.Amount
	SpecialNotes *string
}

// UpdateEventInput carries partial field edits. Nil pointers leave the
// current value untouched. Status changes go through UpdateStatus only.
type UpdateEventInput struct {
	Actor        Actor
	EventID      uuid.UUID
	Name         *string
	EventDate    *time.Time
	EventTime    *string
	Venue        *string
	GuestCount   *int
	Budget       *money.Amount
	SpecialNotes *string
}

// ListEventsInput narrows and pages the event listing. Search matches
// event name and venue case-insensitively; DateFrom and DateTo bound the
// event date inclusively.
type ListEventsInput struct {
	Actor    Actor
	ClientID uuid.UUID
	Status   enums.EventStatus
	Search   string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     pagination.Params
}

// UpdateStatusInput drives the event state machine.
type UpdateStatusInput struct {
	Actor   Actor
	EventID uuid.UUID
	Status  enums.EventStatus
}

// EventDetail is an event with its derived money summary.
type EventDetail struct {
	Event      models.Event `json:"event"`
	Financials Financials   `json:"financials"`
}

// UpcomingEvent pairs an event with its countdown and payment progress
// for the dashboard view.
type UpcomingEvent struct {
	Event         models.Event          `json:"event"`
	DaysUntil     int                   `json:"days_until"`
	PaymentStatus enums.PaymentProgress `json:"payment_status"`
}

// EventPage is a cursor page of events.
type EventPage struct {
	Events     []models.Event `json:"events"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// EventCreatedEvent is emitted when a new inquiry lands.
type EventCreatedEvent struct {
	EventID     uuid.UUID         `json:"event_id"`
	ClientID    uuid.UUID         `json:"client_id"`
	EventTypeID uuid.UUID         `json:"event_type_id"`
	Name        string            `json:"name"`
	EventDate   time.Time         `json:"event_date"`
	Status      enums.EventStatus `json:"status"`
}

// EventStatusChangedEvent is emitted on every status transition.
type EventStatusChangedEvent struct {
	EventID    uuid.UUID         `json:"event_id"`
	ClientID   uuid.UUID         `json:"client_id"`
	FromStatus enums.EventStatus `json:"from_status"`
	ToStatus   enums.EventStatus `json:"to_status"`
}

// EventDeletedEvent is emitted when an event is removed.
type EventDeletedEvent struct {
	EventID  uuid.UUID `json:"event_id"`
	ClientID uuid.UUID `json:"client_id"`
	Name     string    `json:"name"`
}

// NewService builds the event service with the required dependencies.
// Metrics may be nil; the service then runs without instrumentation.
func NewService(repo Repository, tx txRunner, ob outboxPublisher, cat catalog.Service, aud audit.Service, m *metrics.LedgerMetrics) (Service, error) {
	if repo == nil {
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
	return &service{repo: repo, tx: tx, outbox: ob, catalog: cat, audit: aud, metrics: m}, nil
}

func (s *service) observe(op string, start time.Time, err error) {
	s.metrics.ObserveTxDuration(op, time.Since(start))
	if err != nil {
		s.metrics.IncFailure(op)
		return
	}
	s.metrics.IncSuccess(op)
}

func (s *service) CreateEvent(ctx context.Context, input CreateEventInput) (*models.Event, error) {
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event name required")
	}
	if input.EventDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event date required")
	}
	if input.GuestCount < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest count cannot be negative")
	}
	if input.Budget != nil && input.Budget.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "budget cannot be negative")
	}

	// Clients always book for themselves. Staff may book on a client's behalf.
	clientID := input.ClientID
	if !input.Actor.Role.IsStaff() {
		clientID = input.Actor.UserID
	}
	if clientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id required")
	}

	guestCount := input.GuestCount
	if guestCount == 0 {
		guestCount = defaultGuestCount
	}

	event := &models.Event{
		ClientID:     clientID,
		EventTypeID:  input.EventTypeID,
		Name:         input.Name,
		EventDate:    input.EventDate,
		EventTime:    input.EventTime,
		Venue:        input.Venue,
		GuestCount:   guestCount,
		Budget:       input.Budget,
		SpecialNotes: input.SpecialNotes,
		Status:       enums.EventStatusInquiry,
	}

	start := time.Now()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.catalog.RequireActiveEventType(ctx, tx, input.EventTypeID); err != nil {
			return err
		}

		if err := s.repo.WithTx(tx).Create(ctx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create event")
		}

		if err := s.audit.Record(ctx, tx, audit.RecordInput{
			ActorID:   input.Actor.UserID,
			Action:    enums.AuditActionEventCreated,
			TableName: "events",
			RecordID:  event.ID,
			New:       event,
			Origin:    input.Actor.Origin,
		}); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEventCreated,
			AggregateType: enums.AggregateEvent,
			AggregateID:   event.ID,
			Version:       1,
			Actor:         buildActor(input.Actor),
			Data: EventCreatedEvent{
				EventID:     event.ID,
				ClientID:    event.ClientID,
				EventTypeID: event.EventTypeID,
				Name:        event.Name,
				EventDate:   event.EventDate,
				Status:      event.Status,
			},
		})
	})
	s.observe("create_event", start, err)
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *service) GetEvent(ctx context.Context, actor Actor, id uuid.UUID) (*EventDetail, error) {
	event, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	fin, err := s.financialsFor(ctx, event)
	if err != nil {
		return nil, err
	}
	return &EventDetail{Event: *event, Financials: *fin}, nil
}

func (s *service) UpdateEvent(ctx context.Context, input UpdateEventInput) (*models.Event, error) {
	if input.EventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Name != nil && *input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event name cannot be empty")
	}
	if input.GuestCount != nil && *input.GuestCount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest count must be positive")
	}
	if input.Budget != nil && input.Budget.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "budget cannot be negative")
	}

	var updated *models.Event
	start := time.Now()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		event, err := repo.FindForUpdate(ctx, input.EventID)
		if err != nil {
			return mapFindErr(err)
		}
		if err := RequireVisible(input.Actor, event); err != nil {
			return err
		}
		if event.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "completed or cancelled events cannot be edited")
		}

		before := *event
		updates := map[string]any{}
		if input.Name != nil {
			updates["name"] = *input.Name
			event.Name = *input.Name
		}
		if input.EventDate != nil {
			updates["event_date"] = *input.EventDate
			event.EventDate = *input.EventDate
		}
		if input.EventTime != nil {
			updates["event_time"] = *input.EventTime
			event.EventTime = input.EventTime
		}
		if input.Venue != nil {
			updates["venue"] = *input.Venue
			event.Venue = input.Venue
		}
		if input.GuestCount != nil {
			updates["guest_count"] = *input.GuestCount
			event.GuestCount = *input.GuestCount
		}
		if input.Budget != nil {
			updates["budget"] = *input.Budget
			event.Budget = input.Budget
		}
		if input.SpecialNotes != nil {
			updates["special_notes"] = *input.SpecialNotes
			event.SpecialNotes = input.SpecialNotes
		}
		if len(updates) == 0 {
			updated = event
			return nil
		}

		if err := repo.Update(ctx, event.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update event")
		}

		if err := s.audit.Record(ctx, tx, audit.RecordInput{
			ActorID:   input.Actor.UserID,
			Action:    enums.AuditActionEventUpdated,
			TableName: "events",
			RecordID:  event.ID,
			Old:       before,
			New:       event,
			Origin:    input.Actor.Origin,
		}); err != nil {
			return err
		}

		updated = event
		return nil
	})
	s.observe("update_event", start, err)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) ListEvents(ctx context.Context, input ListEventsInput) (*EventPage, error) {
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Status != "" && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", input.Status))
	}

	clientID := input.ClientID
	if !input.Actor.Role.IsStaff() {
		clientID = input.Actor.UserID
	}

	cursor, err := pagination.ParseCursor(input.Page.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(input.Page.Limit)
	events, err := s.repo.List(ctx, ListFilter{
		ClientID: clientID,
		Status:   input.Status,
		Search:   input.Search,
		DateFrom: input.DateFrom,
		DateTo:   input.DateTo,
		Cursor:   cursor,
		Limit:    limit + 1,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list events")
	}

	page := &EventPage{Events: events}
	if len(events) > limit {
		page.Events = events[:limit]
		last := page.Events[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

func (s *service) UpcomingEvents(ctx context.Context, actor Actor, days int) ([]UpcomingEvent, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if days <= 0 {
		days = upcomingDefaultDays
	}

	clientID := uuid.Nil
	if !actor.Role.IsStaff() {
		clientID = actor.UserID
	}

	now := time.Now()
	from := now.Truncate(24 * time.Hour)
	events, err := s.repo.ListUpcoming(ctx, clientID, from, days, upcomingMaxRows)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list upcoming events")
	}

	upcoming := make([]UpcomingEvent, 0, len(events))
	for _, event := range events {
		fin, err := s.financialsFor(ctx, &event)
		if err != nil {
			return nil, err
		}
		upcoming = append(upcoming, UpcomingEvent{
			Event:         event,
			DaysUntil:     DaysUntilEvent(event.EventDate, now),
			PaymentStatus: fin.PaymentStatus,
		})
	}
	return upcoming, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Event, error) {
	if input.EventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Actor.Role.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "status changes require staff access")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", input.Status))
	}

	var updated *models.Event
	start := time.Now()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		event, err := repo.FindForUpdate(ctx, input.EventID)
		if err != nil {
			return mapFindErr(err)
		}
		if event.Status == input.Status {
			updated = event
			return nil
		}
		if !event.Status.CanTransitionTo(input.Status) {
			return pkgerrors.New(
				pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move event from %s to %s", event.Status, input.Status),
			)
		}

		from := event.Status
		if err := repo.Update(ctx, event.ID, map[string]any{"status": input.Status}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update event status")
		}
		event.Status = input.Status

		if err := s.audit.Record(ctx, tx, audit.RecordInput{
			ActorID:   input.Actor.UserID,
			Action:    enums.AuditActionStatusUpdated,
			TableName: "events",
			RecordID:  event.ID,
			Old:       map[string]any{"status": from},
			New:       map[string]any{"status": event.Status},
			Origin:    input.Actor.Origin,
		}); err != nil {
			return err
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEventStatusChanged,
			AggregateType: enums.AggregateEvent,
			AggregateID:   event.ID,
			Version:       1,
			Actor:         buildActor(input.Actor),
			Data: EventStatusChangedEvent{
				EventID:    event.ID,
				ClientID:   event.ClientID,
				FromStatus: from,
				ToStatus:   event.Status,
			},
		}); err != nil {
			return err
		}

		updated = event
		return nil
	})
	s.observe("update_status", start, err)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) DeleteEvent(ctx context.Context, actor Actor, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	if actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	start := time.Now()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		event, err := repo.FindForUpdate(ctx, id)
		if err != nil {
			return mapFindErr(err)
		}
		// Clients may delete their own events; the completed-payment
		// check below still applies to everyone.
		if err := RequireVisible(actor, event); err != nil {
			return err
		}

		hasPayments, err := repo.HasCompletedPayments(ctx, event.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check completed payments")
		}
		if hasPayments {
			return pkgerrors.New(
				pkgerrors.CodeConflict,
				"event has completed payments and cannot be deleted",
			).WithDetails(map[string]any{"event_id": event.ID})
		}

		if err := repo.DeleteCascade(ctx, event.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete event")
		}

		// The deletion entry survives the cascade; it is written after the
		// event's own activity rows are removed.
		if err := s.audit.Record(ctx, tx, audit.RecordInput{
			ActorID:   actor.UserID,
			Action:    enums.AuditActionEventDeleted,
			TableName: "events",
			RecordID:  event.ID,
			Old:       event,
			Origin:    actor.Origin,
		}); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEventDeleted,
			AggregateType: enums.AggregateEvent,
			AggregateID:   event.ID,
			Version:       1,
			Actor:         buildActor(actor),
			Data: EventDeletedEvent{
				EventID:  event.ID,
				ClientID: event.ClientID,
				Name:     event.Name,
			},
		})
	})
	s.observe("delete_event", start, err)
	return err
}

func (s *service) GetFinancials(ctx context.Context, actor Actor, id uuid.UUID) (*Financials, error) {
	event, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.financialsFor(ctx, event)
}

func (s *service) loadVisible(ctx context.Context, actor Actor, id uuid.UUID) (*models.Event, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	event, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, mapFindErr(err)
	}
	if err := RequireVisible(actor, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *service) financialsFor(ctx context.Context, event *models.Event) (*Financials, error) {
	services, err := s.repo.ActiveServices(ctx, event.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service lines")
	}
	payments, err := s.repo.CompletedPayments(ctx, event.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payments")
	}
	fin := ComputeFinancials(services, payments)
	fin.DaysUntil = DaysUntilEvent(event.EventDate, time.Now())
	return &fin, nil
}

// RequireVisible enforces the client-owns-row visibility rule. Staff bypass it.
func RequireVisible(actor Actor, event *models.Event) error {
	if actor.Role.IsStaff() {
		return nil
	}
	if event.ClientID != actor.UserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "event does not belong to client")
	}
	return nil
}

func mapFindErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
}

func buildActor(actor Actor) *outbox.ActorRef {
	return &outbox.ActorRef{
		UserID: actor.UserID,
		Role:   string(actor.Role),
	}
}

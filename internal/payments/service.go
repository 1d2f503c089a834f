package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rosewood-events/rosewood-backend/internal/audit"
	"github.com/rosewood-events/rosewood-backend/internal/ledger"
	"github.com/rosewood-events/rosewood-backend/pkg/db"
	"github.com/rosewood-events/rosewood-backend/pkg/db/models"
	"github.com/rosewood-events/rosewood-backend/pkg/enums"
	pkgerrors "github.com/rosewood-events/rosewood-backend/pkg/errors"
	"github.com/rosewood-events/rosewood-backend/pkg/metrics"
	"github.com/rosewood-events/rosewood-backend/pkg/money"
	"github.com/rosewood-events/rosewood-backend/pkg/outbox"
)

// Default cap for the cross-event payment listing.
const listDefaultLimit = 100

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service records, corrects, lists and deletes payments against events.
type Service interface {
	RecordPayment(ctx context.Context, input RecordPaymentInput) (*RecordPaymentResult, error)
	GetPayment(ctx context.Context, actor ledger.Actor, id uuid.UUID) (*models.Payment, error)
	ListPayments(ctx context.Context, input ListPaymentsInput) ([]models.Payment, error)
	UpdatePayment(ctx context.Context, input UpdatePaymentInput) (*models.Payment, error)
	DeletePayment(ctx context.Context, input DeletePaymentInput) error
}

type service struct {
	repo    Repository
	events  ledger.Repository
	tx      txRunner
	outbox  outboxPublisher
	audit   audit.Service
	metrics *metrics.LedgerMetrics
}

// RecordPaymentInput captures one incoming payment. ExplicitType overrides
// classification when set; ReferenceNumber is generated when empty.
type RecordPaymentInput struct {
	Actor           ledger.Actor
	EventID         uuid.UUID
	Amount          money.Amount
	Method          enums.PaymentMethod
	ExplicitType    *enums.PaymentType
	ReferenceNumber string
	Notes           *string
	PaymentDate     *time.Time
}

// RecordPaymentResult reports the stored row, the type the classifier
// assigned and whether the event auto-confirmed as a consequence.
type RecordPaymentResult struct {
	Payment        models.Payment    `json:"payment"`
	ClassifiedType enums.PaymentType `json:"classified_type"`
	AutoConfirmed  bool              `json:"auto_confirmed"`
}

// ListPaymentsInput scopes the listing. EventID nil means all visible rows.
type ListPaymentsInput struct {
	Actor   ledger.Actor
	EventID *uuid.UUID
}

// UpdatePaymentInput is the correction path. Amount and type of a
// completed payment stay immutable; only these fields may change.
type UpdatePaymentInput struct {
	Actor       ledger.Actor
	PaymentID   uuid.UUID
	Method      *enums.PaymentMethod
	Notes       *string
	PaymentDate *time.Time
}

// DeletePaymentInput removes a payment row. Staff only.
type DeletePaymentInput struct {
	Actor     ledger.Actor
	PaymentID uuid.UUID
}

// PaymentRecordedEvent is emitted for every stored payment.
type PaymentRecordedEvent struct {
	PaymentID       uuid.UUID           `json:"payment_id"`
	EventID         uuid.UUID           `json:"event_id"`
	Amount          money.Amount        `json:"amount"`
	Method          enums.PaymentMethod `json:"method"`
	Type            enums.PaymentType   `json:"type"`
	ReferenceNumber string              `json:"reference_number"`
	AutoConfirmed   bool                `json:"auto_confirmed"`
}

// PaymentDeletedEvent is emitted when a payment row is removed.
type PaymentDeletedEvent struct {
	PaymentID uuid.UUID    `json:"payment_id"`
	EventID   uuid.UUID    `json:"event_id"`
	Amount    money.Amount `json:"amount"`
}

// NewService builds the payment service with the required dependencies.
// Metrics may be nil; the service then runs without instrumentation.
func NewService(repo Repository, events ledger.Repository, tx txRunner, ob outboxPublisher, aud audit.Service, m *metrics.LedgerMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payment repository required")
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
	if aud == nil {
		return nil, fmt.Errorf("audit service required")
	}
	return &service{repo: repo, events: events, tx: tx, outbox: ob, audit: aud, metrics: m}, nil
}

func (s *service) observe(op string, start time.Time, err error) {
	s.metrics.ObserveTxDuration(op, time.Since(start))
	if err != nil {
		s.metrics.IncFailure(op)
		return
	}
	s.metrics.IncSuccess(op)
}

func (s *service) RecordPayment(ctx context.Context, input RecordPaymentInput) (*RecordPaymentResult, error) {
	if input.EventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method must be cash, card, bank_transfer or online")
	}
	if input.ExplicitType != nil {
		if err := requireValidType(*input.ExplicitType); err != nil {
			return nil, err
		}
	}

	result, err := s.recordOnce(ctx, input)
	if db.IsLockUnavailable(err) {
		// One internal retry on a lock-wait timeout, then the caller
		// backs off.
		result, err = s.recordOnce(ctx, input)
	}
	if db.IsLockUnavailable(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "event row is locked by a concurrent payment")
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) recordOnce(ctx context.Context, input RecordPaymentInput) (*RecordPaymentResult, error) {
	var result *RecordPaymentResult
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
		if event.Status == enums.EventStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payments cannot be recorded on cancelled events")
		}

		// Balance is read under the event row lock so the classifier
		// sees every previously committed payment.
		services, err := events.ActiveServices(ctx, event.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service lines")
		}
		completed, err := events.CompletedPayments(ctx, event.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payments")
		}
		before := ledger.ComputeFinancials(services, completed)

		paymentType := enums.PaymentType("")
		if input.ExplicitType != nil {
			paymentType = *input.ExplicitType
		} else {
			paymentType, err = Classify(before.TotalCost, before.TotalPaid, input.Amount)
			if err != nil {
				return err
			}
		}
		if !paymentType.IsValid() {
			return pkgerrors.New(pkgerrors.CodeInternal, "classifier produced an unknown payment type")
		}

		reference := strings.TrimSpace(input.ReferenceNumber)
		if reference == "" {
			reference = newReferenceNumber()
		}
		paymentDate := time.Now().UTC()
		if input.PaymentDate != nil {
			paymentDate = *input.PaymentDate
		}

		payment := models.Payment{
			EventID:         event.ID,
			Amount:          input.Amount,
			Method:          input.Method,
			Type:            paymentType,
			ReferenceNumber: reference,
			Status:          enums.PaymentStatusCompleted,
			Notes:           input.Notes,
			RecordedBy:      input.Actor.UserID,
			PaymentDate:     paymentDate,
		}
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, &payment); err != nil {
			if db.IsUniqueViolation(err, "reference_number") {
				return pkgerrors.New(pkgerrors.CodeConflict, "reference number is already in use")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}

		if err := s.audit.Record(ctx, tx, audit.RecordInput{
			ActorID:   input.Actor.UserID,
			Action:    enums.AuditActionPaymentReceived,
			TableName: "payments",
			RecordID:  payment.ID,
			New:       payment,
			Origin:    input.Actor.Origin,
		}); err != nil {
			return err
		}

		// inquiry -> confirmed is the only automatic transition. It
		// never advances past confirmed and never revives a cancelled
		// event.
		paidAfter := before.TotalPaid.Add(input.Amount)
		autoConfirmed := false
		if before.TotalCost.IsPositive() &&
			paidAfter.GreaterThanOrEqual(before.TotalCost) &&
			event.Status == enums.EventStatusInquiry {
			if err := events.Update(ctx, event.ID, map[string]any{"status": enums.EventStatusConfirmed}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "auto-confirm event")
			}
			autoConfirmed = true

			if err := s.audit.Record(ctx, tx, audit.RecordInput{
				ActorID:   input.Actor.UserID,
				Action:    enums.AuditActionStatusUpdated,
				TableName: "events",
				RecordID:  event.ID,
				Old:       enums.EventStatusInquiry,
				New:       enums.EventStatusConfirmed,
				Origin:    input.Actor.Origin,
			}); err != nil {
				return err
			}
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventEventStatusChanged,
				AggregateType: enums.AggregateEvent,
				AggregateID:   event.ID,
				Version:       1,
				Actor:         actorRef(input.Actor),
				Data: ledger.EventStatusChangedEvent{
					EventID:    event.ID,
					ClientID:   event.ClientID,
					FromStatus: enums.EventStatusInquiry,
					ToStatus:   enums.EventStatusConfirmed,
				},
			}); err != nil {
				return err
			}
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentRecorded,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Version:       1,
			Actor:         actorRef(input.Actor),
			Data: PaymentRecordedEvent{
				PaymentID:       payment.ID,
				EventID:         event.ID,
				Amount:          payment.Amount,
				Method:          payment.Method,
				Type:            payment.Type,
				ReferenceNumber: payment.ReferenceNumber,
				AutoConfirmed:   autoConfirmed,
			},
		}); err != nil {
			return err
		}

		result = &RecordPaymentResult{
			Payment:        payment,
			ClassifiedType: paymentType,
			AutoConfirmed:  autoConfirmed,
		}
		return nil
	})
	s.observe("record_payment", start, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) GetPayment(ctx context.Context, actor ledger.Actor, id uuid.UUID) (*models.Payment, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	payment, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, mapPaymentErr(err)
	}
	if err := s.requireEventVisible(ctx, actor, payment.EventID); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *service) ListPayments(ctx context.Context, input ListPaymentsInput) ([]models.Payment, error) {
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	if input.EventID != nil {
		if err := s.requireEventVisible(ctx, input.Actor, *input.EventID); err != nil {
			return nil, err
		}
		rows, err := s.repo.ListByEvent(ctx, *input.EventID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
		}
		return rows, nil
	}

	// Cross-event listings are a staff view. Clients must scope to one
	// of their own events.
	if !input.Actor.Role.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "event id required for client payment listings")
	}
	rows, err := s.repo.List(ctx, listDefaultLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return rows, nil
}

func (s *service) UpdatePayment(ctx context.Context, input UpdatePaymentInput) (*models.Payment, error) {
	if input.PaymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Method != nil && !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method must be cash, card, bank_transfer or online")
	}

	var updated *models.Payment
	start := time.Now()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payment, err := repo.Find(ctx, input.PaymentID)
		if err != nil {
			return mapPaymentErr(err)
		}
		event, err := s.events.WithTx(tx).Find(ctx, payment.EventID)
		if err != nil {
			return mapEventErr(err)
		}
		if err := ledger.RequireVisible(input.Actor, event); err != nil {
			return err
		}

		before := *payment
		updates := map[string]any{}
		if input.Method != nil {
			updates["method"] = *input.Method
			payment.Method = *input.Method
		}
		if input.Notes != nil {
			updates["notes"] = *input.Notes
			payment.Notes = input.Notes
		}
		if input.PaymentDate != nil {
			updates["payment_date"] = *input.PaymentDate
			payment.PaymentDate = *input.PaymentDate
		}
		if len(updates) == 0 {
			updated = payment
			return nil
		}

		if err := repo.Update(ctx, payment.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment")
		}

		if err := s.audit.Record(ctx, tx, audit.RecordInput{
			ActorID:   input.Actor.UserID,
			Action:    enums.AuditActionPaymentUpdated,
			TableName: "payments",
			RecordID:  payment.ID,
			Old:       before,
			New:       payment,
			Origin:    input.Actor.Origin,
		}); err != nil {
			return err
		}

		updated = payment
		return nil
	})
	s.observe("update_payment", start, err)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) DeletePayment(ctx context.Context, input DeletePaymentInput) error {
	if input.PaymentID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	if input.Actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Actor.Role.IsStaff() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only staff may delete payments")
	}

	start := time.Now()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payment, err := repo.Find(ctx, input.PaymentID)
		if err != nil {
			return mapPaymentErr(err)
		}
		// The event row lock keeps the balance serial with concurrent
		// recordings. Deletion never reverses a prior auto-confirm.
		if _, err := s.events.WithTx(tx).FindForUpdate(ctx, payment.EventID); err != nil {
			return mapEventErr(err)
		}

		if err := repo.Delete(ctx, payment.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete payment")
		}

		if err := s.audit.Record(ctx, tx, audit.RecordInput{
			ActorID:   input.Actor.UserID,
			Action:    enums.AuditActionPaymentDeleted,
			TableName: "payments",
			RecordID:  payment.ID,
			Old:       payment,
			Origin:    input.Actor.Origin,
		}); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentDeleted,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Version:       1,
			Actor:         actorRef(input.Actor),
			Data: PaymentDeletedEvent{
				PaymentID: payment.ID,
				EventID:   payment.EventID,
				Amount:    payment.Amount,
			},
		})
	})
	s.observe("delete_payment", start, err)
	return err
}

func (s *service) requireEventVisible(ctx context.Context, actor ledger.Actor, eventID uuid.UUID) error {
	event, err := s.events.Find(ctx, eventID)
	if err != nil {
		return mapEventErr(err)
	}
	return ledger.RequireVisible(actor, event)
}

// newReferenceNumber mints a short upper-case reference for rows recorded
// without one.
func newReferenceNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "PAY-" + strings.ToUpper(raw[:12])
}

func mapEventErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
}

func mapPaymentErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
}

func actorRef(actor ledger.Actor) *outbox.ActorRef {
	return &outbox.ActorRef{
		UserID: actor.UserID,
		Role:   string(actor.Role),
	}
}

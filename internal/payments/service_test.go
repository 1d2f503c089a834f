package payments

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"gorm.io/gorm"

	"github.com/rosewood-events/rosewood-backend/internal/audit"
	"github.com/rosewood-events/rosewood-backend/internal/ledger"
	"github.com/rosewood-events/rosewood-backend/pkg/db/models"
	"github.com/rosewood-events/rosewood-backend/pkg/enums"
	pkgerrors "github.com/rosewood-events/rosewood-backend/pkg/errors"
	"github.com/rosewood-events/rosewood-backend/pkg/metrics"
	"github.com/rosewood-events/rosewood-backend/pkg/money"
	"github.com/rosewood-events/rosewood-backend/pkg/outbox"
)

type fakeRepository struct {
	created  []models.Payment
	findFn   func(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	updates  map[string]any
	deleted  []uuid.UUID
	byEvent  []models.Payment
	crossAll []models.Payment
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, payment *models.Payment) error {
	payment.ID = uuid.New()
	f.created = append(f.created, *payment)
	return nil
}

func (f *fakeRepository) Find(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	if f.findFn != nil {
		return f.findFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Payment, error) {
	return f.byEvent, nil
}

func (f *fakeRepository) List(ctx context.Context, limit int) ([]models.Payment, error) {
	return f.crossAll, nil
}

func (f *fakeRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	f.updates = updates
	return nil
}

func (f *fakeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeEventRepo struct {
	ledger.Repository
	event        *models.Event
	services     []models.EventService
	payments     []models.Payment
	lockFailures int
	lockAttempts int
	updates      map[string]any
}

func (f *fakeEventRepo) WithTx(tx *gorm.DB) ledger.Repository { return f }

func (f *fakeEventRepo) Find(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	if f.event == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.event, nil
}

func (f *fakeEventRepo) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	f.lockAttempts++
	if f.lockFailures > 0 {
		f.lockFailures--
		return nil, &pgconn.PgError{Code: "55P03", Message: "lock not available"}
	}
	return f.Find(ctx, id)
}

func (f *fakeEventRepo) ActiveServices(ctx context.Context, eventID uuid.UUID) ([]models.EventService, error) {
	return f.services, nil
}

func (f *fakeEventRepo) CompletedPayments(ctx context.Context, eventID uuid.UUID) ([]models.Payment, error) {
	return f.payments, nil
}

func (f *fakeEventRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	f.updates = updates
	return nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeOutbox struct {
	events []outbox.DomainEvent
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

type fakeAudit struct {
	records []audit.RecordInput
}

func (f *fakeAudit) Record(ctx context.Context, tx *gorm.DB, input audit.RecordInput) error {
	f.records = append(f.records, input)
	return nil
}

func (f *fakeAudit) Query(ctx context.Context, input audit.QueryInput) ([]models.ActivityLog, error) {
	return nil, nil
}

func staffActor() ledger.Actor {
	return ledger.Actor{UserID: uuid.New(), Role: enums.RoleManager}
}

func serviceLines(amounts ...int64) []models.EventService {
	var lines []models.EventService
	for _, amount := range amounts {
		lines = append(lines, models.EventService{
			Quantity:    1,
			AgreedPrice: money.FromInt(amount),
			Status:      enums.EventServiceStatusConfirmed,
		})
	}
	return lines
}

func completedPayments(amounts ...int64) []models.Payment {
	var rows []models.Payment
	for _, amount := range amounts {
		rows = append(rows, models.Payment{
			Amount: money.FromInt(amount),
			Status: enums.PaymentStatusCompleted,
		})
	}
	return rows
}

func newPaymentService(t *testing.T, repo *fakeRepository, events *fakeEventRepo, ob *fakeOutbox, aud *fakeAudit) Service {
	t.Helper()
	svc, err := NewService(repo, events, fakeTxRunner{}, ob, aud, nil)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func TestClassifyTable(t *testing.T) {
	cases := []struct {
		name       string
		cost       int64
		paidBefore int64
		amount     int64
		want       enums.PaymentType
	}{
		{"no services booked", 0, 0, 500, enums.PaymentTypeAdvance},
		{"exact full payment", 1000, 0, 1000, enums.PaymentTypeFinal},
		{"first partial payment", 1000, 0, 400, enums.PaymentTypeAdvance},
		{"mid-stream payment", 1000, 400, 300, enums.PaymentTypePartial},
		{"overshooting remainder", 1000, 400, 600, enums.PaymentTypeFinal},
		{"overpayment", 1000, 400, 900, enums.PaymentTypeFinal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Classify(money.FromInt(tc.cost), money.FromInt(tc.paidBefore), money.FromInt(tc.amount))
			if err != nil {
				t.Fatalf("Classify error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Classify(%d, %d, %d) = %s, want %s", tc.cost, tc.paidBefore, tc.amount, got, tc.want)
			}
		})
	}
}

func TestRecordPaymentAutoConfirmsInquiry(t *testing.T) {
	eventID := uuid.New()
	events := &fakeEventRepo{
		event:    &models.Event{ID: eventID, Status: enums.EventStatusInquiry},
		services: serviceLines(1000),
	}
	repo := &fakeRepository{}
	ob := &fakeOutbox{}
	aud := &fakeAudit{}
	svc := newPaymentService(t, repo, events, ob, aud)

	result, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		Actor:   staffActor(),
		EventID: eventID,
		Amount:  money.FromInt(1000),
		Method:  enums.PaymentMethodBankTransfer,
	})
	if err != nil {
		t.Fatalf("RecordPayment error: %v", err)
	}

	if result.ClassifiedType != enums.PaymentTypeFinal {
		t.Fatalf("type = %s, want final", result.ClassifiedType)
	}
	if !result.AutoConfirmed {
		t.Fatal("expected auto-confirmation")
	}
	if got := events.updates["status"]; got != enums.EventStatusConfirmed {
		t.Fatalf("event status update = %v, want confirmed", got)
	}
	if len(aud.records) != 2 {
		t.Fatalf("expected payment_received plus status_updated audit entries, got %d", len(aud.records))
	}
	if aud.records[1].Action != enums.AuditActionStatusUpdated {
		t.Fatalf("second audit action = %s", aud.records[1].Action)
	}
	if len(ob.events) != 2 {
		t.Fatalf("expected status change plus payment_recorded emits, got %d", len(ob.events))
	}
}

func TestRecordPaymentNeverAdvancesPastConfirmed(t *testing.T) {
	eventID := uuid.New()
	events := &fakeEventRepo{
		event:    &models.Event{ID: eventID, Status: enums.EventStatusConfirmed},
		services: serviceLines(1000),
		payments: completedPayments(400),
	}
	svc := newPaymentService(t, &fakeRepository{}, events, &fakeOutbox{}, &fakeAudit{})

	result, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		Actor:   staffActor(),
		EventID: eventID,
		Amount:  money.FromInt(600),
		Method:  enums.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("RecordPayment error: %v", err)
	}
	if result.AutoConfirmed {
		t.Fatal("confirmed events must not auto-transition again")
	}
	if events.updates != nil {
		t.Fatalf("unexpected status update %v", events.updates)
	}
}

func TestRecordPaymentGeneratesReference(t *testing.T) {
	eventID := uuid.New()
	events := &fakeEventRepo{event: &models.Event{ID: eventID, Status: enums.EventStatusConfirmed}}
	repo := &fakeRepository{}
	svc := newPaymentService(t, repo, events, &fakeOutbox{}, &fakeAudit{})

	result, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		Actor:   staffActor(),
		EventID: eventID,
		Amount:  money.FromInt(250),
		Method:  enums.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("RecordPayment error: %v", err)
	}
	if !strings.HasPrefix(result.Payment.ReferenceNumber, "PAY-") {
		t.Fatalf("reference = %q, want PAY- prefix", result.Payment.ReferenceNumber)
	}
	if result.Payment.Status != enums.PaymentStatusCompleted {
		t.Fatalf("rows are stored completed, got %s", result.Payment.Status)
	}
}

func TestRecordPaymentRejectsCancelledEvent(t *testing.T) {
	eventID := uuid.New()
	events := &fakeEventRepo{event: &models.Event{ID: eventID, Status: enums.EventStatusCancelled}}
	svc := newPaymentService(t, &fakeRepository{}, events, &fakeOutbox{}, &fakeAudit{})

	_, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		Actor:   staffActor(),
		EventID: eventID,
		Amount:  money.FromInt(100),
		Method:  enums.PaymentMethodCash,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
}

func TestRecordPaymentAllowsLatePaymentOnCompletedEvent(t *testing.T) {
	eventID := uuid.New()
	events := &fakeEventRepo{
		event:    &models.Event{ID: eventID, Status: enums.EventStatusCompleted},
		services: serviceLines(1000),
		payments: completedPayments(800),
	}
	svc := newPaymentService(t, &fakeRepository{}, events, &fakeOutbox{}, &fakeAudit{})

	result, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		Actor:   staffActor(),
		EventID: eventID,
		Amount:  money.FromInt(200),
		Method:  enums.PaymentMethodOnline,
	})
	if err != nil {
		t.Fatalf("late payments on completed events must be accepted: %v", err)
	}
	if result.ClassifiedType != enums.PaymentTypeFinal {
		t.Fatalf("type = %s, want final", result.ClassifiedType)
	}
	if result.AutoConfirmed {
		t.Fatal("completed events never auto-confirm")
	}
}

func TestRecordPaymentRetriesOnceOnLockTimeout(t *testing.T) {
	eventID := uuid.New()
	events := &fakeEventRepo{
		event:        &models.Event{ID: eventID, Status: enums.EventStatusConfirmed},
		lockFailures: 1,
	}
	svc := newPaymentService(t, &fakeRepository{}, events, &fakeOutbox{}, &fakeAudit{})

	_, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		Actor:   staffActor(),
		EventID: eventID,
		Amount:  money.FromInt(100),
		Method:  enums.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
	if events.lockAttempts != 2 {
		t.Fatalf("lock attempts = %d, want 2", events.lockAttempts)
	}
}

func TestRecordPaymentSurfacesPersistentLockTimeout(t *testing.T) {
	eventID := uuid.New()
	events := &fakeEventRepo{
		event:        &models.Event{ID: eventID, Status: enums.EventStatusConfirmed},
		lockFailures: 2,
	}
	svc := newPaymentService(t, &fakeRepository{}, events, &fakeOutbox{}, &fakeAudit{})

	_, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		Actor:   staffActor(),
		EventID: eventID,
		Amount:  money.FromInt(100),
		Method:  enums.PaymentMethodCash,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected DEPENDENCY_ERROR after second timeout, got %v", err)
	}
	if events.lockAttempts != 2 {
		t.Fatalf("lock attempts = %d, want exactly 2", events.lockAttempts)
	}
}

// sharedLedger backs concurrent recordings with one committed-payment list
// so each transaction reads the rows the previous one wrote.
type sharedLedger struct {
	event     *models.Event
	services  []models.EventService
	committed []models.Payment
}

// lockingTxRunner stands in for the event row lock: transactions against the
// same event run one at a time.
type lockingTxRunner struct {
	mu sync.Mutex
}

func (l *lockingTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(&gorm.DB{})
}

type sharedEventRepo struct {
	ledger.Repository
	state *sharedLedger
}

func (r *sharedEventRepo) WithTx(tx *gorm.DB) ledger.Repository { return r }

func (r *sharedEventRepo) Find(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return r.state.event, nil
}

func (r *sharedEventRepo) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return r.state.event, nil
}

func (r *sharedEventRepo) ActiveServices(ctx context.Context, eventID uuid.UUID) ([]models.EventService, error) {
	return r.state.services, nil
}

func (r *sharedEventRepo) CompletedPayments(ctx context.Context, eventID uuid.UUID) ([]models.Payment, error) {
	return append([]models.Payment(nil), r.state.committed...), nil
}

func (r *sharedEventRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return nil
}

type sharedPaymentRepo struct {
	state *sharedLedger
}

func (r *sharedPaymentRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *sharedPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	payment.ID = uuid.New()
	r.state.committed = append(r.state.committed, *payment)
	return nil
}

func (r *sharedPaymentRepo) Find(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *sharedPaymentRepo) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Payment, error) {
	return r.state.committed, nil
}

func (r *sharedPaymentRepo) List(ctx context.Context, limit int) ([]models.Payment, error) {
	return r.state.committed, nil
}

func (r *sharedPaymentRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return nil
}

func (r *sharedPaymentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func TestRecordPaymentConcurrentRecordingsClassifyInSequence(t *testing.T) {
	eventID := uuid.New()
	state := &sharedLedger{
		event:    &models.Event{ID: eventID, Status: enums.EventStatusConfirmed},
		services: serviceLines(1000),
	}
	svc, err := NewService(
		&sharedPaymentRepo{state: state},
		&sharedEventRepo{state: state},
		&lockingTxRunner{},
		&fakeOutbox{},
		&fakeAudit{},
		nil,
	)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	// Two clerks record 600 against a 1000 event at the same moment. The
	// row lock forces one to read the other's committed row, so the types
	// land as one advance and one final with both rows kept.
	results := make(chan *RecordPaymentResult, 2)
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
				Actor:   staffActor(),
				EventID: eventID,
				Amount:  money.FromInt(600),
				Method:  enums.PaymentMethodCash,
			})
			if err != nil {
				errs <- err
				return
			}
			results <- result
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent RecordPayment error: %v", err)
	}

	counts := map[enums.PaymentType]int{}
	for result := range results {
		counts[result.ClassifiedType]++
	}
	if counts[enums.PaymentTypeAdvance] != 1 || counts[enums.PaymentTypeFinal] != 1 {
		t.Fatalf("expected one advance and one final, got %v", counts)
	}

	totalPaid := money.Zero
	for _, row := range state.committed {
		totalPaid = totalPaid.Add(row.Amount)
	}
	if got := totalPaid.String(); got != "1200.00" {
		t.Fatalf("total paid = %s, want 1200.00 across both rows", got)
	}
}

func TestRecordPaymentInstrumentsTransaction(t *testing.T) {
	eventID := uuid.New()
	events := &fakeEventRepo{
		event:    &models.Event{ID: eventID, Status: enums.EventStatusConfirmed},
		services: serviceLines(1000),
	}
	reg := prometheus.NewRegistry()
	svc, err := NewService(&fakeRepository{}, events, fakeTxRunner{}, &fakeOutbox{}, &fakeAudit{}, metrics.NewLedgerMetrics(reg))
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	if _, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		Actor:   staffActor(),
		EventID: eventID,
		Amount:  money.FromInt(500),
		Method:  enums.PaymentMethodCash,
	}); err != nil {
		t.Fatalf("RecordPayment error: %v", err)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got := counterValue(t, mfs, "ledger_operation_success", "record_payment"); got != 1 {
		t.Fatalf("success counter = %f, want 1", got)
	}
	if got := histogramCount(t, mfs, "ledger_tx_duration_seconds", "record_payment"); got != 1 {
		t.Fatalf("duration samples = %d, want 1", got)
	}
}

func counterValue(t *testing.T, mfs []*dto.MetricFamily, name, operation string) float64 {
	t.Helper()
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if metricHasOperation(metric, operation) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("metric %s{operation=%q} not found", name, operation)
	return 0
}

func histogramCount(t *testing.T, mfs []*dto.MetricFamily, name, operation string) uint64 {
	t.Helper()
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if metricHasOperation(metric, operation) {
				return metric.GetHistogram().GetSampleCount()
			}
		}
	}
	t.Fatalf("histogram %s{operation=%q} not found", name, operation)
	return 0
}

func metricHasOperation(metric *dto.Metric, operation string) bool {
	for _, label := range metric.GetLabel() {
		if label.GetName() == "operation" && label.GetValue() == operation {
			return true
		}
	}
	return false
}

func TestRecordPaymentValidatesInput(t *testing.T) {
	eventID := uuid.New()
	events := &fakeEventRepo{event: &models.Event{ID: eventID, Status: enums.EventStatusConfirmed}}
	svc := newPaymentService(t, &fakeRepository{}, events, &fakeOutbox{}, &fakeAudit{})

	_, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		Actor:   staffActor(),
		EventID: eventID,
		Amount:  money.Zero,
		Method:  enums.PaymentMethodCash,
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("zero amount must fail validation, got %v", err)
	}

	_, err = svc.RecordPayment(context.Background(), RecordPaymentInput{
		Actor:   staffActor(),
		EventID: eventID,
		Amount:  money.FromInt(100),
		Method:  enums.PaymentMethod("cheque"),
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unknown method must fail validation, got %v", err)
	}

	bogus := enums.PaymentType("refund")
	_, err = svc.RecordPayment(context.Background(), RecordPaymentInput{
		Actor:        staffActor(),
		EventID:      eventID,
		Amount:       money.FromInt(100),
		Method:       enums.PaymentMethodCash,
		ExplicitType: &bogus,
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unknown explicit type must fail validation, got %v", err)
	}
}

func TestUpdatePaymentTouchesCorrectionFieldsOnly(t *testing.T) {
	eventID := uuid.New()
	paymentID := uuid.New()
	events := &fakeEventRepo{event: &models.Event{ID: eventID, Status: enums.EventStatusConfirmed}}
	repo := &fakeRepository{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
			return &models.Payment{
				ID:      paymentID,
				EventID: eventID,
				Amount:  money.FromInt(500),
				Method:  enums.PaymentMethodCash,
				Type:    enums.PaymentTypeAdvance,
				Status:  enums.PaymentStatusCompleted,
			}, nil
		},
	}
	aud := &fakeAudit{}
	svc := newPaymentService(t, repo, events, &fakeOutbox{}, aud)

	method := enums.PaymentMethodCard
	notes := "settled at front desk"
	updated, err := svc.UpdatePayment(context.Background(), UpdatePaymentInput{
		Actor:     staffActor(),
		PaymentID: paymentID,
		Method:    &method,
		Notes:     &notes,
	})
	if err != nil {
		t.Fatalf("UpdatePayment error: %v", err)
	}
	if updated.Method != enums.PaymentMethodCard {
		t.Fatalf("method = %s, want card", updated.Method)
	}
	if _, ok := repo.updates["amount"]; ok {
		t.Fatal("amount is immutable on the correction path")
	}
	if _, ok := repo.updates["type"]; ok {
		t.Fatal("type is immutable on the correction path")
	}
	if len(aud.records) != 1 || aud.records[0].Action != enums.AuditActionPaymentUpdated {
		t.Fatalf("expected payment_updated audit entry")
	}
}

func TestDeletePaymentStaffOnly(t *testing.T) {
	eventID := uuid.New()
	paymentID := uuid.New()
	events := &fakeEventRepo{event: &models.Event{ID: eventID, Status: enums.EventStatusConfirmed}}
	repo := &fakeRepository{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
			return &models.Payment{ID: paymentID, EventID: eventID, Amount: money.FromInt(500)}, nil
		},
	}
	ob := &fakeOutbox{}
	svc := newPaymentService(t, repo, events, ob, &fakeAudit{})

	err := svc.DeletePayment(context.Background(), DeletePaymentInput{
		Actor:     ledger.Actor{UserID: uuid.New(), Role: enums.RoleClient},
		PaymentID: paymentID,
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN for client delete, got %v", err)
	}

	if err := svc.DeletePayment(context.Background(), DeletePaymentInput{
		Actor:     staffActor(),
		PaymentID: paymentID,
	}); err != nil {
		t.Fatalf("DeletePayment error: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != paymentID {
		t.Fatalf("expected payment row deleted")
	}
	if events.updates != nil {
		t.Fatal("deletion must not touch event status")
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventPaymentDeleted {
		t.Fatalf("expected payment_deleted emit")
	}
}

func TestListPaymentsClientNeedsEventScope(t *testing.T) {
	events := &fakeEventRepo{event: &models.Event{ID: uuid.New(), Status: enums.EventStatusConfirmed}}
	svc := newPaymentService(t, &fakeRepository{}, events, &fakeOutbox{}, &fakeAudit{})

	_, err := svc.ListPayments(context.Background(), ListPaymentsInput{
		Actor: ledger.Actor{UserID: uuid.New(), Role: enums.RoleClient},
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN for unscoped client listing, got %v", err)
	}
}

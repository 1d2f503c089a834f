package payments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rosewood-events/rosewood-backend/pkg/db/models"
	"github.com/rosewood-events/rosewood-backend/pkg/enums"
	"github.com/rosewood-events/rosewood-backend/pkg/money"
)

func setupPaymentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	payments := `
CREATE TABLE IF NOT EXISTS payments (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL,
  amount TEXT NOT NULL,
  method TEXT NOT NULL,
  type TEXT NOT NULL,
  reference_number TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'completed',
  notes TEXT,
  recorded_by TEXT NOT NULL,
  payment_date DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(payments).Error)
	return db
}

func newPayment(t *testing.T, db *gorm.DB, eventID uuid.UUID, amount string, reference string, paymentDate time.Time) *models.Payment {
	t.Helper()

	parsed, err := money.FromString(amount)
	require.NoError(t, err)

	payment := &models.Payment{
		ID:              uuid.New(),
		EventID:         eventID,
		Amount:          parsed,
		Method:          enums.PaymentMethodBankTransfer,
		Type:            enums.PaymentTypeAdvance,
		ReferenceNumber: reference,
		Status:          enums.PaymentStatusCompleted,
		RecordedBy:      uuid.New(),
		PaymentDate:     paymentDate,
		CreatedAt:       paymentDate,
		UpdatedAt:       paymentDate,
	}
	require.NoError(t, db.Create(payment).Error)
	return payment
}

func TestRepositoryListByEventOrdersByPaymentDate(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	eventID := uuid.New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	older := newPayment(t, db, eventID, "500.00", "PAY-OLD", base)
	newer := newPayment(t, db, eventID, "750.00", "PAY-NEW", base.AddDate(0, 0, 3))
	newPayment(t, db, uuid.New(), "100.00", "PAY-OTHER", base)

	rows, err := repo.ListByEvent(ctx, eventID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, newer.ID, rows[0].ID)
	assert.Equal(t, older.ID, rows[1].ID)
	assert.Equal(t, "750.00", rows[0].Amount.String())
}

func TestRepositoryUpdateTouchesOnlyGivenColumns(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	payment := newPayment(t, db, uuid.New(), "250.00", "PAY-EDIT", time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC))

	notes := "wire confirmed by bank"
	require.NoError(t, repo.Update(ctx, payment.ID, map[string]any{
		"method": enums.PaymentMethodCard,
		"notes":  notes,
	}))

	got, err := repo.Find(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentMethodCard, got.Method)
	require.NotNil(t, got.Notes)
	assert.Equal(t, notes, *got.Notes)
	assert.Equal(t, "250.00", got.Amount.String())
	assert.Equal(t, enums.PaymentTypeAdvance, got.Type)
}

func TestRepositoryDeleteRemovesRow(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	payment := newPayment(t, db, uuid.New(), "90.00", "PAY-GONE", time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC))

	require.NoError(t, repo.Delete(ctx, payment.ID))

	_, err := repo.Find(ctx, payment.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryCreateRejectsDuplicateReference(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	when := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	newPayment(t, db, uuid.New(), "10.00", "PAY-DUP", when)

	amount, err := money.FromString("20.00")
	require.NoError(t, err)
	err = repo.Create(ctx, &models.Payment{
		ID:              uuid.New(),
		EventID:         uuid.New(),
		Amount:          amount,
		Method:          enums.PaymentMethodCash,
		Type:            enums.PaymentTypeAdvance,
		ReferenceNumber: "PAY-DUP",
		Status:          enums.PaymentStatusCompleted,
		RecordedBy:      uuid.New(),
		PaymentDate:     when,
	})
	assert.Error(t, err)
}

package payments

import (
	"github.com/rosewood-events/rosewood-backend/pkg/enums"
	pkgerrors "github.com/rosewood-events/rosewood-backend/pkg/errors"
	"github.com/rosewood-events/rosewood-backend/pkg/money"
)

// Classify assigns a payment type from the event's balance state at the
// moment the payment is recorded. It must run with the balance read under
// the event row lock so a concurrent payment cannot shift the numbers
// between classification and insert.
func Classify(cost, paidBefore, amount money.Amount) (enums.PaymentType, error) {
	if cost.IsZero() {
		// Nothing booked yet. Any money taken up front is an advance.
		return enums.PaymentTypeAdvance, nil
	}

	remaining := cost.Sub(paidBefore)
	if paidBefore.Add(amount).GreaterThanOrEqual(cost) {
		return enums.PaymentTypeFinal, nil
	}
	// Redundant with the sum check above, kept so a remainder comparison
	// can never let a balance-closing payment fall through as partial.
	if remaining.IsPositive() && amount.GreaterThanOrEqual(remaining) {
		return enums.PaymentTypeFinal, nil
	}

	if paidBefore.IsZero() {
		return enums.PaymentTypeAdvance, nil
	}
	return enums.PaymentTypePartial, nil
}

// requireValidType guards against an explicit type outside the known set.
func requireValidType(t enums.PaymentType) error {
	if !t.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment type must be advance, partial or final")
	}
	return nil
}

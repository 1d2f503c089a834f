package ledger

import (
	"time"

	"github.com/rosewood-events/rosewood-backend/pkg/db/models"
	"github.com/rosewood-events/rosewood-backend/pkg/enums"
	"github.com/rosewood-events/rosewood-backend/pkg/money"
)

// Financials is the derived money view of an event. It is computed from
// service lines and completed payments on every read and never stored.
type Financials struct {
	TotalCost     money.Amount          `json:"total_cost"`
	TotalPaid     money.Amount          `json:"total_paid"`
	Balance       money.Amount          `json:"balance"`
	PaymentStatus enums.PaymentProgress `json:"payment_status"`
	DaysUntil     int                   `json:"days_until"`
}

// ComputeFinancials folds non-cancelled service lines and completed payments
// into the event's money summary. Cancelled lines and pending or failed
// payments contribute nothing.
func ComputeFinancials(services []models.EventService, payments []models.Payment) Financials {
	totalCost := money.Zero
	for _, line := range services {
		if !line.Status.CountsTowardCost() {
			continue
		}
		totalCost = totalCost.Add(line.Subtotal())
	}

	totalPaid := money.Zero
	for _, payment := range payments {
		if payment.Status != enums.PaymentStatusCompleted {
			continue
		}
		totalPaid = totalPaid.Add(payment.Amount)
	}

	return Financials{
		TotalCost:     totalCost,
		TotalPaid:     totalPaid,
		Balance:       totalCost.Sub(totalPaid),
		PaymentStatus: classifyProgress(totalCost, totalPaid),
	}
}

func classifyProgress(totalCost, totalPaid money.Amount) enums.PaymentProgress {
	switch {
	case totalPaid.IsZero():
		return enums.PaymentProgressUnpaid
	case totalPaid.GreaterThan(totalCost):
		return enums.PaymentProgressOverpaid
	case totalPaid.Equal(totalCost):
		return enums.PaymentProgressPaid
	default:
		return enums.PaymentProgressPartial
	}
}

// DaysUntilEvent counts whole calendar days from now to the event date.
// Past dates report zero rather than a negative countdown.
func DaysUntilEvent(eventDate, now time.Time) int {
	days := int(eventDate.Sub(now).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// FullyPaid reports whether every booked cost is covered.
func (f Financials) FullyPaid() bool {
	return f.TotalPaid.GreaterThanOrEqual(f.TotalCost)
}

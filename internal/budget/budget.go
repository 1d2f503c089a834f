// Package budget implements the advisory budget check. Exceeding a budget
// never blocks a booking; it only produces a warning and a domain event.
package budget

import (
	"github.com/rosewood-events/rosewood-backend/pkg/money"
)

// Check compares the projected total cost against an optional budget.
type Check struct {
	Overrun bool         `json:"overrun"`
	Budget  money.Amount `json:"budget"`
	Total   money.Amount `json:"total"`
	Excess  money.Amount `json:"excess"`
}

// Evaluate returns the advisory result for the projected total. A nil budget
// means the client never set one and nothing can overrun.
func Evaluate(budget *money.Amount, projectedTotal money.Amount) Check {
	if budget == nil {
		return Check{Total: projectedTotal}
	}
	check := Check{
		Budget: *budget,
		Total:  projectedTotal,
	}
	if projectedTotal.GreaterThan(*budget) {
		check.Overrun = true
		check.Excess = projectedTotal.Sub(*budget)
	}
	return check
}

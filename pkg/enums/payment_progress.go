package enums

// PaymentProgress is the derived settlement position of an event,
// computed from total cost and total paid. It is never stored.
type PaymentProgress string

const (
	PaymentProgressUnpaid   PaymentProgress = "unpaid"
	PaymentProgressPartial  PaymentProgress = "partial"
	PaymentProgressPaid     PaymentProgress = "paid"
	PaymentProgressOverpaid PaymentProgress = "overpaid"
)

// String implements fmt.Stringer.
func (p PaymentProgress) String() string {
	return string(p)
}
